package survey

import "errors"

// Submit scores the ledger and closes the session for edits. When questions
// are still unanswered and confirmed is false it returns a
// *ConfirmationRequiredError and changes nothing. A session in PhaseFailed may
// be submitted again directly.
//
// Reaching PhaseSubmitted does not depend on the submission sink; delivering
// the result is the caller's job, reported back through MarkDelivered or
// FailDelivery.
func (s *Session) Submit(confirmed bool) (Result, error) {
	if s.discarded.Load() {
		return Result{}, &SessionClosedError{Op: "submit", Phase: PhaseDiscarded}
	}
	switch s.phase {
	case PhaseLoading:
		return Result{}, ErrNotLoaded
	case PhaseAnswering, PhaseFailed:
	default:
		return Result{}, &SessionClosedError{Op: "submit", Phase: s.phase}
	}

	if n := s.CountUnanswered(); n > 0 && !confirmed {
		return Result{}, &ConfirmationRequiredError{Unanswered: n}
	}

	s.phase = PhaseSubmitting
	res := ComputeResult(s.catalog, s.ledger)
	s.result = &res
	s.delivered = false
	s.deliveryErr = nil
	s.phase = PhaseSubmitted
	return res.clone(), nil
}

// Result returns the score computed by the last successful Submit.
func (s *Session) Result() (Result, bool) {
	if s.result == nil {
		return Result{}, false
	}
	return s.result.clone(), true
}

// MarkDelivered records that the sink accepted the submitted result.
func (s *Session) MarkDelivered() error {
	if s.phase != PhaseSubmitted {
		return &SessionClosedError{Op: "mark delivered", Phase: s.Phase()}
	}
	s.delivered = true
	return nil
}

// FailDelivery moves a submitted session to PhaseFailed. Answers and the
// computed result are kept so the caller can retry without data loss.
func (s *Session) FailDelivery(err error) error {
	if s.phase != PhaseSubmitted {
		return &SessionClosedError{Op: "fail delivery", Phase: s.Phase()}
	}
	var subErr *SubmissionError
	if !errors.As(err, &subErr) {
		err = &SubmissionError{Err: err}
	}
	s.deliveryErr = err
	s.delivered = false
	s.phase = PhaseFailed
	return nil
}

// Resume reopens a failed session for editing.
func (s *Session) Resume() error {
	if s.discarded.Load() {
		return &SessionClosedError{Op: "resume", Phase: PhaseDiscarded}
	}
	if s.phase != PhaseFailed {
		return &SessionClosedError{Op: "resume", Phase: s.phase}
	}
	s.phase = PhaseAnswering
	return nil
}

func (s *Session) Delivered() bool { return s.delivered }

func (s *Session) DeliveryError() error { return s.deliveryErr }
