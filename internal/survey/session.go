// Package survey holds the questionnaire state machine: catalog traversal,
// the answer ledger, scoring and the submission lifecycle.
//
// A Session is owned by a single writer. The only call that may run
// concurrently with others is Discard, which guards against a catalog load
// finishing after its session was thrown away.
package survey

import (
	"context"
	"fmt"
	"sync/atomic"
)

type Phase int

const (
	PhaseLoading Phase = iota
	PhaseAnswering
	PhaseSubmitting
	PhaseSubmitted
	PhaseFailed
	PhaseDiscarded
)

var phaseNames = map[Phase]string{
	PhaseLoading:    "loading",
	PhaseAnswering:  "answering",
	PhaseSubmitting: "submitting",
	PhaseSubmitted:  "submitted",
	PhaseFailed:     "failed",
	PhaseDiscarded:  "discarded",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return "unknown"
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(text []byte) error {
	for phase, name := range phaseNames {
		if name == string(text) {
			*p = phase
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", text)
}

type Position struct {
	CategoryKey   string `json:"category"`
	QuestionIndex int    `json:"question_index"`
}

// CatalogLoader fetches and groups the questions a session will ask.
type CatalogLoader interface {
	Load(ctx context.Context) (*Catalog, error)
}

type Session struct {
	catalog *Catalog
	ledger  *Ledger
	phase   Phase

	catIdx int
	qIdx   int

	result      *Result
	delivered   bool
	deliveryErr error

	discarded atomic.Bool
}

func NewSession() *Session {
	return &Session{
		ledger: NewLedger(),
		phase:  PhaseLoading,
	}
}

// Load fetches the catalog and positions the cursor on the first question.
// A failed load leaves the session in PhaseLoading so it can be retried. If the
// session is discarded, or ctx is done, before the loader returns, the result
// is dropped and the session is left untouched.
func (s *Session) Load(ctx context.Context, loader CatalogLoader) error {
	if s.discarded.Load() {
		return ErrSessionDiscarded
	}
	if s.phase != PhaseLoading {
		return &SessionClosedError{Op: "load", Phase: s.phase}
	}

	catalog, err := loader.Load(ctx)
	if s.discarded.Load() || ctx.Err() != nil {
		return ErrSessionDiscarded
	}
	if err != nil {
		if IsLoadError(err) {
			return err
		}
		return &LoadError{Op: "fetch", Err: err}
	}
	return s.Start(catalog)
}

// Start installs an already loaded catalog.
func (s *Session) Start(catalog *Catalog) error {
	if s.discarded.Load() {
		return ErrSessionDiscarded
	}
	if s.phase != PhaseLoading {
		return &SessionClosedError{Op: "load", Phase: s.phase}
	}
	if catalog == nil || catalog.Len() == 0 {
		return &LoadError{Op: "group", Err: ErrEmptyCatalog}
	}
	s.catalog = catalog
	s.catIdx, s.qIdx = 0, 0
	s.phase = PhaseAnswering
	return nil
}

// Discard marks the session as abandoned. It is safe to call from any goroutine.
func (s *Session) Discard() {
	s.discarded.Store(true)
}

func (s *Session) Phase() Phase {
	if s.discarded.Load() {
		return PhaseDiscarded
	}
	return s.phase
}

func (s *Session) Catalog() *Catalog { return s.catalog }

// Position returns the cursor, or false before the catalog is loaded.
func (s *Session) Position() (Position, bool) {
	if s.catalog == nil {
		return Position{}, false
	}
	return Position{CategoryKey: s.catalog.at(s.catIdx).Key, QuestionIndex: s.qIdx}, true
}

func (s *Session) Answer(categoryKey, questionID string) (Answer, bool) {
	return s.ledger.Get(Key{CategoryKey: categoryKey, QuestionID: questionID})
}

func (s *Session) IsAnswered(categoryKey, questionID string) bool {
	return s.ledger.IsAnswered(Key{CategoryKey: categoryKey, QuestionID: questionID})
}

// CountUnanswered is the number the caller shows before asking for confirmation.
func (s *Session) CountUnanswered() int {
	if s.catalog == nil {
		return 0
	}
	return s.ledger.CountUnanswered(s.catalog)
}

// Answers returns a copy of every recorded answer.
func (s *Session) Answers() map[Key]Answer {
	return s.ledger.Entries()
}

// SetAnswer records a slider value or a "not relevant" marker.
func (s *Session) SetAnswer(categoryKey, questionID string, answer Answer) error {
	if err := s.ensureAnswering("set answer"); err != nil {
		return err
	}
	key, err := s.key(categoryKey, questionID)
	if err != nil {
		return err
	}
	return s.ledger.Set(key, answer)
}

func (s *Session) MarkNotRelevant(categoryKey, questionID string) error {
	return s.SetAnswer(categoryKey, questionID, NotRelevant())
}

// DeleteAnswer vacates any entry, returning the question to unanswered.
func (s *Session) DeleteAnswer(categoryKey, questionID string) error {
	if err := s.ensureAnswering("delete answer"); err != nil {
		return err
	}
	key, err := s.key(categoryKey, questionID)
	if err != nil {
		return err
	}
	s.ledger.Delete(key)
	return nil
}

func (s *Session) key(categoryKey, questionID string) (Key, error) {
	if !s.catalog.Has(categoryKey, questionID) {
		return Key{}, &InvalidPositionError{
			CategoryKey: categoryKey,
			QuestionID:  questionID,
			Reason:      "question not in catalog",
		}
	}
	return Key{CategoryKey: categoryKey, QuestionID: questionID}, nil
}

func (s *Session) ensureAnswering(op string) error {
	if s.discarded.Load() {
		return &SessionClosedError{Op: op, Phase: PhaseDiscarded}
	}
	if s.phase == PhaseLoading {
		return ErrNotLoaded
	}
	if s.phase != PhaseAnswering {
		return &SessionClosedError{Op: op, Phase: s.phase}
	}
	return nil
}
