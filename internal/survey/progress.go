package survey

// CategoryProgress drives the category chooser: how far the respondent got in
// each category.
type CategoryProgress struct {
	Key      string `json:"key"`
	Title    string `json:"title"`
	Rank     int    `json:"rank"`
	Answered int    `json:"answered"`
	Total    int    `json:"total"`
}

func (p CategoryProgress) Complete() bool { return p.Answered == p.Total }

// Snapshot is a read-only view of a session.
type Snapshot struct {
	Phase           Phase              `json:"phase"`
	Position        *Position          `json:"position,omitempty"`
	Current         *Question          `json:"current_question,omitempty"`
	CurrentAnswer   *Answer            `json:"current_answer,omitempty"`
	IsFirstQuestion bool               `json:"is_first_question"`
	IsLastQuestion  bool               `json:"is_last_question"`
	Progress        []CategoryProgress `json:"progress,omitempty"`
	Total           int                `json:"total_questions"`
	Unanswered      int                `json:"unanswered"`
	Result          *Result            `json:"result,omitempty"`
	Delivered       bool               `json:"delivered"`
	DeliveryError   string             `json:"delivery_error,omitempty"`
}

func (s *Session) Progress() []CategoryProgress {
	if s.catalog == nil {
		return nil
	}
	out := make([]CategoryProgress, 0, s.catalog.Len())
	for i := range s.catalog.categories {
		cat := s.catalog.at(i)
		out = append(out, CategoryProgress{
			Key:      cat.Key,
			Title:    cat.Title,
			Rank:     cat.Rank,
			Answered: s.ledger.answeredIn(cat),
			Total:    len(cat.Questions),
		})
	}
	return out
}

func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		Phase:     s.Phase(),
		Delivered: s.delivered,
	}
	if s.deliveryErr != nil {
		snap.DeliveryError = s.deliveryErr.Error()
	}
	if res, ok := s.Result(); ok {
		snap.Result = &res
	}
	if s.catalog == nil {
		return snap
	}

	pos, _ := s.Position()
	q, _ := s.CurrentQuestion()
	snap.Position = &pos
	snap.Current = &q
	if a, ok := s.Answer(pos.CategoryKey, q.ID); ok {
		snap.CurrentAnswer = &a
	}
	snap.IsFirstQuestion = s.IsFirstQuestion()
	snap.IsLastQuestion = s.IsLastQuestion()
	snap.Progress = s.Progress()
	snap.Total = s.catalog.QuestionCount()
	snap.Unanswered = s.CountUnanswered()
	return snap
}
