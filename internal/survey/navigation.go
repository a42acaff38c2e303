package survey

import "fmt"

type Direction int

const (
	Backward Direction = -1
	Forward  Direction = 1
)

// SelectQuestion jumps to an absolute position.
func (s *Session) SelectQuestion(categoryKey string, questionIndex int) error {
	if err := s.ensureAnswering("select question"); err != nil {
		return err
	}
	ci, ok := s.catalog.indexOf(categoryKey)
	if !ok {
		return &InvalidPositionError{CategoryKey: categoryKey, QuestionIndex: questionIndex, Reason: "unknown category"}
	}
	if n := len(s.catalog.at(ci).Questions); questionIndex < 0 || questionIndex >= n {
		return &InvalidPositionError{
			CategoryKey:   categoryKey,
			QuestionIndex: questionIndex,
			Reason:        fmt.Sprintf("index outside [0,%d)", n),
		}
	}
	s.catIdx, s.qIdx = ci, questionIndex
	return nil
}

// SelectCategory jumps to the first question of a category.
func (s *Session) SelectCategory(categoryKey string) error {
	return s.SelectQuestion(categoryKey, 0)
}

// Advance moves one question forward or backward, spilling into the
// neighbouring category at the edges. At either end of the survey it does
// nothing.
func (s *Session) Advance(d Direction) error {
	if err := s.ensureAnswering("advance"); err != nil {
		return err
	}
	switch d {
	case Forward:
		switch {
		case s.qIdx+1 < len(s.catalog.at(s.catIdx).Questions):
			s.qIdx++
		case s.catIdx+1 < s.catalog.Len():
			s.catIdx, s.qIdx = s.catIdx+1, 0
		}
	case Backward:
		switch {
		case s.qIdx > 0:
			s.qIdx--
		case s.catIdx > 0:
			s.catIdx--
			s.qIdx = len(s.catalog.at(s.catIdx).Questions) - 1
		}
	default:
		pos, _ := s.Position()
		return &InvalidPositionError{
			CategoryKey:   pos.CategoryKey,
			QuestionIndex: pos.QuestionIndex,
			Reason:        fmt.Sprintf("direction %d is not -1 or +1", d),
		}
	}
	return nil
}

// Skip moves forward without touching the ledger.
func (s *Session) Skip() error {
	return s.Advance(Forward)
}

// Next keeps the slider value the respondent is looking at: an untouched
// question is recorded with DefaultAnswerValue before moving forward.
func (s *Session) Next() error {
	if err := s.ensureAnswering("next"); err != nil {
		return err
	}
	cat := s.catalog.at(s.catIdx)
	key := Key{CategoryKey: cat.Key, QuestionID: cat.Questions[s.qIdx].ID}
	if !s.ledger.IsAnswered(key) {
		if err := s.ledger.Set(key, Numeric(DefaultAnswerValue)); err != nil {
			return err
		}
	}
	return s.Advance(Forward)
}

// CurrentQuestion returns the question under the cursor.
func (s *Session) CurrentQuestion() (Question, bool) {
	if s.catalog == nil {
		return Question{}, false
	}
	return s.catalog.at(s.catIdx).Questions[s.qIdx], true
}

func (s *Session) IsFirstQuestion() bool {
	return s.catalog != nil && s.catIdx == 0 && s.qIdx == 0
}

// IsLastQuestion reports whether the cursor is on the final question of the
// final category, where the form offers submission instead of Next.
func (s *Session) IsLastQuestion() bool {
	if s.catalog == nil {
		return false
	}
	last := s.catalog.Len() - 1
	return s.catIdx == last && s.qIdx == len(s.catalog.at(last).Questions)-1
}
