package survey

import (
	"encoding/json"
	"fmt"
	"math"
)

// Slider bounds and the value the form pre-selects for an untouched question.
const (
	MinAnswerValue     = 0.0
	MaxAnswerValue     = 10.0
	DefaultAnswerValue = 5.0
)

type AnswerKind int

const (
	answerInvalid AnswerKind = iota
	AnswerNumeric
	AnswerNotRelevant
)

func (k AnswerKind) String() string {
	switch k {
	case AnswerNumeric:
		return "numeric"
	case AnswerNotRelevant:
		return "not_relevant"
	default:
		return "invalid"
	}
}

// Answer is a recorded ledger entry: either a slider value or an explicit
// "not relevant" marker. An unanswered question simply has no entry, so the
// zero Answer is never valid.
type Answer struct {
	kind  AnswerKind
	value float64
}

func Numeric(v float64) Answer {
	return Answer{kind: AnswerNumeric, value: v}
}

func NotRelevant() Answer {
	return Answer{kind: AnswerNotRelevant}
}

func (a Answer) Kind() AnswerKind { return a.kind }

func (a Answer) IsNotRelevant() bool { return a.kind == AnswerNotRelevant }

// Value returns the slider value and true for numeric answers.
func (a Answer) Value() (float64, bool) {
	if a.kind != AnswerNumeric {
		return 0, false
	}
	return a.value, true
}

// Score is the contribution of the answer to its category sum.
func (a Answer) Score() float64 {
	if a.kind == AnswerNumeric {
		return a.value
	}
	return 0
}

func (a Answer) validate() error {
	switch a.kind {
	case AnswerNotRelevant:
		return nil
	case AnswerNumeric:
		if math.IsNaN(a.value) || math.IsInf(a.value, 0) {
			return &InvalidAnswerError{Value: a.value, Reason: "value is not a finite number"}
		}
		if a.value < MinAnswerValue || a.value > MaxAnswerValue {
			return &InvalidAnswerError{Value: a.value, Reason: "value must be between 0 and 10"}
		}
		return nil
	default:
		return &InvalidAnswerError{Reason: "answer has no value"}
	}
}

// MarshalJSON writes numeric answers as numbers and "not relevant" as an
// empty string, which is what the submission backend stores.
func (a Answer) MarshalJSON() ([]byte, error) {
	if a.kind == AnswerNumeric {
		return json.Marshal(a.value)
	}
	return json.Marshal("")
}

func (a *Answer) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case float64:
		*a = Numeric(t)
	case string, nil:
		if s, _ := t.(string); s != "" {
			return &InvalidAnswerError{Reason: fmt.Sprintf("unexpected answer %q", s)}
		}
		*a = NotRelevant()
	default:
		return &InvalidAnswerError{Reason: "answer must be a number or an empty string"}
	}
	return a.validate()
}
