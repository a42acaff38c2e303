package survey

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type loaderFunc func(ctx context.Context) (*Catalog, error)

func (f loaderFunc) Load(ctx context.Context) (*Catalog, error) { return f(ctx) }

func startedSession(t *testing.T) *Session {
	t.Helper()
	s := NewSession()
	require.NoError(t, s.Start(twoCategoryCatalog(t)))
	return s
}

func assertPosition(t *testing.T, s *Session, category string, index int) {
	t.Helper()
	pos, ok := s.Position()
	require.True(t, ok)
	assert.Equal(t, Position{CategoryKey: category, QuestionIndex: index}, pos)
}

func TestSession_Load(t *testing.T) {
	t.Run("success positions on first question", func(t *testing.T) {
		s := NewSession()
		catalog := twoCategoryCatalog(t)

		err := s.Load(context.Background(), loaderFunc(func(context.Context) (*Catalog, error) {
			return catalog, nil
		}))

		require.NoError(t, err)
		assert.Equal(t, PhaseAnswering, s.Phase())
		assertPosition(t, s, "A", 0)
		assert.Equal(t, 3, s.CountUnanswered())
	})

	t.Run("failure keeps loading and allows retry", func(t *testing.T) {
		s := NewSession()
		calls := 0
		loader := loaderFunc(func(context.Context) (*Catalog, error) {
			calls++
			if calls == 1 {
				return nil, errors.New("connection refused")
			}
			return twoCategoryCatalog(t), nil
		})

		err := s.Load(context.Background(), loader)
		assert.True(t, IsLoadError(err))
		assert.Equal(t, PhaseLoading, s.Phase())
		assert.ErrorIs(t, s.SetAnswer("A", "q1", Numeric(3)), ErrNotLoaded)

		require.NoError(t, s.Load(context.Background(), loader))
		assert.Equal(t, PhaseAnswering, s.Phase())
	})

	t.Run("empty catalog is a load error", func(t *testing.T) {
		s := NewSession()

		err := s.Load(context.Background(), loaderFunc(func(context.Context) (*Catalog, error) {
			return nil, nil
		}))

		assert.True(t, IsLoadError(err))
		assert.ErrorIs(t, err, ErrEmptyCatalog)
		assert.Equal(t, PhaseLoading, s.Phase())
	})

	t.Run("discard during load drops the result", func(t *testing.T) {
		s := NewSession()
		release := make(chan struct{})
		done := make(chan error, 1)

		go func() {
			done <- s.Load(context.Background(), loaderFunc(func(context.Context) (*Catalog, error) {
				<-release
				return twoCategoryCatalog(t), nil
			}))
		}()

		s.Discard()
		close(release)

		assert.ErrorIs(t, <-done, ErrSessionDiscarded)
		assert.Equal(t, PhaseDiscarded, s.Phase())
		assert.Nil(t, s.Catalog())
		_, ok := s.Position()
		assert.False(t, ok)
	})

	t.Run("cancelled context drops the result", func(t *testing.T) {
		s := NewSession()
		ctx, cancel := context.WithCancel(context.Background())

		err := s.Load(ctx, loaderFunc(func(context.Context) (*Catalog, error) {
			cancel()
			return twoCategoryCatalog(t), nil
		}))

		assert.ErrorIs(t, err, ErrSessionDiscarded)
		assert.Nil(t, s.Catalog())
	})

	t.Run("second load is rejected", func(t *testing.T) {
		s := startedSession(t)
		err := s.Start(twoCategoryCatalog(t))
		assert.True(t, IsSessionClosed(err))
	})
}

func TestSession_Navigation(t *testing.T) {
	t.Run("advance crosses category boundaries", func(t *testing.T) {
		s := startedSession(t)

		require.NoError(t, s.Advance(Forward))
		assertPosition(t, s, "A", 1)
		require.NoError(t, s.Advance(Forward))
		assertPosition(t, s, "B", 0)
		assert.True(t, s.IsLastQuestion())

		require.NoError(t, s.Advance(Backward))
		assertPosition(t, s, "A", 1)
	})

	t.Run("advance at the ends is a no-op", func(t *testing.T) {
		s := startedSession(t)

		require.NoError(t, s.Advance(Backward))
		assertPosition(t, s, "A", 0)
		assert.True(t, s.IsFirstQuestion())

		require.NoError(t, s.SelectCategory("B"))
		require.NoError(t, s.Advance(Forward))
		assertPosition(t, s, "B", 0)
	})

	t.Run("backward lands on the last question of the previous category", func(t *testing.T) {
		s := startedSession(t)
		require.NoError(t, s.SelectCategory("B"))

		require.NoError(t, s.Advance(Backward))
		assertPosition(t, s, "A", 1)
	})

	t.Run("invalid direction", func(t *testing.T) {
		s := startedSession(t)
		err := s.Advance(Direction(2))
		assert.True(t, IsContractViolation(err))
		assertPosition(t, s, "A", 0)
	})

	t.Run("select rejects unknown targets", func(t *testing.T) {
		s := startedSession(t)

		assert.True(t, IsContractViolation(s.SelectCategory("Z")))
		assert.True(t, IsContractViolation(s.SelectQuestion("A", 2)))
		assert.True(t, IsContractViolation(s.SelectQuestion("A", -1)))
		assertPosition(t, s, "A", 0)

		require.NoError(t, s.SelectQuestion("A", 1))
		assertPosition(t, s, "A", 1)
	})

	t.Run("current question follows the cursor", func(t *testing.T) {
		s := startedSession(t)
		require.NoError(t, s.SelectQuestion("A", 1))

		q, ok := s.CurrentQuestion()
		require.True(t, ok)
		assert.Equal(t, "q2", q.ID)
	})
}

func TestSession_Answers(t *testing.T) {
	t.Run("set and overwrite", func(t *testing.T) {
		s := startedSession(t)

		require.NoError(t, s.SetAnswer("A", "q1", Numeric(3)))
		require.NoError(t, s.SetAnswer("A", "q1", Numeric(7.5)))

		a, ok := s.Answer("A", "q1")
		require.True(t, ok)
		v, _ := a.Value()
		assert.Equal(t, 7.5, v)
		assert.Equal(t, 2, s.CountUnanswered())
	})

	t.Run("out of range values are rejected", func(t *testing.T) {
		s := startedSession(t)

		for _, v := range []float64{-0.1, 10.01, math.NaN(), math.Inf(1)} {
			err := s.SetAnswer("A", "q1", Numeric(v))
			assert.True(t, IsContractViolation(err), "value %v", v)
		}
		assert.False(t, s.IsAnswered("A", "q1"))

		assert.NoError(t, s.SetAnswer("A", "q1", Numeric(0)))
		assert.NoError(t, s.SetAnswer("A", "q1", Numeric(10)))
	})

	t.Run("zero answer is rejected", func(t *testing.T) {
		s := startedSession(t)
		assert.True(t, IsContractViolation(s.SetAnswer("A", "q1", Answer{})))
	})

	t.Run("unknown question is rejected", func(t *testing.T) {
		s := startedSession(t)
		assert.True(t, IsContractViolation(s.SetAnswer("A", "q3", Numeric(1))))
		assert.True(t, IsContractViolation(s.SetAnswer("Z", "q1", Numeric(1))))
	})

	t.Run("not relevant counts as answered", func(t *testing.T) {
		s := startedSession(t)

		require.NoError(t, s.MarkNotRelevant("B", "q3"))

		assert.True(t, s.IsAnswered("B", "q3"))
		assert.Equal(t, 2, s.CountUnanswered())
		a, _ := s.Answer("B", "q3")
		assert.True(t, a.IsNotRelevant())
	})

	t.Run("delete returns the question to unanswered", func(t *testing.T) {
		s := startedSession(t)
		require.NoError(t, s.SetAnswer("A", "q2", Numeric(4)))

		require.NoError(t, s.DeleteAnswer("A", "q2"))

		assert.False(t, s.IsAnswered("A", "q2"))
		assert.Equal(t, 3, s.CountUnanswered())
	})

	t.Run("skip leaves the ledger untouched", func(t *testing.T) {
		s := startedSession(t)

		require.NoError(t, s.Skip())

		assert.False(t, s.IsAnswered("A", "q1"))
		assertPosition(t, s, "A", 1)
	})

	t.Run("next records the default for untouched questions", func(t *testing.T) {
		s := startedSession(t)
		require.NoError(t, s.SetAnswer("A", "q2", Numeric(9)))

		require.NoError(t, s.Next())
		require.NoError(t, s.Next())

		a1, _ := s.Answer("A", "q1")
		v1, _ := a1.Value()
		assert.Equal(t, DefaultAnswerValue, v1)
		a2, _ := s.Answer("A", "q2")
		v2, _ := a2.Value()
		assert.Equal(t, 9.0, v2)
		assertPosition(t, s, "B", 0)
	})

	t.Run("progress per category", func(t *testing.T) {
		s := startedSession(t)
		require.NoError(t, s.SetAnswer("A", "q1", Numeric(1)))

		progress := s.Progress()
		require.Len(t, progress, 2)
		assert.Equal(t, CategoryProgress{Key: "A", Title: "A", Rank: 1, Answered: 1, Total: 2}, progress[0])
		assert.False(t, progress[0].Complete())
		assert.Equal(t, 0, progress[1].Answered)
	})
}

func TestSession_Submit(t *testing.T) {
	t.Run("scores the example scenario", func(t *testing.T) {
		s := startedSession(t)
		require.NoError(t, s.SetAnswer("A", "q1", Numeric(8)))
		require.NoError(t, s.SetAnswer("A", "q2", Numeric(4)))
		require.NoError(t, s.SetAnswer("B", "q3", Numeric(6)))

		res, err := s.Submit(false)
		require.NoError(t, err)

		assert.Equal(t, []CategoryScore{
			{Category: "A", Sum: 12, Average: 6},
			{Category: "B", Sum: 6, Average: 6},
		}, res.Categories)
		assert.Equal(t, 18.0, res.Overall)
		assert.Equal(t, 6.0, res.NormalizedOverall())
		assert.Equal(t, PhaseSubmitted, s.Phase())
	})

	t.Run("unanswered questions require confirmation", func(t *testing.T) {
		s := startedSession(t)
		require.NoError(t, s.SetAnswer("A", "q1", Numeric(8)))

		_, err := s.Submit(false)
		var confirm *ConfirmationRequiredError
		require.ErrorAs(t, err, &confirm)
		assert.Equal(t, 2, confirm.Unanswered)
		assert.Equal(t, PhaseAnswering, s.Phase())

		res, err := s.Submit(true)
		require.NoError(t, err)
		a, _ := res.Score("A")
		assert.Equal(t, CategoryScore{Category: "A", Sum: 8, Average: 4}, a)
		b, _ := res.Score("B")
		assert.Equal(t, CategoryScore{Category: "B", Sum: 0, Average: 0}, b)
	})

	t.Run("not relevant scores zero but keeps the denominator", func(t *testing.T) {
		s := startedSession(t)
		require.NoError(t, s.SetAnswer("A", "q1", Numeric(10)))
		require.NoError(t, s.MarkNotRelevant("A", "q2"))
		require.NoError(t, s.SetAnswer("B", "q3", Numeric(2)))

		res, err := s.Submit(false)
		require.NoError(t, err)
		a, _ := res.Score("A")
		assert.Equal(t, 5.0, a.Average)
	})

	t.Run("submitted session rejects mutations", func(t *testing.T) {
		s := startedSession(t)
		_, err := s.Submit(true)
		require.NoError(t, err)

		assert.True(t, IsSessionClosed(s.SetAnswer("A", "q1", Numeric(1))))
		assert.True(t, IsSessionClosed(s.DeleteAnswer("A", "q1")))
		assert.True(t, IsSessionClosed(s.Advance(Forward)))
		assert.True(t, IsSessionClosed(s.SelectCategory("B")))
		_, err = s.Submit(true)
		assert.True(t, IsSessionClosed(err))
	})

	t.Run("delivery failure keeps answers and allows retry", func(t *testing.T) {
		s := startedSession(t)
		require.NoError(t, s.SetAnswer("A", "q1", Numeric(8)))
		first, err := s.Submit(true)
		require.NoError(t, err)

		require.NoError(t, s.FailDelivery(errors.New("503")))
		assert.Equal(t, PhaseFailed, s.Phase())
		var subErr *SubmissionError
		assert.ErrorAs(t, s.DeliveryError(), &subErr)
		kept, ok := s.Result()
		require.True(t, ok)
		assert.Equal(t, first, kept)
		assert.True(t, s.IsAnswered("A", "q1"))

		again, err := s.Submit(true)
		require.NoError(t, err)
		assert.Equal(t, first, again)
		require.NoError(t, s.MarkDelivered())
		assert.True(t, s.Delivered())
	})

	t.Run("resume reopens a failed session", func(t *testing.T) {
		s := startedSession(t)
		_, err := s.Submit(true)
		require.NoError(t, err)
		assert.True(t, IsSessionClosed(s.Resume()))

		require.NoError(t, s.FailDelivery(&SubmissionError{StatusCode: 500, Err: errors.New("boom")}))
		require.NoError(t, s.Resume())

		assert.Equal(t, PhaseAnswering, s.Phase())
		assert.NoError(t, s.SetAnswer("A", "q1", Numeric(2)))
	})

	t.Run("wrapped submission error is kept as is", func(t *testing.T) {
		s := startedSession(t)
		_, err := s.Submit(true)
		require.NoError(t, err)

		cause := &SubmissionError{StatusCode: 502, Err: errors.New("bad gateway")}
		wrapped := fmt.Errorf("deliver: %w", cause)
		require.NoError(t, s.FailDelivery(wrapped))

		assert.Same(t, wrapped, s.DeliveryError())
		var subErr *SubmissionError
		require.ErrorAs(t, s.DeliveryError(), &subErr)
		assert.Same(t, cause, subErr)
	})

	t.Run("submit before load", func(t *testing.T) {
		_, err := NewSession().Submit(true)
		assert.ErrorIs(t, err, ErrNotLoaded)
	})

	t.Run("discarded session rejects everything", func(t *testing.T) {
		s := startedSession(t)
		s.Discard()

		assert.True(t, IsSessionClosed(s.SetAnswer("A", "q1", Numeric(1))))
		_, err := s.Submit(true)
		assert.True(t, IsSessionClosed(err))
	})
}

func TestSession_Snapshot(t *testing.T) {
	s := startedSession(t)
	require.NoError(t, s.SetAnswer("A", "q1", Numeric(3)))

	snap := s.Snapshot()

	assert.Equal(t, PhaseAnswering, snap.Phase)
	require.NotNil(t, snap.Current)
	assert.Equal(t, "q1", snap.Current.ID)
	require.NotNil(t, snap.CurrentAnswer)
	assert.Equal(t, 3, snap.Total)
	assert.Equal(t, 2, snap.Unanswered)
	assert.True(t, snap.IsFirstQuestion)
	assert.False(t, snap.IsLastQuestion)
	assert.Nil(t, snap.Result)
	require.Len(t, snap.Progress, 2)
	assert.False(t, snap.Progress[0].Complete())
}
