package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/SAP-F-2025/wellbeing-service/internal/models"
	"github.com/SAP-F-2025/wellbeing-service/internal/survey"
	"github.com/SAP-F-2025/wellbeing-service/internal/utils"
	"github.com/SAP-F-2025/wellbeing-service/internal/validator"
	"github.com/google/uuid"
)

const defaultDeliveryTimeout = 30 * time.Second

// SessionService keeps the in-memory survey sessions of the respondents and
// drives them on behalf of the HTTP layer. Every call is serialised per
// session; results are delivered in the background once a session submits.
type SessionService interface {
	Create(ctx context.Context, req *CreateSessionRequest) (*SessionView, error)
	Get(ctx context.Context, id string) (*SessionView, error)
	Reload(ctx context.Context, id string) (*SessionView, error)
	UpdateProfile(ctx context.Context, id string, req *ProfileRequest) (*SessionView, error)

	// Navigation
	Select(ctx context.Context, id string, req *SelectRequest) (*SessionView, error)
	Advance(ctx context.Context, id string, req *AdvanceRequest) (*SessionView, error)
	Next(ctx context.Context, id string) (*SessionView, error)
	Skip(ctx context.Context, id string) (*SessionView, error)

	// Answers
	Answer(ctx context.Context, id string, req *AnswerRequest) (*SessionView, error)
	MarkNotRelevant(ctx context.Context, id string, ref *QuestionRef) (*SessionView, error)
	DeleteAnswer(ctx context.Context, id string, ref *QuestionRef) (*SessionView, error)

	// Submission
	Submit(ctx context.Context, id string, req *SubmitRequest) (*SessionView, error)
	Resume(ctx context.Context, id string) (*SessionView, error)
	Report(ctx context.Context, id string) (*SessionReport, error)

	Discard(ctx context.Context, id string) error

	// Housekeeping
	Sweep(now time.Time) int
	StartJanitor(ctx context.Context, interval time.Duration)
	Count() int
	Wait()
}

// ===== REQUESTS AND VIEWS =====

type ProfileRequest struct {
	Nickname   string `json:"nickname" validate:"max=100,no_markup"`
	Age        *int   `json:"age" validate:"required,gte=0,lte=150"`
	Gender     string `json:"gender" validate:"required,max=100,no_markup"`
	Country    string `json:"country" validate:"required,max=100,no_markup"`
	University string `json:"university" validate:"required,max=200,no_markup"`
	Faculty    string `json:"faculty" validate:"required,max=100,no_markup"`
	Major      string `json:"major" validate:"required,max=100,no_markup"`
}

func (r *ProfileRequest) normalize() {
	r.Nickname = strings.TrimSpace(r.Nickname)
	r.Gender = strings.TrimSpace(r.Gender)
	r.Country = strings.TrimSpace(r.Country)
	r.University = strings.TrimSpace(r.University)
	r.Faculty = strings.TrimSpace(r.Faculty)
	r.Major = strings.TrimSpace(r.Major)
}

func (r *ProfileRequest) toPersonalInfo() models.PersonalInfo {
	return models.PersonalInfo{
		Nickname:   utils.SanitizeString(r.Nickname, utils.DefaultMaxTextLength),
		Age:        utils.SanitizeAge(*r.Age),
		Gender:     utils.SanitizeString(r.Gender, utils.DefaultMaxTextLength),
		Country:    utils.SanitizeString(r.Country, utils.DefaultMaxTextLength),
		University: utils.SanitizeString(r.University, utils.UniversityMaxTextLength),
		Faculty:    utils.SanitizeString(r.Faculty, utils.DefaultMaxTextLength),
		Major:      utils.SanitizeString(r.Major, utils.DefaultMaxTextLength),
	}
}

type CreateSessionRequest struct {
	Profile *ProfileRequest `json:"profile"`
}

// SelectRequest jumps to a question. Without a question index it opens the
// first question of the category.
type SelectRequest struct {
	Category      string `json:"category" validate:"required"`
	QuestionIndex *int   `json:"question_index" validate:"omitempty,gte=0"`
}

type AdvanceRequest struct {
	Direction int `json:"direction" validate:"direction"`
}

// QuestionRef names a question. Leaving both fields empty means the question
// under the cursor.
type QuestionRef struct {
	Category   string `json:"category" validate:"required_with=QuestionID"`
	QuestionID string `json:"question_id" validate:"required_with=Category"`
}

type AnswerRequest struct {
	QuestionRef
	Value *float64 `json:"value" validate:"required,answer_value"`
}

type SubmitRequest struct {
	Confirmed bool `json:"confirmed"`
}

// SessionView is what every session operation returns.
type SessionView struct {
	ID string `json:"id"`
	survey.Snapshot
	PersonalInfo *models.PersonalInfo `json:"personal_info,omitempty"`
	SubmissionID string               `json:"submission_id,omitempty"`
}

// SessionReport is the frozen outcome of a submitted session, used for exports.
type SessionReport struct {
	ID           string
	PersonalInfo models.PersonalInfo
	Result       survey.Result
	Progress     []survey.CategoryProgress
	Rows         []AnswerRow
	Delivered    bool
	SubmissionID string
	GeneratedAt  time.Time
}

// AnswerRow is one question of a report. Answer is nil when unanswered.
type AnswerRow struct {
	Category   string
	QuestionID string
	Text       string
	Answer     *survey.Answer
}

// ===== IMPLEMENTATION =====

type sessionEntry struct {
	mu           sync.Mutex
	session      *survey.Session
	profile      *models.PersonalInfo
	submissionID string
	lastSeen     atomic.Int64
}

func (e *sessionEntry) touch(now time.Time) { e.lastSeen.Store(now.UnixNano()) }

type sessionService struct {
	catalog     CatalogService
	submissions SubmissionService
	logger      *slog.Logger
	validator   *validator.Validator
	log         *ServiceLogger

	ttl             time.Duration
	deliveryTimeout time.Duration

	mu       sync.RWMutex
	sessions map[string]*sessionEntry

	deliveries sync.WaitGroup
}

func NewSessionService(
	catalog CatalogService,
	submissions SubmissionService,
	ttl time.Duration,
	logger *slog.Logger,
	v *validator.Validator,
) SessionService {
	return &sessionService{
		catalog:         catalog,
		submissions:     submissions,
		logger:          logger,
		validator:       v,
		log:             NewServiceLogger(logger, LogConfig{Service: "wellbeing-service", Component: "session"}),
		ttl:             ttl,
		deliveryTimeout: defaultDeliveryTimeout,
		sessions:        make(map[string]*sessionEntry),
	}
}

func (s *sessionService) Create(ctx context.Context, req *CreateSessionRequest) (*SessionView, error) {
	op := s.log.WithOperation(ctx, "create_session")

	var profile *models.PersonalInfo
	if req != nil && req.Profile != nil {
		info, err := s.validateProfile(req.Profile)
		if err != nil {
			op.LogResult("", "session", err)
			return nil, err
		}
		profile = &info
	}

	id := uuid.NewString()
	entry := &sessionEntry{session: survey.NewSession(), profile: profile}
	entry.touch(time.Now())

	// registered before loading so a concurrent Discard can abandon the load
	s.mu.Lock()
	s.sessions[id] = entry
	s.mu.Unlock()

	entry.mu.Lock()
	defer entry.mu.Unlock()

	err := entry.session.Load(ctx, s.catalog)
	op.LogResult(id, "session", err)
	if err != nil {
		if errors.Is(err, survey.ErrSessionDiscarded) {
			s.remove(id, entry)
			return nil, err
		}
		// the session stays registered in the loading phase and can be reloaded
		return s.view(id, entry), err
	}
	return s.view(id, entry), nil
}

func (s *sessionService) Get(ctx context.Context, id string) (*SessionView, error) {
	return s.with(ctx, id, "get_session", func(*sessionEntry) error { return nil })
}

func (s *sessionService) Reload(ctx context.Context, id string) (*SessionView, error) {
	return s.with(ctx, id, "reload_session", func(e *sessionEntry) error {
		return e.session.Load(ctx, s.catalog)
	})
}

func (s *sessionService) UpdateProfile(ctx context.Context, id string, req *ProfileRequest) (*SessionView, error) {
	info, err := s.validateProfile(req)
	if err != nil {
		return nil, err
	}
	return s.with(ctx, id, "update_profile", func(e *sessionEntry) error {
		switch e.session.Phase() {
		case survey.PhaseLoading, survey.PhaseAnswering, survey.PhaseFailed:
		default:
			return &survey.SessionClosedError{Op: "update profile", Phase: e.session.Phase()}
		}
		e.profile = &info
		return nil
	})
}

func (s *sessionService) validateProfile(req *ProfileRequest) (models.PersonalInfo, error) {
	if req == nil {
		return models.PersonalInfo{}, fmt.Errorf("%w: profile is required", ErrBadRequest)
	}
	req.normalize()
	if err := s.validator.Validate(req); err != nil {
		return models.PersonalInfo{}, err
	}
	return req.toPersonalInfo(), nil
}

// ===== NAVIGATION =====

func (s *sessionService) Select(ctx context.Context, id string, req *SelectRequest) (*SessionView, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	return s.with(ctx, id, "select_question", func(e *sessionEntry) error {
		if req.QuestionIndex == nil {
			return e.session.SelectCategory(req.Category)
		}
		return e.session.SelectQuestion(req.Category, *req.QuestionIndex)
	})
}

func (s *sessionService) Advance(ctx context.Context, id string, req *AdvanceRequest) (*SessionView, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	return s.with(ctx, id, "advance", func(e *sessionEntry) error {
		return e.session.Advance(survey.Direction(req.Direction))
	})
}

func (s *sessionService) Next(ctx context.Context, id string) (*SessionView, error) {
	return s.with(ctx, id, "next", func(e *sessionEntry) error {
		return e.session.Next()
	})
}

func (s *sessionService) Skip(ctx context.Context, id string) (*SessionView, error) {
	return s.with(ctx, id, "skip", func(e *sessionEntry) error {
		return e.session.Skip()
	})
}

// ===== ANSWERS =====

func (s *sessionService) Answer(ctx context.Context, id string, req *AnswerRequest) (*SessionView, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	return s.with(ctx, id, "answer", func(e *sessionEntry) error {
		category, questionID, err := resolve(e.session, &req.QuestionRef)
		if err != nil {
			return err
		}
		return e.session.SetAnswer(category, questionID, survey.Numeric(*req.Value))
	})
}

func (s *sessionService) MarkNotRelevant(ctx context.Context, id string, ref *QuestionRef) (*SessionView, error) {
	if err := s.validateRef(ref); err != nil {
		return nil, err
	}
	return s.with(ctx, id, "mark_not_relevant", func(e *sessionEntry) error {
		category, questionID, err := resolve(e.session, ref)
		if err != nil {
			return err
		}
		return e.session.MarkNotRelevant(category, questionID)
	})
}

func (s *sessionService) DeleteAnswer(ctx context.Context, id string, ref *QuestionRef) (*SessionView, error) {
	if err := s.validateRef(ref); err != nil {
		return nil, err
	}
	return s.with(ctx, id, "delete_answer", func(e *sessionEntry) error {
		category, questionID, err := resolve(e.session, ref)
		if err != nil {
			return err
		}
		return e.session.DeleteAnswer(category, questionID)
	})
}

func (s *sessionService) validateRef(ref *QuestionRef) error {
	if ref == nil {
		return nil
	}
	return s.validator.Validate(ref)
}

// resolve falls back to the question under the cursor when ref is empty.
func resolve(session *survey.Session, ref *QuestionRef) (string, string, error) {
	if ref != nil && ref.Category != "" {
		return ref.Category, ref.QuestionID, nil
	}
	pos, ok := session.Position()
	if !ok {
		return "", "", survey.ErrNotLoaded
	}
	q, _ := session.CurrentQuestion()
	return pos.CategoryKey, q.ID, nil
}

// ===== SUBMISSION =====

func (s *sessionService) Submit(ctx context.Context, id string, req *SubmitRequest) (*SessionView, error) {
	confirmed := req != nil && req.Confirmed
	return s.with(ctx, id, "submit", func(e *sessionEntry) error {
		result, err := e.session.Submit(confirmed)
		if err != nil {
			return err
		}

		delivery := &Delivery{
			SessionID:  id,
			Catalog:    e.session.Catalog(),
			Answers:    e.session.Answers(),
			Result:     result,
			Unanswered: e.session.CountUnanswered(),
		}
		if e.profile != nil {
			delivery.PersonalInfo = *e.profile
		}
		e.submissionID = ""
		s.dispatch(id, e, delivery)
		return nil
	})
}

// dispatch delivers the result in the background and reports the outcome back
// to the session.
func (s *sessionService) dispatch(id string, e *sessionEntry, delivery *Delivery) {
	s.deliveries.Add(1)
	go func() {
		defer s.deliveries.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.deliveryTimeout)
		defer cancel()

		outcome, err := s.submissions.Deliver(ctx, delivery)

		e.mu.Lock()
		defer e.mu.Unlock()

		if outcome != nil {
			e.submissionID = outcome.SubmissionID
		}
		if e.session.Phase() != survey.PhaseSubmitted {
			s.logger.Info("Session left the submitted phase before delivery finished",
				"session_id", id,
				"phase", e.session.Phase().String())
			return
		}
		if err != nil {
			s.logger.Warn("Delivery failed", "session_id", id, "error", err)
			_ = e.session.FailDelivery(err)
			return
		}
		_ = e.session.MarkDelivered()
	}()
}

func (s *sessionService) Resume(ctx context.Context, id string) (*SessionView, error) {
	return s.with(ctx, id, "resume", func(e *sessionEntry) error {
		return e.session.Resume()
	})
}

func (s *sessionService) Report(ctx context.Context, id string) (*SessionReport, error) {
	e, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.touch(time.Now())

	result, ok := e.session.Result()
	if !ok {
		return nil, ErrNoResult
	}

	report := &SessionReport{
		ID:           id,
		Result:       result,
		Progress:     e.session.Progress(),
		Delivered:    e.session.Delivered(),
		SubmissionID: e.submissionID,
		GeneratedAt:  time.Now(),
	}
	if e.profile != nil {
		report.PersonalInfo = *e.profile
	}
	for _, cat := range e.session.Catalog().Categories() {
		for _, q := range cat.Questions {
			row := AnswerRow{Category: cat.Key, QuestionID: q.ID, Text: q.Text}
			if a, ok := e.session.Answer(cat.Key, q.ID); ok {
				row.Answer = &a
			}
			report.Rows = append(report.Rows, row)
		}
	}
	return report, nil
}

// Discard drops the session. A load still in flight is abandoned.
func (s *sessionService) Discard(ctx context.Context, id string) error {
	s.mu.Lock()
	e, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	e.session.Discard()
	s.logger.Info("Session discarded", "session_id", id)
	return nil
}

// ===== HOUSEKEEPING =====

// Sweep discards sessions idle for longer than the TTL and returns how many
// were dropped.
func (s *sessionService) Sweep(now time.Time) int {
	if s.ttl <= 0 {
		return 0
	}
	cutoff := now.Add(-s.ttl).UnixNano()

	s.mu.Lock()
	var expired []*sessionEntry
	for id, e := range s.sessions {
		if e.lastSeen.Load() < cutoff {
			expired = append(expired, e)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, e := range expired {
		e.session.Discard()
	}
	if len(expired) > 0 {
		s.logger.Info("Expired idle sessions", "count", len(expired))
	}
	return len(expired)
}

func (s *sessionService) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 || s.ttl <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				s.Sweep(now)
			}
		}
	}()
}

func (s *sessionService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Wait blocks until every background delivery has finished.
func (s *sessionService) Wait() {
	s.deliveries.Wait()
}

// ===== HELPERS =====

func (s *sessionService) lookup(id string) (*sessionEntry, error) {
	s.mu.RLock()
	e, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return e, nil
}

func (s *sessionService) remove(id string, entry *sessionEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessions[id] == entry {
		delete(s.sessions, id)
	}
}

func (s *sessionService) with(ctx context.Context, id, operation string, fn func(e *sessionEntry) error) (*SessionView, error) {
	op := s.log.WithOperation(ctx, operation)

	e, err := s.lookup(id)
	if err != nil {
		op.LogResult(id, "session", err)
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.touch(time.Now())

	if err := fn(e); err != nil {
		op.LogResult(id, "session", err)
		return nil, err
	}
	op.LogResult(id, "session", nil)
	return s.view(id, e), nil
}

// view must be called with e.mu held.
func (s *sessionService) view(id string, e *sessionEntry) *SessionView {
	v := &SessionView{
		ID:           id,
		Snapshot:     e.session.Snapshot(),
		SubmissionID: e.submissionID,
	}
	if e.profile != nil {
		p := *e.profile
		v.PersonalInfo = &p
	}
	return v
}
