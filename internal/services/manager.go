package services

import (
	"log/slog"
	"time"

	"github.com/SAP-F-2025/wellbeing-service/internal/cache"
	"github.com/SAP-F-2025/wellbeing-service/internal/events"
	"github.com/SAP-F-2025/wellbeing-service/internal/repositories"
	"github.com/SAP-F-2025/wellbeing-service/internal/validator"
)

// ServiceManager hands the handlers every service they need.
type ServiceManager interface {
	Catalog() CatalogService
	Session() SessionService
	Submission() SubmissionService
	University() UniversityService
	Export() ExportService
}

// Dependencies collects the collaborators of the service layer. Archive, Cache
// and Publisher are optional.
type Dependencies struct {
	Questions    repositories.QuestionSource
	Sink         repositories.SubmissionSink
	Universities repositories.UniversityDirectory
	Archive      repositories.SubmissionRepository
	Cache        cache.CacheService
	Publisher    events.EventPublisher

	CacheTTL      time.Duration
	SessionTTL    time.Duration
	SubmitProfile string

	Logger    *slog.Logger
	Validator *validator.Validator
}

type serviceManager struct {
	catalog    CatalogService
	session    SessionService
	submission SubmissionService
	university UniversityService
	export     ExportService
}

func NewServiceManager(deps Dependencies) ServiceManager {
	v := deps.Validator
	if v == nil {
		v = validator.New()
	}

	catalog := NewCatalogService(deps.Questions, deps.Cache, deps.CacheTTL, deps.Logger)
	eventService := NewSubmissionEventService(deps.Publisher, deps.Logger)
	submission := NewSubmissionService(deps.Sink, deps.Archive, eventService, deps.SubmitProfile, deps.Logger, v)
	session := NewSessionService(catalog, submission, deps.SessionTTL, deps.Logger, v)

	return &serviceManager{
		catalog:    catalog,
		session:    session,
		submission: submission,
		university: NewUniversityService(deps.Universities, deps.Cache, deps.CacheTTL, deps.Logger, v),
		export:     NewExportService(session, submission, deps.Logger),
	}
}

func (m *serviceManager) Catalog() CatalogService       { return m.catalog }
func (m *serviceManager) Session() SessionService       { return m.session }
func (m *serviceManager) Submission() SubmissionService { return m.submission }
func (m *serviceManager) University() UniversityService { return m.university }
func (m *serviceManager) Export() ExportService         { return m.export }
