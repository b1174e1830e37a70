package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	clanmetrics "clanhub/internal/clan/metrics"
	"clanhub/internal/clan/models"
	id "clanhub/pkg/domain"
	dErrors "clanhub/pkg/domain-errors"
	"clanhub/pkg/platform/sentinel"
	"clanhub/pkg/requestcontext"
)

const (
	msgNotFound    = "Clan not found."
	publishTimeout = 3 * time.Second
	tracerName     = "clanhub/internal/clan/service"
)

// Store persists clans. Implementations return sentinel.ErrNotFound for
// missing records and wrap every other failure with sentinel.ErrUnavailable.
type Store interface {
	Create(ctx context.Context, clan *models.Clan) error
	List(ctx context.Context, q models.ListQuery) ([]*models.Clan, error)
	FindByID(ctx context.Context, clanID id.ClanID) (*models.Clan, error)
	Delete(ctx context.Context, clanID id.ClanID) error
}

// EventPublisher receives lifecycle events after a successful write.
type EventPublisher interface {
	Publish(ctx context.Context, event models.LifecycleEvent) error
}

// Service implements the clan repository operations.
type Service struct {
	store     Store
	logger    *slog.Logger
	publisher EventPublisher
	metrics   *clanmetrics.Metrics
	tracer    trace.Tracer
	newID     func() id.ClanID
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithEventPublisher(publisher EventPublisher) Option {
	return func(s *Service) {
		s.publisher = publisher
	}
}

func WithMetrics(m *clanmetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// WithIDGenerator replaces uuid generation; tests use it to force collisions.
func WithIDGenerator(gen func() id.ClanID) Option {
	return func(s *Service) {
		s.newID = gen
	}
}

// New constructs a Service.
func New(store Store, opts ...Option) *Service {
	s := &Service{store: store, newID: id.NewClanID}
	for _, opt := range opts {
		opt(s)
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer(tracerName)
	}
	return s
}

// Create validates and stores a new clan and returns its generated id.
func (s *Service) Create(ctx context.Context, name string, region *string) (clanID id.ClanID, err error) {
	ctx, finish := s.start(ctx, "create")
	defer func() { finish(err) }()

	clan, err := models.NewClan(s.newID(), name, region)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return id.ClanID{}, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return id.ClanID{}, err
	}

	if err := s.store.Create(ctx, clan); err != nil {
		return id.ClanID{}, s.translate(err, "failed to create clan")
	}

	s.logEvent(ctx, models.EventClanCreated, "clan_id", clan.ID.String())
	s.publish(ctx, models.LifecycleEvent{
		Type:   models.EventClanCreated,
		ClanID: clan.ID,
		Name:   clan.Name,
		Region: clan.Region,
	})
	if s.metrics != nil {
		s.metrics.IncrementClansCreated()
	}
	return clan.ID, nil
}

// List returns the clans matching q. Region is an exact match and an empty
// one means no filter. An empty SortBy means DefaultSort; an
// unknown one yields natural insertion order.
func (s *Service) List(ctx context.Context, q models.ListQuery) (clans []*models.Clan, err error) {
	ctx, finish := s.start(ctx, "list")
	defer func() { finish(err) }()

	if q.Region != nil && *q.Region == "" {
		q.Region = nil
	}
	if q.SortBy == "" {
		q.SortBy = models.DefaultSort
	}
	if !q.SortBy.IsKnown() && s.logger != nil {
		s.logger.DebugContext(ctx, "unknown sort field, using natural order",
			"sort_by", string(q.SortBy),
			"request_id", requestcontext.RequestID(ctx),
		)
	}

	clans, err = s.store.List(ctx, q)
	if err != nil {
		return nil, s.translate(err, "failed to list clans")
	}
	if clans == nil {
		clans = []*models.Clan{}
	}
	return clans, nil
}

// Get fetches a clan by id.
func (s *Service) Get(ctx context.Context, clanID id.ClanID) (clan *models.Clan, err error) {
	ctx, finish := s.start(ctx, "get")
	defer func() { finish(err) }()

	clan, err = s.store.FindByID(ctx, clanID)
	if err != nil {
		return nil, s.translate(err, "failed to load clan")
	}
	return clan, nil
}

// Delete removes a clan. Deleting an absent clan reports NotFound.
func (s *Service) Delete(ctx context.Context, clanID id.ClanID) (err error) {
	ctx, finish := s.start(ctx, "delete")
	defer func() { finish(err) }()

	if err := s.store.Delete(ctx, clanID); err != nil {
		return s.translate(err, "failed to delete clan")
	}

	s.logEvent(ctx, models.EventClanDeleted, "clan_id", clanID.String())
	s.publish(ctx, models.LifecycleEvent{
		Type:   models.EventClanDeleted,
		ClanID: clanID,
	})
	if s.metrics != nil {
		s.metrics.IncrementClansDeleted()
	}
	return nil
}

// translate maps store sentinels onto domain error codes.
func (s *Service) translate(err error, msg string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, msgNotFound)
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "Clan already exists.")
	default:
		return dErrors.Wrap(err, dErrors.CodeUnavailable, msg)
	}
}

// start opens a span and returns a func that closes it and records metrics.
func (s *Service) start(ctx context.Context, operation string) (context.Context, func(error)) {
	began := time.Now()
	ctx, span := s.tracer.Start(ctx, "clan."+operation,
		trace.WithAttributes(attribute.String("clan.operation", operation)))
	return ctx, func(err error) {
		if err != nil && !dErrors.HasCode(err, dErrors.CodeNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		if s.metrics != nil {
			s.metrics.ObserveOperation(operation, began, err)
		}
	}
}

func (s *Service) logEvent(ctx context.Context, event models.EventType, attributes ...any) {
	if s.logger == nil {
		return
	}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", string(event), "log_type", "lifecycle")
	s.logger.InfoContext(ctx, string(event), args...)
}

// publish hands the event to the publisher. The write has already succeeded,
// so failures are logged and dropped.
func (s *Service) publish(ctx context.Context, event models.LifecycleEvent) {
	if s.publisher == nil {
		return
	}
	event.RequestID = requestcontext.RequestID(ctx)
	event.OccurredAt = requestcontext.Now(ctx)

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.publisher.Publish(pubCtx, event); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to publish clan event",
			"event", string(event.Type),
			"clan_id", event.ClanID.String(),
			"error", err,
		)
	}
}
