package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/gate-api/internal/dto"
	"github.com/noah-isme/gate-api/internal/models"
	"github.com/noah-isme/gate-api/internal/observability"
	"github.com/noah-isme/gate-api/internal/repository"
)

// DepartureService implements the early departure workflow.
type DepartureService interface {
	Create(ctx context.Context, payload dto.CreateDepartureRequest, actor Actor) (dto.DepartureResponse, error)
	ListToday(ctx context.Context) ([]dto.DepartureResponse, error)
	Checkout(ctx context.Context, id uint, actor Actor) (dto.DepartureResponse, error)
	ListAll(ctx context.Context) ([]dto.DepartureResponse, error)
}

type departureService struct {
	repo      repository.DepartureRepository
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	activity  ActivityRecorder
	events    DepartureEventPublisher
	now       func() time.Time
	tracer    trace.Tracer
	logger    zerolog.Logger
}

// NewDepartureService constructs the departure service. activity and events may
// be nil; now defaults to time.Now.
func NewDepartureService(
	repo repository.DepartureRepository,
	validate *validator.Validate,
	activity ActivityRecorder,
	events DepartureEventPublisher,
	now func() time.Time,
	logger zerolog.Logger,
) DepartureService {
	if now == nil {
		now = time.Now
	}

	return &departureService{
		repo:      repo,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		activity:  activity,
		events:    events,
		now:       now,
		tracer:    otel.Tracer("github.com/noah-isme/gate-api/internal/service/departure"),
		logger:    logger.With().Str("component", "departure_service").Logger(),
	}
}

// DayWindow returns the first and last millisecond of now's UTC calendar date.
func DayWindow(now time.Time) (time.Time, time.Time) {
	utc := now.UTC()
	start := time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24*time.Hour - time.Millisecond)
	return start, end
}

func (s *departureService) Create(ctx context.Context, payload dto.CreateDepartureRequest, actor Actor) (dto.DepartureResponse, error) {
	if err := requireActor(actor); err != nil {
		return dto.DepartureResponse{}, err
	}

	payload.Reason = sanitizeText(s.sanitizer, payload.Reason)

	if err := s.validator.Struct(payload); err != nil {
		return dto.DepartureResponse{}, validationFailure(err)
	}

	spanCtx, span := s.tracer.Start(ctx, "departures.create", trace.WithAttributes(
		attribute.Int64("student.id", int64(payload.StudentID)),
	))
	defer span.End()

	departure := models.EarlyDeparture{
		StudentID:           payload.StudentID,
		Reason:              payload.Reason,
		Status:              models.DepartureStatusApproved,
		ApprovedByProfileID: actor.ID,
		CreatedAt:           s.now().UTC(),
	}

	if err := s.repo.Create(spanCtx, &departure); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		s.logger.Error().Err(err).Uint("student_id", payload.StudentID).Msg("failed to create departure record")
		return dto.DepartureResponse{}, UpstreamError("Failed to create departure record", err)
	}

	observability.DeparturesCreated().Inc()
	response := dto.NewDepartureResponse(departure)

	record(spanCtx, s.activity, ActivityEntry{
		Actor:      actor,
		Action:     DepartureEventApproved,
		EntityType: "early_departure",
		EntityID:   strconv.FormatUint(uint64(departure.ID), 10),
		Metadata:   map[string]interface{}{"student_id": departure.StudentID},
	})
	s.publish(spanCtx, DepartureEventApproved, response)

	return response, nil
}

func (s *departureService) ListToday(ctx context.Context) ([]dto.DepartureResponse, error) {
	from, to := DayWindow(s.now())

	spanCtx, span := s.tracer.Start(ctx, "departures.today")
	defer span.End()

	departures, err := s.repo.ListApprovedBetween(spanCtx, from, to)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return nil, UpstreamError("Failed to fetch today's departures", err)
	}

	return dto.NewDepartureResponseSlice(departures), nil
}

// Checkout records the gate exit. Unknown ids and records that are no longer
// Approved are reported identically.
func (s *departureService) Checkout(ctx context.Context, id uint, actor Actor) (dto.DepartureResponse, error) {
	if err := requireActor(actor); err != nil {
		return dto.DepartureResponse{}, err
	}

	spanCtx, span := s.tracer.Start(ctx, "departures.checkout", trace.WithAttributes(
		attribute.Int64("departure.id", int64(id)),
	))
	defer span.End()

	departure, err := s.repo.Checkout(spanCtx, id, actor.ID, s.now().UTC())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.CheckoutConflicts().Inc()
			return dto.DepartureResponse{}, NotFoundError("Approved departure record not found or it has already been processed.", ErrDepartureUnavailable)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		s.logger.Error().Err(err).Uint("departure_id", id).Msg("failed to check out departure")
		return dto.DepartureResponse{}, UpstreamError("Failed to check out departure", err)
	}

	observability.DeparturesCheckedOut().Inc()
	response := dto.NewDepartureResponse(departure)

	record(spanCtx, s.activity, ActivityEntry{
		Actor:      actor,
		Action:     DepartureEventCheckedOut,
		EntityType: "early_departure",
		EntityID:   strconv.FormatUint(uint64(departure.ID), 10),
		Metadata:   map[string]interface{}{"student_id": departure.StudentID},
	})
	s.publish(spanCtx, DepartureEventCheckedOut, response)

	return response, nil
}

func (s *departureService) ListAll(ctx context.Context) ([]dto.DepartureResponse, error) {
	departures, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, UpstreamError("Failed to fetch all departure records", err)
	}
	return dto.NewDepartureResponseSlice(departures), nil
}

func (s *departureService) publish(ctx context.Context, eventType string, departure dto.DepartureResponse) {
	if s.events == nil {
		return
	}
	s.events.PublishDeparture(ctx, DepartureEvent{
		Type:       eventType,
		Departure:  departure,
		OccurredAt: s.now().UTC(),
	})
}
