package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"go-calendar/internal/event"
	"go-calendar/internal/model"
	"go-calendar/internal/util"
	"go-calendar/pkg/apierror"
)

var eventTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

type eventStore interface {
	List(ctx context.Context) ([]model.Event, error)
	FindByID(ctx context.Context, id string) (model.Event, error)
	Create(ctx context.Context, e model.Event) error
	Update(ctx context.Context, e model.Event) error
	Delete(ctx context.Context, id string) error
}

// EventService owns calendar events. Anyone authenticated may read; only the
// owner may change or remove an event.
type EventService struct {
	store eventStore
	bus   event.Bus
	audit *AuditService
	now   func() time.Time
}

func NewEventService(store eventStore, bus event.Bus, audit *AuditService) *EventService {
	return &EventService{store: store, bus: bus, audit: audit, now: time.Now}
}

func (s *EventService) List(ctx context.Context) ([]model.Event, error) {
	return s.store.List(ctx)
}

func (s *EventService) Get(ctx context.Context, id string) (model.Event, error) {
	return s.store.FindByID(ctx, strings.TrimSpace(id))
}

func (s *EventService) Create(ctx context.Context, actor model.AuditActor, req model.CreateEventRequest) (model.Event, error) {
	title, err := util.CleanText("title", req.Title, util.MaxTitleLength, false)
	if err != nil {
		return model.Event{}, err
	}
	description, err := cleanDescription(req.Description)
	if err != nil {
		return model.Event{}, err
	}
	if title == "" || strings.TrimSpace(req.Start) == "" || strings.TrimSpace(req.End) == "" {
		return model.Event{}, apierror.BadRequest("missing required fields", "title, start, end")
	}

	start, err := parseEventTime("start", req.Start)
	if err != nil {
		return model.Event{}, err
	}
	end, err := parseEventTime("end", req.End)
	if err != nil {
		return model.Event{}, err
	}
	if end.Before(start) {
		return model.Event{}, apierror.BadRequest("end must not be before start", "end")
	}

	now := s.now().UTC()
	created := model.Event{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		Start:       start,
		End:         end,
		AllDay:      req.AllDay,
		UserID:      actor.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.Create(ctx, created); err != nil {
		s.audit.Log(ctx, model.AuditActionEventCreate, actor, model.AuditStatusFailure, created.ID, err.Error())
		return model.Event{}, err
	}

	s.audit.Log(ctx, model.AuditActionEventCreate, actor, model.AuditStatusSuccess, created.ID, "")
	s.publish(event.TypeCalendarEventCreated, actor.UserID, created)
	return created, nil
}

func (s *EventService) Update(ctx context.Context, actor model.AuditActor, id string, req model.UpdateEventRequest) (model.Event, error) {
	existing, err := s.ownedEvent(ctx, actor, id, model.AuditActionEventUpdate)
	if err != nil {
		return model.Event{}, err
	}

	updated := existing
	if req.Title != nil {
		title, err := util.CleanText("title", *req.Title, util.MaxTitleLength, false)
		if err != nil {
			return model.Event{}, err
		}
		if title != "" {
			updated.Title = title
		}
	}
	if req.Start != nil && strings.TrimSpace(*req.Start) != "" {
		if updated.Start, err = parseEventTime("start", *req.Start); err != nil {
			return model.Event{}, err
		}
	}
	if req.End != nil && strings.TrimSpace(*req.End) != "" {
		if updated.End, err = parseEventTime("end", *req.End); err != nil {
			return model.Event{}, err
		}
	}
	if req.AllDay != nil {
		updated.AllDay = *req.AllDay
	}
	if req.Description != nil {
		if updated.Description, err = cleanDescription(req.Description); err != nil {
			return model.Event{}, err
		}
	}
	if updated.End.Before(updated.Start) {
		return model.Event{}, apierror.BadRequest("end must not be before start", "end")
	}
	updated.UpdatedAt = s.now().UTC()

	if err := s.store.Update(ctx, updated); err != nil {
		s.audit.Log(ctx, model.AuditActionEventUpdate, actor, model.AuditStatusFailure, id, err.Error())
		return model.Event{}, err
	}

	s.audit.Log(ctx, model.AuditActionEventUpdate, actor, model.AuditStatusSuccess, id, "")
	s.publish(event.TypeCalendarEventUpdated, actor.UserID, updated)
	return updated, nil
}

func (s *EventService) Delete(ctx context.Context, actor model.AuditActor, id string) error {
	existing, err := s.ownedEvent(ctx, actor, id, model.AuditActionEventDelete)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, existing.ID); err != nil {
		s.audit.Log(ctx, model.AuditActionEventDelete, actor, model.AuditStatusFailure, id, err.Error())
		return err
	}

	s.audit.Log(ctx, model.AuditActionEventDelete, actor, model.AuditStatusSuccess, id, "")
	s.publish(event.TypeCalendarEventDeleted, actor.UserID, map[string]string{"id": existing.ID})
	return nil
}

func (s *EventService) ownedEvent(ctx context.Context, actor model.AuditActor, id string, action string) (model.Event, error) {
	existing, err := s.store.FindByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return model.Event{}, err
	}

	if existing.UserID != actor.UserID {
		s.audit.Log(ctx, action, actor, model.AuditStatusFailure, existing.ID, "not the owner")
		return model.Event{}, model.ErrForbidden
	}

	return existing, nil
}

func (s *EventService) publish(typ event.Type, actorID string, payload any) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(event.Event{Type: typ, Payload: payload, ActorID: actorID})
}

// cleanDescription maps blank descriptions to nil.
func cleanDescription(raw *string) (*string, error) {
	if raw == nil {
		return nil, nil
	}
	cleaned, err := util.CleanText("description", *raw, util.MaxDescriptionLength, true)
	if err != nil || cleaned == "" {
		return nil, err
	}
	return &cleaned, nil
}

func parseEventTime(field string, raw string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	for _, layout := range eventTimeLayouts {
		if parsed, err := time.Parse(layout, trimmed); err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, apierror.BadRequest("invalid "+field+" datetime format", raw)
}
