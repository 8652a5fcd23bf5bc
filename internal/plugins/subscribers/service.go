package subscribers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/keyxmakerx/roster/internal/apperror"
	"github.com/keyxmakerx/roster/internal/plugins/audit"
)

// SubscriberService defines the business logic contract for subscribers.
type SubscriberService interface {
	List(ctx context.Context) ([]Subscriber, error)
	Get(ctx context.Context, id string) (*Subscriber, error)
	Create(ctx context.Context, in Input) (*Subscriber, error)
	Update(ctx context.Context, id string, in Input) (*Subscriber, error)
	Delete(ctx context.Context, id string) error
}

type subscriberService struct {
	repo  SubscriberRepository
	audit audit.Recorder
	now   func() time.Time
}

// NewSubscriberService creates a new subscriber service. rec may be nil.
func NewSubscriberService(repo SubscriberRepository, rec audit.Recorder) SubscriberService {
	return &subscriberService{
		repo:  repo,
		audit: rec,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// List returns every subscriber.
func (s *subscriberService) List(ctx context.Context) ([]Subscriber, error) {
	subs, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing subscribers: %w", err))
	}
	return subs, nil
}

// Get returns one subscriber or a not-found error.
func (s *subscriberService) Get(ctx context.Context, id string) (*Subscriber, error) {
	sub, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, wrapStoreError(err, "finding subscriber")
	}
	return sub, nil
}

// Create stores a new subscriber with a fresh ID. An address can only be
// subscribed once; the unique index catches races the lookup misses.
func (s *subscriberService) Create(ctx context.Context, in Input) (*Subscriber, error) {
	in = normalize(in)

	existing, err := s.repo.FindByEmail(ctx, in.Email)
	switch {
	case err == nil && existing != nil:
		return nil, apperror.NewConflict("email is already subscribed")
	case err != nil && !apperror.IsNotFound(err):
		return nil, wrapStoreError(err, "checking subscriber email")
	}

	sub := &Subscriber{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Email:     in.Email,
		ZipCode:   in.ZipCode,
		CreatedAt: s.now(),
	}

	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, wrapStoreError(err, "creating subscriber")
	}

	slog.Info("subscriber created", slog.String("subscriber_id", sub.ID))
	audit.Record(ctx, s.audit, &audit.Entry{
		Action:     audit.ActionSubscriberCreated,
		TargetType: "subscriber",
		TargetID:   sub.ID,
	})
	return sub, nil
}

// Update edits a subscriber.
func (s *subscriberService) Update(ctx context.Context, id string, in Input) (*Subscriber, error) {
	sub, err := s.repo.UpdateByID(ctx, id, normalize(in))
	if err != nil {
		return nil, wrapStoreError(err, "updating subscriber")
	}

	audit.Record(ctx, s.audit, &audit.Entry{
		Action:     audit.ActionSubscriberUpdated,
		TargetType: "subscriber",
		TargetID:   id,
	})
	return sub, nil
}

// Delete removes a subscriber.
func (s *subscriberService) Delete(ctx context.Context, id string) error {
	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return wrapStoreError(err, "deleting subscriber")
	}

	audit.Record(ctx, s.audit, &audit.Entry{
		Action:     audit.ActionSubscriberDeleted,
		TargetType: "subscriber",
		TargetID:   id,
	})
	return nil
}

func normalize(in Input) Input {
	return Input{
		Name:    strings.TrimSpace(in.Name),
		Email:   strings.ToLower(strings.TrimSpace(in.Email)),
		ZipCode: strings.TrimSpace(in.ZipCode),
	}
}

// wrapStoreError passes AppErrors (not found, conflict) through and turns
// anything else into an internal error.
func wrapStoreError(err error, op string) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperror.NewInternal(fmt.Errorf("%s: %w", op, err))
}
