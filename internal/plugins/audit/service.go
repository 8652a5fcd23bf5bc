package audit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/keyxmakerx/roster/internal/apperror"
)

// defaultLimit is the number of entries returned by the activity feed.
const defaultLimit = 50

// maxLimit caps any requested page size.
const maxLimit = 200

// AuditService handles business logic for the audit log. It validates
// inputs, enforces limits, and delegates persistence to the repository.
type AuditService interface {
	// Log records an audit entry. Errors are logged here, so callers may
	// ignore them.
	Log(ctx context.Context, entry *Entry) error

	// Recent returns the newest entries. limit <= 0 uses the default.
	Recent(ctx context.Context, limit int) ([]Entry, error)

	// History returns the newest entries for one record.
	History(ctx context.Context, targetType, targetID string) ([]Entry, error)
}

// auditService implements AuditService.
type auditService struct {
	repo AuditRepository
}

// NewAuditService creates a new audit service with the given repository.
func NewAuditService(repo AuditRepository) AuditService {
	return &auditService{repo: repo}
}

// Log validates and persists an audit entry.
func (s *auditService) Log(ctx context.Context, entry *Entry) error {
	if entry.Action == "" {
		return apperror.NewBadRequest("action is required for audit entry")
	}

	if err := s.repo.Log(ctx, entry); err != nil {
		slog.Error("failed to write audit log entry",
			slog.String("action", entry.Action),
			slog.String("target_id", entry.TargetID),
			slog.Any("error", err),
		)
		return apperror.NewInternal(fmt.Errorf("writing audit entry: %w", err))
	}

	return nil
}

// Recent returns the activity feed, clamped to maxLimit.
func (s *auditService) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	entries, err := s.repo.ListRecent(ctx, limit)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing recent activity: %w", err))
	}
	return entries, nil
}

// History returns the change history for a single record.
func (s *auditService) History(ctx context.Context, targetType, targetID string) ([]Entry, error) {
	if targetType == "" || targetID == "" {
		return nil, apperror.NewBadRequest("target type and id are required")
	}

	entries, err := s.repo.ListByTarget(ctx, targetType, targetID, defaultLimit)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing target history: %w", err))
	}
	return entries, nil
}

// Recorder is the write side of the audit log, as seen by other plugins.
type Recorder interface {
	Log(ctx context.Context, entry *Entry) error
}

// Record writes entry through rec and discards the error; the service has
// already logged it. A nil recorder is a no-op. An entry without an actor
// takes the one carried by ctx.
func Record(ctx context.Context, rec Recorder, entry *Entry) {
	if rec == nil {
		return
	}
	if entry.ActorID == "" {
		entry.ActorID = ActorFrom(ctx)
	}
	_ = rec.Log(ctx, entry)
}

type actorKey struct{}

// WithActor returns a copy of ctx naming the principal behind any writes
// made with it. An empty id returns ctx unchanged.
func WithActor(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, actorKey{}, id)
}

// ActorFrom returns the principal set by WithActor, or "".
func ActorFrom(ctx context.Context) string {
	id, _ := ctx.Value(actorKey{}).(string)
	return id
}
