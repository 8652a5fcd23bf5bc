package users

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/keyxmakerx/roster/internal/apperror"
	"github.com/keyxmakerx/roster/internal/plugins/audit"
	"github.com/keyxmakerx/roster/internal/plugins/auth"
)

// stubRepo implements auth.UserRepository with canned answers.
type stubRepo struct {
	users     map[string]*auth.User
	failWith  error
	deleteErr error
}

func (r *stubRepo) Create(context.Context, *auth.User) error { return r.failWith }

func (r *stubRepo) FindByID(_ context.Context, id string) (*auth.User, error) {
	if r.failWith != nil {
		return nil, r.failWith
	}
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, apperror.NewNotFound("user not found")
}

func (r *stubRepo) FindAll(context.Context) ([]auth.User, error) {
	if r.failWith != nil {
		return nil, r.failWith
	}
	var out []auth.User
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, nil
}

func (r *stubRepo) FindOne(context.Context, auth.Filter) (*auth.User, error) {
	return nil, apperror.NewNotFound("user not found")
}

func (r *stubRepo) UpdateByID(context.Context, string, *auth.User) (*auth.User, error) {
	return nil, r.failWith
}

func (r *stubRepo) DeleteByID(_ context.Context, id string) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	delete(r.users, id)
	return nil
}

type recordingAudit struct {
	entries []audit.Entry
}

func (a *recordingAudit) Log(_ context.Context, e *audit.Entry) error {
	a.entries = append(a.entries, *e)
	return nil
}

func TestUserService_GetWrapsStoreErrors(t *testing.T) {
	svc := NewUserService(&stubRepo{failWith: errors.New("timeout")}, nil, nil)

	_, err := svc.Get(context.Background(), "u1")
	if apperror.SafeCode(err) != http.StatusInternalServerError {
		t.Errorf("expected internal error, got %v", err)
	}
}

func TestUserService_GetNotFoundPassesThrough(t *testing.T) {
	svc := NewUserService(&stubRepo{}, nil, nil)

	_, err := svc.Get(context.Background(), "missing")
	if !apperror.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestUserService_DeleteRecordsAudit(t *testing.T) {
	repo := &stubRepo{users: map[string]*auth.User{"u1": {ID: "u1"}}}
	rec := &recordingAudit{}
	svc := NewUserService(repo, nil, rec)

	if err := svc.Delete(context.Background(), "u1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := repo.users["u1"]; ok {
		t.Error("expected user removed")
	}
	if len(rec.entries) != 1 || rec.entries[0].Action != audit.ActionUserDeleted || rec.entries[0].TargetID != "u1" {
		t.Errorf("unexpected audit entries: %+v", rec.entries)
	}
}

func TestUserService_DeleteRecordsActor(t *testing.T) {
	repo := &stubRepo{users: map[string]*auth.User{"u1": {ID: "u1"}}}
	rec := &recordingAudit{}
	svc := NewUserService(repo, nil, rec)

	if err := svc.Delete(audit.WithActor(context.Background(), "admin-1"), "u1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rec.entries) != 1 || rec.entries[0].ActorID != "admin-1" {
		t.Errorf("expected actor admin-1, got %+v", rec.entries)
	}
}

func TestUserService_DeleteFailureSkipsAudit(t *testing.T) {
	rec := &recordingAudit{}
	svc := NewUserService(&stubRepo{deleteErr: errors.New("locked")}, nil, rec)

	err := svc.Delete(context.Background(), "u1")
	if apperror.SafeCode(err) != http.StatusInternalServerError {
		t.Errorf("expected internal error, got %v", err)
	}
	if len(rec.entries) != 0 {
		t.Errorf("expected no audit entries, got %+v", rec.entries)
	}
}
