package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/keyxmakerx/roster/internal/apperror"
	"github.com/keyxmakerx/roster/internal/plugins/audit"
)

// --- Mock Repository ---

// mockUserRepo implements UserRepository for testing.
type mockUserRepo struct {
	createFn     func(ctx context.Context, user *User) error
	findByIDFn   func(ctx context.Context, id string) (*User, error)
	findAllFn    func(ctx context.Context) ([]User, error)
	findOneFn    func(ctx context.Context, filter Filter) (*User, error)
	updateByIDFn func(ctx context.Context, id string, user *User) (*User, error)
	deleteByIDFn func(ctx context.Context, id string) error
}

func (m *mockUserRepo) Create(ctx context.Context, user *User) error {
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, apperror.NewNotFound("user not found")
}

func (m *mockUserRepo) FindAll(ctx context.Context) ([]User, error) {
	if m.findAllFn != nil {
		return m.findAllFn(ctx)
	}
	return nil, nil
}

func (m *mockUserRepo) FindOne(ctx context.Context, filter Filter) (*User, error) {
	if m.findOneFn != nil {
		return m.findOneFn(ctx, filter)
	}
	return nil, apperror.NewNotFound("user not found")
}

func (m *mockUserRepo) UpdateByID(ctx context.Context, id string, user *User) (*User, error) {
	if m.updateByIDFn != nil {
		return m.updateByIDFn(ctx, id, user)
	}
	return nil, apperror.NewNotFound("user not found")
}

func (m *mockUserRepo) DeleteByID(ctx context.Context, id string) error {
	if m.deleteByIDFn != nil {
		return m.deleteByIDFn(ctx, id)
	}
	return nil
}

// --- Mock Audit Recorder ---

type mockRecorder struct {
	actions []string
}

func (m *mockRecorder) Log(_ context.Context, entry *audit.Entry) error {
	m.actions = append(m.actions, entry.Action)
	return nil
}

// --- Test Helpers ---

// newTestAuthService creates an authService backed by a mock repo and an
// in-process Redis.
func newTestAuthService(t *testing.T, repo *mockUserRepo) (*authService, *miniredis.Miniredis, *mockRecorder) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	rec := &mockRecorder{}
	svc := NewAuthService(repo, rdb, rec, time.Hour).(*authService)
	return svc, mr, rec
}

// testUser returns a stored principal whose password is "hunter2".
func testUser(t *testing.T) *User {
	t.Helper()
	hash, err := hashPassword("hunter2")
	if err != nil {
		t.Fatalf("hashing: %v", err)
	}
	return &User{
		ID:           "11111111-1111-4111-8111-111111111111",
		Username:     "ann",
		FirstName:    "Ann",
		LastName:     "Lee",
		Email:        "ann@example.com",
		PasswordHash: hash,
		APIToken:     "ann-api-token",
	}
}

func repoWith(user *User) *mockUserRepo {
	return &mockUserRepo{
		findOneFn: func(_ context.Context, f Filter) (*User, error) {
			if f.Username == user.Username {
				return user, nil
			}
			return nil, apperror.NewNotFound("user not found")
		},
		findByIDFn: func(_ context.Context, id string) (*User, error) {
			if id == user.ID {
				return user, nil
			}
			return nil, apperror.NewNotFound("user not found")
		},
	}
}

// assertAppError checks that err is an *apperror.AppError with the expected code.
func assertAppError(t *testing.T, err error, expectedCode int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %d, got nil", expectedCode)
	}
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperror.AppError, got %T: %v", err, err)
	}
	if appErr.Code != expectedCode {
		t.Errorf("expected status %d, got %d (message: %s)", expectedCode, appErr.Code, appErr.Message)
	}
}

// --- Authenticate Tests ---

func TestAuthenticate_Success(t *testing.T) {
	user := testUser(t)
	svc, _, _ := newTestAuthService(t, repoWith(user))

	got, err := svc.Authenticate(context.Background(), "ann", "hunter2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("expected principal %s, got %s", user.ID, got.ID)
	}
}

func TestAuthenticate_FailuresAreIndistinguishable(t *testing.T) {
	user := testUser(t)
	svc, _, _ := newTestAuthService(t, repoWith(user))
	ctx := context.Background()

	_, unknownErr := svc.Authenticate(ctx, "bob", "hunter2")
	_, wrongErr := svc.Authenticate(ctx, "ann", "wrong")

	for name, err := range map[string]error{"unknown user": unknownErr, "wrong password": wrongErr} {
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("%s: expected ErrInvalidCredentials, got %v", name, err)
		}
	}
	if apperror.SafeMessage(unknownErr) != apperror.SafeMessage(wrongErr) {
		t.Errorf("expected identical messages, got %q and %q",
			apperror.SafeMessage(unknownErr), apperror.SafeMessage(wrongErr))
	}
}

func TestAuthenticate_EmptyInput(t *testing.T) {
	svc, _, _ := newTestAuthService(t, &mockUserRepo{
		findOneFn: func(context.Context, Filter) (*User, error) {
			t.Error("store should not be queried for empty credentials")
			return nil, nil
		},
	})

	if _, err := svc.Authenticate(context.Background(), "  ", "x"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthenticate_StoreErrorIsInternal(t *testing.T) {
	svc, _, _ := newTestAuthService(t, &mockUserRepo{
		findOneFn: func(context.Context, Filter) (*User, error) {
			return nil, errors.New("connection refused")
		},
	})

	_, err := svc.Authenticate(context.Background(), "ann", "hunter2")
	assertAppError(t, err, 500)
	if errors.Is(err, ErrInvalidCredentials) {
		t.Error("store failure must not look like a credential failure")
	}
}

// --- Register / Update Tests ---

func TestRegister_Success(t *testing.T) {
	var stored *User
	svc, _, rec := newTestAuthService(t, &mockUserRepo{
		createFn: func(_ context.Context, user *User) error {
			stored = user
			return nil
		},
	})

	user, err := svc.Register(context.Background(), RegisterInput{
		Username:  " ann ",
		FirstName: "Ann",
		LastName:  "Lee",
		Email:     "Ann@Example.COM",
		Password:  "hunter2",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored != user {
		t.Fatal("expected the returned user to be the stored one")
	}
	if _, err := uuid.Parse(user.ID); err != nil {
		t.Errorf("expected UUID id, got %q", user.ID)
	}
	if user.Username != "ann" || user.Email != "ann@example.com" {
		t.Errorf("expected normalized username/email, got %q %q", user.Username, user.Email)
	}
	if user.APIToken == "" {
		t.Error("expected an API token to be generated")
	}
	if !verifyPassword("hunter2", user.PasswordHash) {
		t.Error("expected stored hash to verify")
	}
	if len(rec.actions) != 1 || rec.actions[0] != audit.ActionUserCreated {
		t.Errorf("expected user.created audit entry, got %v", rec.actions)
	}
}

func TestRegister_EmptyPassword(t *testing.T) {
	svc, _, _ := newTestAuthService(t, &mockUserRepo{})
	_, err := svc.Register(context.Background(), RegisterInput{Username: "ann"})
	assertAppError(t, err, 422)
}

func TestRegister_ConflictPassesThrough(t *testing.T) {
	svc, _, _ := newTestAuthService(t, &mockUserRepo{
		createFn: func(context.Context, *User) error {
			return apperror.NewConflict("username or email is already taken")
		},
	})

	_, err := svc.Register(context.Background(), RegisterInput{Username: "ann", Password: "pw"})
	assertAppError(t, err, 409)
}

func TestRegister_CreateError(t *testing.T) {
	svc, _, _ := newTestAuthService(t, &mockUserRepo{
		createFn: func(context.Context, *User) error {
			return errors.New("disk full")
		},
	})

	_, err := svc.Register(context.Background(), RegisterInput{Username: "ann", Password: "pw"})
	assertAppError(t, err, 500)
}

func TestUpdate_KeepsPasswordWhenBlank(t *testing.T) {
	svc, _, _ := newTestAuthService(t, &mockUserRepo{
		updateByIDFn: func(_ context.Context, id string, patch *User) (*User, error) {
			if patch.PasswordHash != "" {
				t.Error("expected empty hash so the stored credential is kept")
			}
			out := *patch
			out.ID = id
			return &out, nil
		},
	})

	user, err := svc.Update(context.Background(), "u1", UpdateInput{Username: "ann", Email: " A@B.co "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Email != "a@b.co" {
		t.Errorf("expected normalized email, got %q", user.Email)
	}
}

func TestUpdate_RehashesNewPassword(t *testing.T) {
	svc, _, _ := newTestAuthService(t, &mockUserRepo{
		updateByIDFn: func(_ context.Context, id string, patch *User) (*User, error) {
			if !verifyPassword("new-secret", patch.PasswordHash) {
				t.Error("expected new password hash")
			}
			out := *patch
			out.ID = id
			return &out, nil
		},
	})

	if _, err := svc.Update(context.Background(), "u1", UpdateInput{Username: "ann", Password: "new-secret"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	svc, _, _ := newTestAuthService(t, &mockUserRepo{})
	_, err := svc.Update(context.Background(), "missing", UpdateInput{Username: "ann"})
	assertAppError(t, err, 404)
}

// --- Session Tests ---

func TestLogin_SessionLifecycle(t *testing.T) {
	user := testUser(t)
	svc, mr, rec := newTestAuthService(t, repoWith(user))
	ctx := context.Background()

	token, got, err := svc.Login(ctx, "ann", "hunter2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != user.ID || len(token) != 2*sessionTokenBytes {
		t.Fatalf("unexpected login result: user=%v token=%q", got, token)
	}
	if ttl := mr.TTL(sessionKeyPrefix + token); ttl != time.Hour {
		t.Errorf("expected session TTL 1h, got %v", ttl)
	}

	session, err := svc.ValidateSession(ctx, token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.UserID != user.ID || session.Name != "Ann Lee" {
		t.Errorf("unexpected session: %+v", session)
	}

	if err := svc.DestroySession(ctx, token); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = svc.ValidateSession(ctx, token)
	assertAppError(t, err, 401)

	want := []string{audit.ActionSessionLogin, audit.ActionSessionLogout}
	if strings.Join(rec.actions, ",") != strings.Join(want, ",") {
		t.Errorf("expected audit %v, got %v", want, rec.actions)
	}
}

func TestLogin_WrongPasswordCreatesNoSession(t *testing.T) {
	user := testUser(t)
	svc, mr, _ := newTestAuthService(t, repoWith(user))

	_, _, err := svc.Login(context.Background(), "ann", "nope")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if keys := mr.Keys(); len(keys) != 0 {
		t.Errorf("expected no session keys, got %v", keys)
	}
}

func TestSession_ExpiresWithTTL(t *testing.T) {
	user := testUser(t)
	svc, mr, _ := newTestAuthService(t, repoWith(user))
	ctx := context.Background()

	token, _, err := svc.Login(ctx, "ann", "hunter2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mr.FastForward(time.Hour + time.Second)

	_, err = svc.ValidateSession(ctx, token)
	assertAppError(t, err, 401)
}

func TestValidateSession_RefreshesPrincipal(t *testing.T) {
	user := testUser(t)
	svc, _, _ := newTestAuthService(t, repoWith(user))
	ctx := context.Background()

	token, _, err := svc.Login(ctx, "ann", "hunter2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	user.FirstName = "Annie"

	session, err := svc.ValidateSession(ctx, token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.Name != "Annie Lee" {
		t.Errorf("expected refreshed name, got %q", session.Name)
	}
}

func TestValidateSession_DeletedPrincipal(t *testing.T) {
	user := testUser(t)
	repo := repoWith(user)
	svc, mr, _ := newTestAuthService(t, repo)
	ctx := context.Background()

	token, _, err := svc.Login(ctx, "ann", "hunter2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	repo.findByIDFn = nil

	_, err = svc.ValidateSession(ctx, token)
	assertAppError(t, err, 401)
	if mr.Exists(sessionKeyPrefix + token) {
		t.Error("expected orphaned session key to be deleted")
	}
}

// --- Credential Tests ---

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := hashPassword("correct horse")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$") {
		t.Errorf("expected PHC argon2id hash, got %q", hash)
	}
	if !verifyPassword("correct horse", hash) {
		t.Error("expected password to verify")
	}
	if verifyPassword("correct horse!", hash) {
		t.Error("expected different password to fail")
	}
}

func TestVerifyPassword_InvalidHash(t *testing.T) {
	for _, hash := range []string{
		"",
		"plaintext",
		"$argon2id$v=19$m=65536,t=3,p=4$onlysalt",
		"$bcrypt$v=19$m=65536,t=3,p=4$c2FsdA$aGFzaA",
		"$argon2id$v=19$garbage$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=65536,t=3,p=4$!!!$aGFzaA",
	} {
		if verifyPassword("x", hash) {
			t.Errorf("expected %q to be rejected", hash)
		}
	}
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	a, _ := hashPassword("same")
	b, _ := hashPassword("same")
	if a == b {
		t.Error("expected different hashes for the same password")
	}
}

func TestUser_FullName(t *testing.T) {
	if got := (&User{Username: "ann", FirstName: "Ann", LastName: "Lee"}).FullName(); got != "Ann Lee" {
		t.Errorf("expected 'Ann Lee', got %q", got)
	}
	if got := (&User{Username: "ann"}).FullName(); got != "ann" {
		t.Errorf("expected username fallback, got %q", got)
	}
}
