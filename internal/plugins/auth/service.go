package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/keyxmakerx/roster/internal/apperror"
	"github.com/keyxmakerx/roster/internal/plugins/audit"
)

// sessionKeyPrefix is the Redis key prefix for session data.
const sessionKeyPrefix = "session:"

// sessionTokenBytes is the number of random bytes in a session token.
// 32 bytes = 256 bits of entropy, hex-encoded to 64 characters.
const sessionTokenBytes = 32

// ErrInvalidCredentials is returned by Authenticate for both an unknown
// username and a wrong password.
var ErrInvalidCredentials = apperror.NewUnauthorized("invalid username or password")

// AuthService defines the business logic contract for principals and
// sessions. Handlers call these methods -- they never touch the repository
// directly.
type AuthService interface {
	// Authenticate checks a username and password. Both failure modes
	// return ErrInvalidCredentials.
	Authenticate(ctx context.Context, username, password string) (*User, error)

	// Register hashes the password, assigns an ID and API token, and
	// persists the principal.
	Register(ctx context.Context, input RegisterInput) (*User, error)

	// Update edits a principal. A non-empty password is re-hashed.
	Update(ctx context.Context, id string, input UpdateInput) (*User, error)

	// Login authenticates and binds a new Redis session to the principal.
	Login(ctx context.Context, username, password string) (token string, user *User, err error)
	ValidateSession(ctx context.Context, token string) (*Session, error)
	DestroySession(ctx context.Context, token string) error
}

// authService implements AuthService with argon2id hashing and Redis sessions.
type authService struct {
	repo       UserRepository
	redis      *redis.Client
	audit      audit.Recorder
	sessionTTL time.Duration
	now        func() time.Time
}

// NewAuthService creates a new auth service with the given dependencies.
// rec may be nil to disable audit entries.
func NewAuthService(repo UserRepository, rdb *redis.Client, rec audit.Recorder, sessionTTL time.Duration) AuthService {
	return &authService{
		repo:       repo,
		redis:      rdb,
		audit:      rec,
		sessionTTL: sessionTTL,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Authenticate looks the principal up by username and verifies the
// password. Store failures are internal errors, not credential failures.
func (s *authService) Authenticate(ctx context.Context, username, password string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.repo.FindOne(ctx, Filter{Username: username})
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, apperror.NewInternal(fmt.Errorf("finding user: %w", err))
	}

	if !verifyPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Register creates a new principal with a hashed password and a fresh API
// token.
func (s *authService) Register(ctx context.Context, input RegisterInput) (*User, error) {
	if input.Password == "" {
		return nil, apperror.NewValidation("password cannot be empty")
	}
	if strings.TrimSpace(input.Username) == "" {
		return nil, apperror.NewValidation("username cannot be empty")
	}

	hash, err := hashPassword(input.Password)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("hashing password: %w", err))
	}

	apiToken, err := generateAPIToken()
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("generating api token: %w", err))
	}

	now := s.now()
	user := &User{
		ID:           uuid.NewString(),
		Username:     strings.TrimSpace(input.Username),
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		PasswordHash: hash,
		APIToken:     apiToken,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, apperror.NewInternal(fmt.Errorf("creating user: %w", err))
	}

	slog.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)
	audit.Record(ctx, s.audit, &audit.Entry{
		ActorID:    user.ID,
		Action:     audit.ActionUserCreated,
		TargetType: "user",
		TargetID:   user.ID,
	})

	return user, nil
}

// Update writes the editable fields of a principal.
func (s *authService) Update(ctx context.Context, id string, input UpdateInput) (*User, error) {
	patch := &User{
		Username:  strings.TrimSpace(input.Username),
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
		Email:     strings.ToLower(strings.TrimSpace(input.Email)),
		UpdatedAt: s.now(),
	}
	if patch.Username == "" {
		return nil, apperror.NewValidation("username cannot be empty")
	}

	if input.Password != "" {
		hash, err := hashPassword(input.Password)
		if err != nil {
			return nil, apperror.NewInternal(fmt.Errorf("hashing password: %w", err))
		}
		patch.PasswordHash = hash
	}

	user, err := s.repo.UpdateByID(ctx, id, patch)
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, apperror.NewInternal(fmt.Errorf("updating user: %w", err))
	}

	audit.Record(ctx, s.audit, &audit.Entry{
		Action:     audit.ActionUserUpdated,
		TargetType: "user",
		TargetID:   user.ID,
		Details:    map[string]any{"password_changed": input.Password != ""},
	})
	return user, nil
}

// Login authenticates a principal and creates a new session in Redis. It
// returns the session token for the cookie.
func (s *authService) Login(ctx context.Context, username, password string) (string, *User, error) {
	user, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return "", nil, err
	}

	token, err := s.createSession(ctx, user)
	if err != nil {
		return "", nil, apperror.NewInternal(fmt.Errorf("creating session: %w", err))
	}

	slog.Info("user logged in",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)
	audit.Record(ctx, s.audit, &audit.Entry{
		ActorID:    user.ID,
		Action:     audit.ActionSessionLogin,
		TargetType: "user",
		TargetID:   user.ID,
	})

	return token, user, nil
}

// ValidateSession looks up a session token in Redis and returns the session
// data if it exists, hasn't expired, and its principal still exists. The
// name fields are refreshed from the store.
func (s *authService) ValidateSession(ctx context.Context, token string) (*Session, error) {
	data, err := s.redis.Get(ctx, sessionKeyPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperror.NewUnauthorized("session expired or invalid")
	}
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("reading session from Redis: %w", err))
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("unmarshaling session: %w", err))
	}

	// A session never outlives its principal.
	user, err := s.repo.FindByID(ctx, session.UserID)
	if err != nil {
		if apperror.IsNotFound(err) {
			if delErr := s.redis.Del(ctx, sessionKeyPrefix+token).Err(); delErr != nil {
				slog.Warn("dropping orphaned session failed", slog.Any("error", delErr))
			}
			return nil, apperror.NewUnauthorized("session principal no longer exists")
		}
		return nil, apperror.NewInternal(fmt.Errorf("resolving session principal: %w", err))
	}
	session.Username = user.Username
	session.Name = user.FullName()

	return &session, nil
}

// DestroySession removes a session from Redis, logging the principal out.
func (s *authService) DestroySession(ctx context.Context, token string) error {
	key := sessionKeyPrefix + token

	// Read first so the audit entry can name the actor.
	session, _ := s.ValidateSession(ctx, token)

	if err := s.redis.Del(ctx, key).Err(); err != nil {
		return apperror.NewInternal(fmt.Errorf("deleting session from Redis: %w", err))
	}

	if session != nil {
		audit.Record(ctx, s.audit, &audit.Entry{
			ActorID:    session.UserID,
			Action:     audit.ActionSessionLogout,
			TargetType: "user",
			TargetID:   session.UserID,
		})
	}
	return nil
}

// createSession generates a random session token, stores the session data
// in Redis with the configured TTL, and returns the token.
func (s *authService) createSession(ctx context.Context, user *User) (string, error) {
	token, err := generateSessionToken()
	if err != nil {
		return "", fmt.Errorf("generating session token: %w", err)
	}

	data, err := json.Marshal(Session{
		UserID:    user.ID,
		Username:  user.Username,
		Name:      user.FullName(),
		CreatedAt: s.now(),
	})
	if err != nil {
		return "", fmt.Errorf("marshaling session: %w", err)
	}

	if err := s.redis.Set(ctx, sessionKeyPrefix+token, data, s.sessionTTL).Err(); err != nil {
		return "", fmt.Errorf("storing session in Redis: %w", err)
	}

	return token, nil
}

// generateSessionToken creates a cryptographically random hex-encoded token.
func generateSessionToken() (string, error) {
	b := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
