// Package flash stores one-time user notices between a redirect and the next
// rendered page. Messages live in a Redis list keyed by a random visitor id
// carried in a cookie, so anonymous visitors (login failures) get flashes too.
package flash

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// Level classifies a flash message for styling.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Message is a single flash notice.
type Message struct {
	Level Level  `json:"level"`
	Text  string `json:"text"`
}

// keyPrefix is the Redis key prefix for pending flash lists.
const keyPrefix = "flash:"

// cookieName holds the visitor id the flash list is keyed by.
const cookieName = "roster_flash"

// defaultTTL bounds how long an unread flash survives.
const defaultTTL = 10 * time.Minute

// RedisStore persists pending flashes in Redis.
type RedisStore struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewRedisStore creates a flash store. A ttl of zero uses ten minutes.
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisStore{redis: rdb, ttl: ttl}
}

// Push appends messages to the visitor's pending list, issuing a visitor
// cookie first if the browser does not have one yet.
func (s *RedisStore) Push(c echo.Context, msgs []Message) error {
	if len(msgs) == 0 {
		return nil
	}

	id := visitorID(c)
	if id == "" {
		id = uuid.NewString()
		setVisitorCookie(c, id)
	}

	values := make([]any, 0, len(msgs))
	for _, m := range msgs {
		data, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("marshaling flash: %w", err)
		}
		values = append(values, data)
	}

	ctx := c.Request().Context()
	key := keyPrefix + id
	pipe := s.redis.TxPipeline()
	pipe.RPush(ctx, key, values...)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("storing flash in Redis: %w", err)
	}
	return nil
}

// Pop returns and clears the visitor's pending messages, oldest first.
func (s *RedisStore) Pop(c echo.Context) ([]Message, error) {
	id := visitorID(c)
	if id == "" {
		return nil, nil
	}
	return s.pop(c.Request().Context(), keyPrefix+id)
}

func (s *RedisStore) pop(ctx context.Context, key string) ([]Message, error) {
	pipe := s.redis.TxPipeline()
	rangeCmd := pipe.LRange(ctx, key, 0, -1)
	pipe.Del(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("reading flash from Redis: %w", err)
	}

	raw := rangeCmd.Val()
	msgs := make([]Message, 0, len(raw))
	for _, r := range raw {
		var m Message
		if err := json.Unmarshal([]byte(r), &m); err != nil {
			continue
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

// visitorID reads the visitor cookie, preferring one set earlier in this
// same request.
func visitorID(c echo.Context) string {
	if id, ok := c.Get(cookieName).(string); ok && id != "" {
		return id
	}
	cookie, err := c.Cookie(cookieName)
	if err != nil || cookie.Value == "" {
		return ""
	}
	return cookie.Value
}

func setVisitorCookie(c echo.Context, id string) {
	req := c.Request()
	c.Set(cookieName, id)
	c.SetCookie(&http.Cookie{
		Name:     cookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   req.TLS != nil || req.Header.Get("X-Forwarded-Proto") == "https",
		SameSite: http.SameSiteLaxMode,
	})
}
