package token

import (
	"errors"
	"testing"
	"time"
)

// fixedClock returns a controllable time source starting at a whole second
// so JWT's second-precision timestamps line up exactly.
func fixedClock() (*time.Time, func() time.Time) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &now, func() time.Time { return now }
}

func newTestCodec(t *testing.T, now func() time.Time) *Codec {
	t.Helper()
	c, err := New("test-signing-secret", WithClock(now))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNew_MissingSecret(t *testing.T) {
	_, err := New("")
	if !errors.Is(err, ErrMissingSecret) {
		t.Fatalf("expected ErrMissingSecret, got %v", err)
	}
}

func TestIssueVerify_RoundTrip(t *testing.T) {
	_, now := fixedClock()
	c := newTestCodec(t, now)

	subjects := []string{"user-1", "6f1c2d7e-0000-4000-8000-000000000000", "x"}
	ttls := []time.Duration{time.Second, time.Minute, DefaultTTL, 72 * time.Hour}

	for _, subject := range subjects {
		for _, ttl := range ttls {
			tok, err := c.Issue(subject, ttl)
			if err != nil {
				t.Fatalf("Issue(%q, %v): %v", subject, ttl, err)
			}
			got, err := c.Verify(tok)
			if err != nil {
				t.Fatalf("Verify after Issue(%q, %v): %v", subject, ttl, err)
			}
			if got != subject {
				t.Errorf("expected subject %q, got %q", subject, got)
			}
		}
	}
}

func TestVerify_ExpiresAfterTTL(t *testing.T) {
	current, now := fixedClock()
	c := newTestCodec(t, now)

	tok, err := c.Issue("user-1", time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	*current = current.Add(59 * time.Minute)
	if _, err := c.Verify(tok); err != nil {
		t.Fatalf("expected token to be valid before expiry, got %v", err)
	}

	*current = current.Add(2 * time.Minute)
	if _, err := c.Verify(tok); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestIssue_DefaultTTL(t *testing.T) {
	current, now := fixedClock()
	c := newTestCodec(t, now)

	tok, err := c.Issue("user-1", 0)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	*current = current.Add(DefaultTTL - time.Second)
	if _, err := c.Verify(tok); err != nil {
		t.Fatalf("expected valid token just before default TTL, got %v", err)
	}

	*current = current.Add(2 * time.Second)
	if _, err := c.Verify(tok); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired after default TTL, got %v", err)
	}
}

func TestVerify_TamperedBytes(t *testing.T) {
	_, now := fixedClock()
	c := newTestCodec(t, now)

	tok, err := c.Issue("user-1", time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	for i := 0; i < len(tok); i++ {
		b := []byte(tok)
		b[i] ^= 0x01
		got, err := c.Verify(string(b))
		if !errors.Is(err, ErrMalformed) {
			t.Fatalf("byte %d flipped: expected ErrMalformed, got subject=%q err=%v", i, got, err)
		}
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	_, now := fixedClock()
	c := newTestCodec(t, now)
	other, err := New("another-secret", WithClock(now))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	tok, err := other.Issue("user-1", time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := c.Verify(tok); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed for foreign signature, got %v", err)
	}
}

func TestVerify_Garbage(t *testing.T) {
	_, now := fixedClock()
	c := newTestCodec(t, now)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"random text", "not-a-token"},
		{"two segments", "abc.def"},
		{"unsigned alg none", "eyJhbGciOiJub25lIiwidHlwIjoiSldUIn0.eyJkYXRhIjoidXNlci0xIn0."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := c.Verify(tt.token); !errors.Is(err, ErrMalformed) {
				t.Errorf("expected ErrMalformed, got %v", err)
			}
		})
	}
}
