package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

// rateWindow counts requests from one IP in a fixed window.
type rateWindow struct {
	count int
	start time.Time
}

// RateLimit allows maxRequests per client IP per window and answers 429
// after that. Counters live in memory, so limits are per process.
func RateLimit(maxRequests int, window time.Duration) echo.MiddlewareFunc {
	var (
		mu      sync.Mutex
		windows = make(map[string]*rateWindow)
	)

	go func() {
		ticker := time.NewTicker(window)
		defer ticker.Stop()
		for now := range ticker.C {
			mu.Lock()
			for ip, w := range windows {
				if now.Sub(w.start) > window {
					delete(windows, ip)
				}
			}
			mu.Unlock()
		}
	}()

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			now := time.Now()

			mu.Lock()
			w, ok := windows[ip]
			if !ok || now.Sub(w.start) > window {
				w = &rateWindow{start: now}
				windows[ip] = w
			}
			w.count++
			exceeded := w.count > maxRequests
			mu.Unlock()

			if exceeded {
				return echo.NewHTTPError(http.StatusTooManyRequests, "Too many attempts. Please try again later.")
			}
			return next(c)
		}
	}
}
