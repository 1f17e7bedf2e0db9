package helper

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// LoginThrottle blocks a key after too many failed logins inside a window.
type LoginThrottle struct {
	failures *cache.Cache
	max      int
	window   time.Duration
}

func NewLoginThrottle(max int, window time.Duration) *LoginThrottle {
	return &LoginThrottle{
		failures: cache.New(window, 2*window),
		max:      max,
		window:   window,
	}
}

func (t *LoginThrottle) Blocked(key string) bool {
	n, ok := t.failures.Get(key)
	return ok && n.(int) >= t.max
}

func (t *LoginThrottle) Fail(key string) {
	if _, err := t.failures.IncrementInt(key, 1); err != nil {
		t.failures.Set(key, 1, t.window)
	}
}

func (t *LoginThrottle) Reset(key string) {
	t.failures.Delete(key)
}
