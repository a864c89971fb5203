package split

import (
	"net/http"
	"sync"
	"time"
)

// Store is the client-side slot the assignment record lives in. It plays the
// role of a browser cookie: one value per key, expiring after ttl.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string, ttl time.Duration)
	Remove(key string)
}

// MemoryStore is an in-process Store. It is safe for concurrent use.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// WithClock replaces the clock used for expiry checks.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
	return s
}

func (s *MemoryStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return "", false
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.entries, key)
		return "", false
	}
	return e.value, true
}

func (s *MemoryStore) Set(key, value string, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = memoryEntry{value: value, expiresAt: s.now().Add(ttl)}
}

func (s *MemoryStore) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

// CookieStore keeps the assignment record in an HTTP cookie. Reads see the
// request's cookies plus anything written during the same request.
type CookieStore struct {
	w       http.ResponseWriter
	r       *http.Request
	secure  bool
	pending map[string]*http.Cookie
	now     func() time.Time
}

func NewCookieStore(w http.ResponseWriter, r *http.Request) *CookieStore {
	return &CookieStore{
		w:       w,
		r:       r,
		secure:  r.TLS != nil,
		pending: make(map[string]*http.Cookie),
		now:     time.Now,
	}
}

func (s *CookieStore) Get(key string) (string, bool) {
	if c, ok := s.pending[key]; ok {
		if c.MaxAge < 0 {
			return "", false
		}
		return c.Value, true
	}

	c, err := s.r.Cookie(key)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

func (s *CookieStore) Set(key, value string, ttl time.Duration) {
	c := &http.Cookie{
		Name:     key,
		Value:    value,
		Path:     "/",
		Expires:  s.now().Add(ttl).UTC(),
		MaxAge:   int(ttl / time.Second),
		Secure:   s.secure,
		SameSite: http.SameSiteStrictMode,
	}
	s.pending[key] = c
	http.SetCookie(s.w, c)
}

func (s *CookieStore) Remove(key string) {
	c := &http.Cookie{
		Name:     key,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		SameSite: http.SameSiteStrictMode,
	}
	s.pending[key] = c
	http.SetCookie(s.w, c)
}
