package fetch

import (
	"maps"
	"slices"
	"sync"
)

// Store collects the outcome of concurrent fetches keyed by URL. It is safe
// for concurrent use. A URL holds either a payload or a failure, never both.
type Store struct {
	mu        sync.Mutex
	payloads  map[string]any
	failures  map[string]error
	observers []func(Change)
}

// Change describes one update recorded by a Store
type Change struct {
	URL string
	// Err is nil when a payload was stored
	Err error
}

// StoreOption configures a Store
type StoreOption func(*Store)

// WithObserver registers fn to be called after every recorded update. fn runs
// on the goroutine that made the update, outside the store lock.
func WithObserver(fn func(Change)) StoreOption {
	return func(s *Store) {
		if fn != nil {
			s.observers = append(s.observers, fn)
		}
	}
}

// NewStore creates an empty store
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		payloads: make(map[string]any),
		failures: make(map[string]error),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Put records the payload for url, clearing any earlier failure
func (s *Store) Put(url string, payload any) {
	s.mu.Lock()
	s.payloads[url] = payload
	delete(s.failures, url)
	s.mu.Unlock()
	s.notify(Change{URL: url})
}

// Fail records a failure for url unless a payload is already present
func (s *Store) Fail(url string, err error) {
	s.mu.Lock()
	if _, ok := s.payloads[url]; ok {
		s.mu.Unlock()
		return
	}
	s.failures[url] = err
	s.mu.Unlock()
	s.notify(Change{URL: url, Err: err})
}

func (s *Store) notify(c Change) {
	for _, fn := range s.observers {
		fn(c)
	}
}

// Get returns the payload stored for url
func (s *Store) Get(url string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.payloads[url]
	return v, ok
}

// Err returns the failure recorded for url, or nil
func (s *Store) Err(url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failures[url]
}

// Payloads returns a snapshot of the stored payloads
func (s *Store) Payloads() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.payloads)
}

// Failures returns a snapshot of the recorded failures
func (s *Store) Failures() map[string]error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.failures)
}

// Keys returns the URLs holding a payload, sorted
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Sorted(maps.Keys(s.payloads))
}

// Len returns the number of stored payloads
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.payloads)
}
