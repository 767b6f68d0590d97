package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"slices"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/heartmarshall/wordgen/internal/domain"
)

const (
	// DefaultCapacity bounds the ledger to the most-recently-touched entries.
	DefaultCapacity = 5
	// DefaultTTL prunes stale persisted entries on load.
	DefaultTTL = 7 * 24 * time.Hour

	storageKey     = "notifications"
	persistTimeout = 500 * time.Millisecond
)

// Storage is the best-effort local persistence collaborator. Failures are
// logged and swallowed; the store keeps working in memory.
type Storage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// Store is an explicit, self-contained notification ledger. Entries are
// addressed by the deterministic domain.NotificationKey, deduplicated
// under the override decision table, and evicted by recency once the
// capacity is exceeded. Tests construct independent instances; there is
// no ambient global state.
type Store struct {
	log     *slog.Logger
	storage Storage // may be nil: in-memory only
	ttl     time.Duration
	now     func() time.Time

	mu    sync.Mutex
	items *lru.Cache[string, domain.Notification]
	subs  []func()
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithTTL overrides the load-time expiry for persisted entries.
func WithTTL(ttl time.Duration) StoreOption {
	return func(s *Store) { s.ttl = ttl }
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// NewStore creates a ledger bounded to capacity entries. A nil storage
// keeps the ledger purely in memory.
func NewStore(capacity int, storage Storage, log *slog.Logger, opts ...StoreOption) (*Store, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	items, err := lru.New[string, domain.Notification](capacity)
	if err != nil {
		return nil, err
	}
	s := &Store{
		log:     log.With("component", "notify"),
		storage: storage,
		ttl:     DefaultTTL,
		now:     time.Now,
		items:   items,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Upsert inserts or updates the candidate under the override policy and
// reports whether the ledger changed. The candidate's ID is derived from
// its identifiers when empty. Accepted entries move to the most-recent
// position; a rejected update does not touch recency.
func (s *Store) Upsert(candidate domain.Notification, force bool) bool {
	if candidate.ID == "" {
		candidate.ID = domain.NotificationKey(candidate.SourceWord, candidate.SourceLanguage, candidate.TargetLanguage)
	}

	s.mu.Lock()
	existing, ok := s.items.Peek(candidate.ID)
	var existingStatus domain.NotificationStatus
	if ok {
		existingStatus = existing.Status
	}

	switch Decide(existingStatus, candidate.Status, force) {
	case Reject:
		s.mu.Unlock()
		return false
	case Insert:
		if candidate.Timestamp.IsZero() {
			candidate.Timestamp = s.now()
		}
		s.items.Add(candidate.ID, candidate)
	case Merge:
		s.items.Add(candidate.ID, mergeFields(existing, candidate, s.now()))
	case Replace:
		candidate.Seen = existing.Seen
		if candidate.Timestamp.IsZero() {
			candidate.Timestamp = s.now()
		}
		s.items.Add(candidate.ID, candidate)
	}

	s.persistLocked()
	subs := slices.Clone(s.subs)
	s.mu.Unlock()

	for _, fn := range subs {
		fn()
	}
	return true
}

// mergeFields copies the candidate's present (non-zero) fields into the
// existing entry. The seen flag always survives.
func mergeFields(existing, candidate domain.Notification, now time.Time) domain.Notification {
	out := existing
	out.Status = candidate.Status
	out.Timestamp = now
	if candidate.Title != "" {
		out.Title = candidate.Title
	}
	if candidate.Message != "" {
		out.Message = candidate.Message
	}
	if candidate.Link != "" {
		out.Link = candidate.Link
	}
	if candidate.Progress > 0 {
		out.Progress = candidate.Progress
	}
	if candidate.SourceWord != "" {
		out.SourceWord = candidate.SourceWord
	}
	if candidate.SourceLanguage != "" {
		out.SourceLanguage = candidate.SourceLanguage
	}
	if candidate.TargetLanguage != "" {
		out.TargetLanguage = candidate.TargetLanguage
	}
	if candidate.RequestID != "" {
		out.RequestID = candidate.RequestID
	}
	if candidate.PK != "" {
		out.PK = candidate.PK
	}
	if candidate.SK != "" {
		out.SK = candidate.SK
	}
	if candidate.MediaRef != "" {
		out.MediaRef = candidate.MediaRef
	}
	return out
}

// Items returns a newest-first snapshot of the ledger.
func (s *Store) Items() []domain.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.itemsLocked()
}

func (s *Store) itemsLocked() []domain.Notification {
	keys := s.items.Keys() // least- to most-recently touched
	out := make([]domain.Notification, 0, len(keys))
	for i := len(keys) - 1; i >= 0; i-- {
		if n, ok := s.items.Peek(keys[i]); ok {
			out = append(out, n)
		}
	}
	return out
}

// Get returns one entry by id.
func (s *Store) Get(id string) (domain.Notification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items.Peek(id)
}

// UnseenCount derives the number of entries the user has not seen yet.
func (s *Store) UnseenCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, key := range s.items.Keys() {
		if n, ok := s.items.Peek(key); ok && !n.Seen {
			count++
		}
	}
	return count
}

// MarkSeen flags one entry as seen.
func (s *Store) MarkSeen(id string) {
	s.mu.Lock()
	if n, ok := s.items.Peek(id); ok && !n.Seen {
		n.Seen = true
		s.items.Add(id, n)
		s.persistLocked()
	}
	subs := slices.Clone(s.subs)
	s.mu.Unlock()
	for _, fn := range subs {
		fn()
	}
}

// MarkAllSeen flags every entry as seen.
func (s *Store) MarkAllSeen() {
	s.mu.Lock()
	changed := false
	for _, key := range s.items.Keys() {
		if n, ok := s.items.Peek(key); ok && !n.Seen {
			n.Seen = true
			s.items.Add(key, n)
			changed = true
		}
	}
	if changed {
		s.persistLocked()
	}
	subs := slices.Clone(s.subs)
	s.mu.Unlock()
	for _, fn := range subs {
		fn()
	}
}

// Remove deletes one entry (explicit user action).
func (s *Store) Remove(id string) {
	s.mu.Lock()
	if s.items.Remove(id) {
		s.persistLocked()
	}
	subs := slices.Clone(s.subs)
	s.mu.Unlock()
	for _, fn := range subs {
		fn()
	}
}

// Clear empties the ledger.
func (s *Store) Clear() {
	s.mu.Lock()
	s.items.Purge()
	s.persistLocked()
	subs := slices.Clone(s.subs)
	s.mu.Unlock()
	for _, fn := range subs {
		fn()
	}
}

// Subscribe registers a callback invoked after every mutation. Callbacks
// run outside the store lock.
func (s *Store) Subscribe(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

// Load restores the persisted ledger, dropping entries older than the TTL.
// Any storage or codec failure is logged and the store starts empty.
func (s *Store) Load(ctx context.Context) {
	if s.storage == nil {
		return
	}
	raw, err := s.storage.Get(ctx, storageKey)
	if err != nil {
		s.log.Warn("load notifications failed", slog.String("error", err.Error()))
		return
	}
	if raw == "" {
		return
	}
	var list []domain.Notification
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		s.log.Warn("corrupt persisted notifications discarded", slog.String("error", err.Error()))
		return
	}

	cutoff := s.now().Add(-s.ttl)
	s.mu.Lock()
	defer s.mu.Unlock()
	// The list is persisted newest-first; insert oldest-first so the
	// newest entry ends up most recently touched.
	for i := len(list) - 1; i >= 0; i-- {
		n := list[i]
		if n.ID == "" || n.Timestamp.Before(cutoff) {
			continue
		}
		s.items.Add(n.ID, n)
	}
}

// persistLocked serializes the ledger to storage, best-effort. It must
// never block event processing for long and never surfaces errors to the
// caller.
func (s *Store) persistLocked() {
	if s.storage == nil {
		return
	}
	data, err := json.Marshal(s.itemsLocked())
	if err != nil {
		s.log.Warn("serialize notifications failed", slog.String("error", err.Error()))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := s.storage.Set(ctx, storageKey, string(data)); err != nil {
		s.log.Warn("persist notifications failed", slog.String("error", err.Error()))
	}
}

// Target is where a notification click should navigate.
type Target struct {
	Route          string
	Live           bool // route into the live request view
	RequestID      string
	SourceWord     string
	TargetLanguage string
	Address        domain.StorageAddress
}

// ClickTarget resolves a notification to its navigation target. A request
// still pending or processing always routes into the live request view,
// even when no link was computed yet; resolved entries navigate to their
// stored link, forwarding the address tokens so the destination can skip
// a redundant lookup.
func (s *Store) ClickTarget(id string) (Target, bool) {
	s.mu.Lock()
	n, ok := s.items.Peek(id)
	s.mu.Unlock()
	if !ok {
		return Target{}, false
	}

	if n.Status == domain.StatusPending || n.Status == domain.StatusProcessing {
		return Target{
			Route:          liveRequestRoute(n),
			Live:           true,
			RequestID:      n.RequestID,
			SourceWord:     n.SourceWord,
			TargetLanguage: n.TargetLanguage,
			Address:        n.Address(),
		}, true
	}
	if n.Link == "" {
		return Target{}, false
	}
	return Target{Route: n.Link, Address: n.Address()}, true
}

func liveRequestRoute(n domain.Notification) string {
	q := url.Values{}
	if n.RequestID != "" {
		q.Set("request_id", n.RequestID)
	}
	q.Set("word", n.SourceWord)
	q.Set("target", n.TargetLanguage)
	return "/generate?" + q.Encode()
}
