package bot

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Pending query defaults
const (
	DefaultQueryTTL   = time.Hour
	DefaultMaxQueries = 1024
)

type pendingQuery struct {
	text    string
	expires time.Time
}

// queryTable keeps search queries between the format keyboard and the
// button press. Callback data is limited to 64 bytes, so only a ULID
// token travels through Telegram.
type queryTable struct {
	mu      sync.Mutex
	ttl     time.Duration
	max     int
	now     func() time.Time
	entries map[string]pendingQuery
}

func newQueryTable(ttl time.Duration, max int) *queryTable {
	if ttl <= 0 {
		ttl = DefaultQueryTTL
	}
	if max <= 0 {
		max = DefaultMaxQueries
	}
	return &queryTable{
		ttl:     ttl,
		max:     max,
		now:     time.Now,
		entries: make(map[string]pendingQuery),
	}
}

// Put stores text and returns its token
func (t *queryTable) Put(text string) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.evictLocked(now)

	token := ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String()
	t.entries[token] = pendingQuery{text: text, expires: now.Add(t.ttl)}
	return token
}

// Get returns the query for token. Expired and unknown tokens yield false.
func (t *queryTable) Get(token string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	q, ok := t.entries[token]
	if !ok {
		return "", false
	}
	if !t.now().Before(q.expires) {
		delete(t.entries, token)
		return "", false
	}
	return q.text, true
}

// Len returns the number of stored queries, expired ones included
func (t *queryTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// evictLocked drops expired entries and, when still full, the oldest ones.
// ULIDs sort by time, so the smallest token is the oldest.
func (t *queryTable) evictLocked(now time.Time) {
	for token, q := range t.entries {
		if !now.Before(q.expires) {
			delete(t.entries, token)
		}
	}
	for len(t.entries) >= t.max {
		oldest := ""
		for token := range t.entries {
			if oldest == "" || token < oldest {
				oldest = token
			}
		}
		delete(t.entries, oldest)
	}
}
