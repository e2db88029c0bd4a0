// Package ledger records which submitter first used a photo, so the same
// bytes cannot be passed off as proof by somebody else.
//
// The ledger is local to one device: it only catches reuse within the history
// kept in its store.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/quidome/ecoquest-go/pkg/contenthash"
	"github.com/quidome/ecoquest-go/pkg/kvstore"
)

const (
	// DefaultKey is the store key the entries are kept under.
	DefaultKey = "ecoquest_photo_hashes"
	// DefaultCapacity is the number of most recent entries retained.
	DefaultCapacity = 1000
)

// ErrInvalidHash is returned by Record for anything but a content digest.
var ErrInvalidHash = errors.New("invalid photo hash")

// Entry is one recorded submission.
type Entry struct {
	Hash      string    `json:"hash"`
	UserID    string    `json:"userId"`
	QuestID   string    `json:"questId"`
	Timestamp time.Time `json:"timestamp"`
}

// Match is the outcome of a Lookup.
type Match struct {
	Exists            bool
	SameUser          bool
	UsedBySomeoneElse bool
	UsedBy            string
	UsedAt            time.Time
}

// Options configures a Ledger.
type Options struct {
	// Key defaults to DefaultKey.
	Key string
	// Capacity defaults to DefaultCapacity.
	Capacity int
	// Now defaults to time.Now.
	Now func() time.Time
	// Logger defaults to a no-op logger.
	Logger *zap.Logger
}

// Ledger is an append-only, FIFO-capped list of entries. Appends are
// serialized, so it is safe for concurrent use within one process.
type Ledger struct {
	store    kvstore.Store
	key      string
	capacity int
	now      func() time.Time
	log      *zap.Logger

	mu sync.Mutex
}

func New(store kvstore.Store, opts Options) *Ledger {
	l := &Ledger{
		store:    store,
		key:      opts.Key,
		capacity: opts.Capacity,
		now:      opts.Now,
		log:      opts.Logger,
	}
	if l.key == "" {
		l.key = DefaultKey
	}
	if l.capacity <= 0 {
		l.capacity = DefaultCapacity
	}
	if l.now == nil {
		l.now = time.Now
	}
	if l.log == nil {
		l.log = zap.NewNop()
	}
	return l
}

// Lookup reports whether hash was recorded before and by whom. The oldest
// matching entry is authoritative. Storage failures are logged and reported
// as "not found".
func (l *Ledger) Lookup(ctx context.Context, hash, userID string) Match {
	l.mu.Lock()
	entries, err := l.load(ctx)
	l.mu.Unlock()
	if err != nil {
		l.log.Warn("ledger lookup failed", zap.String("key", l.key), zap.Error(err))
		return Match{}
	}

	for _, e := range entries {
		if e.Hash != hash {
			continue
		}
		m := Match{Exists: true, UsedBy: e.UserID, UsedAt: e.Timestamp}
		if e.UserID == userID {
			m.SameUser = true
		} else {
			m.UsedBySomeoneElse = true
		}
		return m
	}
	return Match{}
}

// Record appends an entry and evicts the oldest ones beyond capacity.
func (l *Ledger) Record(ctx context.Context, hash, userID, questID string) error {
	switch {
	case contenthash.IsFailure(hash):
		return fmt.Errorf("%w: %s is a hashing failure marker", ErrInvalidHash, hash)
	case !contenthash.Valid(hash):
		return fmt.Errorf("%w: %q", ErrInvalidHash, hash)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := l.load(ctx)
	if err != nil {
		return err
	}

	entries = append(entries, Entry{
		Hash:      hash,
		UserID:    userID,
		QuestID:   questID,
		Timestamp: l.now().UTC(),
	})
	if over := len(entries) - l.capacity; over > 0 {
		entries = entries[over:]
	}

	b, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode entries: %w", err)
	}
	if err := l.store.Set(ctx, l.key, b); err != nil {
		return fmt.Errorf("save entries: %w", err)
	}

	l.log.Debug("ledger entry recorded",
		zap.String("hash", hash),
		zap.String("user", userID),
		zap.String("quest", questID),
		zap.Int("entries", len(entries)))
	return nil
}

// Entries returns the retained entries, oldest first.
func (l *Ledger) Entries(ctx context.Context) ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load(ctx)
}

func (l *Ledger) load(ctx context.Context) ([]Entry, error) {
	b, err := l.store.Get(ctx, l.key)
	if errors.Is(err, kvstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}

	var entries []Entry
	if err := json.Unmarshal(b, &entries); err != nil {
		return nil, fmt.Errorf("decode entries: %w", err)
	}
	return entries, nil
}
