// Package storage keeps the watcher's record of already-published wafer summaries.
package storage

import (
	"fmt"
	"strings"
	"time"
)

// Store tracks published summary keys.
type Store interface {
	Close() error
	Seen(key string) (bool, error)
	Mark(key string) error
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	EntryTTL        time.Duration
	CleanupInterval time.Duration
}

const (
	defaultEntryTTL        = 7 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		store, err := openBolt(path, opts)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.EntryTTL <= 0 {
		opts.EntryTTL = defaultEntryTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error              { return nil }
func (noopStore) Seen(string) (bool, error) { return false, nil }
func (noopStore) Mark(string) error         { return nil }
