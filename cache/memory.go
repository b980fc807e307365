package cache

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Memory is a read-through in-process layer over disk entries for callers
// that Load the same locations repeatedly (feature assembly, fold loops). It
// holds decoded values in an LRU keyed by location, so repeated loads skip
// both the file read and the decode. It never writes to disk and is safe for
// concurrent use.
//
// The layer trusts the disk entry at first load; external overwrites of a
// cached location are not observed until Invalidate is called.
type Memory[T any] struct {
	entries *lru.Cache[string, T]
	opts    Options
}

// NewMemory creates a read-through layer holding at most size decoded
// entries.
func NewMemory[T any](size int, optFns ...func(o *Options)) (*Memory[T], error) {
	entries, err := lru.New[string, T](size)
	if err != nil {
		return nil, fmt.Errorf("init lru: %w", err)
	}
	return &Memory[T]{entries: entries, opts: buildOptions(optFns)}, nil
}

// Load returns the decoded entry for location, reading from disk only on the
// first access per location.
func (m *Memory[T]) Load(location string) (T, error) {
	if v, ok := m.entries.Get(location); ok {
		return v, nil
	}
	v, err := load[T](location, m.opts)
	if err != nil {
		var zero T
		return zero, err
	}
	m.entries.Add(location, v)
	return v, nil
}

// Invalidate drops the in-memory copy for location. The next Load re-reads
// the disk entry.
func (m *Memory[T]) Invalidate(location string) { m.entries.Remove(location) }

// Len returns the number of decoded entries currently held.
func (m *Memory[T]) Len() int { return m.entries.Len() }
