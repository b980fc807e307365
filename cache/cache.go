package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/tabml/tabkit/logging"
)

const dirPerm = 0o755

// flights collapses concurrent in-process computations for the same
// location. Cross-process callers are not coordinated.
var flights singleflight.Group

// Options configure the memoization wrapper and the Load / Dump helpers.
type Options struct {
	// Reuse short-circuits recomputation when an entry already exists at
	// the storage location. Defaults to false: every call recomputes and
	// overwrites.
	Reuse bool
	// Codec serializes entries. Defaults to GobCodec.
	Codec Codec
	// Logger receives cache hit / miss events. Defaults to NoOpLogger.
	Logger logging.Logger
}

// WithReuse sets the reuse flag.
func WithReuse(reuse bool) func(o *Options) {
	return func(o *Options) { o.Reuse = reuse }
}

// WithCodec overrides the entry codec.
func WithCodec(c Codec) func(o *Options) {
	return func(o *Options) { o.Codec = c }
}

// WithLogger attaches a logger.
func WithLogger(l logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = l }
}

func buildOptions(optFns []func(o *Options)) Options {
	opts := Options{Codec: GobCodec{}, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Codec == nil {
		opts.Codec = GobCodec{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return opts
}

// Cached wraps a producer with memoization against a single storage location.
// Each call to the returned function ensures the parent directory of location
// exists, then either decodes an existing entry (reuse enabled and entry
// present) or invokes the producer and overwrites the entry with its encoded
// result. Producer errors propagate verbatim; nothing is written on failure.
//
// Arguments beyond the context are the closure's concern: callers key
// distinct inputs by distinct locations.
func Cached[T any](location string, producer func(ctx context.Context) (T, error), optFns ...func(o *Options)) func(ctx context.Context) (T, error) {
	opts := buildOptions(optFns)

	return func(ctx context.Context) (T, error) {
		var zero T
		start := time.Now()

		if err := ensureParentDir(location); err != nil {
			return zero, err
		}

		if opts.Reuse {
			if ok, err := Exists(location); err != nil {
				return zero, err
			} else if ok {
				v, err := load[T](location, opts)
				if err != nil {
					return zero, err
				}
				logCacheEvent(opts.Logger, location, true, time.Since(start))
				return v, nil
			}
		}

		v, err, _ := flights.Do(location, func() (any, error) {
			result, err := producer(ctx)
			if err != nil {
				return nil, err
			}
			if err := dump(location, result, opts); err != nil {
				return nil, err
			}
			return result, nil
		})
		if err != nil {
			return zero, err
		}
		logCacheEvent(opts.Logger, location, false, time.Since(start))
		return v.(T), nil
	}
}

// Dump encodes value and writes it to location as a whole-file replacement,
// creating the parent directory if needed.
func Dump[T any](location string, value T, optFns ...func(o *Options)) error {
	opts := buildOptions(optFns)
	if err := ensureParentDir(location); err != nil {
		return err
	}
	return dump(location, value, opts)
}

// Load reads and decodes the entry stored at location.
func Load[T any](location string, optFns ...func(o *Options)) (T, error) {
	opts := buildOptions(optFns)
	return load[T](location, opts)
}

// Exists reports whether a cache entry is present at location. Stat failures
// other than absence surface as a StorageError.
func Exists(location string) (bool, error) {
	_, err := os.Stat(location)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, &StorageError{Location: location, Op: "stat", Err: err}
}

func ensureParentDir(location string) error {
	if location == "" {
		return &StorageError{Location: location, Op: "mkdir", Err: errors.New("empty location")}
	}
	dir := filepath.Dir(location)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return &StorageError{Location: location, Op: "mkdir", Err: err}
	}
	return nil
}

func dump[T any](location string, value T, opts Options) error {
	data, err := opts.Codec.Encode(value)
	if err != nil {
		return &StorageError{Location: location, Op: "encode", Err: err}
	}
	if err := os.WriteFile(location, data, 0o644); err != nil {
		return &StorageError{Location: location, Op: "write", Err: err}
	}
	opts.Logger.Debug("Cache entry written", "location", location, "bytes", len(data), "codec", opts.Codec.Name())
	return nil
}

func load[T any](location string, opts Options) (T, error) {
	var zero T
	data, err := os.ReadFile(location)
	if err != nil {
		return zero, &StorageError{Location: location, Op: "read", Err: err}
	}
	var v T
	if err := opts.Codec.Decode(data, &v); err != nil {
		return zero, &DecodeError{Location: location, Err: err}
	}
	return v, nil
}

func logCacheEvent(l logging.Logger, location string, hit bool, dur time.Duration) {
	msg := "Cache miss"
	if hit {
		msg = "Cache hit"
	}
	l.Debug(msg, "location", location, "hit", hit, "duration", dur)
}
