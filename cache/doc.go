// Package cache implements a disk-backed memoization helper for expensive,
// deterministic computations such as feature engineering.
//
// The central piece is Cached, a higher-order function that wraps a producer
// with read-or-compute-then-write behavior against a single storage location:
//
//	buildAgeFeature := cache.Cached("data/features/age.bin", func(ctx context.Context) ([]float64, error) {
//	    return computeAgeFeature(raw)
//	}, cache.WithReuse(true))
//
//	col, err := buildAgeFeature(ctx)
//
// When reuse is enabled and an entry already exists at the location, the
// stored value is decoded and returned without invoking the producer. In all
// other cases the producer runs, its result is encoded to the location as a
// whole-file replacement, and the result is returned. The parent directory of
// the location is created on demand.
//
// Entries are opaque serialized blobs (gob by default, optionally zstd
// compressed); the byte format is not a stable cross-version contract. The
// reuse check is existence-only: keying is the caller's responsibility via
// distinct locations, and an entry produced for different inputs at the same
// location is silently reused.
//
// Concurrent calls within one process for the same location are collapsed
// into a single producer invocation. No guarantee is made across processes;
// independent writers targeting the same location race (last writer wins).
package cache
