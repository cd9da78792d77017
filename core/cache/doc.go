// Package cache provides Memo, a single cached value with stampede protection.
//
// The first Get computes the value; later callers reuse it. Concurrent
// computations are collapsed with singleflight. Refresh forces a rebuild and
// Invalidate drops the value so the next Get rebuilds lazily.
//
// A TTL of zero keeps the value for the lifetime of the Memo.
package cache
