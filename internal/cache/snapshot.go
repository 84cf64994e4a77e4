package cache

import "time"

// snapshotKey is the sole key ever written: the simulation server caches
// exactly one thing, the latest encoded tick, so there is no multi-key
// namespace to manage.
const snapshotKey = "state"

// SnapshotCache narrows a general-purpose Cache down to the one operation
// the transport and scheduler packages actually need: publish the latest
// encoded simulation frame, and serve it to any client that asks before the
// next tick arrives. It exists so callers don't each invent their own copy
// of the "state" key and don't need to reach for a multi-key API they have
// no use for.
type SnapshotCache struct {
	backing Cache
	ttl     time.Duration
}

// NewSnapshotCache wraps backing (typically an *LRUCache or, in tests, a
// *MockCache) with fixed-key snapshot semantics. ttl is how long a
// published frame remains servable before it's treated as stale; pass 0 to
// use the backing cache's default TTL (the scheduler republishes every tick
// anyway).
func NewSnapshotCache(backing Cache, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{backing: backing, ttl: ttl}
}

// Publish replaces the cached snapshot with frame.
func (s *SnapshotCache) Publish(frame []byte) {
	s.backing.Set(snapshotKey, frame, s.ttl)
}

// Latest returns the most recently published frame, if one exists and
// hasn't expired.
func (s *SnapshotCache) Latest() ([]byte, bool) {
	return s.backing.Get(snapshotKey)
}

// Stats exposes the backing cache's statistics, e.g. for a metrics probe.
func (s *SnapshotCache) Stats() Stats {
	return s.backing.Stats()
}

// Close releases the backing cache's resources, if it has any to release.
func (s *SnapshotCache) Close() {
	if closer, ok := s.backing.(interface{ Close() }); ok {
		closer.Close()
	}
}
