// evictor.go houses the eviction loop for Store.  Every EvictInterval it
// scans the map and removes:
//
//   - drafts idle longer than idleTTL
//   - least-recently-used drafts when map size exceeds maxEntries
//
// Each eviction event is logged and updates Prometheus counters.
package draft

import (
	"sort"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

func (s *Store) evictLoop() {
	for {
		select {
		case <-s.stop:
			return
		case <-s.evictTicker.C:
			s.sweep(s.now())
		}
	}
}

// sweep runs one idle pass and one LRU pass.  It returns the number of
// drafts removed.
func (s *Store) sweep(at time.Time) int {
	now := at.UnixNano()
	var count, removed int

	// ----------------------------------------------------------------
	// Idle eviction pass
	// ----------------------------------------------------------------
	s.m.Range(func(key, value any) bool {
		ent := value.(*entry)
		idle := time.Duration(now - atomic.LoadInt64(&ent.lastSeen))
		if idle > s.idleTTL {
			if s.remove(key.(string), "idle") {
				removed++
				zap.S().Infow("draft evicted", "draft", key, "idle", idle.Truncate(time.Second))
			}
			return true
		}
		count++
		return true
	})

	// ----------------------------------------------------------------
	// LRU eviction pass
	// ----------------------------------------------------------------
	if s.maxEntries > 0 && count > s.maxEntries {
		type kv struct {
			key string
			at  int64
		}
		all := make([]kv, 0, count)
		s.m.Range(func(key, value any) bool {
			ent := value.(*entry)
			all = append(all, kv{key: key.(string), at: atomic.LoadInt64(&ent.lastSeen)})
			return true
		})
		sort.Slice(all, func(i, j int) bool { return all[i].at < all[j].at })
		for i := 0; i < len(all)-s.maxEntries; i++ {
			if s.remove(all[i].key, "lru") {
				removed++
				zap.S().Infow("draft evicted (LRU pressure)", "draft", all[i].key)
			}
		}
	}
	return removed
}
