package aggregate

import (
	"fmt"
	"slices"
	"time"

	"golang.org/x/sync/singleflight"

	"expenses/internal/cache"
	"expenses/internal/core"
)

// Cached memoizes the aggregate views per collection version. The caller
// owns versioning: any change to the collection must come with a new version.
// Returned slices are copies and may be modified freely.
type Cached struct {
	group      singleflight.Group
	categories *cache.LRUCache[[]core.CategoryTotal]
	months     *cache.LRUCache[[]core.MonthTotal]
	stats      *cache.LRUCache[core.Stats]
	views      *cache.LRUCache[[]core.Expense]
}

// NewCached creates a memoizing aggregator holding up to size entries per view.
func NewCached(size int, ttl time.Duration) *Cached {
	return &Cached{
		categories: cache.NewLRUCache[[]core.CategoryTotal](size, ttl),
		months:     cache.NewLRUCache[[]core.MonthTotal](size, ttl),
		stats:      cache.NewLRUCache[core.Stats](size, ttl),
		views:      cache.NewLRUCache[[]core.Expense](size, ttl),
	}
}

func memo[T any](g *singleflight.Group, c *cache.LRUCache[T], key string, compute func() T) T {
	if v, ok := c.Get(key); ok {
		return v
	}
	v, _, _ := g.Do(key, func() (any, error) {
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		v := compute()
		c.Set(key, v)
		return v, nil
	})
	return v.(T)
}

func (c *Cached) ByCategory(version uint64, expenses []core.Expense) []core.CategoryTotal {
	key := fmt.Sprintf("category:%d", version)
	return slices.Clone(memo(&c.group, c.categories, key, func() []core.CategoryTotal {
		return ByCategory(expenses)
	}))
}

func (c *Cached) ByMonth(version uint64, expenses []core.Expense) []core.MonthTotal {
	key := fmt.Sprintf("month:%d", version)
	return slices.Clone(memo(&c.group, c.months, key, func() []core.MonthTotal {
		return ByMonth(expenses)
	}))
}

// Summarize caches per reference month, since that is all ref contributes.
func (c *Cached) Summarize(version uint64, expenses []core.Expense, ref time.Time) core.Stats {
	if ref.IsZero() {
		ref = time.Now()
	}
	key := fmt.Sprintf("stats:%d:%s", version, core.MonthKeyOfTime(ref))
	return memo(&c.group, c.stats, key, func() core.Stats {
		return Summarize(expenses, ref)
	})
}

func (c *Cached) SortAndFilter(version uint64, expenses []core.Expense, key SortKey, filter core.Category) []core.Expense {
	k := fmt.Sprintf("view:%d:%s:%s", version, key, filter)
	return slices.Clone(memo(&c.group, c.views, k, func() []core.Expense {
		return SortAndFilter(expenses, key, filter)
	}))
}

// Stats sums the counters of every view cache.
func (c *Cached) Stats() cache.Stats {
	var total cache.Stats
	for _, st := range []cache.Stats{c.categories.Stats(), c.months.Stats(), c.stats.Stats(), c.views.Stats()} {
		total.Hits += st.Hits
		total.Misses += st.Misses
		total.Evictions += st.Evictions
	}
	return total
}
