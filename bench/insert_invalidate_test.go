// Package bench measures the cost of insertion versus invalidation
// under sustained churn, and how steady inserts compare to immediate
// insert-then-invalidate pairs at a fixed cache capacity.
//
// Package bench 测量在持续更替下插入与失效的成本，
// 以及在固定缓存容量下持续插入与立即插入后失效相比的表现。
package bench

import (
	"fmt"
	"testing"

	"github.com/tesseracache/tessera/pkg/cache"
)

const benchCapacity = 100_000

// BenchmarkInsert measures steady-state insertion throughput once the
// cache is already at capacity, so every insert also triggers
// admission control and, on loss, an eviction.
//
// BenchmarkInsert 测量缓存已达到容量后的稳态插入吞吐量，
// 此时每次插入都会触发准入控制，并在落选时触发一次淘汰。
func BenchmarkInsert(b *testing.B) {
	c, err := cache.NewBuilder[int, int]().WithMaxWeightedSize(benchCapacity).Build()
	if err != nil {
		b.Fatalf("failed to build cache: %v", err)
	}
	defer c.Close()

	for i := 0; i < benchCapacity; i++ {
		c.Insert(i, i)
	}

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		c.Insert(i, i)
	}
}

// BenchmarkInvalidate measures invalidation throughput against a cache
// pre-populated with the keys being removed.
//
// BenchmarkInvalidate 测量针对已预先填充待移除键的缓存的失效吞吐量。
func BenchmarkInvalidate(b *testing.B) {
	c, err := cache.NewBuilder[int, int]().WithMaxWeightedSize(benchCapacity).Build()
	if err != nil {
		b.Fatalf("failed to build cache: %v", err)
	}
	defer c.Close()

	for i := 0; i < b.N; i++ {
		c.Insert(i, i)
	}

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		c.Invalidate(i)
	}
}

// BenchmarkInsertThenInvalidate measures the churn pattern of
// inserting a key and immediately invalidating it again, against
// BenchmarkInsert's steady-growth pattern — the question the original
// benchmark asked: is insert-then-discard cheaper than insert-to-stay.
//
// BenchmarkInsertThenInvalidate 测量插入一个键后立即将其失效的更替模式，
// 与BenchmarkInsert的稳定增长模式相对比。
func BenchmarkInsertThenInvalidate(b *testing.B) {
	c, err := cache.NewBuilder[int, int]().WithMaxWeightedSize(benchCapacity).Build()
	if err != nil {
		b.Fatalf("failed to build cache: %v", err)
	}
	defer c.Close()

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		c.Insert(i, i)
		c.Invalidate(i)
	}
}

// BenchmarkInsertAtShardCounts measures how shard count affects
// insertion throughput under concurrent access, the Go equivalent of
// sweeping a tuning parameter the Criterion harness never had to
// consider (the original used a single-threaded Cache).
//
// BenchmarkInsertAtShardCounts 测量分片数量在并发访问下如何影响插入吞吐量。
func BenchmarkInsertAtShardCounts(b *testing.B) {
	for _, shards := range []int{1, 4, 16, 64} {
		b.Run(fmt.Sprintf("Shards=%d", shards), func(b *testing.B) {
			c, err := cache.NewBuilder[int, int]().
				WithMaxWeightedSize(benchCapacity).
				WithShardCount(shards).
				Build()
			if err != nil {
				b.Fatalf("failed to build cache: %v", err)
			}
			defer c.Close()

			b.ResetTimer()
			b.ReportAllocs()
			b.RunParallel(func(pb *testing.PB) {
				i := 0
				for pb.Next() {
					c.Insert(i, i)
					i++
				}
			})
		})
	}
}
