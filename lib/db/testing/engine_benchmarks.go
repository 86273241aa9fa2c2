package testing

import (
	"fmt"
	"math/rand"
	"sync/atomic"
	"testing"

	"github.com/ValentinKolb/kvbase/lib/db"
)

// RunEngineBenchmarks runs all benchmarks for a db.Engine implementation.
func RunEngineBenchmarks(b *testing.B, name string, factory EngineFactory) {
	b.Run(name, func(b *testing.B) {
		b.Run("Put", func(b *testing.B) {
			benchmarkPut(b, factory(b))
		})

		b.Run("Get", func(b *testing.B) {
			benchmarkGet(b, factory(b))
		})

		b.Run("MixedUsage", func(b *testing.B) {
			benchmarkMixedUsage(b, factory(b))
		})
	})
}

// --------------------------------------------------------------------------
// Benchmark functions
// --------------------------------------------------------------------------

func benchmarkPut(b *testing.B, engine db.Engine) {
	b.Cleanup(func() {
		_ = engine.Close()
	})

	value := []byte("benchmark-value")
	var counter atomic.Int64

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			key := []byte(fmt.Sprintf("key-%d", counter.Add(1)))
			_ = engine.Put(key, value)
		}
	})
}

func benchmarkGet(b *testing.B, engine db.Engine) {
	b.Cleanup(func() {
		_ = engine.Close()
	})

	const keys = 1000
	for i := 0; i < keys; i++ {
		_ = engine.Put([]byte(fmt.Sprintf("key-%d", i)), []byte("value"))
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		r := rand.New(rand.NewSource(rand.Int63()))
		for pb.Next() {
			_, _, _ = engine.Get([]byte(fmt.Sprintf("key-%d", r.Intn(keys))))
		}
	})
}

func benchmarkMixedUsage(b *testing.B, engine db.Engine) {
	b.Cleanup(func() {
		_ = engine.Close()
	})

	const keys = 1000
	value := []byte("value")

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		r := rand.New(rand.NewSource(rand.Int63()))
		for pb.Next() {
			key := []byte(fmt.Sprintf("key-%d", r.Intn(keys)))
			// 80% reads, 20% writes
			if r.Intn(10) < 8 {
				_, _, _ = engine.Get(key)
			} else {
				_ = engine.Put(key, value)
			}
		}
	})
}
