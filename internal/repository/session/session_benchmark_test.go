package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/jaennil/weather_maps/pkg/logger"
)

func setupBenchSQLiteStore(b *testing.B) *SQLiteStore {
	b.Helper()
	store, err := NewSQLiteStore(fmt.Sprintf("file:%s?cache=shared&mode=memory", b.Name()), logger.NewNop())
	if err != nil {
		b.Fatalf("Failed to create SQLite store: %v", err)
	}
	b.Cleanup(func() { store.Close() })
	return store
}

func populate(b *testing.B, store Store, n int) []string {
	b.Helper()
	ids := make([]string, n)
	for i := range ids {
		id, err := store.Create(context.Background(), "projects/p/maps/m")
		if err != nil {
			b.Fatalf("Create failed: %v", err)
		}
		ids[i] = id
	}
	return ids
}

func BenchmarkCreate_Memory(b *testing.B) {
	store := NewMemoryStore()
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := store.Create(ctx, "projects/p/maps/m"); err != nil {
			b.Fatalf("Create failed: %v", err)
		}
	}
}

func BenchmarkCreate_SQLite(b *testing.B) {
	store := setupBenchSQLiteStore(b)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := store.Create(ctx, "projects/p/maps/m"); err != nil {
			b.Fatalf("Create failed: %v", err)
		}
	}
}

func BenchmarkResolve_Memory(b *testing.B) {
	store := NewMemoryStore()
	ids := populate(b, store, 100)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := store.Resolve(ctx, ids[i%len(ids)]); err != nil {
			b.Fatalf("Resolve failed: %v", err)
		}
	}
}

func BenchmarkResolve_SQLite(b *testing.B) {
	store := setupBenchSQLiteStore(b)
	ids := populate(b, store, 100)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := store.Resolve(ctx, ids[i%len(ids)]); err != nil {
			b.Fatalf("Resolve failed: %v", err)
		}
	}
}

// Tile layers read one session from many goroutines while other layers are created.
func BenchmarkConcurrent_Memory(b *testing.B) {
	store := NewMemoryStore()
	ids := populate(b, store, 10)
	ctx := context.Background()

	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			if i%50 == 0 {
				store.Create(ctx, "projects/p/maps/m")
			} else {
				store.Resolve(ctx, ids[i%len(ids)])
			}
			i++
		}
	})
}
