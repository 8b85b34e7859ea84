package authui

import (
	"context"
	"testing"

	"github.com/MrEthical07/authui/authtest"
)

func newBenchmarkManager(b *testing.B) (*Manager, *authtest.Backend) {
	b.Helper()

	backend := authtest.NewBackend(b)
	backend.AddUser("alice@example.com", "correct-password")

	m, err := New().
		WithConfig(testConfig(backend.URL())).
		WithNotifier(NoOpNotifier{}).
		Build()
	if err != nil {
		b.Fatalf("build failed: %v", err)
	}
	b.Cleanup(func() { _ = m.Close() })
	return m, backend
}

func BenchmarkLogin(b *testing.B) {
	m, _ := newBenchmarkManager(b)
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := m.Login(ctx, "alice@example.com", "correct-password"); err != nil {
			b.Fatalf("login failed: %v", err)
		}
	}
}

func BenchmarkProfileCached(b *testing.B) {
	m, _ := newBenchmarkManager(b)
	ctx := context.Background()
	if _, err := m.Login(ctx, "alice@example.com", "correct-password"); err != nil {
		b.Fatalf("login failed: %v", err)
	}
	if _, err := m.Profile(ctx); err != nil {
		b.Fatalf("profile failed: %v", err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := m.Profile(ctx); err != nil {
			b.Fatalf("profile failed: %v", err)
		}
	}
}

func BenchmarkSessionSnapshotParallel(b *testing.B) {
	s := NewSessionStore(nil, nil, nil)
	s.Establish(context.Background(), "t1", User{ID: "1", Email: "alice@example.com"})

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if !s.Snapshot().Authenticated() {
				b.Error("expected authenticated snapshot")
			}
		}
	})
}
