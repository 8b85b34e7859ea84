package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/authui"
	"github.com/MrEthical07/authui/authtest"
	"github.com/MrEthical07/authui/internal/logging"
)

const loadPassword = "load-password"

type client struct {
	manager *authui.Manager
	email   string
}

func main() {
	var (
		clients     = flag.Int("clients", 64, "number of independent sessions")
		concurrency = flag.Int("concurrency", 32, "number of concurrent workers")
		ops         = flag.Int("ops", 5000, "operations per phase (login, profile, duplicate)")
		baseURL     = flag.String("base-url", "", "backend URL; if empty, AUTHUI_API_BASE_URL env or an in-process backend is used")
	)
	flag.Parse()

	if *clients <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "clients, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	url := *baseURL
	if url == "" {
		url = os.Getenv(authui.EnvPrefix + "API_BASE_URL")
	}
	if url == "" {
		backend := authtest.Start()
		defer backend.Close()
		url = backend.URL()
		fmt.Printf("using in-process backend at %s\n", url)
	} else {
		fmt.Printf("using backend at %s\n", url)
	}

	pool := make([]client, *clients)
	fmt.Printf("signing in %d clients...\n", *clients)
	startSeed := time.Now()
	for i := range pool {
		m, err := newManager(url)
		if err != nil {
			fmt.Fprintf(os.Stderr, "build failed: %v\n", err)
			os.Exit(1)
		}
		defer m.Close()

		email := fmt.Sprintf("load-%d@authui.test", i)
		if err := seed(ctx, m, email); err != nil {
			fmt.Fprintf(os.Stderr, "seed %s failed: %v\n", email, err)
			os.Exit(1)
		}
		pool[i] = client{manager: m, email: email}
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	loginStats := runPhase(*ops, *concurrency, 7919, func(r *rand.Rand) error {
		c := pool[r.Intn(len(pool))]
		_, err := c.manager.Login(ctx, c.email, loadPassword)
		return err
	})
	profileStats := runPhase(*ops, *concurrency, 6151, func(r *rand.Rand) error {
		_, err := pool[r.Intn(len(pool))].manager.Profile(ctx)
		return err
	})

	shared := pool[0]
	before := shared.manager.MetricsSnapshot().Counters[authui.MetricDuplicateSubmission]
	duplicateStats := runPhase(*ops, *concurrency, 4099, func(*rand.Rand) error {
		_, err := shared.manager.Login(ctx, shared.email, loadPassword)
		return err
	})
	collapsed := shared.manager.MetricsSnapshot().Counters[authui.MetricDuplicateSubmission] - before

	fmt.Println("---- results ----")
	printStats("login", loginStats)
	printStats("profile", profileStats)
	printStats("duplicate", duplicateStats)
	fmt.Printf("duplicate: collapsed=%d of %d submissions\n", collapsed, duplicateStats.ops)
}

func newManager(url string) (*authui.Manager, error) {
	cfg := authui.DefaultConfig()
	cfg.API.BaseURL = url
	cfg.Storage.Backend = authui.StorageMemory
	return authui.New().
		WithConfig(cfg).
		WithLogger(logging.Discard()).
		WithNotifier(authui.NoOpNotifier{}).
		WithMetricsEnabled(true).
		WithLatencyHistograms(true).
		Build()
}

// seed registers email, or signs in when the account already exists on a
// shared backend.
func seed(ctx context.Context, m *authui.Manager, email string) error {
	m.Bootstrap(ctx)
	_, err := m.Register(ctx, email, loadPassword, loadPassword)
	if err == nil {
		return nil
	}
	var authErr *authui.AuthError
	if !errors.As(err, &authErr) {
		return err
	}
	_, err = m.Login(ctx, email, loadPassword)
	return err
}

func runPhase(ops, concurrency int, seedStep int64, op func(r *rand.Rand) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*seedStep))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := op(r)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
