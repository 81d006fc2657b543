package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/authcore"
	"github.com/MrEthical07/authcore/metrics/export/internaldefs"
	"github.com/MrEthical07/authcore/password"
	"github.com/MrEthical07/authcore/store/memory"
)

// session is one logged-in client. Refresh rotates raw, so a client never
// rotates concurrently with itself.
type session struct {
	mu     sync.Mutex
	access string
	raw    string
}

func main() {
	var (
		users       = flag.Int("users", 1000, "number of accounts to register and log in")
		concurrency = flag.Int("concurrency", 64, "number of concurrent workers")
		ops         = flag.Int("ops", 50000, "operations per phase (validate, refresh)")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
	)
	flag.Parse()

	if *users <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "users, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", mr.Addr())
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	engine, err := newEngine(client)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build engine: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("seeding %d sessions...\n", *users)
	startSeed := time.Now()
	sessions, err := seed(ctx, engine, *users)
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	validate := runPhase(*ops, *concurrency, len(sessions), func(idx int) error {
		s := sessions[idx]
		s.mu.Lock()
		access := s.access
		s.mu.Unlock()
		_, err := engine.ValidateAccess(ctx, access)
		return err
	})

	refresh := runPhase(*ops, *concurrency, len(sessions), func(idx int) error {
		s := sessions[idx]
		s.mu.Lock()
		defer s.mu.Unlock()
		tokens, err := engine.Refresh(ctx, s.raw)
		if err != nil {
			return err
		}
		s.access, s.raw = tokens.AccessToken, tokens.RefreshToken
		return nil
	})

	validate.report("validate")
	refresh.report("refresh")
	fmt.Println("engine counters:")
	printCounters(engine.MetricsSnapshot())
}

// newEngine uses a cheap KDF: the run measures session handling, not argon2.
func newEngine(client redis.UniversalClient) (*authcore.Engine, error) {
	cfg := authcore.DefaultConfig()
	cfg.JWT.Secret = []byte("authcore-loadtest-secret-0123456789abcdef")
	cfg.Password.Argon2 = password.Config{Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
	cfg.Timeouts.KV = 2 * time.Second

	store := memory.New()
	return authcore.New().
		WithConfig(cfg).
		WithRedis(client).
		WithUserStore(store).
		WithRefreshTokenStore(store).
		WithLatencyHistograms(false).
		Build()
}

func seed(ctx context.Context, engine *authcore.Engine, n int) ([]*session, error) {
	out := make([]*session, n)
	for i := range n {
		email := fmt.Sprintf("load-%d@example.com", i)
		if _, err := engine.Register(ctx, email, "loadtest-password"); err != nil {
			return nil, err
		}
		// distinct client IPs keep the login limiter out of the way
		lctx := authcore.WithClientIP(ctx, fmt.Sprintf("10.%d.%d.%d", i>>16&0xff, i>>8&0xff, i&0xff))
		tokens, err := engine.Login(lctx, email, "loadtest-password")
		if err != nil {
			return nil, err
		}
		out[i] = &session{access: tokens.AccessToken, raw: tokens.RefreshToken}
	}
	return out, nil
}

// runPhase spreads ops across concurrency workers. Each worker keeps its own
// samples; they are merged once all workers have stopped.
func runPhase(ops, concurrency, n int, op func(idx int) error) phaseResult {
	var (
		wg       sync.WaitGroup
		issued   atomic.Int64
		failures atomic.Int64
		perWork  = make([][]time.Duration, concurrency)
	)

	start := time.Now()
	for w := range concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := rand.New(rand.NewPCG(uint64(w), uint64(start.UnixNano())))
			local := make([]time.Duration, 0, ops/concurrency+1)
			for issued.Add(1) <= int64(ops) {
				t0 := time.Now()
				if err := op(r.IntN(n)); err != nil {
					failures.Add(1)
				}
				local = append(local, time.Since(t0))
			}
			perWork[w] = local
		}()
	}
	wg.Wait()
	elapsed := time.Since(start)

	var samples []time.Duration
	for _, local := range perWork {
		samples = append(samples, local...)
	}
	slices.Sort(samples)
	return phaseResult{elapsed: elapsed, samples: samples, failures: failures.Load()}
}

type phaseResult struct {
	elapsed  time.Duration
	samples  []time.Duration // sorted ascending
	failures int64
}

// quantile uses the nearest-rank method on the sorted samples.
func (r phaseResult) quantile(q float64) time.Duration {
	if len(r.samples) == 0 {
		return 0
	}
	idx := int(math.Ceil(q*float64(len(r.samples)))) - 1
	return r.samples[max(0, min(idx, len(r.samples)-1))]
}

func (r phaseResult) report(name string) {
	rate := 0.0
	if r.elapsed > 0 {
		rate = float64(len(r.samples)) / r.elapsed.Seconds()
	}
	fmt.Printf("%-9s ops=%d failed=%d elapsed=%s rate=%.0f/s",
		name, len(r.samples), r.failures, r.elapsed.Round(time.Millisecond), rate)
	for _, q := range []float64{0.5, 0.95, 0.99} {
		fmt.Printf(" p%g=%s", q*100, r.quantile(q).Round(time.Microsecond))
	}
	fmt.Println()
}

// printCounters lists the non-zero engine counters by exported name.
func printCounters(snap authcore.MetricsSnapshot) {
	for _, def := range internaldefs.CounterDefs {
		if v := snap.Counters[def.ID]; v > 0 {
			fmt.Printf("  %s %d\n", def.Name, v)
		}
	}
}
