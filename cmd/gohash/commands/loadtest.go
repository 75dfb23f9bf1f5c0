package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/goHash/authn"
	"github.com/MrEthical07/goHash/credstore"
	promexport "github.com/MrEthical07/goHash/metrics/export/prometheus"
	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

type loadtestOptions struct {
	users       int
	concurrency int
	ops         int
	redisAddr   string
	prefix      string
	metrics     bool
}

func newLoadtestCommand(root *rootOptions) *cobra.Command {
	opts := &loadtestOptions{}

	cmd := &cobra.Command{
		Use:   "loadtest",
		Short: "Enroll and authenticate synthetic users against Redis",
		Long: `Enroll synthetic users and then authenticate them concurrently, reporting
throughput and latency percentiles per phase.

Uses --redis-addr, then REDIS_ADDR, and falls back to an in-process miniredis.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.users <= 0 || opts.concurrency <= 0 || opts.ops <= 0 {
				return errors.New("users, concurrency, and ops must be > 0")
			}
			return runLoadtest(cmd.Context(), cmd.OutOrStdout(), root, opts)
		},
	}

	f := cmd.Flags()
	f.IntVar(&opts.users, "users", 200, "number of users to enroll")
	f.IntVar(&opts.concurrency, "concurrency", 32, "number of concurrent callers")
	f.IntVar(&opts.ops, "ops", 1000, "authentications to perform")
	f.StringVar(&opts.redisAddr, "redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
	f.StringVar(&opts.prefix, "prefix", credstore.DefaultRedisPrefix, "credential key prefix")
	f.BoolVar(&opts.metrics, "metrics", false, "print engine metrics after the run")

	return cmd
}

func runLoadtest(ctx context.Context, out io.Writer, root *rootOptions, opts *loadtestOptions) error {
	logger := root.env.Logger

	addr := opts.redisAddr
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
			return fmt.Errorf("failed to start miniredis: %w", err)
		}
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		logger.Info().Str("addr", mr.Addr()).Msg("using miniredis")
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup = func() { _ = client.Close() }
		logger.Info().Str("addr", addr).Msg("using redis")
	}
	defer cleanup()

	engine, err := root.engine()
	if err != nil {
		return err
	}
	defer engine.Close()

	svc := authn.NewService(engine, credstore.NewRedisStore(client, opts.prefix), logger)

	users := make([]string, opts.users)
	for i := range users {
		users[i] = fmt.Sprintf("user-%d", i)
	}

	enroll := runPhase(opts.users, opts.concurrency, func(i int, _ *rand.Rand) error {
		return svc.Enroll(ctx, users[i], passwordFor(i))
	})
	login := runPhase(opts.ops, opts.concurrency, func(_ int, r *rand.Rand) error {
		idx := r.Intn(len(users))
		return svc.Authenticate(ctx, users[idx], passwordFor(idx))
	})

	fmt.Fprintf(out, "algorithm=%s params=%s\n", engine.Algorithm(), engine.Params())
	fmt.Fprintln(out, "---- results ----")
	printStats(out, "enroll", enroll)
	printStats(out, "authenticate", login)

	if opts.metrics {
		if err := printMetrics(out, promexport.NewCollector(engine)); err != nil {
			return err
		}
	}
	if enroll.failures > 0 || login.failures > 0 {
		return ExitError{Code: 1}
	}
	return nil
}

func passwordFor(i int) string {
	return fmt.Sprintf("pw-%d-%x", i, i*7919)
}

// runPhase calls op ops times from concurrency goroutines and records each latency.
func runPhase(ops, concurrency int, op func(i int, r *rand.Rand) error) phaseStats {
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
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := op(i, r)
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
	return computeStats(time.Since(start), latencies, failures)
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
		return phaseStats{total: total, failures: failures}
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
	return samples[(len(samples)-1)*p/100]
}

func printStats(out io.Writer, name string, s phaseStats) {
	fmt.Fprintf(out, "%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
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

func printMetrics(out io.Writer, c prometheus.Collector) error {
	reg := prometheus.NewRegistry()
	if err := reg.Register(c); err != nil {
		return fmt.Errorf("register collector: %w", err)
	}
	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}

	fmt.Fprintln(out, "---- metrics ----")
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				fmt.Fprintf(out, "%s %.0f\n", mf.GetName(), m.GetCounter().GetValue())
			case m.GetHistogram() != nil:
				fmt.Fprintf(out, "%s_count %d\n", mf.GetName(), m.GetHistogram().GetSampleCount())
			}
		}
	}
	return nil
}
