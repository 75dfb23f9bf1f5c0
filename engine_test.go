package goHash

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/goHash/codec"
	"github.com/MrEthical07/goHash/internal/pool"
	"github.com/MrEthical07/goHash/kdf"
)

func TestComputeUsesRandomSaltAndKDFOutput(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SaltLength = 8

	stub := kdf.Func{
		FamilyName: "stub",
		Fn: func([]byte, []byte, codec.Params) ([]byte, error) {
			return []byte("KEY"), nil
		},
	}
	e := buildTestEngine(t, New().
		WithConfig(cfg).
		WithKDF(stub).
		WithRandomSource(fixedRandom([]byte("SALTSALT"))).
		WithHost(&countingHost{}))

	stored, err := e.ComputeSync(context.Background(), "secret")
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	c, _ := codec.New("stub")
	cred, err := c.Decode(stored)
	if err != nil {
		t.Fatalf("Decode(%q) failed: %v", stored, err)
	}
	if string(cred.Salt) != "SALTSALT" {
		t.Fatalf("expected salt SALTSALT, got %q", cred.Salt)
	}
	if string(cred.Key) != "KEY" {
		t.Fatalf("expected key KEY, got %q", cred.Key)
	}
}

func TestComputeThenVerifyScrypt(t *testing.T) {
	e := buildTestEngine(t, New().WithConfig(fastScryptConfig()).WithHost(&countingHost{}))
	ctx := context.Background()

	stored, err := e.ComputeSync(ctx, "correct horse")
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if !strings.HasPrefix(stored, "scrypt$") {
		t.Fatalf("expected scrypt prefix, got %q", stored)
	}

	ok, err := e.VerifySync(ctx, stored, "correct horse")
	if err != nil || !ok {
		t.Fatalf("expected match, got ok=%v err=%v", ok, err)
	}
	ok, err = e.VerifySync(ctx, stored, "correct horsf")
	if err != nil || ok {
		t.Fatalf("expected mismatch, got ok=%v err=%v", ok, err)
	}

	other, err := e.ComputeSync(ctx, "correct horse")
	if err != nil {
		t.Fatalf("second Compute failed: %v", err)
	}
	if other == stored {
		t.Fatal("expected distinct credentials for the same password")
	}
}

func TestComputeThenVerifyArgon2id(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Algorithm = kdf.Argon2idName
	cfg.Params = map[string]int64{"m": 8 * 1024, "t": 1, "p": 1}
	cfg.SaltLength = 16
	e := buildTestEngine(t, New().WithConfig(cfg).WithHost(&countingHost{}))

	stored, err := e.ComputeSync(context.Background(), "pa55")
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if !strings.HasPrefix(stored, `argon2id${"keylen":32,"m":8192,"p":1,"t":1}$`) {
		t.Fatalf("unexpected credential %q", stored)
	}

	ok, err := e.VerifySync(context.Background(), stored, "pa55")
	if err != nil || !ok {
		t.Fatalf("expected match, got ok=%v err=%v", ok, err)
	}
}

func TestVerifyMalformedReturnsTypedError(t *testing.T) {
	e := buildTestEngine(t, New().WithKDF(echoKDF("echo", 1)).WithHost(&countingHost{}))

	tests := []struct {
		name   string
		stored string
		want   error
	}{
		{name: "empty", stored: "", want: ErrMalformedFieldCount},
		{name: "too few fields", stored: "echo$a$b", want: ErrMalformedFieldCount},
		{name: "too many fields", stored: "echo$a$b$c$d", want: ErrMalformedFieldCount},
		{name: "wrong prefix", stored: "wrongprefix$$$", want: ErrUnrecognizedPrefix},
		{name: "bad params", stored: "echo$cost=1$S0VZ$U0FMVA==", want: ErrCorruptCredential},
		{name: "bad key", stored: `echo${"cost":1}$!!$U0FMVA==`, want: ErrCorruptCredential},
		{name: "bad salt", stored: `echo${"cost":1}$S0VZ$%%`, want: ErrCorruptCredential},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := e.Verify(context.Background(), tt.stored, "pw")
			if f != nil {
				t.Fatal("expected nil future for malformed credential")
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if !IsMalformed(err) {
				t.Fatalf("expected IsMalformed(%v)", err)
			}
		})
	}

	if got := e.PoolState(); got != PoolNotStarted {
		t.Fatalf("malformed credentials must not start the pool, state=%v", got)
	}
	if got := e.MetricsSnapshot().Counters[MetricVerifyMalformed]; got != uint64(len(tests)) {
		t.Fatalf("expected %d malformed verifications, got %d", len(tests), got)
	}
}

func TestVerifyUsesStoredParameters(t *testing.T) {
	old := buildTestEngine(t, New().WithKDF(echoKDF("echo", 1)).WithHost(&countingHost{}))
	current := buildTestEngine(t, New().WithKDF(echoKDF("echo", 2)).WithHost(&countingHost{}))
	ctx := context.Background()

	stored, err := old.ComputeSync(ctx, "pw")
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	ok, err := current.VerifySync(ctx, stored, "pw")
	if err != nil || !ok {
		t.Fatalf("expected match with stored parameters, got ok=%v err=%v", ok, err)
	}

	upgrade, err := current.NeedsUpgrade(stored)
	if err != nil || !upgrade {
		t.Fatalf("expected NeedsUpgrade=true, got %v err=%v", upgrade, err)
	}
	upgrade, err = old.NeedsUpgrade(stored)
	if err != nil || upgrade {
		t.Fatalf("expected NeedsUpgrade=false, got %v err=%v", upgrade, err)
	}
	if _, err := current.NeedsUpgrade("garbage"); !errors.Is(err, ErrMalformedFieldCount) {
		t.Fatalf("expected ErrMalformedFieldCount, got %v", err)
	}
}

func TestKDFFailure(t *testing.T) {
	kdfErr := errors.New("boom")
	failing := kdf.Func{
		FamilyName: "echo",
		Params:     codec.NewParams(map[string]int64{"cost": 1}),
		Fn: func([]byte, []byte, codec.Params) ([]byte, error) {
			return nil, kdfErr
		},
	}
	e := buildTestEngine(t, New().WithKDF(failing).WithHost(&countingHost{}))
	ctx := context.Background()

	_, err := e.ComputeSync(ctx, "pw")
	if !errors.Is(err, ErrDerivationFailed) || !errors.Is(err, kdfErr) {
		t.Fatalf("expected ErrDerivationFailed wrapping cause, got %v", err)
	}

	good := buildTestEngine(t, New().WithKDF(echoKDF("echo", 1)).WithHost(&countingHost{}))
	stored, err := good.ComputeSync(ctx, "pw")
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	ok, err := e.VerifySync(ctx, stored, "pw")
	if err != nil || ok {
		t.Fatalf("expected false without error on KDF failure, got ok=%v err=%v", ok, err)
	}

	snap := e.MetricsSnapshot()
	if snap.Counters[MetricComputeFailure] != 1 || snap.Counters[MetricVerifyDerivationFailure] != 1 {
		t.Fatalf("unexpected failure counters: %+v", snap.Counters)
	}
}

func TestKDFPanicResolvesDerivationFailed(t *testing.T) {
	panicking := kdf.Func{
		FamilyName: "echo",
		Fn: func([]byte, []byte, codec.Params) ([]byte, error) {
			panic("kdf exploded")
		},
	}
	e := buildTestEngine(t, New().WithKDF(panicking).WithHost(&countingHost{}))

	_, err := e.ComputeSync(context.Background(), "pw")
	var pe *pool.PanicError
	if !errors.Is(err, ErrDerivationFailed) || !errors.As(err, &pe) {
		t.Fatalf("expected ErrDerivationFailed wrapping PanicError, got %v", err)
	}

	// The pool survives the panic.
	if _, err := e.ComputeSync(context.Background(), "pw"); !errors.Is(err, ErrDerivationFailed) {
		t.Fatalf("expected second compute to reach the KDF, got %v", err)
	}
}

func TestCostExceededIsDerivationFailure(t *testing.T) {
	cfg := fastScryptConfig()
	cfg.Limits.MaxMemoryBytes = 1024
	e := buildTestEngine(t, New().WithConfig(cfg).WithHost(&countingHost{}))

	_, err := e.ComputeSync(context.Background(), "pw")
	if !errors.Is(err, ErrDerivationFailed) || !errors.Is(err, ErrCostExceeded) {
		t.Fatalf("expected ErrDerivationFailed wrapping ErrCostExceeded, got %v", err)
	}
}

func TestRandomSourceFailure(t *testing.T) {
	randErr := errors.New("entropy exhausted")
	e := buildTestEngine(t, New().
		WithKDF(echoKDF("echo", 1)).
		WithRandomSource(func(int) ([]byte, error) { return nil, randErr }).
		WithHost(&countingHost{}))

	_, err := e.ComputeSync(context.Background(), "pw")
	if !errors.Is(err, ErrRandomSource) || !errors.Is(err, randErr) {
		t.Fatalf("expected ErrRandomSource, got %v", err)
	}
	if errors.Is(err, ErrDerivationFailed) {
		t.Fatal("random source failure must not be reported as derivation failure")
	}

	short := buildTestEngine(t, New().
		WithKDF(echoKDF("echo", 1)).
		WithRandomSource(func(int) ([]byte, error) { return []byte("x"), nil }).
		WithHost(&countingHost{}))
	if _, err := short.ComputeSync(context.Background(), "pw"); !errors.Is(err, ErrRandomSource) {
		t.Fatalf("expected ErrRandomSource for short salt, got %v", err)
	}
}

func TestLazyStartRegistersOneShutdownHook(t *testing.T) {
	host := &countingHost{}
	e := buildTestEngine(t, New().WithKDF(echoKDF("echo", 1)).WithHost(host))

	if got := e.PoolState(); got != PoolNotStarted {
		t.Fatalf("expected pool not started after Build, got %v", got)
	}
	if got := host.adds.Load(); got != 0 {
		t.Fatalf("expected no hooks after Build, got %d", got)
	}

	const callers = 64
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func() {
			defer wg.Done()
			if _, err := e.ComputeSync(context.Background(), "pw"); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("Compute failed: %v", err)
	}

	if got := e.PoolState(); got != PoolRunning {
		t.Fatalf("expected pool running, got %v", got)
	}
	if got := host.adds.Load(); got != 1 {
		t.Fatalf("expected exactly one shutdown hook, got %d", got)
	}
	if got := e.MetricsSnapshot().Counters[MetricPoolStart]; got != 1 {
		t.Fatalf("expected one pool start, got %d", got)
	}
}

func TestShutdownHookStopsPool(t *testing.T) {
	host := &countingHost{}
	e := buildTestEngine(t, New().WithKDF(echoKDF("echo", 1)).WithHost(host))
	ctx := context.Background()

	stored, err := e.ComputeSync(ctx, "pw")
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	host.Shutdown()

	if _, err := e.ComputeSync(ctx, "pw"); !errors.Is(err, ErrPoolStopped) {
		t.Fatalf("expected ErrPoolStopped after shutdown, got %v", err)
	}
	if _, err := e.Verify(ctx, stored, "pw"); !errors.Is(err, ErrPoolStopped) {
		t.Fatalf("expected ErrPoolStopped from Verify after shutdown, got %v", err)
	}
	if got := e.MetricsSnapshot().Counters[MetricSubmitRejected]; got != 2 {
		t.Fatalf("expected 2 rejected submissions, got %d", got)
	}
}

func TestContinuationRunsOnAwait(t *testing.T) {
	derived := make(chan struct{})
	k := kdf.Func{
		FamilyName: "echo",
		Fn: func([]byte, []byte, codec.Params) ([]byte, error) {
			defer close(derived)
			return []byte("KEY"), nil
		},
	}
	e := buildTestEngine(t, New().WithKDF(k).WithHost(&countingHost{}))

	f := e.Compute(context.Background(), "pw")
	<-derived

	if f.Resolved() {
		t.Fatal("future must not resolve before Await")
	}
	if got := e.MetricsSnapshot().Counters[MetricComputeSuccess]; got != 0 {
		t.Fatalf("encoding ran before Await, success=%d", got)
	}

	const waiters = 8
	results := make([]string, waiters)
	var wg sync.WaitGroup
	wg.Add(waiters)
	for i := 0; i < waiters; i++ {
		go func(i int) {
			defer wg.Done()
			v, err := f.Await(context.Background())
			if err != nil {
				t.Errorf("Await failed: %v", err)
			}
			results[i] = v
		}(i)
	}
	wg.Wait()

	for _, v := range results[1:] {
		if v != results[0] {
			t.Fatalf("waiters observed different results: %q vs %q", v, results[0])
		}
	}
	if got := e.MetricsSnapshot().Counters[MetricComputeSuccess]; got != 1 {
		t.Fatalf("expected continuation to run once, got %d", got)
	}
}

func TestAwaitContextCancelKeepsResult(t *testing.T) {
	release := make(chan struct{})
	k := kdf.Func{
		FamilyName: "echo",
		Fn: func([]byte, []byte, codec.Params) ([]byte, error) {
			<-release
			return []byte("KEY"), nil
		},
	}
	e := buildTestEngine(t, New().WithKDF(k).WithHost(&countingHost{}))

	f := e.Compute(context.Background(), "pw")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := f.Await(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	close(release)
	stored, err := f.Await(context.Background())
	if err != nil || stored == "" {
		t.Fatalf("expected result after release, got %q err=%v", stored, err)
	}
}

func TestCloseRejectsNewWork(t *testing.T) {
	e, err := New().WithKDF(echoKDF("echo", 1)).WithHost(&countingHost{}).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	stored, err := e.ComputeSync(context.Background(), "pw")
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	e.Close()
	e.Close()

	if _, err := e.ComputeSync(context.Background(), "pw"); !errors.Is(err, ErrEngineClosed) {
		t.Fatalf("expected ErrEngineClosed, got %v", err)
	}
	if _, err := e.Verify(context.Background(), stored, "pw"); !errors.Is(err, ErrEngineClosed) {
		t.Fatalf("expected ErrEngineClosed from Verify, got %v", err)
	}
}

func TestBuilderRejectsReuseAndBadConfig(t *testing.T) {
	b := New().WithKDF(echoKDF("echo", 1))
	if _, err := b.Build(); err != nil {
		t.Fatalf("first Build failed: %v", err)
	}
	if _, err := b.Build(); err == nil {
		t.Fatal("expected error on Builder reuse")
	}

	cfg := DefaultConfig()
	cfg.SaltLength = 4
	if _, err := New().WithConfig(cfg).Build(); err == nil {
		t.Fatal("expected error for short salt")
	}

	cfg = DefaultConfig()
	cfg.Params = map[string]int64{"iterations": 10}
	if _, err := New().WithConfig(cfg).Build(); err == nil {
		t.Fatal("expected error for unknown scrypt parameter")
	}

	if _, err := New().WithKDF(echoKDF("bad$name", 1)).Build(); err == nil {
		t.Fatal("expected error for KDF name containing separator")
	}
}

func TestBuildRejectsUnencodableDefaultParams(t *testing.T) {
	for _, name := range []string{"cost$v2", "cost\xff"} {
		k := echoKDF("echo", 1)
		k.Params = codec.NewParams(map[string]int64{name: 1})

		_, err := New().WithKDF(k).Build()
		if !errors.Is(err, codec.ErrUnencodableName) {
			t.Fatalf("default param %q: expected ErrUnencodableName, got %v", name, err)
		}
	}
}

func TestVerifyAcceptsEveryBuiltEngineCredential(t *testing.T) {
	for _, name := range []string{`co"st`, "<cost>", "größe", "\u2028"} {
		k := echoKDF("echo", 1)
		k.Params = codec.NewParams(map[string]int64{name: 7})
		e := buildTestEngine(t, New().WithKDF(k))

		ctx := context.Background()
		stored, err := e.ComputeSync(ctx, "pw")
		if err != nil {
			t.Fatalf("param %q: Compute failed: %v", name, err)
		}
		ok, err := e.VerifySync(ctx, stored, "pw")
		if err != nil || !ok {
			t.Fatalf("param %q: expected match, got ok=%v err=%v", name, ok, err)
		}
		if upgrade, err := e.NeedsUpgrade(stored); err != nil || upgrade {
			t.Fatalf("param %q: expected no upgrade, got %v err=%v", name, upgrade, err)
		}
	}
}

func TestCloseLeavesSharedRunnerRunning(t *testing.T) {
	shared := pool.New(pool.Config{Workers: 2}, testLogger())
	shared.Start()
	t.Cleanup(shared.Stop)

	a := buildTestEngine(t, New().WithKDF(echoKDF("echo", 1)).WithRunner(shared).WithHost(&countingHost{}))
	b := buildTestEngine(t, New().WithKDF(echoKDF("echo", 1)).WithRunner(shared).WithHost(&countingHost{}))

	ctx := context.Background()
	if _, err := a.ComputeSync(ctx, "pw"); err != nil {
		t.Fatalf("Compute on a failed: %v", err)
	}
	a.Close()

	if !shared.Started() {
		t.Fatal("expected Close to leave a caller-started runner running")
	}
	stored, err := b.ComputeSync(ctx, "pw")
	if err != nil {
		t.Fatalf("Compute on b after closing a: %v", err)
	}
	if ok, err := b.VerifySync(ctx, stored, "pw"); err != nil || !ok {
		t.Fatalf("expected match, got ok=%v err=%v", ok, err)
	}
}

func TestCloseStopsRunnerTheEngineStarted(t *testing.T) {
	runner := pool.New(pool.Config{Workers: 1}, testLogger())
	e, err := New().WithKDF(echoKDF("echo", 1)).WithRunner(runner).WithHost(&countingHost{}).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if _, err := e.ComputeSync(context.Background(), "pw"); err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	e.Close()
	if runner.Started() {
		t.Fatal("expected Close to stop the runner it started")
	}
}

func TestEngineParamsMergeDefaults(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Params = map[string]int64{"N": 1 << 12}
	e := buildTestEngine(t, New().WithConfig(cfg))

	want := codec.NewParams(map[string]int64{
		"N":      1 << 12,
		"r":      kdf.DefaultScryptR,
		"p":      kdf.DefaultScryptP,
		"keylen": kdf.DefaultScryptKeyLen,
	})
	if !e.Params().Equal(want) {
		t.Fatalf("expected %s, got %s", want, e.Params())
	}
	if e.Algorithm() != kdf.ScryptName {
		t.Fatalf("expected scrypt, got %s", e.Algorithm())
	}
}
