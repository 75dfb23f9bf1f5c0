package goHash

import (
	"bytes"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/MrEthical07/goHash/codec"
	"github.com/MrEthical07/goHash/kdf"
	"github.com/rs/zerolog"
)

// countingHost records shutdown hooks without running them until Shutdown.
type countingHost struct {
	mu    sync.Mutex
	hooks []func()
	adds  atomic.Int32
}

func (h *countingHost) AddShutdownHook(fn func()) {
	h.adds.Add(1)
	h.mu.Lock()
	h.hooks = append(h.hooks, fn)
	h.mu.Unlock()
}

func (h *countingHost) Shutdown() {
	h.mu.Lock()
	hooks := h.hooks
	h.hooks = nil
	h.mu.Unlock()
	for i := len(hooks) - 1; i >= 0; i-- {
		hooks[i]()
	}
}

func fixedRandom(b []byte) RandomSource {
	return func(n int) ([]byte, error) {
		if n != len(b) {
			return nil, errors.New("unexpected salt length")
		}
		out := make([]byte, n)
		copy(out, b)
		return out, nil
	}
}

// echoKDF derives secret||salt||params so tests can observe every input.
func echoKDF(name string, cost int64) kdf.Func {
	return kdf.Func{
		FamilyName: name,
		Params:     codec.NewParams(map[string]int64{"cost": cost}),
		Fn: func(secret, salt []byte, params codec.Params) ([]byte, error) {
			var b bytes.Buffer
			b.Write(secret)
			b.WriteByte('|')
			b.Write(salt)
			b.WriteByte('|')
			b.WriteString(params.String())
			return b.Bytes(), nil
		},
	}
}

// fastScryptConfig keeps scrypt cheap enough for unit tests.
func fastScryptConfig() Config {
	cfg := DefaultConfig()
	cfg.Algorithm = kdf.ScryptName
	cfg.Params = map[string]int64{"N": 1 << 10, "r": 8, "p": 1, "keylen": 32}
	cfg.SaltLength = 16
	cfg.Pool.Workers = 2
	return cfg
}

func buildTestEngine(t *testing.T, b *Builder) *Engine {
	t.Helper()

	e, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(e.Close)
	return e
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}
