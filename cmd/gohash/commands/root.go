package commands

import (
	"context"
	"fmt"

	goHash "github.com/MrEthical07/goHash"
	"github.com/MrEthical07/goHash/lifecycle"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Env carries process-wide dependencies into the commands.
type Env struct {
	Hooks   *lifecycle.Hooks
	Logger  zerolog.Logger
	Version string
}

// ExitError asks main to exit with Code without logging.
type ExitError struct {
	Code int
}

func (e ExitError) Error() string { return fmt.Sprintf("exit status %d", e.Code) }

type rootOptions struct {
	env Env

	configPath    string
	algorithm     string
	params        map[string]int64
	saltLength    uint32
	workers       int
	passwordStdin bool
}

// Execute runs the root command.
func Execute(ctx context.Context, env Env) error {
	return newRootCommand(env).ExecuteContext(ctx)
}

func newRootCommand(env Env) *cobra.Command {
	if env.Hooks == nil {
		env.Hooks = lifecycle.New()
	}
	opts := &rootOptions{env: env}

	rootCmd := &cobra.Command{
		Use:           "gohash",
		Short:         "Compute and verify scrypt / argon2id password credentials",
		Version:       env.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "YAML config file")
	flags.StringVar(&opts.algorithm, "algorithm", "", "KDF: scrypt or argon2id (overrides config)")
	flags.StringToInt64Var(&opts.params, "param", nil, "KDF parameter override, e.g. --param N=16384")
	flags.Uint32Var(&opts.saltLength, "salt-length", 0, "salt length in bytes (overrides config)")
	flags.IntVar(&opts.workers, "workers", 0, "worker pool size (overrides config)")
	flags.BoolVar(&opts.passwordStdin, "password-stdin", false, "read the password from stdin instead of prompting")

	rootCmd.AddCommand(newHashCommand(opts))
	rootCmd.AddCommand(newVerifyCommand(opts))
	rootCmd.AddCommand(newLoadtestCommand(opts))

	return rootCmd
}

func (o *rootOptions) config() (goHash.Config, error) {
	cfg := goHash.DefaultConfig()
	if o.configPath != "" {
		var err error
		cfg, err = goHash.LoadConfig(o.configPath)
		if err != nil {
			return goHash.Config{}, err
		}
	}

	if o.algorithm != "" && o.algorithm != cfg.Algorithm {
		cfg.Algorithm = o.algorithm
		// Parameters from the file belong to the other algorithm.
		cfg.Params = nil
	}
	if len(o.params) > 0 {
		if cfg.Params == nil {
			cfg.Params = make(map[string]int64, len(o.params))
		}
		for k, v := range o.params {
			cfg.Params[k] = v
		}
	}
	if o.saltLength != 0 {
		cfg.SaltLength = o.saltLength
	}
	if o.workers != 0 {
		cfg.Pool.Workers = o.workers
	}
	return cfg, nil
}

func (o *rootOptions) engine() (*goHash.Engine, error) {
	cfg, err := o.config()
	if err != nil {
		return nil, err
	}

	return goHash.New().
		WithConfig(cfg).
		WithHost(o.env.Hooks).
		WithLogger(o.env.Logger).
		Build()
}
