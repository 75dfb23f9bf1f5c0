package commands

import (
	"fmt"

	goHash "github.com/MrEthical07/goHash"
	"github.com/MrEthical07/goHash/codec"
	"github.com/MrEthical07/goHash/kdf"
	"github.com/spf13/cobra"
)

func newVerifyCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <credential>",
		Short: "Check a password against a stored credential",
		Long: `Check a password against a stored credential.

Exits 0 on a match and 1 on a mismatch. A credential that cannot be decoded
is reported as an error (exit 2).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stored := args[0]

			// Verify with the credential's own family so scrypt and argon2id
			// credentials both work without extra flags.
			if prefix, ok := codec.Sniff(stored); ok && opts.algorithm == "" {
				switch prefix {
				case kdf.ScryptName, kdf.Argon2idName:
					opts.algorithm = prefix
				}
			}

			engine, err := opts.engine()
			if err != nil {
				return err
			}
			defer engine.Close()

			password, err := readPassword(cmd, "Password: ", opts.passwordStdin)
			if err != nil {
				return err
			}

			ok, err := engine.VerifySync(cmd.Context(), stored, password)
			if err != nil {
				if goHash.IsMalformed(err) {
					fmt.Fprintf(cmd.ErrOrStderr(), "invalid credential: %v\n", err)
					return ExitError{Code: 2}
				}
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "mismatch")
				return ExitError{Code: 1}
			}

			fmt.Fprintln(cmd.OutOrStdout(), "match")
			if upgrade, _ := engine.NeedsUpgrade(stored); upgrade {
				fmt.Fprintln(cmd.ErrOrStderr(), "note: credential parameters differ from current configuration")
			}
			return nil
		},
	}
}
