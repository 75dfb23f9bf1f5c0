package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHashCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "hash",
		Short: "Compute a credential for a password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, err := opts.engine()
			if err != nil {
				return err
			}
			defer engine.Close()

			password, err := readPassword(cmd, "Password: ", opts.passwordStdin)
			if err != nil {
				return err
			}

			credential, err := engine.ComputeSync(cmd.Context(), password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), credential)
			return nil
		},
	}
}
