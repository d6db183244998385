// Command awr-token signs an access token for the AWR API. Identity is
// managed outside this system; the token only carries the username and role.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/awr/backend/internal/domain/issuance"
	"github.com/awr/backend/internal/infrastructure/auth"
	"github.com/awr/backend/internal/infrastructure/config"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand(config.Load, os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

type configLoader func() (*config.Config, error)

func newRootCommand(load configLoader, stdout io.Writer) *cobra.Command {
	var (
		role   string
		ttl    time.Duration
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:           "awr-token <username>",
		Short:         "Sign an AWR API access token",
		Example:       "  awr-token qa.lead --role QA --ttl 12h",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			jwtCfg := cfg.JWT
			if ttl > 0 {
				jwtCfg.AccessTokenExpiration = ttl
			}

			token, err := auth.NewJWTService(jwtCfg).GenerateAccessToken(args[0], issuance.ParseRole(role))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(token)
			}
			fmt.Fprintln(out, token.Token)
			return nil
		},
	}
	cmd.SetOut(stdout)
	cmd.Flags().StringVar(&role, "role", string(issuance.RoleRequester), "role: Requester, QA or Admin")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default: jwt.access_token_expiration)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the token with its expiry as JSON")
	return cmd
}
