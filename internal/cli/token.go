package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"lms-grading-service/internal/config"
	"lms-grading-service/internal/domain"
	transport "lms-grading-service/internal/transport/http"
)

// NewTokenCmd issues a bearer token signed with the configured secret, for local testing.
func NewTokenCmd(configPath *string) *cobra.Command {
	var (
		userID int64
		role   string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed bearer token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			parsed, err := domain.ParseRole(role)
			if err != nil {
				return err
			}
			auth, err := newAuthenticator(cfg)
			if err != nil {
				return err
			}
			token, err := auth.Sign(domain.Caller{UserID: userID, Role: parsed}, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().Int64Var(&userID, "user", 0, "user id")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleStudent), "student, instructor or admin")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newAuthenticator(cfg config.Config) (*transport.Authenticator, error) {
	if cfg.Auth.Secret == "" {
		return nil, fmt.Errorf("auth secret not configured")
	}
	return transport.NewAuthenticator(cfg.Auth.Secret, cfg.Auth.Issuer), nil
}
