package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/iho/procureledger/internal/adapter/http/dto"
	redisRepo "github.com/iho/procureledger/internal/adapter/repository/redis"
	"github.com/iho/procureledger/internal/domain"
	"github.com/iho/procureledger/internal/infrastructure/auth"
	"github.com/iho/procureledger/internal/infrastructure/config"
	"github.com/iho/procureledger/internal/infrastructure/logger"
	"github.com/iho/procureledger/internal/infrastructure/postgres"
	redisinfra "github.com/iho/procureledger/internal/infrastructure/redis"
)

var errDiscrepancies = errors.New("ledger has unreconciled accounts")

// migrator is the subset of postgres.Migrator the migrate commands drive.
type migrator interface {
	Up() error
	Down(steps int) error
}

var newMigrator = func(databaseURL string, log zerolog.Logger) migrator {
	return postgres.NewMigrator(databaseURL, log)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "procureledger-cli",
		Short:         "ProcureLedger CLI tool",
		Long:          `Operational commands for the ProcureLedger service: schema migrations, ledger reconciliation, API tokens and process cache upkeep.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(migrateCmd(), reconcileCmd(), tokenCmd(), processesCmd())
	return rootCmd
}

func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: "console", Service: "procureledger-cli"})
	return cfg, log, nil
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back schema migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			if err := newMigrator(cfg.DatabaseURL, log).Up(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down [steps]",
		Short: "Roll back migrations, one step by default",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps := 1
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n <= 0 {
					return fmt.Errorf("invalid steps %q", args[0])
				}
				steps = n
			}

			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			if err := newMigrator(cfg.DatabaseURL, log).Down(steps); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rolled back %d migration(s)\n", steps)
			return nil
		},
	})

	return cmd
}

func reconcileCmd() *cobra.Command {
	var (
		baseURL string
		token   string
		timeout time.Duration
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Compare stored account totals with their entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client := &http.Client{Timeout: timeout}
			return runReconcile(cmd.OutOrStdout(), client, baseURL, token, asJSON)
		},
	}

	cmd.Flags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the ProcureLedger API")
	cmd.Flags().StringVar(&token, "token", os.Getenv("PROCURELEDGER_TOKEN"), "Bearer token")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Request timeout")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw report")
	return cmd
}

func runReconcile(out io.Writer, client *http.Client, baseURL, token string, asJSON bool) error {
	req, err := http.NewRequest(http.MethodGet, baseURL+"/api/v1/ledger/reconciliation", nil)
	if err != nil {
		return err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusConflict {
		return fmt.Errorf("reconciliation failed (status %d): %s", resp.StatusCode, truncate(string(body), 200))
	}

	var report dto.ReconciliationReportResponse
	if err := json.Unmarshal(body, &report); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if asJSON {
		printJSON(out, report)
	} else {
		fmt.Fprintf(out, "Accounts checked: %d\n", report.TotalAccounts)
		fmt.Fprintf(out, "Reconciled:       %d\n", report.ReconciledAccounts)
		for _, d := range report.Discrepancies {
			fmt.Fprintf(out, "  %-28s recorded=%s calculated=%s diff=%s\n",
				truncate(d.AccountID, 28), d.RecordedBalance, d.CalculatedBalance, d.Difference)
		}
	}

	if len(report.Discrepancies) > 0 {
		return errDiscrepancies
	}
	return nil
}

func tokenCmd() *cobra.Command {
	var (
		userID string
		email  string
		name   string
		role   string
		secret string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API bearer token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := domain.ParseRole(role)
			if err != nil {
				return err
			}
			if secret == "" {
				cfg, _, err := loadConfig()
				if err != nil {
					return err
				}
				secret = cfg.JWTSecret
				if ttl == 0 {
					ttl = cfg.JWTExpiration
				}
			}
			if secret == "" {
				return errors.New("no signing secret: pass --secret or set JWT_SECRET")
			}
			if ttl == 0 {
				ttl = 24 * time.Hour
			}

			token, err := auth.NewJWTManager(secret, ttl).Generate(&domain.User{ID: userID, Email: email, Name: name, Role: r})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User ID the token acts as")
	cmd.Flags().StringVar(&email, "email", "", "User email")
	cmd.Flags().StringVar(&name, "name", "", "User display name")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleApprover), "Role: admin, finance or approver")
	cmd.Flags().StringVar(&secret, "secret", "", "Signing secret, defaults to JWT_SECRET")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime, defaults to JWT_EXPIRATION")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func processesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "processes",
		Short: "Manage approval process definitions",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "flush-cache [title...]",
		Short: "Drop cached process definitions after editing them, every configured title by default",
		RunE: func(cmd *cobra.Command, titles []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			if len(titles) == 0 {
				titles = slices.Sorted(maps.Values(cfg.ProcessTitles()))
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			client, err := redisinfra.NewClient(ctx, cfg.RedisURL)
			if err != nil {
				return err
			}
			defer client.Close()

			cache := redisRepo.NewCache(client, redisRepo.DefaultCacheNamespace)
			if err := redisRepo.InvalidateProcesses(ctx, cache, titles...); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "flushed %d process definition(s)\n", len(titles))
			return nil
		},
	})

	return cmd
}

func printJSON(out io.Writer, v any) {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
