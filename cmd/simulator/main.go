// Command simulator drives a running backend with fake users for local
// development: it signs users up, asks questions and checks each user's
// history.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const simulatorPassword = "simulator-password-123"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	apiURL := "http://localhost:8080"
	if envURL := os.Getenv("API_URL"); envURL != "" {
		apiURL = envURL
	}

	root := &cobra.Command{
		Use:           "simulator",
		Short:         "Development tool that drives the query API with fake users",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&apiURL, "api-url", apiURL, "Backend base URL (env API_URL)")

	var opts fullOptions
	full := &cobra.Command{
		Use:   "full",
		Short: "Sign up fake users, ask questions for each and verify their history",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFull(cmd.Context(), cmd.OutOrStdout(), NewAPIClient(apiURL), opts)
		},
	}
	full.Flags().IntVar(&opts.Users, "users", 3, "Number of fake users to create")
	full.Flags().IntVar(&opts.Queries, "queries", 2, "Questions asked per user")
	full.Flags().StringVar(&opts.Model, "model", "", "Model to request (server default when empty)")
	full.Flags().IntVar(&opts.Concurrency, "concurrency", 4, "Users simulated in parallel")

	var email, password, model string
	ask := &cobra.Command{
		Use:   "ask <question>",
		Short: "Log in with existing credentials and ask one question",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd.Context(), cmd.OutOrStdout(), NewAPIClient(apiURL), email, password, model, args[0])
		},
	}
	ask.Flags().StringVar(&email, "email", "", "Account email (required)")
	ask.Flags().StringVar(&password, "password", "", "Account password (required)")
	ask.Flags().StringVar(&model, "model", "", "Model to request")
	ask.MarkFlagRequired("email")
	ask.MarkFlagRequired("password")

	root.AddCommand(full, ask)
	return root
}

type fullOptions struct {
	Users       int
	Queries     int
	Model       string
	Concurrency int
}

// userReport is what one simulated user observed.
type userReport struct {
	Email    string
	Asked    []uint64
	Failed   int
	Returned int
}

func runFull(ctx context.Context, out io.Writer, client *APIClient, opts fullOptions) error {
	if opts.Users < 1 {
		return errors.New("--users must be at least 1")
	}
	if opts.Queries < 1 || opts.Queries > 50 {
		return errors.New("--queries must be between 1 and 50")
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}

	fmt.Fprintln(out, "=== Query Simulator: Full Flow ===")
	fmt.Fprintln(out)

	fmt.Fprint(out, "Checking backend health... ")
	if err := client.Health(ctx); err != nil {
		fmt.Fprintln(out, "FAILED")
		return err
	}
	fmt.Fprintln(out, "OK")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Simulating %d users with %d questions each:\n", opts.Users, opts.Queries)

	var mu sync.Mutex
	reports := make([]*userReport, opts.Users)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for i := 0; i < opts.Users; i++ {
		g.Go(func() error {
			report, err := simulateUser(gctx, client, i, opts)
			if err != nil {
				return fmt.Errorf("user %d: %w", i+1, err)
			}
			reports[i] = report

			mu.Lock()
			fmt.Fprintf(out, "  [%d/%d] %s asked %d (failed %d), history returned %d\n",
				i+1, opts.Users, report.Email, len(report.Asked), report.Failed, report.Returned)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	failed := 0
	for _, r := range reports {
		failed += r.Failed
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "=========================================")
	fmt.Fprintln(out, "  SIMULATION COMPLETE")
	fmt.Fprintln(out, "=========================================")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  Users:           %d\n", opts.Users)
	fmt.Fprintf(out, "  Queries stored:  %d\n", opts.Users*opts.Queries)
	fmt.Fprintf(out, "  Answer failures: %d\n", failed)
	fmt.Fprintln(out)
	return nil
}

// simulateUser signs up one user, asks opts.Queries questions and checks
// that history holds exactly those records, newest first.
func simulateUser(ctx context.Context, client *APIClient, n int, opts fullOptions) (*userReport, error) {
	report := &userReport{
		Email: fmt.Sprintf("sim_%d_%s@example.com", n+1, uuid.NewString()[:8]),
	}

	token, err := client.Signup(ctx, report.Email, simulatorPassword)
	if err != nil {
		return nil, err
	}

	for q := 0; q < opts.Queries; q++ {
		question := fmt.Sprintf("Simulated question %d from %s", q+1, report.Email)
		resp, err := client.Ask(ctx, token, question, opts.Model)
		if err != nil {
			var apiErr *APIError
			if errors.As(err, &apiErr) && apiErr.Status == http.StatusBadGateway {
				report.Failed++
				continue
			}
			return nil, err
		}
		report.Asked = append(report.Asked, resp.ID)
	}

	history, err := client.History(ctx, token)
	if err != nil {
		return nil, err
	}
	report.Returned = len(history)

	if len(history) != opts.Queries {
		return nil, fmt.Errorf("history has %d records, want %d", len(history), opts.Queries)
	}
	for i := 1; i < len(history); i++ {
		if history[i-1].ID < history[i].ID {
			return nil, fmt.Errorf("history is not newest first at index %d", i)
		}
	}
	return report, nil
}

func runAsk(ctx context.Context, out io.Writer, client *APIClient, email, password, model, question string) error {
	token, err := client.Login(ctx, email, password)
	if err != nil {
		return err
	}

	resp, err := client.Ask(ctx, token, question, model)
	if err != nil {
		return err
	}

	answer := "(no answer)"
	if resp.Answer != nil {
		answer = *resp.Answer
	}
	fmt.Fprintf(out, "Query %d: %s\n", resp.ID, answer)
	return nil
}
