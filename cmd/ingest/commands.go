package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/arturoeanton/vitaldocs-rag/internal/app"
	"github.com/arturoeanton/vitaldocs-rag/internal/domain"
	"github.com/arturoeanton/vitaldocs-rag/internal/middleware"
	"github.com/arturoeanton/vitaldocs-rag/internal/service"
	"github.com/arturoeanton/vitaldocs-rag/pkg/config"
)

func newSourcesCmd(sourcesFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "Print the source list as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := *sourcesFile
			if path == "" {
				path = config.Load().SourcesFile
			}
			sources, err := service.LoadSources(path)
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(sources, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal sources: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}

func newVerifyCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check store connectivity and run sample clinical queries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := config.Load()

			deps, err := app.Build(ctx, cfg)
			if err != nil {
				return err
			}
			defer deps.Close()

			report, err := service.Verify(ctx, deps.Store, deps.Retriever(cfg), service.SampleQueries)
			if asJSON {
				data, mErr := json.MarshalIndent(report, "", "  ")
				if mErr != nil {
					return fmt.Errorf("marshal report: %w", mErr)
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return err
			}

			out := cmd.OutOrStdout()
			if !report.StoreTime.IsZero() {
				fmt.Fprintf(out, "store time: %s\n", report.StoreTime.Format(time.RFC3339))
			}
			fmt.Fprintf(out, "chunks: %d\n", report.Chunks)
			if err != nil {
				return err
			}
			for _, check := range report.Checks {
				fmt.Fprintf(out, "\n%s\n", check.Query)
				if len(check.Results) == 0 {
					fmt.Fprintln(out, "  no match above threshold")
					continue
				}
				top := check.Results[0]
				fmt.Fprintf(out, "  %.3f  %s\n", top.Similarity, top.Title)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}

func newTokenCmd() *cobra.Command {
	var (
		subject string
		role    string
		email   string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a signed bearer token for the chat and admin endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			tok, err := middleware.GenerateJWT(domain.UserContext{
				UserID: subject,
				Email:  email,
				Role:   role,
			}, middleware.JWTConfig{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer, ExpiresIn: ttl})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "sub", "operator", "token subject (user id)")
	cmd.Flags().StringVar(&role, "role", "", "role claim, e.g. admin")
	cmd.Flags().StringVar(&email, "email", "", "email claim")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	return cmd
}
