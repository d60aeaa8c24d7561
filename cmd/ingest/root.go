package main

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/arturoeanton/vitaldocs-rag/internal/app"
	"github.com/arturoeanton/vitaldocs-rag/internal/domain"
	"github.com/arturoeanton/vitaldocs-rag/internal/service"
	"github.com/arturoeanton/vitaldocs-rag/pkg/config"
)

// errNothingIngested is returned when every source was skipped.
var errNothingIngested = errors.New("no source could be ingested")

type ingestFlags struct {
	chunkSize   int
	overlap     int
	noFilter    bool
	sourcesFile string
}

func newRootCmd() *cobra.Command {
	var flags ingestFlags

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Rebuild the VitalDocs knowledge base",
		Long: `Fetches every configured CDC page, splits it into overlapping chunks,
embeds them and replaces the entire contents of the vector store.
Sources that fail are skipped; the run continues with the next one.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runIngest(cmd, flags)
		},
	}

	cmd.Flags().IntVar(&flags.chunkSize, "chunk-size", 0, "chunk size in characters (default from CHUNK_SIZE)")
	cmd.Flags().IntVar(&flags.overlap, "overlap", -1, "chunk overlap in characters (default from CHUNK_OVERLAP)")
	cmd.Flags().BoolVar(&flags.noFilter, "no-filter", false, "disable the readability filter")
	cmd.PersistentFlags().StringVar(&flags.sourcesFile, "sources", "", "YAML source list (default from SOURCES_FILE, else built-in)")

	cmd.AddCommand(
		newSourcesCmd(&flags.sourcesFile),
		newVerifyCmd(),
		newTokenCmd(),
	)
	return cmd
}

func loadConfig(flags ingestFlags) *config.Config {
	cfg := config.Load()
	if flags.chunkSize > 0 {
		cfg.ChunkSize = flags.chunkSize
	}
	if flags.overlap >= 0 {
		cfg.ChunkOverlap = flags.overlap
	}
	if flags.noFilter {
		cfg.ReadabilityFilter = false
	}
	if flags.sourcesFile != "" {
		cfg.SourcesFile = flags.sourcesFile
	}
	return cfg
}

func runIngest(cmd *cobra.Command, flags ingestFlags) error {
	ctx := cmd.Context()
	cfg := loadConfig(flags)

	sources, err := service.LoadSources(cfg.SourcesFile)
	if err != nil {
		return err
	}

	deps, err := app.Build(ctx, cfg)
	if err != nil {
		return err
	}
	defer deps.Close()

	ingest := deps.IngestService(cfg)

	start := time.Now()
	summary, err := ingest.Ingest(ctx, sources, func(r domain.SourceReport, total int) {
		status := "ok"
		if r.Skipped {
			status = "skipped"
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "[%d/%d] %-7s %s (%d chunks)\n", r.Position, total, status, r.Source.Title, r.Chunks)
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "\nProcessed %d/%d sources, skipped %d, stored %d chunks in %s\n",
		summary.Processed, summary.Total, summary.Skipped, summary.TotalChunks, time.Since(start).Round(time.Second))
	slog.Info("ingestion finished", "processed", summary.Processed, "skipped", summary.Skipped, "chunks", summary.TotalChunks)

	return checkSummary(summary)
}

func checkSummary(s domain.IngestSummary) error {
	if s.Total > 0 && s.Processed == 0 {
		return errNothingIngested
	}
	return nil
}
