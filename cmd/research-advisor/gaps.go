// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-advisor/internal/embed"
	"github.com/pdiddy/research-advisor/internal/gaps"
	"github.com/pdiddy/research-advisor/internal/gapstore"
	"github.com/pdiddy/research-advisor/internal/llm"
	"github.com/pdiddy/research-advisor/internal/search"
	"github.com/pdiddy/research-advisor/pkg/types"
)

var gapsCmd = &cobra.Command{
	Use:   "gaps",
	Short: "Manage the catalog of open research problems",
	Long: `Gaps maintains a local SQLite catalog of open research problems used
for pivot suggestions. Import a scraped seed file, backfill embeddings,
enrich entries with taxonomy labels, list the catalog, or retrieve
entries matching a researcher profile.`,
}

// --- import subcommand ---

var gapsImportCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Import a seed catalog of open problems",
	Long: `Import reads a YAML seed file of open problems and upserts each entry
by source URL. Re-importing unchanged entries is a no-op; a changed title
or description clears the stored embedding so the backfill re-embeds it.`,
	Args: cobra.ExactArgs(1),
	RunE: runGapsImport,
}

func runGapsImport(cmd *cobra.Command, args []string) error {
	store, err := openGapStore()
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := store.ImportSeed(context.Background(), args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Imported %d entries (%d skipped)\n", summary.Imported, summary.Skipped)
	return nil
}

// --- embed subcommand ---

var gapsEmbedCmd = &cobra.Command{
	Use:   "embed",
	Short: "Backfill embeddings for catalog entries",
	Long: `Embed computes embedding vectors for entries that lack one, in
batches committed per transaction. Interrupting the run keeps every
committed batch.`,
	RunE: runGapsEmbed,
}

func runGapsEmbed(cmd *cobra.Command, args []string) error {
	cfg := advisorConfig()
	store, err := gapstore.Open(cfg.Gaps.StorePath, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	ctx, cancel := interruptibleContext()
	defer cancel()

	summary, err := gaps.BackfillEmbeddings(ctx, store, embed.NewClient(cfg.Embedding, logger), limit, logger)
	fmt.Fprintf(os.Stdout, "Embedded %d entries (%d skipped)\n", summary.Embedded, summary.Skipped)
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "Interrupted; committed batches are kept.")
		return nil
	}
	return err
}

// --- enrich subcommand ---

var gapsEnrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Label catalog entries with taxonomy from published work",
	Long: `Enrich assigns domain, field, subfield, and topic labels to entries
that lack them. Each entry is looked up against the literature and
labeled by a weighted vote over the topics of matching papers; entries
nothing is published about fall back to the reasoning service.

Entries are processed one at a time with delays between requests, so
large backlogs take a while. Interrupting the run keeps every committed
batch.`,
	RunE: runGapsEnrich,
}

func runGapsEnrich(cmd *cobra.Command, args []string) error {
	cfg := advisorConfig()
	store, err := gapstore.Open(cfg.Gaps.StorePath, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	ctx, cancel := interruptibleContext()
	defer cancel()

	enricher := gaps.NewEnricher(store,
		search.NewClient(cfg.Search, logger),
		llm.NewClient(cfg.AI, logger),
		logger)
	summary, err := enricher.Run(ctx, limit)
	fmt.Fprintf(os.Stdout, "Enriched %d entries (%d skipped)\n", summary.Enriched, summary.Skipped)
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "Interrupted; committed batches are kept.")
		return nil
	}
	return err
}

// --- list subcommand ---

var gapsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog entries",
	RunE:  runGapsList,
}

func runGapsList(cmd *cobra.Command, args []string) error {
	category, _ := cmd.Flags().GetString("category")
	source, _ := cmd.Flags().GetString("source")
	if category != "" && source != "" {
		return fmt.Errorf("use --category or --source, not both")
	}

	store, err := openGapStore()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	var entries []types.GapEntry
	switch {
	case category != "":
		entries, err = store.ByCategory(ctx, category)
	case source != "":
		entries, err = store.BySource(ctx, source)
	default:
		entries, err = store.All(ctx)
	}
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatGapList(entries, jsonOutput)
}

func formatGapList(entries []types.GapEntry, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Println("No entries in the catalog.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-5s  %-14s  %-30s  %s\n", "ID", "Category", "Field", "Title")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))

	for _, e := range entries {
		category := e.Category
		if len(category) > 14 {
			category = category[:11] + "..."
		}
		field := e.Field
		if field == "" {
			field = "-"
		}
		if len(field) > 30 {
			field = field[:27] + "..."
		}
		title := e.Title
		if len(title) > 45 {
			title = title[:42] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-5d  %-14s  %-30s  %s\n", e.ID, category, field, title)
	}

	fmt.Fprintf(os.Stdout, "\n%d entries\n", len(entries))
	return nil
}

// --- retrieve subcommand ---

var gapsRetrieveCmd = &cobra.Command{
	Use:   "retrieve",
	Short: "Retrieve catalog entries matching a researcher profile",
	Long: `Retrieve finds the catalog entries closest to a research question and
skill set, by embedding similarity when the catalog is embedded and a
full scan otherwise. Unlike assess --pivots, no literature search or
reasoning service is involved.`,
	RunE: runGapsRetrieve,
}

func runGapsRetrieve(cmd *cobra.Command, args []string) error {
	question, _ := cmd.Flags().GetString("question")
	if strings.TrimSpace(question) == "" {
		return fmt.Errorf("a research question is required: pass --question")
	}
	skills, _ := cmd.Flags().GetStringSlice("skills")
	profile := types.ResearchProfile{ResearchQuestion: question, Skills: skills}

	cfg := advisorConfig()
	if topK, _ := cmd.Flags().GetInt("top-k"); topK > 0 {
		cfg.Gaps.RetrievalTopK = topK
	}
	store, err := gapstore.Open(cfg.Gaps.StorePath, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	retriever := gaps.NewRetriever(store, embed.NewClient(cfg.Embedding, logger), cfg.Gaps, logger)
	entries, err := retriever.Retrieve(context.Background(), profile, types.ResearcherClassification{})
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatGapRetrieve(entries, jsonOutput)
}

func formatGapRetrieve(entries []types.GapEntry, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Println("No matching entries.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-4s  %-14s  %s\n", "Rank", "Category", "Open problem")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 96))

	for i, e := range entries {
		category := e.Category
		if category == "" {
			category = "-"
		}
		if len(category) > 14 {
			category = category[:11] + "..."
		}
		title := e.Title
		if len(title) > 74 {
			title = title[:71] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-4d  %-14s  %s\n", i+1, category, title)
		fmt.Fprintf(os.Stdout, "%-20s%s\n", "", e.SourceURL)
	}

	fmt.Fprintf(os.Stdout, "\n%d entries\n", len(entries))
	return nil
}

// --- shared helpers ---

func openGapStore() (*gapstore.Store, error) {
	cfg := advisorConfig()
	return gapstore.Open(cfg.Gaps.StorePath, logger)
}

// interruptibleContext returns a context canceled on SIGINT or SIGTERM,
// so a long maintenance run can commit its in-flight batch on the way
// out.
func interruptibleContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}

func init() {
	gapsEmbedCmd.Flags().Int("limit", 0, "maximum entries to embed this run (0 = default 500)")
	gapsEnrichCmd.Flags().Int("limit", 0, "maximum entries to label this run (0 = default 500)")

	gapsListCmd.Flags().String("category", "", "filter by category")
	gapsListCmd.Flags().String("source", "", "filter by source catalog")
	gapsListCmd.Flags().Bool("json", false, "output entries as JSON")

	gapsRetrieveCmd.Flags().String("question", "", "research question to match against the catalog")
	gapsRetrieveCmd.Flags().StringSlice("skills", nil, "researcher skills (comma-separated)")
	gapsRetrieveCmd.Flags().Int("top-k", 0, "number of entries to retrieve (0 = config default)")
	gapsRetrieveCmd.Flags().Bool("json", false, "output entries as JSON")

	gapsCmd.AddCommand(gapsImportCmd)
	gapsCmd.AddCommand(gapsEmbedCmd)
	gapsCmd.AddCommand(gapsEnrichCmd)
	gapsCmd.AddCommand(gapsListCmd)
	gapsCmd.AddCommand(gapsRetrieveCmd)

	rootCmd.AddCommand(gapsCmd)
}
