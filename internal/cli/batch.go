package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/veracite/veracite/internal/logging"
	"github.com/veracite/veracite/internal/pipeline"
	"github.com/veracite/veracite/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <manifest>",
	Short: "Check multiple documents from a manifest file in parallel",
	Long: `Batch checks multiple documents concurrently:
- Read document paths from a manifest file (one per line)
- Check documents in parallel with a configurable worker count
- Generate individual JSON and Markdown reports for each document

Example:
  veracite batch briefs.txt
  veracite batch briefs.txt --concurrency 8 --output-dir ./reports
  veracite batch briefs.txt --timeout 30m`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent workers")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./veracite-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the cross-run verification cache")
	batchCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
	batchCmd.Flags().BoolVar(&noVerify, "no-verify", false, "extract and cluster only, skip external verification")
}

func runBatch(cmd *cobra.Command, args []string) error {
	manifest := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.Cache.Enabled = cfg.Cache.Enabled && !noCache
	cfg.Verify.Enabled = !noVerify
	cfg.Output.Verbose = verbose
	cfg.Output.IncludeFooter = !noFooter

	log, err := logging.New(cfg.Log.Level)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	p := pipeline.NewPipeline(cfg, log)
	processor := worker.NewBatchProcessor(p, concurrency)

	results, err := processor.ProcessManifest(ctx, manifest)
	if err != nil {
		return fmt.Errorf("process manifest: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Checked %d documents with %d workers\n\n", len(results), concurrency)

	renderer := pipeline.NewRenderer(cfg.Output.IncludeFooter)
	successCount := 0
	failureCount := 0
	flagged := 0

	for _, result := range results {
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "FAIL %s: %v\n", result.Path, result.Error)
			continue
		}

		successCount++
		if result.Report.Stats.Unverified > 0 {
			flagged++
		}

		slug := sanitizeFilename(result.Path)
		jsonPath := filepath.Join(outputDir, slug+".json")
		mdPath := filepath.Join(outputDir, slug+".md")

		if err := renderer.RenderJSON(result.Report, jsonPath); err != nil {
			fmt.Fprintf(os.Stderr, "FAIL %s: write JSON: %v\n", result.Path, err)
			continue
		}
		if err := renderer.RenderMarkdown(result.Report, mdPath); err != nil {
			fmt.Fprintf(os.Stderr, "FAIL %s: write Markdown: %v\n", result.Path, err)
			continue
		}

		fmt.Fprintf(os.Stderr, "ok   %s: %d citations, %d verified, %d unverified\n",
			result.Path, len(result.Report.Citations),
			result.Report.Stats.Verified, result.Report.Stats.Unverified)
	}

	fmt.Fprintf(os.Stderr, "\nTotal: %d  ok: %d  failed: %d  with unverified citations: %d\n",
		len(results), successCount, failureCount, flagged)
	fmt.Fprintf(os.Stderr, "Reports: %s\n", outputDir)

	if failureCount > 0 || flagged > 0 {
		os.Exit(1)
	}
	return nil
}

// sanitizeFilename turns a document path into a safe report file stem
func sanitizeFilename(path string) string {
	s := filepath.Base(path)
	if ext := filepath.Ext(s); ext != "" {
		s = strings.TrimSuffix(s, ext)
	}

	replacer := strings.NewReplacer(
		"/", "_", "\\", "_", ":", "_", "*", "_", "?", "_",
		"\"", "_", "<", "_", ">", "_", "|", "_", " ", "-",
	)
	s = replacer.Replace(s)

	if len(s) > 100 {
		s = s[:100]
	}
	if s == "" {
		s = "report"
	}
	return s
}
