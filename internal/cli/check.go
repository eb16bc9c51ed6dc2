package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/veracite/veracite/internal/job"
	"github.com/veracite/veracite/internal/logging"
	"github.com/veracite/veracite/internal/model"
	"github.com/veracite/veracite/internal/pipeline"
)

var (
	outJSON      string
	outMD        string
	noCache      bool
	noFooter     bool
	noVerify     bool
	forceAsync   bool
	llmEnabled   bool
	llmModel     string
	clToken      string
	pollEvery    time.Duration
	checkWallMax time.Duration
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check <file>",
	Short: "Check every citation in a document against authoritative sources",
	Long: `Check extracts legal citations from a document, groups parallel
citations of the same case, and verifies each one through a fallback
chain of sources (CourtListener citation lookup, citation search, then
allow-listed legal sites).

Pass "-" to read the document from stdin.

Large documents run as a background job with progress reporting; small
ones run inline. Use --async to force a job either way.

Example:
  veracite check brief.txt
  veracite check brief.txt --json report.json --md report.md
  veracite check - < motion.txt
  veracite check brief.txt --no-verify`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&outJSON, "json", "report.json", "output JSON path")
	checkCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	checkCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the cross-run verification cache")
	checkCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
	checkCmd.Flags().BoolVar(&noVerify, "no-verify", false, "extract and cluster only, skip external verification")
	checkCmd.Flags().BoolVar(&forceAsync, "async", false, "run as a background job regardless of document size")
	checkCmd.Flags().StringVar(&clToken, "cl-token", "", "CourtListener API token (or COURTLISTENER_API_TOKEN)")
	checkCmd.Flags().DurationVar(&pollEvery, "poll-interval", 2*time.Second, "status poll interval for background jobs")
	checkCmd.Flags().DurationVar(&checkWallMax, "max-wall-clock", 0, "override the job wall-clock budget")

	// LLM flags
	checkCmd.Flags().BoolVar(&llmEnabled, "llm", false, "enable LLM summary generation (requires OPENAI_API_KEY)")
	checkCmd.Flags().StringVar(&llmModel, "llm-model", "gpt-4o-mini", "LLM model name")
}

func runCheck(cmd *cobra.Command, args []string) error {
	source := args[0]

	raw, label, err := readDocument(source)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.Cache.Enabled = cfg.Cache.Enabled && !noCache
	cfg.Verify.Enabled = !noVerify
	cfg.Output.Verbose = verbose
	cfg.Output.IncludeFooter = !noFooter
	if clToken != "" {
		cfg.Verify.CourtListenerToken = clToken
	}
	if checkWallMax > 0 {
		cfg.Job.MaxWallClock = checkWallMax
	}
	if llmEnabled {
		cfg.LLM.Provider = "openai"
		cfg.LLM.Model = llmModel
		cfg.LLM.StrictEvidence = true // Always enforce
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	}

	log, err := logging.New(cfg.Log.Level)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	p := pipeline.NewPipeline(cfg, log)
	manager := job.NewManager(p, cfg.Job, log)

	var report *model.Report
	if forceAsync || manager.ShouldRunAsync(len(raw)) {
		report, err = runAsync(manager, label, raw)
	} else {
		report, err = p.Check(context.Background(), label, raw, nil)
	}
	if err != nil {
		return err
	}

	if err := p.RenderReport(report, outJSON, outMD, verbose); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	if report.Stats.Unverified > 0 {
		os.Exit(1)
	}
	return nil
}

// runAsync submits the document as a job and polls until it finishes,
// printing progress to stderr.
func runAsync(manager *job.Manager, label string, raw []byte) (*model.Report, error) {
	id := manager.Submit(label, raw)
	fmt.Fprintf(os.Stderr, "Job %s queued (%d bytes)\n", id, len(raw))

	lastPct := -1
	for {
		status, err := manager.Status(id)
		if err != nil {
			return nil, err
		}
		if status.Progress != lastPct && verbose {
			fmt.Fprintf(os.Stderr, "  %3d%% %s\n", status.Progress, status.Step)
			lastPct = status.Progress
		}
		if status.Status.Terminal() {
			break
		}
		time.Sleep(pollEvery)
	}

	final, err := manager.Status(id)
	if err != nil {
		return nil, err
	}

	switch final.Status {
	case model.JobCompleted:
		return final.Result, nil
	case model.JobCancelled:
		fmt.Fprintln(os.Stderr, "Job cancelled; reporting partial results")
		if final.Result != nil {
			return final.Result, nil
		}
		return nil, fmt.Errorf("job %s cancelled before producing results", id)
	default:
		if final.Result != nil {
			// Timed-out jobs still carry the partial report.
			fmt.Fprintf(os.Stderr, "Job failed (%s); reporting partial results\n", final.Error)
			return final.Result, nil
		}
		return nil, fmt.Errorf("job %s failed: %s", id, final.Error)
	}
}

// readDocument loads the document from a path or stdin ("-")
func readDocument(source string) ([]byte, string, error) {
	if source == "-" {
		raw, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, "", fmt.Errorf("%w: read stdin: %v", model.ErrInputUnreadable, err)
		}
		return raw, "stdin", nil
	}

	raw, err := os.ReadFile(source)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", model.ErrInputUnreadable, err)
	}
	return raw, source, nil
}
