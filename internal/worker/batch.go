package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/veracite/veracite/internal/model"
)

// Checker defines the interface for checking one document
type Checker interface {
	CheckFile(ctx context.Context, path string) (*model.Report, error)
}

// CheckJob represents one document check
type CheckJob struct {
	Path    string
	Checker Checker
}

// Execute runs the check job
func (j *CheckJob) Execute(ctx context.Context) Result {
	report, err := j.Checker.CheckFile(ctx, j.Path)
	if err != nil {
		return &CheckResult{
			Path:   j.Path,
			Report: nil,
			Error:  err,
		}
	}
	return &CheckResult{
		Path:   j.Path,
		Report: report,
		Error:  nil,
	}
}

// CheckResult represents the result of a document check
type CheckResult struct {
	Path   string
	Report *model.Report
	Error  error
}

// GetError returns the error from the check result
func (r *CheckResult) GetError() error {
	return r.Error
}

// BatchProcessor checks multiple documents concurrently
type BatchProcessor struct {
	checker     Checker
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(checker Checker, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		checker:     checker,
		concurrency: concurrency,
	}
}

// ProcessPaths checks multiple documents concurrently
func (b *BatchProcessor) ProcessPaths(ctx context.Context, paths []string) []*CheckResult {
	if len(paths) == 0 {
		return []*CheckResult{}
	}

	pool := NewPool(b.concurrency)
	pool.Start()

	for _, path := range paths {
		job := &CheckJob{
			Path:    path,
			Checker: b.checker,
		}
		pool.Submit(job)
	}

	results := pool.Wait()

	checkResults := make([]*CheckResult, len(results))
	for i, result := range results {
		checkResults[i] = result.(*CheckResult)
	}

	return checkResults
}

// ProcessManifest reads document paths from a manifest file and checks them
// concurrently
func (b *BatchProcessor) ProcessManifest(ctx context.Context, manifestPath string) ([]*CheckResult, error) {
	paths, err := ReadPathsFromFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	return b.ProcessPaths(ctx, paths), nil
}

// ReadPathsFromFile reads document paths from a file (one per line)
func ReadPathsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var paths []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			paths = append(paths, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return paths, nil
}
