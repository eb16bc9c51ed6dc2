package worker

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/veracite/veracite/internal/model"
)

// MockChecker implements Checker
type MockChecker struct {
	ShouldError bool
}

func (m *MockChecker) CheckFile(ctx context.Context, path string) (*model.Report, error) {
	time.Sleep(10 * time.Millisecond) // Simulate work
	if m.ShouldError {
		return nil, errors.New("check error")
	}
	return &model.Report{Source: path}, nil
}

func TestBatchProcessor_ProcessPaths(t *testing.T) {
	checker := &MockChecker{}
	processor := NewBatchProcessor(checker, 2)

	paths := []string{"brief1.txt", "brief2.txt", "motion.txt"}
	ctx := context.Background()

	results := processor.ProcessPaths(ctx, paths)

	if len(results) != 3 {
		t.Errorf("expected 3 results, got %d", len(results))
	}

	successCount := 0
	for _, res := range results {
		if res.Error == nil {
			successCount++
			if res.Report == nil {
				t.Error("expected report for successful check")
			}
		} else {
			t.Errorf("unexpected error for %s: %v", res.Path, res.Error)
		}
	}

	if successCount != 3 {
		t.Errorf("expected 3 successes, got %d", successCount)
	}
}

func TestBatchProcessor_ProcessPaths_Error(t *testing.T) {
	checker := &MockChecker{ShouldError: true}
	processor := NewBatchProcessor(checker, 2)

	results := processor.ProcessPaths(context.Background(), []string{"brief.txt"})

	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}

	if results[0].Error == nil {
		t.Error("expected error, got nil")
	}
	if results[0].Report != nil {
		t.Error("expected nil report on error")
	}
}

func TestBatchProcessor_ProcessPaths_Empty(t *testing.T) {
	checker := &MockChecker{}
	processor := NewBatchProcessor(checker, 2)

	results := processor.ProcessPaths(context.Background(), []string{})
	if len(results) != 0 {
		t.Errorf("expected 0 results, got %d", len(results))
	}
}

func TestReadPathsFromFile(t *testing.T) {
	content := `briefs/opening.txt
# comment
briefs/reply.txt

motions/summary-judgment.txt   `

	tmpfile, err := os.CreateTemp("", "manifest")
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		_ = os.Remove(tmpfile.Name())
	}()

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	paths, err := ReadPathsFromFile(tmpfile.Name())
	if err != nil {
		t.Fatalf("ReadPathsFromFile failed: %v", err)
	}

	expected := []string{"briefs/opening.txt", "briefs/reply.txt", "motions/summary-judgment.txt"}
	if len(paths) != len(expected) {
		t.Fatalf("expected %d paths, got %d", len(expected), len(paths))
	}

	for i, path := range paths {
		if path != expected[i] {
			t.Errorf("expected path %s at index %d, got %s", expected[i], i, path)
		}
	}
}

func TestReadPathsFromFile_NonExistent(t *testing.T) {
	_, err := ReadPathsFromFile("non_existent_file.txt")
	if err == nil {
		t.Error("expected error for non-existent file, got nil")
	}
}

func TestReadPathsFromFile_Deduplication(t *testing.T) {
	content := `briefs/opening.txt
briefs/opening.txt`

	tmpfile, err := os.CreateTemp("", "manifest_dedup")
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		_ = os.Remove(tmpfile.Name())
	}()

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	paths, err := ReadPathsFromFile(tmpfile.Name())
	if err != nil {
		t.Fatalf("ReadPathsFromFile failed: %v", err)
	}

	if len(paths) != 1 {
		t.Errorf("expected 1 path after deduplication, got %d", len(paths))
	}
}

func TestCheckResult_GetError(t *testing.T) {
	r1 := &CheckResult{Path: "brief.txt", Error: nil}
	if r1.GetError() != nil {
		t.Errorf("expected nil error, got %v", r1.GetError())
	}

	expected := errors.New("check failed")
	r2 := &CheckResult{Path: "brief.txt", Error: expected}
	if r2.GetError() != expected {
		t.Errorf("expected %v, got %v", expected, r2.GetError())
	}
}

func TestBatchProcessor_ProcessManifest(t *testing.T) {
	content := "briefs/opening.txt\nbriefs/reply.txt\n# comment\n\nmotions/remand.txt\n"

	tmpfile, err := os.CreateTemp("", "batch_manifest")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Remove(tmpfile.Name()) }()

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	checker := &MockChecker{}
	processor := NewBatchProcessor(checker, 2)

	results, err := processor.ProcessManifest(context.Background(), tmpfile.Name())
	if err != nil {
		t.Fatalf("ProcessManifest failed: %v", err)
	}

	if len(results) != 3 {
		t.Errorf("expected 3 results, got %d", len(results))
	}
}

func TestBatchProcessor_ProcessManifest_NonExistent(t *testing.T) {
	checker := &MockChecker{}
	processor := NewBatchProcessor(checker, 2)

	_, err := processor.ProcessManifest(context.Background(), "no_such_file.txt")
	if err == nil {
		t.Error("expected error for non-existent manifest, got nil")
	}
}
