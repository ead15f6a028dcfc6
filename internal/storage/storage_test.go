package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"meal-planner/internal/planner"
	"meal-planner/internal/shopping"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

func sampleResult(runID string) planner.Result {
	return planner.Result{
		RunID:        runID,
		Start:        time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		End:          time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC),
		Plan:         planner.WeekPlan{{Date: "2026-03-02", Soir: "Soupe"}},
		ShoppingList: shopping.List{"Produce": {{Item: "Poireaux", Quantity: "4"}}},
		Tips:         "## Soupe",
		Revisions:    1,
	}
}

func TestFileArchive(t *testing.T) {
	tempDir := t.TempDir()

	store, err := NewFileArchive(filepath.Join(tempDir, "plans"))
	if err != nil {
		t.Fatalf("Failed to create FileArchive: %v", err)
	}
	clock := time.Date(2026, 2, 27, 18, 30, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }

	t.Run("Latest-Missing", func(t *testing.T) {
		if _, err := store.Latest("2026-03-02"); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("Expected ErrNotExist, got %v", err)
		}
	})

	t.Run("Archive", func(t *testing.T) {
		path, err := store.Archive(context.Background(), sampleResult("run-1"))
		if err != nil {
			t.Fatalf("Failed to archive plan: %v", err)
		}
		if filepath.Base(path) != "2026-03-02_2026-02-27T18-30-00Z.json" {
			t.Errorf("Unexpected file name %s", filepath.Base(path))
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("Expected file '%s' to be created: %v", path, err)
		}
	})

	t.Run("Latest", func(t *testing.T) {
		clock = clock.Add(time.Hour)
		if _, err := store.Archive(context.Background(), sampleResult("run-2")); err != nil {
			t.Fatalf("Failed to archive plan: %v", err)
		}

		doc, err := store.Latest("2026-03-02")
		if err != nil {
			t.Fatalf("Failed to load latest plan: %v", err)
		}
		if doc.RunID != "run-2" || doc.End != "2026-03-08" || doc.Plan[0].Soir != "Soupe" {
			t.Errorf("Unexpected document: %+v", doc)
		}
	})

	t.Run("RemoveStaleVersions", func(t *testing.T) {
		if err := store.RemoveStaleVersions("2026-03-02", 1); err != nil {
			t.Fatalf("Failed to remove stale versions: %v", err)
		}
		versions, _ := store.Versions("2026-03-02")
		if len(versions) != 1 || !strings.Contains(versions[0], "T19-30-00Z") {
			t.Errorf("Expected only the newest version, got %v", versions)
		}
	})
}

type mockS3 struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (m *mockS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.input = params
	m.body, _ = io.ReadAll(params.Body)
	return &s3.PutObjectOutput{}, nil
}

func TestS3Archive(t *testing.T) {
	client := &mockS3{}
	a := newS3Archive(client, "family-plans")

	loc, err := a.Archive(context.Background(), sampleResult("run-9"))
	if err != nil {
		t.Fatalf("Archive failed: %v", err)
	}
	if loc != "s3://family-plans/plans/2026-03-02/run-9.json" {
		t.Errorf("Unexpected location %s", loc)
	}
	if aws.ToString(client.input.ContentType) != "application/json" {
		t.Error("Expected JSON content type")
	}

	var doc PlanDocument
	if err := json.Unmarshal(client.body, &doc); err != nil {
		t.Fatalf("Uploaded body is not JSON: %v", err)
	}
	if doc.RunID != "run-9" || doc.Revisions != 1 {
		t.Errorf("Unexpected document: %+v", doc)
	}

	a = newS3Archive(&mockS3{err: errors.New("access denied")}, "family-plans")
	if _, err := a.Archive(context.Background(), sampleResult("run-9")); err == nil {
		t.Error("Expected upload error")
	}
}
