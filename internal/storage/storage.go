// Package storage archives accepted plans as JSON documents, on disk or in S3.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"meal-planner/internal/planner"
	"meal-planner/internal/shopping"
)

// PlanDocument is the archived form of a finished run.
type PlanDocument struct {
	RunID        string           `json:"run_id"`
	Start        string           `json:"start"`
	End          string           `json:"end"`
	BestEffort   bool             `json:"best_effort"`
	Revisions    int              `json:"revisions"`
	Plan         planner.WeekPlan `json:"plan"`
	ShoppingList shopping.List    `json:"shopping_list"`
	Tips         string           `json:"tips"`
	ArchivedAt   time.Time        `json:"archived_at"`
}

// NewPlanDocument captures res at time now.
func NewPlanDocument(res planner.Result, now time.Time) PlanDocument {
	return PlanDocument{
		RunID:        res.RunID,
		Start:        res.Start.Format(planner.DateLayout),
		End:          res.End.Format(planner.DateLayout),
		BestEffort:   res.BestEffort,
		Revisions:    res.Revisions,
		Plan:         res.Plan,
		ShoppingList: res.ShoppingList,
		Tips:         res.Tips,
		ArchivedAt:   now.UTC(),
	}
}

// Archiver keeps a copy of every accepted plan. Archive returns where it went.
type Archiver interface {
	Archive(ctx context.Context, res planner.Result) (string, error)
}

// FileArchive stores one versioned file per archived plan under basePath.
type FileArchive struct {
	basePath string
	now      func() time.Time
}

// NewFileArchive creates a FileArchive and ensures the base directory exists.
func NewFileArchive(basePath string) (*FileArchive, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	return &FileArchive{basePath: basePath, now: time.Now}, nil
}

// sanitizeTimestamp makes the timestamp safe for filenames.
func sanitizeTimestamp(ts string) string {
	return strings.ReplaceAll(ts, ":", "-")
}

// getVersionedPath returns the full path for a week's plan archived at archivedAt.
func (s *FileArchive) getVersionedPath(start string, archivedAt time.Time) string {
	filename := fmt.Sprintf("%s_%s.json", start, sanitizeTimestamp(archivedAt.Format(time.RFC3339)))
	return filepath.Join(s.basePath, filename)
}

// Archive writes res to a new version file for its week.
func (s *FileArchive) Archive(_ context.Context, res planner.Result) (string, error) {
	doc := NewPlanDocument(res, s.now())
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal plan: %w", err)
	}

	filePath := s.getVersionedPath(doc.Start, doc.ArchivedAt)
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write plan file: %w", err)
	}
	return filePath, nil
}

// Versions lists the archived files for the week starting on start, oldest first.
func (s *FileArchive) Versions(start string) ([]string, error) {
	pattern := filepath.Join(s.basePath, fmt.Sprintf("%s_*.json", start))
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to glob plan files: %w", err)
	}
	sort.Strings(matches)
	return matches, nil
}

// Latest loads the most recent archived plan for the week starting on start.
func (s *FileArchive) Latest(start string) (*PlanDocument, error) {
	versions, err := s.Versions(start)
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, fmt.Errorf("no archived plan for week %s: %w", start, os.ErrNotExist)
	}

	data, err := os.ReadFile(versions[len(versions)-1])
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}
	var doc PlanDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal plan: %w", err)
	}
	return &doc, nil
}

// RemoveStaleVersions deletes all but the newest keep files for the week.
func (s *FileArchive) RemoveStaleVersions(start string, keep int) error {
	versions, err := s.Versions(start)
	if err != nil {
		return err
	}
	if keep < 0 {
		keep = 0
	}
	for i := 0; i < len(versions)-keep; i++ {
		if err := os.Remove(versions[i]); err != nil {
			return fmt.Errorf("failed to remove stale file %s: %w", versions[i], err)
		}
	}
	return nil
}
