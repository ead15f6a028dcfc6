// Package notion implements meals.Store on a Notion database.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"meal-planner/internal/meals"

	"go.uber.org/zap"
)

const (
	apiURL        = "https://api.notion.com/v1"
	notionVersion = "2022-06-28"

	defaultLimit = 30
	// searchPageSize is used when the name filter runs client-side.
	searchPageSize = 100
	maxPages       = 5
)

// Store reads and writes meals in a Notion database.
type Store struct {
	token        string
	baseURL      string
	databaseID   string
	databaseName string
	httpClient   *http.Client
	log          *zap.Logger

	mu     sync.Mutex
	schema *schema
}

// Option configures a Store.
type Option func(*Store)

// WithBaseURL points the store at another API root.
func WithBaseURL(u string) Option { return func(s *Store) { s.baseURL = u } }

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(c *http.Client) Option { return func(s *Store) { s.httpClient = c } }

// WithDatabaseID skips database discovery.
func WithDatabaseID(id string) Option { return func(s *Store) { s.databaseID = id } }

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option { return func(s *Store) { s.log = l } }

// New creates a Store. databaseName is the title searched for when no id is given.
func New(token, databaseName string, opts ...Option) (*Store, error) {
	if token == "" {
		return nil, errors.New("NOTION_TOKEN environment variable not set")
	}
	s := &Store{
		token:        token,
		baseURL:      apiURL,
		databaseName: databaseName,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		log:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// apiError is a non-2xx answer from the API.
type apiError struct {
	Status int
	Body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("notion api error: status=%d body=%s", e.Status, e.Body)
}

func (s *Store) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Notion-Version", notionVersion)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(resp.Body)
		return &apiError{Status: resp.StatusCode, Body: string(b)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// ListMeals queries the database newest first. Date bounds are applied by the
// API, the name search locally.
func (s *Store) ListMeals(ctx context.Context, q meals.Query) ([]meals.Meal, error) {
	sc, err := s.ensureSchema(ctx)
	if err != nil {
		return nil, err
	}

	limit := q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	pageSize := limit
	if q.Search != "" {
		pageSize = searchPageSize
	}
	if pageSize > searchPageSize {
		pageSize = searchPageSize
	}

	body := map[string]any{
		"page_size": pageSize,
		"sorts":     []map[string]string{{"property": propDate, "direction": "descending"}},
	}
	if f := dateFilter(q); f != nil {
		body["filter"] = f
	}

	var out []meals.Meal
	for page := 0; page < maxPages; page++ {
		var resp queryResponse
		if err := s.do(ctx, http.MethodPost, "/databases/"+sc.databaseID+"/query", body, &resp); err != nil {
			return nil, err
		}

		for _, p := range resp.Results {
			m, ok := sc.toMeal(p)
			if !ok {
				s.log.Debug("skipping page without date", zap.String("page_id", p.ID))
				continue
			}
			if !q.Matches(m) {
				continue
			}
			out = append(out, m)
			if len(out) == limit {
				return out, nil
			}
		}

		if !resp.HasMore || resp.NextCursor == "" {
			break
		}
		body["start_cursor"] = resp.NextCursor
	}
	return out, nil
}

func dateFilter(q meals.Query) map[string]any {
	var clauses []map[string]any
	if q.StartDate != "" {
		clauses = append(clauses, map[string]any{"property": propDate, "date": map[string]string{"on_or_after": q.StartDate}})
	}
	if q.EndDate != "" {
		clauses = append(clauses, map[string]any{"property": propDate, "date": map[string]string{"on_or_before": q.EndDate}})
	}
	switch len(clauses) {
	case 0:
		return nil
	case 1:
		return clauses[0]
	}
	return map[string]any{"and": clauses}
}

// UpdateMeal patches the page properties named in u.
func (s *Store) UpdateMeal(ctx context.Context, id string, u meals.Update) (meals.Meal, error) {
	if u.IsEmpty() {
		return meals.Meal{}, errors.New("no fields to update")
	}
	sc, err := s.ensureSchema(ctx)
	if err != nil {
		return meals.Meal{}, err
	}

	var p page
	err = s.do(ctx, http.MethodPatch, "/pages/"+id, map[string]any{"properties": sc.updateProperties(u)}, &p)
	if err != nil {
		var apiErr *apiError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return meals.Meal{}, fmt.Errorf("%w: %s", meals.ErrNotFound, id)
		}
		return meals.Meal{}, err
	}

	m, _ := sc.toMeal(p)
	return m, nil
}

// AddMeal creates a new page in the database.
func (s *Store) AddMeal(ctx context.Context, m meals.Meal) (meals.Meal, error) {
	if m.Name == "" || m.Date == "" {
		return meals.Meal{}, errors.New("meal name and date are required")
	}
	sc, err := s.ensureSchema(ctx)
	if err != nil {
		return meals.Meal{}, err
	}

	m.Heure = meals.NormalizeHeure(m.Heure)
	body := map[string]any{
		"parent":     map[string]string{"database_id": sc.databaseID},
		"properties": sc.mealProperties(m),
	}

	var p page
	if err := s.do(ctx, http.MethodPost, "/pages", body, &p); err != nil {
		return meals.Meal{}, err
	}
	m.ID = p.ID
	return m, nil
}
