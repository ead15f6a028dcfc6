package notion

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"meal-planner/internal/meals"

	"go.uber.org/zap"
)

// Property names that are fixed across workspaces.
const (
	propDate  = "Date"
	propHeure = "Heure"
)

// Property fallbacks, in order of preference.
var (
	ingredientProps = []string{"Ingredients", "Tags"}
	recipeProps     = []string{"Lien", "Recipe"}
)

// schema records which database properties hold which meal field.
type schema struct {
	databaseID  string
	title       string
	ingredients string
	recipe      string
	recipeType  string
}

type richText struct {
	PlainText string `json:"plain_text"`
}

type fileRef struct {
	URL string `json:"url"`
}

type property struct {
	Type     string     `json:"type"`
	Title    []richText `json:"title"`
	RichText []richText `json:"rich_text"`
	Date     *struct {
		Start string `json:"start"`
	} `json:"date"`
	Select *struct {
		Name string `json:"name"`
	} `json:"select"`
	MultiSelect []struct {
		Name string `json:"name"`
	} `json:"multi_select"`
	URL   *string `json:"url"`
	Files []struct {
		External *fileRef `json:"external"`
		File     *fileRef `json:"file"`
	} `json:"files"`
}

type page struct {
	ID         string              `json:"id"`
	Properties map[string]property `json:"properties"`
}

type queryResponse struct {
	Results    []page `json:"results"`
	HasMore    bool   `json:"has_more"`
	NextCursor string `json:"next_cursor"`
}

type database struct {
	Object     string              `json:"object"`
	ID         string              `json:"id"`
	Title      []richText          `json:"title"`
	Properties map[string]property `json:"properties"`
}

func (s *Store) ensureSchema(ctx context.Context) (*schema, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.schema != nil {
		return s.schema, nil
	}

	id := s.databaseID
	if id == "" {
		found, err := s.findDatabase(ctx)
		if err != nil {
			return nil, err
		}
		id = found
	}

	var db database
	if err := s.do(ctx, http.MethodGet, "/databases/"+id, nil, &db); err != nil {
		return nil, fmt.Errorf("failed to fetch database %s: %w", id, err)
	}

	sc := newSchema(id, db.Properties)
	s.log.Debug("notion schema resolved",
		zap.String("database_id", sc.databaseID),
		zap.String("title", sc.title),
		zap.String("ingredients", sc.ingredients),
		zap.String("recipe", sc.recipe),
	)
	s.schema = sc
	return sc, nil
}

// findDatabase searches for a database whose title equals the configured name.
func (s *Store) findDatabase(ctx context.Context) (string, error) {
	body := map[string]any{
		"query":  s.databaseName,
		"filter": map[string]string{"property": "object", "value": "database"},
	}
	var resp struct {
		Results []database `json:"results"`
	}
	if err := s.do(ctx, http.MethodPost, "/search", body, &resp); err != nil {
		return "", fmt.Errorf("failed to search databases: %w", err)
	}

	for _, r := range resp.Results {
		if r.Object == "database" && plain(r.Title) == s.databaseName {
			return r.ID, nil
		}
	}
	return "", fmt.Errorf("could not find a database named %q", s.databaseName)
}

func newSchema(id string, props map[string]property) *schema {
	sc := &schema{databaseID: id, title: "Name", ingredients: ingredientProps[0], recipe: recipeProps[0], recipeType: "url"}

	for name, p := range props {
		if p.Type == "title" {
			sc.title = name
			break
		}
	}
	for _, name := range ingredientProps {
		if _, ok := props[name]; ok {
			sc.ingredients = name
			break
		}
	}
	for _, name := range recipeProps {
		if p, ok := props[name]; ok {
			sc.recipe, sc.recipeType = name, p.Type
			break
		}
	}
	return sc
}

func plain(rt []richText) string {
	var sb strings.Builder
	for _, t := range rt {
		sb.WriteString(t.PlainText)
	}
	return sb.String()
}

// toMeal maps a page onto a meal. Pages without a date are rejected.
func (sc *schema) toMeal(p page) (meals.Meal, bool) {
	props := p.Properties

	date := ""
	if d := props[propDate].Date; d != nil {
		date = d.Start
	}
	if date == "" {
		return meals.Meal{}, false
	}
	if len(date) > len("2006-01-02") {
		date = date[:len("2006-01-02")]
	}

	name := plain(props[sc.title].Title)
	if name == "" {
		name = plain(props["Name"].Title)
	}
	if name == "" {
		name = "Unnamed Meal"
	}

	m := meals.Meal{ID: p.ID, Name: name, Date: date, Heure: "Unknown"}

	if sel := props[propHeure].Select; sel != nil && sel.Name != "" {
		m.Heure = meals.NormalizeHeure(sel.Name)
	}

	for _, prop := range ingredientProps {
		for _, tag := range props[prop].MultiSelect {
			m.Ingredients = append(m.Ingredients, tag.Name)
		}
		if len(m.Ingredients) > 0 {
			break
		}
	}

	if u := props["Lien"].URL; u != nil && *u != "" {
		m.Recipe = *u
	} else if files := props["Recipe"].Files; len(files) > 0 {
		switch {
		case files[0].External != nil:
			m.Recipe = files[0].External.URL
		case files[0].File != nil:
			m.Recipe = files[0].File.URL
		}
	}
	return m, true
}

func titleValue(s string) map[string]any {
	return map[string]any{"title": []map[string]any{{"text": map[string]string{"content": s}}}}
}

func (sc *schema) recipeValue(url string) map[string]any {
	if sc.recipeType == "files" {
		if url == "" {
			return map[string]any{"files": []any{}}
		}
		return map[string]any{"files": []map[string]any{{"name": url, "external": map[string]string{"url": url}}}}
	}
	if url == "" {
		return map[string]any{"url": nil}
	}
	return map[string]any{"url": url}
}

func multiSelect(tags []string) map[string]any {
	opts := make([]map[string]string, 0, len(tags))
	for _, t := range tags {
		// Notion rejects commas inside option names.
		opts = append(opts, map[string]string{"name": strings.ReplaceAll(t, ",", " ")})
	}
	return map[string]any{"multi_select": opts}
}

func (sc *schema) mealProperties(m meals.Meal) map[string]any {
	props := map[string]any{
		sc.title: titleValue(m.Name),
		propDate: map[string]any{"date": map[string]string{"start": m.Date}},
	}
	if m.Heure != "" {
		props[propHeure] = map[string]any{"select": map[string]string{"name": m.Heure}}
	}
	if len(m.Ingredients) > 0 {
		props[sc.ingredients] = multiSelect(m.Ingredients)
	}
	if m.Recipe != "" {
		props[sc.recipe] = sc.recipeValue(m.Recipe)
	}
	return props
}

func (sc *schema) updateProperties(u meals.Update) map[string]any {
	props := map[string]any{}
	if u.Name != nil {
		props[sc.title] = titleValue(*u.Name)
	}
	if u.Date != nil {
		props[propDate] = map[string]any{"date": map[string]string{"start": *u.Date}}
	}
	if u.Heure != nil {
		props[propHeure] = map[string]any{"select": map[string]string{"name": meals.NormalizeHeure(*u.Heure)}}
	}
	if u.Ingredients != nil {
		props[sc.ingredients] = multiSelect(u.Ingredients)
	}
	if u.Recipe != nil {
		props[sc.recipe] = sc.recipeValue(*u.Recipe)
	}
	return props
}
