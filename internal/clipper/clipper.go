// Package clipper turns a recipe page into a meal draft.
package clipper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"meal-planner/internal/llm"
	"meal-planner/internal/meals"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

const maxIngredients = 20

// ErrNoRecipe is returned when a page yields neither a title nor ingredients.
var ErrNoRecipe = errors.New("no recipe found on page")

// Clipper handles fetching and extracting recipes from URLs.
type Clipper struct {
	httpClient *http.Client
	extractor  llm.Session
	log        *zap.Logger
}

// Option configures a Clipper.
type Option func(*Clipper)

// WithHTTPClient replaces the default 15s-timeout client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Clipper) { cl.httpClient = c }
}

// WithExtractor asks a model for the recipe when the page has no structured data.
func WithExtractor(s llm.Session) Option {
	return func(cl *Clipper) { cl.extractor = s }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(cl *Clipper) { cl.log = l }
}

// NewClipper creates a new Clipper instance.
func NewClipper(opts ...Option) *Clipper {
	c := &Clipper{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ExtractedRecipe is what a page yields.
type ExtractedRecipe struct {
	Title       string   `json:"title"`
	Ingredients []string `json:"ingredients"`
}

// ClipURL fetches url and returns a meal draft named after the recipe, with its
// ingredients and url as the recipe link. Date and Heure are left to the caller.
func (c *Clipper) ClipURL(ctx context.Context, url string) (meals.Meal, error) {
	doc, err := c.fetch(ctx, url)
	if err != nil {
		return meals.Meal{}, fmt.Errorf("failed to fetch content: %w", err)
	}

	r := extractStructured(doc)
	if len(r.Ingredients) == 0 {
		r = mergeRecipe(r, extractMarkup(doc))
	}
	if len(r.Ingredients) == 0 && c.extractor != nil {
		fromModel, err := c.extractWithModel(ctx, cleanText(doc))
		if err != nil {
			c.log.Warn("model extraction failed", zap.String("url", url), zap.Error(err))
		} else {
			r = mergeRecipe(r, fromModel)
		}
	}

	if r.Title == "" && len(r.Ingredients) == 0 {
		return meals.Meal{}, fmt.Errorf("%w: %s", ErrNoRecipe, url)
	}
	if len(r.Ingredients) > maxIngredients {
		r.Ingredients = r.Ingredients[:maxIngredients]
	}

	return meals.Meal{
		Name:        r.Title,
		Ingredients: r.Ingredients,
		Recipe:      url,
	}, nil
}

func (c *Clipper) fetch(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch URL: status %d", resp.StatusCode)
	}
	return goquery.NewDocumentFromReader(resp.Body)
}

// extractStructured reads the schema.org Recipe object most recipe sites embed as JSON-LD.
func extractStructured(doc *goquery.Document) ExtractedRecipe {
	var found ExtractedRecipe
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var raw any
		if err := json.Unmarshal([]byte(s.Text()), &raw); err != nil {
			return true
		}
		if r, ok := findRecipe(raw); ok {
			found = r
			return false
		}
		return true
	})
	return found
}

// findRecipe walks arrays and @graph containers looking for a Recipe node.
func findRecipe(v any) (ExtractedRecipe, bool) {
	switch node := v.(type) {
	case []any:
		for _, item := range node {
			if r, ok := findRecipe(item); ok {
				return r, true
			}
		}
	case map[string]any:
		if isRecipeType(node["@type"]) {
			r := ExtractedRecipe{Title: strings.TrimSpace(asString(node["name"]))}
			if list, ok := node["recipeIngredient"].([]any); ok {
				for _, ing := range list {
					if s := strings.TrimSpace(asString(ing)); s != "" {
						r.Ingredients = append(r.Ingredients, s)
					}
				}
			}
			return r, true
		}
		if graph, ok := node["@graph"]; ok {
			return findRecipe(graph)
		}
	}
	return ExtractedRecipe{}, false
}

func isRecipeType(t any) bool {
	switch v := t.(type) {
	case string:
		return v == "Recipe"
	case []any:
		for _, item := range v {
			if asString(item) == "Recipe" {
				return true
			}
		}
	}
	return false
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

// extractMarkup falls back to microdata and common class names.
func extractMarkup(doc *goquery.Document) ExtractedRecipe {
	var r ExtractedRecipe

	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok {
		r.Title = strings.TrimSpace(og)
	}
	if r.Title == "" {
		r.Title = strings.TrimSpace(doc.Find("h1").First().Text())
	}
	if r.Title == "" {
		r.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	doc.Find(`[itemprop="recipeIngredient"], [itemprop="ingredients"], [class*="ingredient"] li`).Each(func(_ int, s *goquery.Selection) {
		if text := strings.Join(strings.Fields(s.Text()), " "); text != "" {
			r.Ingredients = append(r.Ingredients, text)
		}
	})
	return r
}

func mergeRecipe(base, more ExtractedRecipe) ExtractedRecipe {
	if base.Title == "" {
		base.Title = more.Title
	}
	if len(base.Ingredients) == 0 {
		base.Ingredients = more.Ingredients
	}
	return base
}

// cleanText is the page body without scripts and chrome, collapsed to single spaces.
func cleanText(doc *goquery.Document) string {
	// Remove noise to save LLM tokens
	doc.Find("script, style, nav, footer, iframe, ads, .ads, #ads").Each(func(_ int, s *goquery.Selection) {
		s.Remove()
	})
	return strings.Join(strings.Fields(doc.Find("body").Text()), " ")
}

func (c *Clipper) extractWithModel(ctx context.Context, content string) (ExtractedRecipe, error) {
	prompt := fmt.Sprintf(`
You are a recipe extraction expert. Extract the recipe from the following page text.
Return the result strictly as a JSON object with this structure:
{
  "title": "Recipe Title",
  "ingredients": ["item 1", "item 2", ...]
}

Page text:
%s
`, content)

	reply, err := c.extractor.SendMessage(ctx, prompt)
	if err != nil {
		return ExtractedRecipe{}, fmt.Errorf("ai extraction failed: %w", err)
	}

	text := strings.TrimSpace(reply.Text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimSuffix(strings.TrimPrefix(text, "```"), "```")

	var extracted ExtractedRecipe
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &extracted); err != nil {
		return ExtractedRecipe{}, fmt.Errorf("failed to parse AI response: %w. Response: %s", err, reply.Text)
	}
	return extracted, nil
}
