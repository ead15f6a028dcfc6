// Package tools serves the meal history to agent environments over MCP.
package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"meal-planner/internal/meals"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

const (
	serverName   = "meals-mcp"
	defaultLimit = 30
)

// Server exposes a meals.Store as MCP tools. Store failures are returned as
// text results, never as protocol errors.
type Server struct {
	mcpServer *mcpsdk.Server
	store     meals.Store
	log       *zap.Logger
}

// NewServer creates the MCP server and registers its tools.
func NewServer(store meals.Store, version string, log *zap.Logger) (*Server, error) {
	if store == nil {
		return nil, errors.New("meal store cannot be nil")
	}
	if log == nil {
		log = zap.NewNop()
	}

	s := &Server{
		mcpServer: mcpsdk.NewServer(&mcpsdk.Implementation{
			Name:    serverName,
			Version: version,
		}, nil),
		store: store,
		log:   log,
	}
	s.registerTools()
	return s, nil
}

// Run serves over stdin/stdout until ctx is cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	s.log.Info("mcp server listening on stdio", zap.String("name", serverName))
	if err := s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{}); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_recent_meals",
		Description: "Retrieves a list of meals from the Notion 'Repas' database. Can filter by date range (start_date, end_date), search by name, or just get the most recent ones.",
	}, s.handleGetRecentMeals)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "update_meal",
		Description: "Updates an existing meal. Identify it by meal_id, or by name_search when exactly one meal matches. Only the fields provided are changed.",
	}, s.handleUpdateMeal)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "add_meal",
		Description: "Records a meal that was eaten or is planned. Requires a name and a date.",
	}, s.handleAddMeal)
}

// GetRecentMealsParams defines parameters for the get_recent_meals tool.
type GetRecentMealsParams struct {
	Limit       int    `json:"limit,omitempty" jsonschema:"The number of meals to retrieve (default: 30)"`
	StartDate   string `json:"start_date,omitempty" jsonschema:"Retrieves meals on or after this date (ISO 8601, e.g. 2023-10-27)"`
	EndDate     string `json:"end_date,omitempty" jsonschema:"Retrieves meals on or before this date (ISO 8601, e.g. 2023-10-31)"`
	SearchQuery string `json:"search_query,omitempty" jsonschema:"A search term to filter meals by name (e.g. pasta)"`
}

// UpdateMealParams defines parameters for the update_meal tool.
type UpdateMealParams struct {
	MealID      string   `json:"meal_id,omitempty" jsonschema:"Identifier of the meal to update"`
	NameSearch  string   `json:"name_search,omitempty" jsonschema:"Name fragment used to find the meal when meal_id is not known"`
	NewName     *string  `json:"new_name,omitempty" jsonschema:"New meal name"`
	Date        *string  `json:"date,omitempty" jsonschema:"New date (YYYY-MM-DD)"`
	Heure       *string  `json:"heure,omitempty" jsonschema:"New slot: Midi or Soir"`
	Ingredients []string `json:"ingredients,omitempty" jsonschema:"Replacement ingredient list"`
	Recipe      *string  `json:"recipe,omitempty" jsonschema:"Recipe URL"`
}

// AddMealParams defines parameters for the add_meal tool.
type AddMealParams struct {
	Name        string   `json:"name" jsonschema:"Meal name"`
	Date        string   `json:"date" jsonschema:"Date the meal is eaten (YYYY-MM-DD)"`
	Heure       string   `json:"heure,omitempty" jsonschema:"Midi or Soir (default: Soir)"`
	Ingredients []string `json:"ingredients,omitempty" jsonschema:"Main ingredients"`
	Recipe      string   `json:"recipe,omitempty" jsonschema:"Recipe URL"`
}

func textResult(format string, args ...any) *mcpsdk.CallToolResult {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: fmt.Sprintf(format, args...)},
		},
	}
}

func (s *Server) handleGetRecentMeals(ctx context.Context, _ *mcpsdk.CallToolRequest, params GetRecentMealsParams) (*mcpsdk.CallToolResult, any, error) {
	q := meals.Query{
		Limit:     params.Limit,
		StartDate: params.StartDate,
		EndDate:   params.EndDate,
		Search:    params.SearchQuery,
	}
	if q.Limit <= 0 {
		q.Limit = defaultLimit
	}

	found, err := s.store.ListMeals(ctx, q)
	if err != nil {
		s.log.Warn("get_recent_meals failed", zap.Error(err))
		return textResult("Error fetching meals: %v", err), nil, nil
	}
	return textResult("%s", RenderMeals(found, q)), nil, nil
}

func (s *Server) handleUpdateMeal(ctx context.Context, _ *mcpsdk.CallToolRequest, params UpdateMealParams) (*mcpsdk.CallToolResult, any, error) {
	u := meals.Update{
		Name:        params.NewName,
		Date:        params.Date,
		Heure:       params.Heure,
		Ingredients: params.Ingredients,
		Recipe:      params.Recipe,
	}
	if u.IsEmpty() {
		return textResult("No changes requested."), nil, nil
	}

	id, err := meals.ResolveTarget(ctx, s.store, params.MealID, params.NameSearch)
	if err != nil {
		return textResult("Error updating meal: %v", err), nil, nil
	}

	updated, err := s.store.UpdateMeal(ctx, id, u)
	if err != nil {
		s.log.Warn("update_meal failed", zap.String("meal_id", id), zap.Error(err))
		return textResult("Error updating meal: %v", err), nil, nil
	}
	s.log.Info("meal updated", zap.String("meal_id", id))
	return textResult("Updated meal:\n\n%s", RenderMeal(updated)), nil, nil
}

func (s *Server) handleAddMeal(ctx context.Context, _ *mcpsdk.CallToolRequest, params AddMealParams) (*mcpsdk.CallToolResult, any, error) {
	m := meals.Meal{
		Name:        strings.TrimSpace(params.Name),
		Date:        strings.TrimSpace(params.Date),
		Heure:       meals.NormalizeHeure(params.Heure),
		Ingredients: params.Ingredients,
		Recipe:      params.Recipe,
	}
	if m.Name == "" || m.Date == "" {
		return textResult("Error adding meal: name and date are required"), nil, nil
	}
	if m.Heure == "" {
		m.Heure = meals.HeureSoir
	}

	added, err := s.store.AddMeal(ctx, m)
	if err != nil {
		s.log.Warn("add_meal failed", zap.Error(err))
		return textResult("Error adding meal: %v", err), nil, nil
	}
	return textResult("Added meal:\n\n%s", RenderMeal(added)), nil, nil
}
