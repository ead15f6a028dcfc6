package planner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"meal-planner/internal/meals"
	"meal-planner/internal/shopping"

	"github.com/davecgh/go-spew/spew"
	"go.uber.org/zap"
)

const (
	defaultLookbackDays = 90
	defaultHistoryLimit = 90
)

// PlannerConfig tunes the proposer.
type PlannerConfig struct {
	Constraints  ConstraintSet
	LookbackDays int
	HistoryLimit int
	// Now is the clock used for the history window. Defaults to time.Now.
	Now func() time.Time
}

// Planner drafts a week of meals and the matching shopping list from recent history.
type Planner struct {
	*role
	store meals.Store
	cfg   PlannerConfig
}

// NewPlanner opens the planner's session. The store is only read.
func NewPlanner(ctx context.Context, newSession SessionFactory, store meals.Store, cfg PlannerConfig, opts ...RoleOption) (*Planner, error) {
	if cfg.Constraints.Servings == 0 {
		cfg.Constraints = DefaultConstraints()
	}
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = defaultLookbackDays
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = defaultHistoryLimit
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	instruction, err := renderPrompt("planner_instruction.md", struct {
		Rules    []string
		MidiDays string
		Servings int
	}{cfg.Constraints.Rules, cfg.Constraints.MidiDayNames(), cfg.Constraints.Servings})
	if err != nil {
		return nil, err
	}

	r, err := newRole(ctx, "Planner", newSession, instruction, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to start planner session: %w", err)
	}
	return &Planner{role: r, store: store, cfg: cfg}, nil
}

// historyContext summarizes recent meals. A store failure becomes explanatory
// text so a plan can still be drafted.
func (p *Planner) historyContext(ctx context.Context) string {
	now := p.cfg.Now()
	q := meals.Query{
		Limit:     p.cfg.HistoryLimit,
		StartDate: now.AddDate(0, 0, -p.cfg.LookbackDays).Format(DateLayout),
	}

	recent, err := p.store.ListMeals(ctx, q)
	if err != nil {
		p.log.Warn("failed to fetch recent meals", zap.Error(err))
		return fmt.Sprintf("Error fetching recent meals: %v", err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Here are the meals from the last %d days:\n", p.cfg.LookbackDays)
	for _, m := range recent {
		fmt.Fprintf(&sb, "- %s (%s, %s)\n", m.Name, m.Date, m.Heure)
	}
	return sb.String()
}

// CreatePlan asks for a plan covering start..end. feedback is the previous
// critique or the user's request, empty on a first attempt. An unparseable
// reply, or one that misses the window or a required meal, yields an empty
// plan and list without error.
func (p *Planner) CreatePlan(ctx context.Context, start, end time.Time, feedback string) (plan WeekPlan, list shopping.List, err error) {
	ctx, span := p.startSpan(ctx, "Planner.CreatePlan")
	defer func() { endSpan(span, err) }()

	if feedback == "" {
		feedback = "None"
	}

	prompt, err := renderPrompt("planner_request.md", struct {
		History  string
		Start    string
		End      string
		Rules    []string
		Servings int
		Feedback string
	}{
		History:  p.historyContext(ctx),
		Start:    start.Format(DateLayout),
		End:      end.Format(DateLayout),
		Rules:    p.cfg.Constraints.Rules,
		Servings: p.cfg.Constraints.Servings,
		Feedback: feedback,
	})
	if err != nil {
		return nil, nil, err
	}

	type proposed struct {
		plan WeekPlan
		list shopping.List
	}
	parse := func(raw string) (proposed, error) {
		plan, list, err := ParseProposal(raw, start, end, p.cfg.Constraints)
		return proposed{plan, list}, err
	}

	out, err := ask(ctx, p.role, prompt, parse, proposed{WeekPlan{}, shopping.List{}})
	if err != nil {
		return nil, nil, err
	}

	if ce := p.log.Check(zap.DebugLevel, "proposal parsed"); ce != nil {
		ce.Write(zap.String("proposal", spew.Sdump(out.plan)))
	}
	return out.plan, out.list, nil
}
