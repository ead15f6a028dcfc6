package planner

import (
	"context"
	"fmt"
)

// Cooker writes recipe cards for the accepted plan. Its reply is shown as is.
type Cooker struct {
	*role
}

// NewCooker opens the cooker's session.
func NewCooker(ctx context.Context, newSession SessionFactory, opts ...RoleOption) (*Cooker, error) {
	instruction, err := renderPrompt("cooker_instruction.md", nil)
	if err != nil {
		return nil, err
	}
	r, err := newRole(ctx, "Cooker", newSession, instruction, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to start cooker session: %w", err)
	}
	return &Cooker{role: r}, nil
}

// GetTips returns markdown recipe cards for plan.
func (c *Cooker) GetTips(ctx context.Context, plan WeekPlan) (tips string, err error) {
	ctx, span := c.startSpan(ctx, "Cooker.GetTips")
	defer func() { endSpan(span, err) }()

	body, err := planJSON(plan)
	if err != nil {
		return "", err
	}
	prompt, err := renderPrompt("cooker_request.md", struct{ Plan string }{body})
	if err != nil {
		return "", err
	}
	return c.send(ctx, prompt)
}
