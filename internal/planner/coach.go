package planner

import (
	"context"
	"fmt"
	"strings"
)

// VerdictStatus is the coach's decision.
type VerdictStatus string

const (
	StatusApproved VerdictStatus = "APPROVED"
	StatusRejected VerdictStatus = "REJECTED"
)

// Verdict is the coach's answer for one proposal.
type Verdict struct {
	Status   VerdictStatus `json:"status"`
	Critique string        `json:"critique"`
}

// Approved reports whether the plan was accepted.
func (v Verdict) Approved() bool {
	return v.Status == StatusApproved
}

// unparsedVerdict stands in for a reply that could not be read. It never approves.
var unparsedVerdict = Verdict{Status: StatusRejected, Critique: "Failed to parse coach response."}

// parseVerdict reads the coach's reply. Anything other than APPROVED counts as a rejection.
func parseVerdict(raw string) (Verdict, error) {
	v, err := decodeEnvelope[Verdict](raw)
	if err != nil {
		return Verdict{}, err
	}

	if VerdictStatus(strings.ToUpper(strings.TrimSpace(string(v.Status)))) == StatusApproved {
		v.Status = StatusApproved
	} else {
		v.Status = StatusRejected
	}
	if strings.TrimSpace(v.Critique) == "" {
		v.Critique = "No feedback."
	}
	return v, nil
}

// Coach reviews proposals for balance and the light-meal constraints.
type Coach struct {
	*role
}

// NewCoach opens the coach's session.
func NewCoach(ctx context.Context, newSession SessionFactory, opts ...RoleOption) (*Coach, error) {
	instruction, err := renderPrompt("coach_instruction.md", nil)
	if err != nil {
		return nil, err
	}
	r, err := newRole(ctx, "Coach", newSession, instruction, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to start coach session: %w", err)
	}
	return &Coach{role: r}, nil
}

// EvaluatePlan returns the coach's verdict on plan.
func (c *Coach) EvaluatePlan(ctx context.Context, plan WeekPlan) (v Verdict, err error) {
	ctx, span := c.startSpan(ctx, "Coach.EvaluatePlan")
	defer func() { endSpan(span, err) }()

	body, err := planJSON(plan)
	if err != nil {
		return Verdict{}, err
	}
	prompt, err := renderPrompt("coach_request.md", struct{ Plan string }{body})
	if err != nil {
		return Verdict{}, err
	}

	return ask(ctx, c.role, prompt, parseVerdict, unparsedVerdict)
}
