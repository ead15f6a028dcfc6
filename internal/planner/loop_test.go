package planner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	weekStart = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	weekEnd   = time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)
)

func newTestLoop(t *testing.T, p Proposer, r Reviewer, f Finalizer, opts ...LoopOption) *RefinementLoop {
	t.Helper()
	l, err := NewRefinementLoop(p, r, f, opts...)
	require.NoError(t, err)
	return l
}

func TestRefine_ApprovedFirstAttempt(t *testing.T) {
	p := &scriptedProposer{plans: []WeekPlan{planNamed("A")}}
	r := &scriptedReviewer{verdicts: []Verdict{approved}}

	out, err := newTestLoop(t, p, r, &countingFinalizer{}).Refine(context.Background(), weekStart, weekEnd, "")
	require.NoError(t, err)

	assert.Equal(t, OutcomeApproved, out.Status)
	assert.False(t, out.BestEffort())
	assert.Equal(t, 1, out.Attempt)
	assert.Equal(t, 1, out.Proposals)
	assert.Equal(t, 1, out.Reviews)
	assert.Equal(t, []string{""}, p.feedbacks)
}

func TestRefine_CritiqueBecomesFeedback(t *testing.T) {
	p := &scriptedProposer{plans: []WeekPlan{planNamed("A"), planNamed("B"), planNamed("C")}}
	r := &scriptedReviewer{verdicts: []Verdict{rejected("too heavy"), rejected("repeats pasta"), approved}}

	out, err := newTestLoop(t, p, r, &countingFinalizer{}).Refine(context.Background(), weekStart, weekEnd, "seed")
	require.NoError(t, err)

	assert.Equal(t, OutcomeApproved, out.Status)
	assert.Equal(t, 3, out.Attempt)
	assert.Equal(t, planNamed("C"), out.Plan)
	assert.Equal(t, []string{"seed", "too heavy", "repeats pasta"}, p.feedbacks)
	assert.Equal(t, 3, r.calls())
}

func TestRefine_ExhaustedKeepsLastPlan(t *testing.T) {
	p := &scriptedProposer{plans: []WeekPlan{planNamed("1"), planNamed("2"), planNamed("3"), planNamed("4")}}
	r := &scriptedReviewer{verdicts: []Verdict{rejected("no")}}

	var events []EventKind
	l := newTestLoop(t, p, r, &countingFinalizer{},
		WithReporter(ReporterFunc(func(e Event) { events = append(events, e.Kind) })))

	out, err := l.Refine(context.Background(), weekStart, weekEnd, "")
	require.NoError(t, err)

	assert.Equal(t, 4, p.calls())
	assert.Equal(t, 4, r.calls())
	assert.Equal(t, OutcomeExhausted, out.Status)
	assert.True(t, out.BestEffort())
	assert.Equal(t, 4, out.Attempt)
	assert.Equal(t, planNamed("4"), out.Plan)
	assert.Equal(t, StatusRejected, out.Verdict.Status)
	assert.Equal(t, EventBestEffort, events[len(events)-1])
}

func TestRefine_EmptyProposalSkipsReview(t *testing.T) {
	p := &scriptedProposer{plans: []WeekPlan{nil, planNamed("B")}}
	r := &scriptedReviewer{verdicts: []Verdict{approved}}

	var events []EventKind
	l := newTestLoop(t, p, r, &countingFinalizer{},
		WithReporter(ReporterFunc(func(e Event) { events = append(events, e.Kind) })))

	out, err := l.Refine(context.Background(), weekStart, weekEnd, "")
	require.NoError(t, err)

	assert.Equal(t, 2, out.Proposals)
	assert.Equal(t, 1, out.Reviews)
	assert.Equal(t, 2, out.Attempt)
	assert.Equal(t, []string{"", ""}, p.feedbacks, "an empty attempt does not change the feedback")
	assert.Equal(t, []EventKind{
		EventProposing, EventEmptyProposal,
		EventProposing, EventReviewing, EventVerdict,
	}, events)
}

func TestRefine_NoPlan(t *testing.T) {
	p := &scriptedProposer{plans: []WeekPlan{nil}}
	r := &scriptedReviewer{verdicts: []Verdict{approved}}

	out, err := newTestLoop(t, p, r, &countingFinalizer{}, WithMaxAgentRetries(2)).
		Refine(context.Background(), weekStart, weekEnd, "")

	assert.ErrorIs(t, err, ErrNoPlan)
	assert.Equal(t, 3, out.Proposals)
	assert.Zero(t, out.Reviews)
}

func TestRefine_EmptyLastAttemptKeepsEarlierPlan(t *testing.T) {
	p := &scriptedProposer{plans: []WeekPlan{planNamed("A"), nil}}
	r := &scriptedReviewer{verdicts: []Verdict{rejected("again")}}

	out, err := newTestLoop(t, p, r, &countingFinalizer{}, WithMaxAgentRetries(1)).
		Refine(context.Background(), weekStart, weekEnd, "")
	require.NoError(t, err)

	assert.Equal(t, OutcomeExhausted, out.Status)
	assert.Equal(t, planNamed("A"), out.Plan)
	assert.Equal(t, 1, out.Attempt)
	assert.Equal(t, 2, out.Proposals)
}

func TestRefine_ZeroRetries(t *testing.T) {
	p := &scriptedProposer{plans: []WeekPlan{planNamed("A")}}
	r := &scriptedReviewer{verdicts: []Verdict{rejected("no")}}

	out, err := newTestLoop(t, p, r, &countingFinalizer{}, WithMaxAgentRetries(0)).
		Refine(context.Background(), weekStart, weekEnd, "")
	require.NoError(t, err)
	assert.Equal(t, OutcomeExhausted, out.Status)
	assert.Equal(t, 1, out.Proposals)
}

func TestRefine_ProposerErrorStops(t *testing.T) {
	boom := errors.New("connection reset")
	p := &scriptedProposer{err: boom}
	r := &scriptedReviewer{verdicts: []Verdict{approved}}

	_, err := newTestLoop(t, p, r, &countingFinalizer{}).Refine(context.Background(), weekStart, weekEnd, "")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, p.calls())
}

func TestRun_UserFeedbackRestartsAttempts(t *testing.T) {
	p := &scriptedProposer{plans: []WeekPlan{planNamed("1"), planNamed("2"), planNamed("3"), planNamed("4"), planNamed("5")}}
	r := &scriptedReviewer{verdicts: []Verdict{
		rejected("a"), rejected("b"), rejected("c"), rejected("d"),
		approved,
	}}
	f := &countingFinalizer{}
	h := &scriptedHuman{decisions: []Decision{
		{Action: DecisionRevise, Feedback: "Change Friday to fish"},
		{Action: DecisionApprove},
	}}

	res, err := newTestLoop(t, p, r, f, WithHumanReviewer(h)).Run(context.Background(), Request{Start: weekStart, End: weekEnd})
	require.NoError(t, err)

	require.Len(t, h.seen, 2)
	assert.Equal(t, OutcomeExhausted, h.seen[0].Status)
	assert.Equal(t, OutcomeApproved, h.seen[1].Status)
	assert.Equal(t, 1, h.seen[1].Attempt, "revision restarts at attempt 1")
	assert.Equal(t, "Change Friday to fish", p.feedbacks[4])

	assert.Equal(t, 1, res.Revisions)
	assert.False(t, res.BestEffort)
	assert.Equal(t, planNamed("5"), res.Plan)
	assert.Equal(t, "## Recettes", res.Tips)
	assert.NotEmpty(t, res.RunID)
	require.Len(t, f.plans, 1)
	assert.Equal(t, planNamed("5"), f.plans[0])
}

func TestRun_BestEffortApproved(t *testing.T) {
	p := &scriptedProposer{plans: []WeekPlan{planNamed("X")}}
	r := &scriptedReviewer{verdicts: []Verdict{rejected("meh")}}
	f := &countingFinalizer{}

	res, err := newTestLoop(t, p, r, f).Run(context.Background(), Request{Start: weekStart, End: weekEnd})
	require.NoError(t, err)

	assert.True(t, res.BestEffort)
	assert.Len(t, f.plans, 1)
	assert.Equal(t, 4, p.calls())
}

func TestRun_Abort(t *testing.T) {
	p := &scriptedProposer{plans: []WeekPlan{planNamed("A")}}
	r := &scriptedReviewer{verdicts: []Verdict{approved}}
	f := &countingFinalizer{}
	h := &scriptedHuman{decisions: []Decision{{Action: DecisionAbort}}}

	_, err := newTestLoop(t, p, r, f, WithHumanReviewer(h)).Run(context.Background(), Request{Start: weekStart, End: weekEnd})
	assert.ErrorIs(t, err, ErrAborted)
	assert.Empty(t, f.plans, "no tips for an aborted run")
}

func TestRun_NoPlanSkipsHuman(t *testing.T) {
	p := &scriptedProposer{plans: []WeekPlan{nil}}
	r := &scriptedReviewer{verdicts: []Verdict{approved}}
	h := &scriptedHuman{}

	_, err := newTestLoop(t, p, r, &countingFinalizer{}, WithHumanReviewer(h)).
		Run(context.Background(), Request{Start: weekStart, End: weekEnd})
	assert.ErrorIs(t, err, ErrNoPlan)
	assert.Empty(t, h.seen)
}

func TestRun_RejectsInvertedWindow(t *testing.T) {
	p := &scriptedProposer{plans: []WeekPlan{planNamed("A")}}
	_, err := newTestLoop(t, p, &scriptedReviewer{verdicts: []Verdict{approved}}, &countingFinalizer{}).
		Run(context.Background(), Request{Start: weekEnd, End: weekStart})
	assert.EqualError(t, err, "end date 2026-03-02 is before start date 2026-03-08")
	assert.Zero(t, p.calls())
}

func TestRun_ResultIsDetached(t *testing.T) {
	plan := planNamed("A")
	p := &scriptedProposer{plans: []WeekPlan{plan}}
	res, err := newTestLoop(t, p, &scriptedReviewer{verdicts: []Verdict{approved}}, &countingFinalizer{}).
		Run(context.Background(), Request{Start: weekStart, End: weekEnd})
	require.NoError(t, err)

	res.Plan[0].Soir = "changed"
	assert.Equal(t, "A", plan[0].Soir)
}

func TestParseDecision(t *testing.T) {
	tests := []struct {
		in   string
		want Decision
	}{
		{in: "yes", want: Decision{Action: DecisionApprove}},
		{in: " Y ", want: Decision{Action: DecisionApprove}},
		{in: "OK", want: Decision{Action: DecisionApprove}},
		{in: "quit", want: Decision{Action: DecisionAbort}},
		{in: "Q", want: Decision{Action: DecisionAbort}},
		{in: "exit", want: Decision{Action: DecisionAbort}},
		{in: "abort", want: Decision{Action: DecisionAbort}},
		{in: " Swap Tuesday for soup ", want: Decision{Action: DecisionRevise, Feedback: "Swap Tuesday for soup"}},
		{in: "yes please", want: Decision{Action: DecisionRevise, Feedback: "yes please"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseDecision(tt.in), tt.in)
	}
}
