package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"meal-planner/internal/shopping"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const defaultMaxAgentRetries = 3

// Proposer drafts a plan. An empty plan means the attempt failed.
type Proposer interface {
	CreatePlan(ctx context.Context, start, end time.Time, feedback string) (WeekPlan, shopping.List, error)
}

// Reviewer accepts or rejects a plan.
type Reviewer interface {
	EvaluatePlan(ctx context.Context, plan WeekPlan) (Verdict, error)
}

// Finalizer turns the accepted plan into cooking guidance.
type Finalizer interface {
	GetTips(ctx context.Context, plan WeekPlan) (string, error)
}

// OutcomeStatus says how the agents settled on a plan.
type OutcomeStatus string

const (
	OutcomeApproved  OutcomeStatus = "approved"
	OutcomeExhausted OutcomeStatus = "exhausted"
)

// Outcome is the result of one bounded planner/coach exchange.
type Outcome struct {
	Status       OutcomeStatus
	Plan         WeekPlan
	ShoppingList shopping.List
	Verdict      Verdict
	// Attempt is the attempt that produced Plan.
	Attempt   int
	Proposals int
	Reviews   int
}

// BestEffort reports whether the plan was kept without the coach's approval.
func (o Outcome) BestEffort() bool {
	return o.Status == OutcomeExhausted
}

// DecisionAction is what the human chose.
type DecisionAction int

const (
	DecisionRevise DecisionAction = iota
	DecisionApprove
	DecisionAbort
)

// Decision is the human's answer to a presented plan.
type Decision struct {
	Action   DecisionAction
	Feedback string
}

var (
	approveWords = []string{"yes", "y", "ok"}
	abortWords   = []string{"abort", "quit", "q", "exit"}
)

// ParseDecision reads a free-text answer. Affirmative and abort words are
// matched case-insensitively; any other text is revision feedback.
func ParseDecision(input string) Decision {
	s := strings.ToLower(strings.TrimSpace(input))
	for _, w := range approveWords {
		if s == w {
			return Decision{Action: DecisionApprove}
		}
	}
	for _, w := range abortWords {
		if s == w {
			return Decision{Action: DecisionAbort}
		}
	}
	return Decision{Action: DecisionRevise, Feedback: strings.TrimSpace(input)}
}

// HumanReviewer is asked to approve every plan the agents settle on.
type HumanReviewer interface {
	Review(ctx context.Context, o Outcome) (Decision, error)
}

// AutoApprove accepts whatever the agents produce.
type AutoApprove struct{}

func (AutoApprove) Review(context.Context, Outcome) (Decision, error) {
	return Decision{Action: DecisionApprove}, nil
}

// EventKind identifies a step worth narrating.
type EventKind int

const (
	EventProposing EventKind = iota
	EventEmptyProposal
	EventReviewing
	EventVerdict
	EventBestEffort
	EventNoPlan
	EventRevising
	EventFinalizing
)

// Event is passed to the Reporter as the loop progresses.
type Event struct {
	Kind     EventKind
	Attempt  int
	Verdict  Verdict
	Feedback string
}

// Reporter narrates the loop to whoever is watching.
type Reporter interface {
	Report(e Event)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(Event)

func (f ReporterFunc) Report(e Event) { f(e) }

// Request is a planning run over an inclusive date window.
type Request struct {
	Start time.Time
	End   time.Time
	// Feedback seeds the very first proposal. Usually empty.
	Feedback string
}

// Result is what an approved run delivers.
type Result struct {
	RunID        string
	Start        time.Time
	End          time.Time
	Plan         WeekPlan
	ShoppingList shopping.List
	Tips         string
	BestEffort   bool
	Revisions    int
}

// LoopOption configures a RefinementLoop.
type LoopOption func(*RefinementLoop)

// WithMaxAgentRetries sets how many rejections are retried. n retries allow n+1 proposals.
func WithMaxAgentRetries(n int) LoopOption {
	return func(l *RefinementLoop) {
		if n >= 0 {
			l.maxRetries = n
		}
	}
}

// WithHumanReviewer sets who approves plans. Defaults to AutoApprove.
func WithHumanReviewer(h HumanReviewer) LoopOption {
	return func(l *RefinementLoop) { l.human = h }
}

// WithReporter sets the narration sink.
func WithReporter(r Reporter) LoopOption {
	return func(l *RefinementLoop) { l.reporter = r }
}

// WithLoopLogger sets the loop logger.
func WithLoopLogger(log *zap.Logger) LoopOption {
	return func(l *RefinementLoop) {
		if log != nil {
			l.log = log
		}
	}
}

// RefinementLoop drives planner and coach to a plan, then asks a human to accept it.
// Calls are strictly sequential.
type RefinementLoop struct {
	proposer   Proposer
	reviewer   Reviewer
	finalizer  Finalizer
	human      HumanReviewer
	reporter   Reporter
	maxRetries int
	log        *zap.Logger

	tracer   trace.Tracer
	attempts metric.Int64Counter
	runs     metric.Int64Counter
}

// NewRefinementLoop wires the three roles into a loop.
func NewRefinementLoop(p Proposer, r Reviewer, f Finalizer, opts ...LoopOption) (*RefinementLoop, error) {
	l := &RefinementLoop{
		proposer:   p,
		reviewer:   r,
		finalizer:  f,
		human:      AutoApprove{},
		reporter:   ReporterFunc(func(Event) {}),
		maxRetries: defaultMaxAgentRetries,
		log:        zap.NewNop(),
		tracer:     otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(l)
	}

	meter := otel.Meter(tracerName)
	var err error
	l.attempts, err = meter.Int64Counter("planner.attempts",
		metric.WithDescription("Proposal attempts by outcome"))
	if err != nil {
		return nil, fmt.Errorf("failed to create attempts counter: %w", err)
	}
	l.runs, err = meter.Int64Counter("planner.runs",
		metric.WithDescription("Planning runs by final status"))
	if err != nil {
		return nil, fmt.Errorf("failed to create runs counter: %w", err)
	}
	return l, nil
}

func (l *RefinementLoop) countAttempt(ctx context.Context, outcome string) {
	l.attempts.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (l *RefinementLoop) countRun(ctx context.Context, status string) {
	l.runs.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

// Refine runs the bounded planner/coach exchange. An approved plan ends it at
// once; when the last attempt is rejected, or fails after an earlier rejection,
// the latest plan is kept as best effort. ErrNoPlan means no attempt produced a plan.
func (l *RefinementLoop) Refine(ctx context.Context, start, end time.Time, feedback string) (out Outcome, err error) {
	ctx, span := l.tracer.Start(ctx, "RefinementLoop.Refine")
	defer func() {
		span.SetAttributes(
			attribute.Int("proposals", out.Proposals),
			attribute.Int("reviews", out.Reviews),
			attribute.String("status", string(out.Status)),
		)
		endSpan(span, err)
	}()

	log := l.log.With(zap.String("run_id", runIDFrom(ctx)))
	maxAttempts := l.maxRetries + 1
	var best *Outcome

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		actx := withAttempt(ctx, attempt)
		l.reporter.Report(Event{Kind: EventProposing, Attempt: attempt})

		plan, list, err := l.proposer.CreatePlan(actx, start, end, feedback)
		out.Proposals++
		if err != nil {
			return out, fmt.Errorf("planner attempt %d: %w", attempt, err)
		}

		if plan.IsEmpty() {
			log.Warn("planner produced no plan", zap.Int("attempt", attempt))
			l.countAttempt(ctx, "empty")
			l.reporter.Report(Event{Kind: EventEmptyProposal, Attempt: attempt})
			continue
		}

		l.reporter.Report(Event{Kind: EventReviewing, Attempt: attempt})
		verdict, err := l.reviewer.EvaluatePlan(actx, plan)
		out.Reviews++
		if err != nil {
			return out, fmt.Errorf("coach attempt %d: %w", attempt, err)
		}
		l.reporter.Report(Event{Kind: EventVerdict, Attempt: attempt, Verdict: verdict})
		log.Info("plan reviewed",
			zap.Int("attempt", attempt),
			zap.String("status", string(verdict.Status)),
		)

		best = &Outcome{
			Plan:         plan,
			ShoppingList: list,
			Verdict:      verdict,
			Attempt:      attempt,
		}

		if verdict.Approved() {
			l.countAttempt(ctx, "approved")
			return l.settle(out, best, OutcomeApproved), nil
		}
		l.countAttempt(ctx, "rejected")

		if attempt < maxAttempts {
			feedback = verdict.Critique
			continue
		}
	}

	if best == nil {
		l.reporter.Report(Event{Kind: EventNoPlan})
		return out, ErrNoPlan
	}

	log.Warn("agent retries exhausted, keeping best effort", zap.Int("attempt", best.Attempt))
	l.reporter.Report(Event{Kind: EventBestEffort, Attempt: best.Attempt, Verdict: best.Verdict})
	return l.settle(out, best, OutcomeExhausted), nil
}

func (l *RefinementLoop) settle(counts Outcome, o *Outcome, status OutcomeStatus) Outcome {
	res := *o
	res.Status = status
	res.Proposals = counts.Proposals
	res.Reviews = counts.Reviews
	return res
}

// Run plans req's window until the human approves, then asks the cooker for
// recipe cards exactly once. Each revision restarts Refine at attempt 1 with the
// human's text as feedback. There is no limit on revisions.
func (l *RefinementLoop) Run(ctx context.Context, req Request) (res Result, err error) {
	if req.End.Before(req.Start) {
		return Result{}, fmt.Errorf("end date %s is before start date %s",
			req.End.Format(DateLayout), req.Start.Format(DateLayout))
	}

	res = Result{RunID: uuid.NewString(), Start: req.Start, End: req.End}
	ctx = withRunID(ctx, res.RunID)
	ctx, span := l.tracer.Start(ctx, "RefinementLoop.Run", trace.WithAttributes(
		attribute.String("run_id", res.RunID),
		attribute.String("start", req.Start.Format(DateLayout)),
		attribute.String("end", req.End.Format(DateLayout)),
	))
	defer func() { endSpan(span, err) }()

	log := l.log.With(zap.String("run_id", res.RunID))
	log.Info("planning run started",
		zap.String("start", req.Start.Format(DateLayout)),
		zap.String("end", req.End.Format(DateLayout)),
	)

	feedback := req.Feedback
	var outcome Outcome
	for approved := false; !approved; {
		outcome, err = l.Refine(ctx, req.Start, req.End, feedback)
		if err != nil {
			status := "error"
			if errors.Is(err, ErrNoPlan) {
				status = "no_plan"
			}
			l.countRun(ctx, status)
			return res, err
		}

		decision, err := l.human.Review(ctx, outcome)
		if err != nil {
			l.countRun(ctx, "error")
			return res, fmt.Errorf("human review: %w", err)
		}

		switch decision.Action {
		case DecisionApprove:
			approved = true
		case DecisionAbort:
			log.Info("run aborted by user", zap.Int("revisions", res.Revisions))
			l.countRun(ctx, "aborted")
			return res, ErrAborted
		default:
			res.Revisions++
			feedback = decision.Feedback
			log.Info("user requested changes", zap.Int("revisions", res.Revisions))
			l.reporter.Report(Event{Kind: EventRevising, Feedback: feedback})
		}
	}

	l.reporter.Report(Event{Kind: EventFinalizing})
	tips, err := l.finalizer.GetTips(ctx, outcome.Plan)
	if err != nil {
		l.countRun(ctx, "error")
		return res, fmt.Errorf("cooker: %w", err)
	}

	res.Plan = outcome.Plan.Clone()
	res.ShoppingList = outcome.ShoppingList.Clone()
	res.Tips = tips
	res.BestEffort = outcome.BestEffort()
	l.countRun(ctx, string(outcome.Status))
	log.Info("planning run finished",
		zap.String("status", string(outcome.Status)),
		zap.Int("revisions", res.Revisions),
	)
	return res, nil
}
