package planner

import (
	"context"
	"errors"
	"time"

	"meal-planner/internal/llm"
	"meal-planner/internal/shared"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "meal-planner/planner"

// SessionFactory opens a model session under a role instruction.
type SessionFactory func(ctx context.Context, instruction string) (llm.Session, error)

// MetaRecorder receives execution metadata for every completed model call.
type MetaRecorder interface {
	RecordMeta(meta shared.AgentMeta) error
}

// RoleOption configures a role.
type RoleOption func(*role)

// WithLogger sets the role logger.
func WithLogger(l *zap.Logger) RoleOption {
	return func(r *role) {
		if l != nil {
			r.log = l
		}
	}
}

// WithRecorder records token usage and latency of each call.
func WithRecorder(rec MetaRecorder) RoleOption {
	return func(r *role) { r.recorder = rec }
}

// role is the part the three agents share: one instruction, one session, send and parse.
type role struct {
	name     string
	session  llm.Session
	log      *zap.Logger
	recorder MetaRecorder
	tracer   trace.Tracer
}

func newRole(ctx context.Context, name string, newSession SessionFactory, instruction string, opts []RoleOption) (*role, error) {
	session, err := newSession(ctx, instruction)
	if err != nil {
		return nil, err
	}
	r := &role{
		name:    name,
		session: session,
		log:     zap.NewNop(),
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.With(zap.String("role", name))
	return r, nil
}

// History exposes the role's conversation.
func (r *role) History() []llm.Message {
	return r.session.History()
}

// send delivers prompt on the role's session and records the call.
func (r *role) send(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	reply, err := r.session.SendMessage(ctx, prompt)
	latency := time.Since(start)

	if err != nil {
		r.log.Error("model call failed", zap.Error(err), zap.Duration("latency", latency))
		return "", err
	}

	meta := shared.AgentMeta{
		AgentName: r.name,
		RunID:     runIDFrom(ctx),
		Attempt:   attemptFrom(ctx),
		Usage:     reply.Usage,
		Latency:   latency,
	}
	if r.recorder != nil {
		if err := r.recorder.RecordMeta(meta); err != nil {
			r.log.Warn("failed to record metrics", zap.Error(err))
		}
	}

	r.log.Debug("model replied",
		zap.String("run_id", meta.RunID),
		zap.Int("attempt", meta.Attempt),
		zap.Duration("latency", latency),
		zap.Int("prompt_tokens", reply.Usage.PromptTokens),
		zap.Int("completion_tokens", reply.Usage.CompletionTokens),
	)
	return reply.Text, nil
}

// startSpan opens a span named after the role operation.
func (r *role) startSpan(ctx context.Context, op string) (context.Context, trace.Span) {
	return r.tracer.Start(ctx, op, trace.WithAttributes(
		attribute.String("role", r.name),
		attribute.Int("attempt", attemptFrom(ctx)),
	))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

type ctxKey int

const (
	runIDKey ctxKey = iota
	attemptKey
)

func withRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey, id)
}

func runIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey).(string)
	return id
}

func withAttempt(ctx context.Context, n int) context.Context {
	return context.WithValue(ctx, attemptKey, n)
}

func attemptFrom(ctx context.Context) int {
	n, _ := ctx.Value(attemptKey).(int)
	return n
}

// ask sends prompt and shapes the reply with parse. Replies parse rejects as
// malformed yield fallback without an error; transport errors are returned.
func ask[T any](ctx context.Context, r *role, prompt string, parse func(string) (T, error), fallback T) (T, error) {
	raw, err := r.send(ctx, prompt)
	if err != nil {
		return fallback, err
	}

	v, err := parse(raw)
	if errors.Is(err, ErrMalformedOutput) {
		r.log.Warn("unparseable reply",
			zap.String("run_id", runIDFrom(ctx)),
			zap.Int("attempt", attemptFrom(ctx)),
			zap.Error(err),
			zap.String("reply", raw),
		)
		return fallback, nil
	}
	if err != nil {
		return fallback, err
	}
	return v, nil
}
