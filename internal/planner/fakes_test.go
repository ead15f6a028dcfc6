package planner

import (
	"context"
	"errors"
	"time"

	"meal-planner/internal/llm"
	"meal-planner/internal/meals"
	"meal-planner/internal/shopping"
)

// fakeSession replays queued replies and records prompts.
type fakeSession struct {
	instruction string
	replies     []string
	err         error
	prompts     []string
	history     []llm.Message
}

func (f *fakeSession) SendMessage(_ context.Context, text string) (llm.Reply, error) {
	f.prompts = append(f.prompts, text)
	if f.err != nil {
		return llm.Reply{}, f.err
	}
	if len(f.replies) == 0 {
		return llm.Reply{}, errors.New("no more replies")
	}
	reply := f.replies[0]
	f.replies = f.replies[1:]
	f.history = append(f.history,
		llm.Message{Role: llm.RoleUser, Text: text},
		llm.Message{Role: llm.RoleModel, Text: reply})
	return llm.Reply{Text: reply}, nil
}

func (f *fakeSession) History() []llm.Message {
	return append([]llm.Message(nil), f.history...)
}

func factoryFor(s *fakeSession) SessionFactory {
	return func(_ context.Context, instruction string) (llm.Session, error) {
		s.instruction = instruction
		return s, nil
	}
}

// fakeStore serves a fixed history.
type fakeStore struct {
	meals   []meals.Meal
	err     error
	queries []meals.Query
}

func (s *fakeStore) ListMeals(_ context.Context, q meals.Query) ([]meals.Meal, error) {
	s.queries = append(s.queries, q)
	if s.err != nil {
		return nil, s.err
	}
	return s.meals, nil
}

func (s *fakeStore) UpdateMeal(context.Context, string, meals.Update) (meals.Meal, error) {
	return meals.Meal{}, errors.New("read only")
}

func (s *fakeStore) AddMeal(context.Context, meals.Meal) (meals.Meal, error) {
	return meals.Meal{}, errors.New("read only")
}

// scriptedProposer returns one scripted plan per call. A nil plan is an empty proposal.
type scriptedProposer struct {
	plans     []WeekPlan
	feedbacks []string
	err       error
}

func (p *scriptedProposer) CreatePlan(_ context.Context, _, _ time.Time, feedback string) (WeekPlan, shopping.List, error) {
	p.feedbacks = append(p.feedbacks, feedback)
	if p.err != nil {
		return nil, nil, p.err
	}
	i := len(p.feedbacks) - 1
	if i >= len(p.plans) {
		i = len(p.plans) - 1
	}
	plan := p.plans[i]
	if plan == nil {
		return WeekPlan{}, shopping.List{}, nil
	}
	return plan, shopping.List{"Produce": {{Item: "Carottes", Quantity: "1kg", MealsCount: 1}}}, nil
}

func (p *scriptedProposer) calls() int { return len(p.feedbacks) }

// scriptedReviewer returns one verdict per call, repeating the last one.
type scriptedReviewer struct {
	verdicts []Verdict
	reviewed []WeekPlan
}

func (r *scriptedReviewer) EvaluatePlan(_ context.Context, plan WeekPlan) (Verdict, error) {
	r.reviewed = append(r.reviewed, plan)
	i := len(r.reviewed) - 1
	if i >= len(r.verdicts) {
		i = len(r.verdicts) - 1
	}
	return r.verdicts[i], nil
}

func (r *scriptedReviewer) calls() int { return len(r.reviewed) }

type countingFinalizer struct {
	plans []WeekPlan
}

func (f *countingFinalizer) GetTips(_ context.Context, plan WeekPlan) (string, error) {
	f.plans = append(f.plans, plan)
	return "## Recettes", nil
}

// scriptedHuman answers with queued decisions.
type scriptedHuman struct {
	decisions []Decision
	seen      []Outcome
}

func (h *scriptedHuman) Review(_ context.Context, o Outcome) (Decision, error) {
	h.seen = append(h.seen, o)
	d := h.decisions[0]
	h.decisions = h.decisions[1:]
	return d, nil
}

func planNamed(name string) WeekPlan {
	return WeekPlan{{Date: "2026-03-02", Soir: name}}
}

var (
	approved = Verdict{Status: StatusApproved, Critique: "Bravo"}
	rejected = func(c string) Verdict { return Verdict{Status: StatusRejected, Critique: c} }
)
