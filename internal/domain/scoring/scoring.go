// Package scoring grades assessment submissions against answer keys.
package scoring

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/okian/talentflow/internal/domain/model"
)

// Default scoring configuration constants.
const (
	defaultMaxScore = 100
	defaultDecimals = 2
)

// Option applies a configuration option to the AnswerKeyScorer.
type Option func(*AnswerKeyScorer)

// WithMaxScore sets the score awarded when every gradable answer is correct.
func WithMaxScore(maxScore float64) Option {
	return func(s *AnswerKeyScorer) {
		if maxScore > 0 {
			s.maxScore = maxScore
		}
	}
}

// Input is one submission to grade.
type Input struct {
	Questions []model.Question
	Responses map[string]any
	// Submitted is the caller's own score, used when nothing is gradable.
	Submitted *float64
}

// Result contains the computed score.
type Result struct {
	Score    float64
	Correct  int
	Gradable int
}

// Scorer computes a score for a submission.
type Scorer interface {
	Score(ctx context.Context, in Input) (Result, error)
}

// AnswerKeyScorer grades questions that carry a correct_answer.
type AnswerKeyScorer struct {
	maxScore float64
	decimals int
}

// NewAnswerKeyScorer creates a scorer with configuration options.
func NewAnswerKeyScorer(opts ...Option) *AnswerKeyScorer {
	s := &AnswerKeyScorer{maxScore: defaultMaxScore, decimals: defaultDecimals}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score grades in. Unanswered gradable questions count as wrong.
func (s *AnswerKeyScorer) Score(ctx context.Context, in Input) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("context cancelled: %w", err)
	}

	var res Result
	for _, q := range in.Questions {
		if q.CorrectAnswer == nil {
			continue
		}
		res.Gradable++
		if answer, ok := in.Responses[q.ID]; ok && matches(q.Type, answer, q.CorrectAnswer) {
			res.Correct++
		}
	}

	switch {
	case res.Gradable > 0:
		res.Score = s.round(float64(res.Correct) / float64(res.Gradable) * s.maxScore)
	case in.Submitted != nil:
		res.Score = s.round(math.Max(0, math.Min(s.maxScore, *in.Submitted)))
	}
	return res, nil
}

func (s *AnswerKeyScorer) round(v float64) float64 {
	p := math.Pow(10, float64(s.decimals))
	return math.Round(v*p) / p
}

func matches(t model.QuestionType, answer, want any) bool {
	switch t {
	case model.MultiChoice:
		return sameSet(answer, want)
	case model.Numeric:
		a, aok := number(answer)
		w, wok := number(want)
		return aok && wok && a == w
	default:
		return strings.EqualFold(strings.TrimSpace(text(answer)), strings.TrimSpace(text(want)))
	}
}

func sameSet(answer, want any) bool {
	a, aok := answer.([]any)
	w, wok := want.([]any)
	if !aok || !wok {
		return false
	}
	set := make(map[string]int, len(w))
	for _, v := range w {
		set[text(v)]++
	}
	for _, v := range a {
		k := text(v)
		if set[k] == 0 {
			return false
		}
		set[k]--
	}
	for _, n := range set {
		if n != 0 {
			return false
		}
	}
	return true
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func text(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}
