// Package scoring grades quiz responses. Each question kind routes to a
// strategy keyed on the kind table's canonical shape; equality is exact, with
// no partial credit anywhere.
package scoring

import (
	"github.com/bhavishya-khunger/aiformbuilder/internal/form"
)

// strategy decides whether one canonical answer matches the question's
// declared correct answer.
type strategy func(q form.Question, a form.Answer) bool

// Engine implements form.Grader. It is stateless and safe for concurrent use.
type Engine struct {
	strategies map[form.Shape]strategy
}

func NewEngine() *Engine {
	return &Engine{
		strategies: map[form.Shape]strategy{
			form.ShapeText:      matchValue,
			form.ShapeNumber:    matchNumber,
			form.ShapeChoice:    matchValue,
			form.ShapeYesNo:     matchValue,
			form.ShapeScale:     matchScale,
			form.ShapeChoiceSet: matchSet,
			form.ShapeGrid:      matchGrid,
		},
	}
}

// Grade computes the summary for one response. MaxScore sums points over all
// questions, answered or not; unanswered and ungradable questions award zero.
func (e *Engine) Grade(questions []form.Question, answers []form.Answer) form.Summary {
	byID := make(map[string]form.Answer, len(answers))
	for _, a := range answers {
		byID[a.QuestionID] = a
	}

	var sum form.Summary
	sum.PerQuestion = make([]form.QuestionResult, 0, len(questions))
	for _, q := range questions {
		sum.MaxScore += q.Points

		r := form.QuestionResult{QuestionID: q.ID, Points: q.Points}
		r.Gradable = form.Kinds[q.Kind].AutoScorable && q.HasCorrectAnswer()

		if a, answered := byID[q.ID]; answered && r.Gradable {
			if match, ok := e.strategies[form.Kinds[q.Kind].Shape]; ok && match(q, a) {
				r.Correct = true
				r.Awarded = q.Points
				sum.Score += q.Points
			}
		}
		sum.PerQuestion = append(sum.PerQuestion, r)
	}
	return sum
}

// matchValue covers every kind whose canonical answer is a single string:
// case-sensitive, exact.
func matchValue(q form.Question, a form.Answer) bool {
	want, ok := q.CorrectValue()
	return ok && a.Text == want
}

func matchNumber(q form.Question, a form.Answer) bool {
	want, ok := q.CorrectValue()
	if !ok || a.Number == nil {
		return false
	}
	target, err := parseNumber(want)
	if err != nil {
		return false
	}
	return *a.Number == target
}

func matchScale(q form.Question, a form.Answer) bool {
	want, ok := q.CorrectValue()
	if !ok || a.Scale == nil {
		return false
	}
	target, err := parseInt(want)
	if err != nil {
		return false
	}
	return *a.Scale == target
}

// matchSet is set equality: neither subsets nor supersets score.
func matchSet(q form.Question, a form.Answer) bool {
	want := q.CorrectSet()
	if len(want) == 0 || len(a.Values) != len(want) {
		return false
	}
	have := make(map[string]bool, len(a.Values))
	for _, v := range a.Values {
		have[v] = true
	}
	for _, v := range want {
		if !have[v] {
			return false
		}
	}
	return true
}

// matchGrid requires every declared row's mapping to match exactly; one wrong
// row fails the whole question.
func matchGrid(q form.Question, a form.Answer) bool {
	want := q.CorrectGrid()
	if len(want) == 0 {
		return false
	}
	for row, col := range want {
		if a.Grid[row] != col {
			return false
		}
	}
	for row := range a.Grid {
		if _, declared := want[row]; !declared {
			return false
		}
	}
	return true
}
