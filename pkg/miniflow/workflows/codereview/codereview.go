// Package codereview is a sample workflow that scores a piece of source
// code and loops over its review steps until the score reaches a threshold.
//
// The graph is extract -> complexity -> issues -> suggest. After suggest,
// the run goes back to extract while quality_score is below the threshold.
// Otherwise it follows suggest's edge, which is none in the built-in graph.
//
// State keys read: code, threshold (optional, default Threshold).
// State keys written: functions, complexity, issues, suggestions, quality_score.
package codereview

import (
	"fmt"
	"strings"

	"github.com/randalmurphal/miniflow/pkg/miniflow"
	"github.com/randalmurphal/miniflow/pkg/miniflow/config"
	"github.com/randalmurphal/miniflow/pkg/miniflow/tools"
)

// Threshold is the default target quality score, out of MaxScore.
const Threshold = 8

// MaxScore caps quality_score.
const MaxScore = 10

// Node names.
const (
	Extract    = "extract"
	Complexity = "complexity"
	Issues     = "issues"
	Suggest    = "suggest"
)

// Start is the workflow's start node.
const Start = Extract

// Suggestion texts.
const (
	SuggestRefactor = "Refactor long functions into smaller functions."
	SuggestCleanup  = "Fix TODOs and remove debugging prints."
	SuggestNone     = "No trivial suggestions found."
)

// Workflow binds the review nodes to a tool registry.
type Workflow struct {
	tools *tools.Registry
}

// New creates the workflow. A nil registry uses tools.Default().
func New(reg *tools.Registry) *Workflow {
	if reg == nil {
		reg = tools.Default()
	}
	return &Workflow{tools: reg}
}

// Nodes returns the review nodes in graph order.
func (w *Workflow) Nodes() []miniflow.NamedNode {
	return []miniflow.NamedNode{
		{Name: Extract, Fn: w.extract},
		{Name: Complexity, Fn: w.complexity},
		{Name: Issues, Fn: w.issues},
		{Name: Suggest, Fn: w.suggest},
	}
}

// Edges returns the default linear progression. Suggest has no edge; it
// routes explicitly.
func Edges() miniflow.Edges {
	return miniflow.Edges{
		Extract:    Complexity,
		Complexity: Issues,
		Issues:     Suggest,
		Suggest:    "",
	}
}

// Graph builds the complete review graph.
func (w *Workflow) Graph() (*miniflow.Graph, error) {
	return miniflow.New(w.Nodes(), Edges(), Start)
}

// extract splits the code on "def " and records each chunk's name and
// line count.
func (w *Workflow) extract(ctx miniflow.Context, s miniflow.State) (miniflow.Result, error) {
	code, _ := s["code"].(string)

	funcs := []map[string]any{}
	for _, chunk := range strings.Split(code, "def ") {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		name, _, _ := strings.Cut(chunk, "(")
		funcs = append(funcs, map[string]any{
			"name":   strings.TrimSpace(name),
			"length": strings.Count(chunk, "\n") + 1,
		})
	}

	s["functions"] = funcs
	if _, ok := s["quality_score"]; !ok {
		s["quality_score"] = 0
	}
	ctx.Logger().Debug("functions extracted", "count", len(funcs))
	return miniflow.Continue(), nil
}

// complexity counts lines over 10 per function and lowers the score by
// one point per 5 such lines.
func (w *Workflow) complexity(ctx miniflow.Context, s miniflow.State) (miniflow.Result, error) {
	total := 0
	for _, length := range functionLengths(s["functions"]) {
		total += max(0, length-10)
	}

	s["complexity"] = total
	s["quality_score"] = max(0, score(s, MaxScore)-total/5)
	return miniflow.Continue(), nil
}

// issues runs detect_smells and lowers the score by 2 per issue.
func (w *Workflow) issues(ctx miniflow.Context, s miniflow.State) (miniflow.Result, error) {
	code, _ := s["code"].(string)

	out, err := w.tools.Call("detect_smells", code)
	if err != nil {
		return miniflow.Continue(), fmt.Errorf("detect smells: %w", err)
	}
	found := config.New(out).Int("issues", 0)

	s["issues"] = found
	s["quality_score"] = max(0, score(s, MaxScore)-found*2)
	return miniflow.Continue(), nil
}

// suggest records suggestions, raises the score by 6, and loops back to
// extract while the score is below the threshold. Otherwise it leaves
// routing to suggest's edge, so a graph that extends the review keeps going.
func (w *Workflow) suggest(ctx miniflow.Context, s miniflow.State) (miniflow.Result, error) {
	cfg := config.New(s)

	var suggestions []string
	if cfg.Int("complexity", 0) > 0 {
		suggestions = append(suggestions, SuggestRefactor)
	}
	if cfg.Int("issues", 0) > 0 {
		suggestions = append(suggestions, SuggestCleanup)
	}
	if len(suggestions) == 0 {
		suggestions = append(suggestions, SuggestNone)
	}
	s["suggestions"] = suggestions

	quality := min(MaxScore, score(s, 0)+6)
	s["quality_score"] = quality

	threshold := cfg.Int("threshold", Threshold)
	if quality < threshold {
		ctx.Logger().Debug("quality below threshold, iterating",
			"quality_score", quality, "threshold", threshold)
		return miniflow.Goto(Extract), nil
	}
	return miniflow.Continue(), nil
}

// score reads quality_score, falling back to def.
func score(s miniflow.State, def int) int {
	return config.New(s).Int("quality_score", def)
}

// functionLengths reads the length of each extracted function. It accepts
// both the native form written by extract and the generic form produced
// by decoding JSON.
func functionLengths(v any) []int {
	var lengths []int
	add := func(m map[string]any) {
		lengths = append(lengths, config.New(m).Int("length", 0))
	}
	switch funcs := v.(type) {
	case []map[string]any:
		for _, f := range funcs {
			add(f)
		}
	case []any:
		for _, item := range funcs {
			if f, ok := item.(map[string]any); ok {
				add(f)
			}
		}
	}
	return lengths
}
