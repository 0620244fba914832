// Package search narrows ask results with user-supplied CEL expressions.
package search

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/lyzr/secondbrain/cmd/brain/vectorstore"
)

// ErrInvalidFilter is returned for expressions that do not compile to a boolean
var ErrInvalidFilter = errors.New("invalid filter")

// Filter evaluates CEL expressions against query matches. Variables:
//
//	id, title, link, content_type  string
//	score                          double
//	meta                           map(string, string), the raw metadata
//
// Example: content_type == "youtube" && score > 0.5
type Filter struct {
	env   *cel.Env
	cache map[string]cel.Program
	mu    sync.RWMutex
}

// NewFilter creates a filter with an empty program cache
func NewFilter() (*Filter, error) {
	env, err := cel.NewEnv(
		cel.Variable("id", cel.StringType),
		cel.Variable("title", cel.StringType),
		cel.Variable("link", cel.StringType),
		cel.Variable("content_type", cel.StringType),
		cel.Variable("score", cel.DoubleType),
		cel.Variable("meta", cel.MapType(cel.StringType, cel.StringType)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL env: %w", err)
	}

	return &Filter{
		env:   env,
		cache: make(map[string]cel.Program),
	}, nil
}

// Compile checks expr and caches its program
func (f *Filter) Compile(expr string) error {
	_, err := f.program(expr)
	return err
}

// Apply keeps the matches for which expr is true, preserving order.
// An empty expression keeps everything.
func (f *Filter) Apply(expr string, matches []vectorstore.Match) ([]vectorstore.Match, error) {
	if expr == "" {
		return matches, nil
	}

	prg, err := f.program(expr)
	if err != nil {
		return nil, err
	}

	kept := make([]vectorstore.Match, 0, len(matches))
	for _, m := range matches {
		out, _, err := prg.Eval(activation(m))
		if err != nil {
			return nil, fmt.Errorf("%w: evaluation error: %v", ErrInvalidFilter, err)
		}
		if ok, _ := out.Value().(bool); ok {
			kept = append(kept, m)
		}
	}
	return kept, nil
}

func (f *Filter) program(expr string) (cel.Program, error) {
	f.mu.RLock()
	prg, exists := f.cache[expr]
	f.mu.RUnlock()
	if exists {
		return prg, nil
	}

	ast, issues := f.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFilter, issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("%w: expression must return bool, got %s", ErrInvalidFilter, ast.OutputType())
	}

	prg, err := f.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}

	f.mu.Lock()
	f.cache[expr] = prg
	f.mu.Unlock()

	return prg, nil
}

// CacheSize returns the number of cached expressions
func (f *Filter) CacheSize() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.cache)
}

func activation(m vectorstore.Match) map[string]any {
	meta := m.Metadata
	if meta == nil {
		meta = map[string]string{}
	}
	return map[string]any{
		"id":           m.ID,
		"title":        meta["title"],
		"link":         meta["link"],
		"content_type": meta["type"],
		"score":        float64(m.Score),
		"meta":         meta,
	}
}
