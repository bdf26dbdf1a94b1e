package engine

import (
	"slices"
	"sort"

	"github.com/roach88/sidebearing/internal/ir"
)

// CascadeOrder returns the glyphs to recompute after source changes,
// dependencies before dependents.
//
// It runs a post-order depth-first walk from each direct dependent of source
// and reverses the result. A visited set makes the walk terminate on cyclic
// graphs. source itself is dropped unless it has a symmetry rule.
func (e *Evaluator) CascadeOrder(source string) []string {
	post := e.walkDependents([]string{source})
	slices.Reverse(post)
	if e.rules.IsDependent(source, source) {
		return post
	}
	return slices.DeleteFunc(post, func(g string) bool { return g == source })
}

// BatchOrder returns one order covering every glyph affected by any of
// sources. Each glyph appears once, and every glyph comes after all of its
// dependencies that are also in the order.
//
// A listed source stays in the result only when it has a symmetry rule or
// depends, transitively, on another listed source.
func (e *Evaluator) BatchOrder(sources []string) []string {
	roots := dedupeSorted(sources)
	post := e.walkDependents(roots)
	slices.Reverse(post)

	listed := make(map[string]bool, len(roots))
	for _, s := range roots {
		listed[s] = true
	}
	reachedFromOther := map[string]bool{}
	for _, s := range roots {
		for _, g := range e.AffectedGlyphs(s) {
			if g != s && listed[g] {
				reachedFromOther[g] = true
			}
		}
	}

	return slices.DeleteFunc(post, func(g string) bool {
		return listed[g] && !reachedFromOther[g] && !e.rules.IsDependent(g, g)
	})
}

// FullOrder returns every rule-bearing glyph, dependencies first.
func (e *Evaluator) FullOrder() []string {
	glyphs := e.rules.Glyphs()
	visited := make(map[string]bool, len(glyphs))
	out := make([]string, 0, len(glyphs))

	var visit func(g string)
	visit = func(g string) {
		if visited[g] {
			return
		}
		visited[g] = true
		for _, dep := range e.rules.Dependencies(g) {
			visit(dep)
		}
		if e.hasAnyRule(g) {
			out = append(out, g)
		}
	}
	for _, g := range glyphs {
		visit(g)
	}
	return out
}

// AffectedGlyphs returns the transitive dependents of glyph, sorted. glyph is
// included only when it reaches itself.
func (e *Evaluator) AffectedGlyphs(glyph string) []string {
	seen := map[string]bool{}
	stack := []string{glyph}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, dep := range e.rules.Dependents(cur) {
			if !seen[dep] {
				seen[dep] = true
				stack = append(stack, dep)
			}
		}
	}
	out := make([]string, 0, len(seen))
	for g := range seen {
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}

// walkDependents returns every glyph reachable from the direct dependents of
// roots in post-order: each glyph after all of its own dependents.
func (e *Evaluator) walkDependents(roots []string) []string {
	var post []string
	visited := map[string]bool{}
	var visit func(g string)
	visit = func(g string) {
		if visited[g] {
			return
		}
		visited[g] = true
		for _, dep := range e.rules.Dependents(g) {
			visit(dep)
		}
		post = append(post, g)
	}
	for _, root := range roots {
		for _, dep := range e.rules.Dependents(root) {
			visit(dep)
		}
	}
	return post
}

func (e *Evaluator) hasAnyRule(g string) bool {
	return e.rules.HasRule(g, ir.SideLeft) || e.rules.HasRule(g, ir.SideRight)
}

func dedupeSorted(in []string) []string {
	out := slices.Clone(in)
	sort.Strings(out)
	return slices.Compact(out)
}
