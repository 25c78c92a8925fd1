/*
Copyright © 2013 the InMAP authors.
This file is part of InMAP.

InMAP is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

InMAP is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with InMAP.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package expr implements the arithmetic/logical expression engine needed by
// species response functions, regeneration thresholds and user-defined
// outputs (§4.8 of the simulation design). It wraps
// github.com/Knetic/govaluate's tokenizer and evaluator, which InMAP itself
// depends on for filtering emissions records, with two things govaluate does
// not provide: an abstract variable-binding callback keyed by index instead
// of by name (so a Tree, a ResourceUnit and a Sapling can all be evaluated
// against the same compiled Expression without building a map[string]interface{}
// per call) and an optional linearization cache.
package expr

import (
	"fmt"
	"math"
	"sync"

	"github.com/Knetic/govaluate"
)

// Binder maps a variable name to a stable integer slot and, given a slot,
// returns that variable's current value. Species, Tree, ResourceUnit and
// Sapling all implement Binder so the same compiled Expression can evaluate
// against whichever object is in scope.
type Binder interface {
	VariableIndex(name string) (int, bool)
	Value(index int) float64
}

// mapBinder adapts a plain map[string]float64 to the Binder interface, for
// tests and for the rare caller that just wants named scalars.
type mapBinder struct {
	names []string
	vals  []float64
}

// NewMapBinder builds a Binder over a fixed set of named scalars.
func NewMapBinder(vars map[string]float64) Binder {
	b := &mapBinder{}
	for n, v := range vars {
		b.names = append(b.names, n)
		b.vals = append(b.vals, v)
	}
	return b
}

func (b *mapBinder) VariableIndex(name string) (int, bool) {
	for i, n := range b.names {
		if n == name {
			return i, true
		}
	}
	return 0, false
}
func (b *mapBinder) Value(index int) float64 { return b.vals[index] }

// builtins are the extra functions registered beyond govaluate's defaults:
// min/max/if/mod/sin/cos/tan/exp/ln/sqrt/polygon/sigmoid. The random-number
// functions rnd and rndg are not registered.
var builtins = map[string]govaluate.ExpressionFunction{
	"min": func(args ...interface{}) (interface{}, error) { return reduceFloats(args, math.Min) },
	"max": func(args ...interface{}) (interface{}, error) { return reduceFloats(args, math.Max) },
	"if": func(args ...interface{}) (interface{}, error) {
		if len(args) != 3 {
			return nil, fmt.Errorf("if() takes 3 arguments")
		}
		if toBool(args[0]) {
			return toFloat(args[1]), nil
		}
		return toFloat(args[2]), nil
	},
	"mod": func(args ...interface{}) (interface{}, error) {
		return math.Mod(toFloat(args[0]), toFloat(args[1])), nil
	},
	"sin":  func(args ...interface{}) (interface{}, error) { return math.Sin(toFloat(args[0])), nil },
	"cos":  func(args ...interface{}) (interface{}, error) { return math.Cos(toFloat(args[0])), nil },
	"tan":  func(args ...interface{}) (interface{}, error) { return math.Tan(toFloat(args[0])), nil },
	"exp":  func(args ...interface{}) (interface{}, error) { return math.Exp(toFloat(args[0])), nil },
	"ln":   func(args ...interface{}) (interface{}, error) { return math.Log(toFloat(args[0])), nil },
	"sqrt": func(args ...interface{}) (interface{}, error) { return math.Sqrt(toFloat(args[0])), nil },
	// polygon(x, x0,y0, x1,y1, ..., xn,yn) linearly interpolates a piecewise
	// function defined by the (x,y) knots, clamping outside the range.
	"polygon": func(args ...interface{}) (interface{}, error) { return polygon(args) },
	// sigmoid(x, a, b) = 1 / (1 + exp(-a*(x-b)))
	"sigmoid": func(args ...interface{}) (interface{}, error) {
		x, a, b := toFloat(args[0]), toFloat(args[1]), toFloat(args[2])
		return 1. / (1. + math.Exp(-a*(x-b))), nil
	},
}

func reduceFloats(args []interface{}, f func(a, b float64) float64) (interface{}, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("min/max require at least one argument")
	}
	m := toFloat(args[0])
	for _, a := range args[1:] {
		m = f(m, toFloat(a))
	}
	return m, nil
}

func toFloat(v interface{}) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case bool:
		if t {
			return 1
		}
		return 0
	default:
		return 0
	}
}

func toBool(v interface{}) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	default:
		return false
	}
}

func polygon(args []interface{}) (interface{}, error) {
	if len(args) < 3 || len(args)%2 != 1 {
		return nil, fmt.Errorf("polygon() requires x followed by an even number of x,y knots")
	}
	x := toFloat(args[0])
	knots := args[1:]
	n := len(knots) / 2
	xs := make([]float64, n)
	ys := make([]float64, n)
	for i := 0; i < n; i++ {
		xs[i] = toFloat(knots[2*i])
		ys[i] = toFloat(knots[2*i+1])
	}
	if x <= xs[0] {
		return ys[0], nil
	}
	if x >= xs[n-1] {
		return ys[n-1], nil
	}
	for i := 0; i < n-1; i++ {
		if x >= xs[i] && x <= xs[i+1] {
			frac := (x - xs[i]) / (xs[i+1] - xs[i])
			return ys[i] + frac*(ys[i+1]-ys[i]), nil
		}
	}
	return ys[n-1], nil
}

// Randomizer draws uniform and Gaussian random numbers. *forest.Rand
// implements this. No function in builtins draws from it.
type Randomizer interface {
	Float64() float64
	NormFloat64() float64
}

// Expression is a parsed, reentrant arithmetic/logical expression. A single
// Expression may be evaluated concurrently by multiple goroutines as long as
// each supplies its own Binder — the parsed govaluate.EvaluableExpression is
// read-only after compile, matching govaluate's own thread-safety contract.
type Expression struct {
	src    string
	parsed *govaluate.EvaluableExpression

	mu    sync.Mutex // serializes creation of the linearization caches only, not Eval
	names []string

	lin   *linearization1D
	lin2d *linearization2D
}

// New parses src. Variable names used in src need not be declared up front;
// they are resolved against the Binder supplied to Eval.
func New(src string) (*Expression, error) {
	fns := builtins
	parsed, err := govaluate.NewEvaluableExpressionWithFunctions(src, fns)
	if err != nil {
		return nil, fmt.Errorf("expr: parse %q: %w", src, err)
	}
	e := &Expression{src: src, parsed: parsed}
	for _, v := range parsed.Vars() {
		e.names = append(e.names, v)
	}
	return e, nil
}

// MustNew is like New but panics on error, for package-level expression
// tables initialized from literal strings.
func MustNew(src string) *Expression {
	e, err := New(src)
	if err != nil {
		panic(err)
	}
	return e
}

// Vars returns the variable names referenced by the expression.
func (e *Expression) Vars() []string { return e.names }

// Eval evaluates the expression against the given variable binding. Unbound
// variables evaluate as 0 unless strict is requested via EvalStrict.
func (e *Expression) Eval(b Binder) (float64, error) {
	vals := make(map[string]interface{}, len(e.names))
	for _, n := range e.names {
		if idx, ok := b.VariableIndex(n); ok {
			vals[n] = b.Value(idx)
		} else {
			vals[n] = 0.
		}
	}
	r, err := e.parsed.Evaluate(vals)
	if err != nil {
		return 0, fmt.Errorf("expr: evaluate %q: %w", e.src, err)
	}
	return toFloat(r), nil
}

// EvalStrict is like Eval but returns an error if any referenced variable is
// unbound, for callers that must not silently default to zero.
func (e *Expression) EvalStrict(b Binder) (float64, error) {
	vals := make(map[string]interface{}, len(e.names))
	for _, n := range e.names {
		idx, ok := b.VariableIndex(n)
		if !ok {
			return 0, fmt.Errorf("expr: %q: unbound variable %q", e.src, n)
		}
		vals[n] = b.Value(idx)
	}
	r, err := e.parsed.Evaluate(vals)
	if err != nil {
		return 0, fmt.Errorf("expr: evaluate %q: %w", e.src, err)
	}
	return toFloat(r), nil
}

// Eval1 is a convenience for single-variable expressions (most species
// response functions), evaluating with the sole variable bound to x.
func (e *Expression) Eval1(varName string, x float64) (float64, error) {
	return e.Eval(NewMapBinder(map[string]float64{varName: x}))
}
