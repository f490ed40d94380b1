// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package sdd

import (
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/pkg/errors"
)

// compiledExpression is the payload behind an Expression homomorphism: a
// user expression compiled once via expr-lang/expr and re-run against a
// fresh environment on every arc it touches. This mirrors the compile-once,
// evaluate-many pattern go-tony/schema uses when it builds a SAT formula
// from a user-supplied expression tree once and then queries it repeatedly.
type compiledExpression struct {
	source  string
	program *vm.Program
}

// expressionEnv is the evaluation environment exposed to an Expression
// program: the label set reached at the homomorphism's variable, under the
// name "values".
type expressionEnv struct {
	Values Values
}

func compileExpression(src string) (*compiledExpression, error) {
	program, err := expr.Compile(src, expr.Env(expressionEnv{}))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &compiledExpression{source: src, program: program}, nil
}

// run evaluates the compiled expression against values, expecting the
// program to produce a new Values (the replacement label set).
func (c *compiledExpression) run(values Values) (Values, error) {
	out, err := expr.Run(c.program, expressionEnv{Values: values})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	result, ok := out.(Values)
	if !ok {
		return nil, errors.Errorf("expression %q must evaluate to a Values, got %T", c.source, out)
	}
	return result, nil
}
