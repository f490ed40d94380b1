// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package sdd

import (
	"fmt"

	"github.com/pkg/errors"
)

// Top is raised when an SDD operation combines two operands at levels the
// current order cannot reconcile (for instance, a Flat and a Hier node at
// the same variable, or two Hier nodes whose nested orders disagree).
type Top struct {
	Left, Right *SDD
}

func (t *Top) Error() string {
	return fmt.Sprintf("incompatible operands (variable %d, variable %d)", t.Left.variable, t.Right.variable)
}

// newTop builds a Top error and wraps it with a stack trace, in the style
// of the teacher's seterror (errors.go), generalized to a structured error
// value instead of a formatted string.
func newTop(left, right *SDD) error {
	return errors.WithStack(&Top{Left: left, Right: right})
}

// errInterrupted is the cause wrapped into an EvaluationError when a
// context.Context passed to evaluation is cancelled (§5's cooperative
// interrupt point).
var errInterrupted = errors.New("evaluation interrupted")

// EvaluationError wraps the cause of a failed evaluation (a Top, an
// interruption, or a failure raised by a user callable passed to Inductive
// or ValuesFunction) together with the breadcrumb chain of operations it
// passed through. Every homomorphism evaluation step (one per evaluation
// cache lookup) appends the name of its operator on the way back up; the
// SDD binary operations return their errors without adding a breadcrumb.
type EvaluationError struct {
	cause error
	chain []string
}

// newEvaluationError wraps cause into a fresh EvaluationError with an empty
// breadcrumb chain. If cause is already an EvaluationError, it is returned
// unchanged so chains are never nested.
func newEvaluationError(cause error) *EvaluationError {
	if ee, ok := cause.(*EvaluationError); ok {
		return ee
	}
	return &EvaluationError{cause: cause}
}

// Breadcrumb appends the name of the current operation to the chain (the
// chain therefore reads innermost-first: the operation that actually
// failed, then each enclosing operation in turn) and returns the receiver
// so call sites can write `return nil, err.Breadcrumb(name)`.
func (e *EvaluationError) Breadcrumb(op string) *EvaluationError {
	e.chain = append(e.chain, op)
	return e
}

// Chain returns the recorded breadcrumb chain, innermost operation first.
func (e *EvaluationError) Chain() []string {
	return e.chain
}

func (e *EvaluationError) Error() string {
	msg := e.cause.Error()
	for _, step := range e.chain {
		msg = msg + " <- " + step
	}
	return msg
}

// Unwrap exposes the original cause to errors.Is/errors.As.
func (e *EvaluationError) Unwrap() error { return e.cause }

// Cause returns the root cause (the Top, interruption, or user error) that
// started this evaluation error, stripped of any stack-trace wrapping.
func (e *EvaluationError) Cause() error { return errors.Cause(e.cause) }

// wrapBreadcrumb is the idiom used at (nearly) every recursive call site: if
// err is non-nil, fold it into an EvaluationError and record op, otherwise
// pass nil through untouched.
func wrapBreadcrumb(err error, op string) error {
	if err == nil {
		return nil
	}
	return newEvaluationError(err).Breadcrumb(op)
}
