package payroll

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/shopspring/decimal"
)

// Variables visible to FORMULA component expressions
const (
	FormulaVarAmount = "amount"
	FormulaVarBasic  = "basic"
	FormulaVarGross  = "gross"
)

// FormulaVars are the inputs bound when a formula is evaluated. Basic and
// Gross only include non-formula components so formulas cannot chain.
type FormulaVars struct {
	Amount decimal.Decimal
	Basic  decimal.Decimal
	Gross  decimal.Decimal
}

// FormulaEvaluator compiles CEL formulas once and caches the programs
type FormulaEvaluator struct {
	env      *cel.Env
	programs sync.Map
}

// NewFormulaEvaluator creates an evaluator with the payroll variables declared as doubles
func NewFormulaEvaluator() (*FormulaEvaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable(FormulaVarAmount, cel.DoubleType),
		cel.Variable(FormulaVarBasic, cel.DoubleType),
		cel.Variable(FormulaVarGross, cel.DoubleType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create formula environment: %w", err)
	}
	return &FormulaEvaluator{env: env}, nil
}

// Compile checks that expr is a numeric CEL expression and caches its program
func (f *FormulaEvaluator) Compile(expr string) (cel.Program, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, fmt.Errorf("%w: empty formula", ErrFormula)
	}
	if cached, ok := f.programs.Load(expr); ok {
		return cached.(cel.Program), nil
	}

	ast, issues := f.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormula, issues.Err())
	}
	if out := ast.OutputType(); out != cel.DoubleType && out != cel.IntType {
		return nil, fmt.Errorf("%w: formula must yield a number, got %s", ErrFormula, out)
	}
	program, err := f.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormula, err)
	}

	actual, _ := f.programs.LoadOrStore(expr, program)
	return actual.(cel.Program), nil
}

// Evaluate runs expr against vars. The result must be finite and non-negative.
func (f *FormulaEvaluator) Evaluate(expr string, vars FormulaVars) (decimal.Decimal, error) {
	program, err := f.Compile(expr)
	if err != nil {
		return decimal.Zero, err
	}

	out, _, err := program.Eval(map[string]any{
		FormulaVarAmount: vars.Amount.InexactFloat64(),
		FormulaVarBasic:  vars.Basic.InexactFloat64(),
		FormulaVarGross:  vars.Gross.InexactFloat64(),
	})
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrFormula, err)
	}

	var value float64
	switch v := out.Value().(type) {
	case float64:
		value = v
	case int64:
		value = float64(v)
	default:
		return decimal.Zero, fmt.Errorf("%w: unexpected result type %T", ErrFormula, v)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return decimal.Zero, fmt.Errorf("%w: result is not finite", ErrFormula)
	}
	if value < 0 {
		return decimal.Zero, fmt.Errorf("%w: result %v is negative", ErrFormula, value)
	}
	return decimal.NewFromFloat(value), nil
}
