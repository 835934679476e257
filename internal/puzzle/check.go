// internal/puzzle/check.go
package puzzle

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"math/big"
	"sort"
	"strconv"
	"strings"
)

// Kinds of accepted (or nearly accepted) answers.
const (
	KindFormula       = "formula"
	KindNoSolution    = "no-solution"
	KindHelpAvailable = "help-available"
)

// Result is the verdict on one answer.
type Result struct {
	OK     bool     `json:"ok"`
	Value  *float64 `json:"value,omitempty"`
	Reason string   `json:"reason,omitempty"`
	Kind   string   `json:"kind,omitempty"`
}

var errDivisionByZero = errors.New("division by zero")

// answers that claim the hand cannot reach Target
var noSolutionClaims = map[string]bool{
	"no sol":      true,
	"nosol":       true,
	"no solution": true,
	"0":           true,
	"-1":          true,
}

// face ranks may be typed by name, case-insensitively
var rankNames = map[string]int{"A": 1, "J": 11, "Q": 12, "K": 13}

// Check judges answer for the hand values. The answer must use every value
// exactly once with + - * / and parentheses, and evaluate to Target. A claim
// that there is no solution is accepted only when Solve finds none.
func Check(values []int, answer string) Result {
	ans := strings.TrimSpace(answer)

	if noSolutionClaims[strings.ToLower(ans)] {
		if len(Solve(values)) == 0 {
			return Result{OK: true, Kind: KindNoSolution}
		}
		return Result{
			Reason: "Try 'help' to see a solution example, 'help all' to see all solutions.",
			Kind:   KindHelpAvailable,
		}
	}

	expr, err := parser.ParseExpr(ans)
	if err != nil {
		return Result{Reason: fmt.Sprintf("Invalid expression: %v", err)}
	}

	used, err := constants(expr)
	if err != nil {
		return Result{Reason: fmt.Sprintf("Invalid expression: %v", err)}
	}
	need := append([]int(nil), values...)
	sort.Ints(need)
	sort.Ints(used)
	if !equalInts(need, used) {
		return Result{Reason: fmt.Sprintf("You must use exactly these numbers %v. Found %v.", need, used)}
	}

	v, err := eval(expr)
	if errors.Is(err, errDivisionByZero) {
		return Result{Reason: "Division by zero."}
	}
	if err != nil {
		return Result{Reason: fmt.Sprintf("Invalid expression: %v", err)}
	}

	f, _ := v.Float64()
	if v.Cmp(target) == 0 {
		return Result{OK: true, Value: &f, Kind: KindFormula}
	}
	return Result{Value: &f, Reason: fmt.Sprintf("Not %d (got %s).", Target, v.RatString())}
}

// constants lists every number in the expression, with rank names resolved.
func constants(e ast.Expr) ([]int, error) {
	var out []int
	var err error
	ast.Inspect(e, func(n ast.Node) bool {
		if err != nil {
			return false
		}
		switch n := n.(type) {
		case *ast.BasicLit:
			v, convErr := strconv.Atoi(n.Value)
			if n.Kind != token.INT || convErr != nil {
				err = fmt.Errorf("only integer constants are allowed (card values 1-13), got %s", n.Value)
				return false
			}
			out = append(out, v)
		case *ast.Ident:
			v, ok := rankNames[strings.ToUpper(n.Name)]
			if !ok {
				err = fmt.Errorf("unknown name %q", n.Name)
				return false
			}
			out = append(out, v)
		}
		return true
	})
	return out, err
}

func eval(e ast.Expr) (*big.Rat, error) {
	switch n := e.(type) {
	case *ast.BasicLit:
		v, err := strconv.Atoi(n.Value)
		if err != nil {
			return nil, err
		}
		return big.NewRat(int64(v), 1), nil

	case *ast.Ident:
		return big.NewRat(int64(rankNames[strings.ToUpper(n.Name)]), 1), nil

	case *ast.ParenExpr:
		return eval(n.X)

	case *ast.UnaryExpr:
		x, err := eval(n.X)
		if err != nil {
			return nil, err
		}
		switch n.Op {
		case token.ADD:
			return x, nil
		case token.SUB:
			return x.Neg(x), nil
		}
		return nil, fmt.Errorf("unsupported operator %s", n.Op)

	case *ast.BinaryExpr:
		l, err := eval(n.X)
		if err != nil {
			return nil, err
		}
		r, err := eval(n.Y)
		if err != nil {
			return nil, err
		}
		switch n.Op {
		case token.ADD:
			return l.Add(l, r), nil
		case token.SUB:
			return l.Sub(l, r), nil
		case token.MUL:
			return l.Mul(l, r), nil
		case token.QUO:
			if r.Sign() == 0 {
				return nil, errDivisionByZero
			}
			return l.Quo(l, r), nil
		}
		return nil, fmt.Errorf("unsupported operator %s", n.Op)
	}
	return nil, fmt.Errorf("unsupported expression %T", e)
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
