// internal/puzzle/solve.go
package puzzle

import (
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strconv"

	"github.com/jason-s-yu/fourcard/internal/deck"
)

// Target is the number a hand's four values must be combined into.
const Target = 24

// ErrInvalidHand is returned for value lists that could not come from a dealt hand.
var ErrInvalidHand = errors.New("invalid hand")

var target = big.NewRat(Target, 1)

// Values returns the point value of each card, in order.
func Values(cards []deck.Card) []int {
	out := make([]int, len(cards))
	for i, c := range cards {
		out[i] = c.Value()
	}
	return out
}

// Validate checks that values holds exactly four card values in 1..13.
func Validate(values []int) error {
	if len(values) != deck.HandSize {
		return fmt.Errorf("%w: want %d values, got %d", ErrInvalidHand, deck.HandSize, len(values))
	}
	for _, v := range values {
		if v < 1 || v > len(deck.Ranks) {
			return fmt.Errorf("%w: value %d out of range", ErrInvalidHand, v)
		}
	}
	return nil
}

// term is a partial expression and its exact value.
type term struct {
	val  *big.Rat
	expr string
	atom bool
}

func (t term) wrapped() string {
	if t.atom {
		return t.expr
	}
	return "(" + t.expr + ")"
}

// Solve returns every distinct expression that uses each of values once with
// + - * / and evaluates to Target. Arithmetic is exact. The result is sorted
// and empty when the hand has no solution.
func Solve(values []int) []string {
	terms := make([]term, len(values))
	for i, v := range values {
		terms[i] = term{val: big.NewRat(int64(v), 1), expr: strconv.Itoa(v), atom: true}
	}

	found := map[string]struct{}{}
	search(terms, found)

	out := make([]string, 0, len(found))
	for expr := range found {
		out = append(out, expr)
	}
	sort.Strings(out)
	return out
}

// Help returns the first solution, or all of them when all is set.
func Help(values []int, all bool) []string {
	sols := Solve(values)
	if !all && len(sols) > 1 {
		return sols[:1]
	}
	return sols
}

func search(terms []term, found map[string]struct{}) {
	if len(terms) == 1 {
		if terms[0].val.Cmp(target) == 0 {
			found[terms[0].expr] = struct{}{}
		}
		return
	}
	for i := 0; i < len(terms); i++ {
		for j := i + 1; j < len(terms); j++ {
			rest := make([]term, 0, len(terms)-1)
			for k := range terms {
				if k != i && k != j {
					rest = append(rest, terms[k])
				}
			}
			for _, c := range combine(terms[i], terms[j]) {
				search(append(rest, c), found)
			}
		}
	}
}

func combine(a, b term) []term {
	out := []term{
		binary(a, b, "+", new(big.Rat).Add(a.val, b.val)),
		binary(a, b, "*", new(big.Rat).Mul(a.val, b.val)),
		binary(a, b, "-", new(big.Rat).Sub(a.val, b.val)),
		binary(b, a, "-", new(big.Rat).Sub(b.val, a.val)),
	}
	if b.val.Sign() != 0 {
		out = append(out, binary(a, b, "/", new(big.Rat).Quo(a.val, b.val)))
	}
	if a.val.Sign() != 0 {
		out = append(out, binary(b, a, "/", new(big.Rat).Quo(b.val, a.val)))
	}
	return out
}

// binary joins two terms; operands of + and * are ordered so that a+b and b+a
// print the same.
func binary(l, r term, op string, v *big.Rat) term {
	if (op == "+" || op == "*") && l.wrapped() > r.wrapped() {
		l, r = r, l
	}
	return term{val: v, expr: l.wrapped() + op + r.wrapped()}
}
