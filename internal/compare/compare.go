// Package compare decides pass/fail for a produced result against an
// expected one. Numeric sequences get an absolute tolerance so problems
// with floating-point answers do not fail on representation noise;
// everything else compares by canonical form.
package compare

import (
	"math"

	"github.com/tukey-oj/evaluator/internal/value"
)

// DefaultTolerance is the absolute per-element tolerance for numeric
// sequence comparison.
const DefaultTolerance = 1e-6

type Comparator struct {
	tolerance float64
}

func New() *Comparator {
	return &Comparator{tolerance: DefaultTolerance}
}

func NewWithTolerance(tol float64) *Comparator {
	return &Comparator{tolerance: tol}
}

// Passes reports whether actual matches expected. Both sides are wrapped
// the same way the runner wraps results, so a scalar expected output
// lines up with the runner's one-element sequence.
func (c *Comparator) Passes(actual, expected value.Value) bool {
	a := value.Wrap(actual)
	e := value.Wrap(expected)

	aNums, aOk := value.NumericItems(a)
	eNums, eOk := value.NumericItems(e)
	if aOk && eOk {
		if len(aNums) != len(eNums) {
			return false
		}
		for i := range aNums {
			if math.Abs(aNums[i]-eNums[i]) > c.tolerance {
				return false
			}
		}
		return true
	}

	return a.Canonical() == e.Canonical()
}
