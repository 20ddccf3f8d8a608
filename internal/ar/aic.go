// SPDX-License-Identifier: MIT
package ar

import "math"

// AIC returns n*ln(variance) + 2*(order+1). A non-positive variance has no
// usable model and scores +Inf, so it never wins a minimisation.
func AIC(n, order int, variance float64) float64 {
	if variance <= 0 {
		return math.Inf(1)
	}
	return float64(n)*math.Log(variance) + 2*float64(order+1)
}

// OrderScore is the criterion value of one candidate order.
type OrderScore struct {
	Order    int
	Variance float64
	AIC      float64
}

// Selection is the outcome of an order sweep.
type Selection struct {
	Scores []OrderScore // one entry per reached order, ascending
	Best   int          // order with the smallest AIC, 0 if none was reached
}

// SelectOrder sweeps orders 1..maxOrder and picks the one minimising AIC.
//
// Burg's recursion is order-recursive, so a single run to maxOrder yields the
// variance of every lower order. Orders beyond the point where the recursion
// stopped are not scored. Re-run Estimate with Selection.Best to get the
// coefficients of the winner.
func SelectOrder(signal []float64, maxOrder int) (Selection, error) {
	m, err := Estimate(signal, maxOrder)
	if err != nil {
		return Selection{}, err
	}

	sel := Selection{Scores: make([]OrderScore, 0, m.Order)}
	best := math.Inf(1)
	for i, v := range m.StepVariances {
		s := OrderScore{Order: i + 1, Variance: v, AIC: AIC(len(signal), i+1, v)}
		sel.Scores = append(sel.Scores, s)
		if s.AIC < best {
			best = s.AIC
			sel.Best = s.Order
		}
	}
	return sel, nil
}
