// SPDX-License-Identifier: MIT
package analysis

import (
	"errors"
	"fmt"

	"arpsd/internal/ar"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ResidualAlpha is the significance level of the normality test.
const ResidualAlpha = 0.05

// minResidual is the shortest residual the test is run on.
const minResidual = 8

var (
	ErrResidualTooShort   = errors.New("residual too short for a normality test")
	ErrDegenerateResidual = errors.New("residual has zero variance")
)

// ResidualTest summarises the prediction-error residual of a fit. A well
// specified AR model leaves Gaussian white noise behind.
type ResidualTest struct {
	Samples        int     `json:"samples"`
	Mean           float64 `json:"mean"`
	Variance       float64 `json:"variance"`
	Skewness       float64 `json:"skewness"`
	ExcessKurtosis float64 `json:"excess_kurtosis"`
	JarqueBera     float64 `json:"jarque_bera"`
	PValue         float64 `json:"p_value"`
	Gaussian       bool    `json:"gaussian"` // PValue >= ResidualAlpha
}

// CheckResidual filters signal with the model's prediction-error filter,
// drops the first Order samples (filter warm-up) and runs a Jarque-Bera test:
//
//	JB = n/6 * (S^2 + K^2/4) ~ chi2(2)
//
// where S is the skewness and K the excess kurtosis.
func CheckResidual(signal []float64, m ar.Model) (*ResidualTest, error) {
	if len(m.Coeffs) == 0 {
		return nil, errors.New("model has no coefficients")
	}
	e := ar.Residual(signal, m.Coeffs)
	if len(e) > m.Order {
		e = e[m.Order:]
	}
	n := len(e)
	if n < minResidual {
		return nil, fmt.Errorf("%w: %d samples", ErrResidualTooShort, n)
	}

	mean, std := stat.MeanStdDev(e, nil)
	if std == 0 {
		return nil, ErrDegenerateResidual
	}
	skew := stat.Skew(e, nil)
	kurt := stat.ExKurtosis(e, nil)

	jb := float64(n) / 6 * (skew*skew + kurt*kurt/4)
	p := distuv.ChiSquared{K: 2}.Survival(jb)

	return &ResidualTest{
		Samples:        n,
		Mean:           mean,
		Variance:       std * std,
		Skewness:       skew,
		ExcessKurtosis: kurt,
		JarqueBera:     jb,
		PValue:         p,
		Gaussian:       p >= ResidualAlpha,
	}, nil
}
