package pair

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// MacKinnon (2010) response surface for the Engle-Granger test with a constant and two
// variables, the same approximation statsmodels uses for coint.
const (
	mackinnonMaxStat  = 0.92
	mackinnonMinStat  = -18.86
	mackinnonStarStat = -2.62
)

var (
	mackinnonSmallP = []float64{2.92, 1.5012, 0.039796}
	mackinnonLargeP = []float64{2.1945, 6.4695 * 1e-1, -2.9198 * 1e-1, -4.2377 * 1e-2}
)

// MacKinnonPValue converts an Engle-Granger ADF statistic to an approximate p-value.
func MacKinnonPValue(tstat float64) float64 {
	switch {
	case math.IsNaN(tstat):
		return 1
	case tstat > mackinnonMaxStat:
		return 1
	case tstat < mackinnonMinStat:
		return 0
	}

	coef := mackinnonLargeP
	if tstat <= mackinnonStarStat {
		coef = mackinnonSmallP
	}

	z := 0.0
	for i := len(coef) - 1; i >= 0; i-- {
		z = z*tstat + coef[i]
	}

	return distuv.UnitNormal.CDF(z)
}

// HedgeRatio regresses a on b with an intercept and returns the intercept and slope.
func HedgeRatio(a, b []float64) (alpha, beta float64) {
	return stat.LinearRegression(b, a, nil, false)
}

// Residuals returns a - alpha - beta*b.
func Residuals(a, b []float64, alpha, beta float64) []float64 {
	residuals := make([]float64, len(a))
	for i := range a {
		residuals[i] = a[i] - alpha - beta*b[i]
	}

	return residuals
}

// MaxLag is the Schwert rule used to bound the ADF lag search.
func MaxLag(n int) int {
	return int(math.Ceil(12 * math.Pow(float64(n)/100, 0.25)))
}

// ADFStatistic runs an augmented Dickey-Fuller regression without constant on series
// (regression of the first difference on the lagged level and lagged differences).
// The lag order is chosen by AIC up to maxLag on a common sample, then the statistic
// is the t-value of the lagged level at that order.
func ADFStatistic(series []float64, maxLag int) (tstat float64, lags int) {
	n := len(series)
	if n < 4 {
		return math.NaN(), 0
	}

	maxLag = max(0, min(maxLag, n/2-2))

	diff := make([]float64, n-1)
	for i := 1; i < n; i++ {
		diff[i-1] = series[i] - series[i-1]
	}

	bestAIC := math.Inf(1)

	for p := 0; p <= maxLag; p++ {
		_, _, ssr, obs, ok := adfRegression(series, diff, p, maxLag)
		if !ok || ssr <= 0 {
			continue
		}

		k := float64(p + 1)
		aic := float64(obs)*math.Log(ssr/float64(obs)) + 2*k

		if aic < bestAIC {
			bestAIC = aic
			lags = p
		}
	}

	gamma, se, _, _, ok := adfRegression(series, diff, lags, lags)
	if !ok || se == 0 {
		return math.NaN(), lags
	}

	return gamma / se, lags
}

// adfRegression fits diff[t] = gamma*level[t] + sum phi_j*diff[t-j] for t starting
// at skip so that regressions of different orders share a sample.
func adfRegression(level, diff []float64, lags, skip int) (gamma, se, ssr float64, obs int, ok bool) {
	obs = len(diff) - skip
	k := lags + 1

	if obs <= k {
		return 0, 0, 0, obs, false
	}

	x := mat.NewDense(obs, k, nil)
	y := mat.NewVecDense(obs, nil)

	for row := 0; row < obs; row++ {
		t := row + skip
		y.SetVec(row, diff[t])
		x.Set(row, 0, level[t])

		for j := 1; j <= lags; j++ {
			x.Set(row, j, diff[t-j])
		}
	}

	var qr mat.QR
	qr.Factorize(x)

	var beta mat.VecDense
	if err := qr.SolveVecTo(&beta, false, y); err != nil {
		return 0, 0, 0, obs, false
	}

	var fitted mat.VecDense
	fitted.MulVec(x, &beta)

	var resid mat.VecDense
	resid.SubVec(y, &fitted)

	ssr = mat.Dot(&resid, &resid)

	var xtx mat.Dense
	xtx.Mul(x.T(), x)

	var inv mat.Dense
	if err := inv.Inverse(&xtx); err != nil {
		return 0, 0, 0, obs, false
	}

	sigma2 := ssr / float64(obs-k)

	return beta.AtVec(0), math.Sqrt(sigma2 * inv.At(0, 0)), ssr, obs, true
}

// HalfLife fits the AR(1) change of the spread on its lagged level and returns
// -ln2/slope truncated to whole bars, or zero when the spread does not revert.
func HalfLife(spread []float64) float64 {
	if len(spread) < 3 {
		return 0
	}

	lagged := spread[:len(spread)-1]
	change := make([]float64, len(spread)-1)

	for i := 1; i < len(spread); i++ {
		change[i-1] = spread[i] - spread[i-1]
	}

	_, slope := stat.LinearRegression(lagged, change, nil, false)
	if slope >= 0 || math.IsNaN(slope) {
		return 0
	}

	halfLife := math.Floor(-math.Ln2 / slope)
	if halfLife <= 0 {
		return 0
	}

	return halfLife
}
