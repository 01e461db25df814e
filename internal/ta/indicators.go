package ta

import "math"

// nanSlice allocates a series pre-filled with NaN so warmup samples stay
// unmistakably invalid.
func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// MeanStd returns the mean and population standard deviation of values.
func MeanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var variance float64
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	return mean, math.Sqrt(variance / float64(len(values)))
}

// SMA returns the simple moving average of the trailing period, or NaN when
// there is not enough data.
func SMA(values []float64, period int) float64 {
	if period <= 0 || len(values) < period {
		return math.NaN()
	}
	var sum float64
	for _, v := range values[len(values)-period:] {
		sum += v
	}
	return sum / float64(period)
}

// EMASeries returns the exponential moving average series, seeded from the
// first value.
func EMASeries(values []float64, period int) []float64 {
	if len(values) == 0 {
		return nil
	}
	out := make([]float64, len(values))
	if period <= 1 {
		copy(out, values)
		return out
	}
	alpha := 2.0 / float64(period+1)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

// RSISeries returns Wilder's relative strength index over closes. The first
// period samples are NaN.
func RSISeries(closes []float64, period int) []float64 {
	if len(closes) <= period {
		return nil
	}
	series := nanSlice(len(closes))

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		delta := closes[i] - closes[i-1]
		avgGain += math.Max(delta, 0)
		avgLoss += math.Max(-delta, 0)
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	series[period] = rsiFromAvg(avgGain, avgLoss)

	for i := period + 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		avgGain = (avgGain*float64(period-1) + math.Max(delta, 0)) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + math.Max(-delta, 0)) / float64(period)
		series[i] = rsiFromAvg(avgGain, avgLoss)
	}
	return series
}

func rsiFromAvg(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	return 100 - 100/(1+avgGain/avgLoss)
}

// MACDSeries returns the MACD line (fast EMA minus slow EMA) and its signal
// line.
func MACDSeries(values []float64, fast, slow, signal int) ([]float64, []float64) {
	if len(values) == 0 {
		return nil, nil
	}
	fastEMA := EMASeries(values, fast)
	slowEMA := EMASeries(values, slow)
	macdLine := make([]float64, len(values))
	for i := range values {
		macdLine[i] = fastEMA[i] - slowEMA[i]
	}
	return macdLine, EMASeries(macdLine, signal)
}

// StochasticKD returns the %K/%D oscillator pair computed over closing
// prices (close-only series, no per-sample high/low).
func StochasticKD(closes []float64, kPeriod, dPeriod int) (float64, float64) {
	if kPeriod <= 0 || dPeriod <= 0 || len(closes) < kPeriod+dPeriod-1 {
		return math.NaN(), math.NaN()
	}

	kAt := func(end int) float64 {
		window := closes[end-kPeriod+1 : end+1]
		lo, hi := window[0], window[0]
		for _, v := range window {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		if hi == lo {
			return 50
		}
		return (closes[end] - lo) / (hi - lo) * 100
	}

	var dSum float64
	for i := 0; i < dPeriod; i++ {
		dSum += kAt(len(closes) - 1 - i)
	}
	return kAt(len(closes) - 1), dSum / float64(dPeriod)
}

// ADX approximates the average directional index from close-to-close moves.
// With no per-sample high/low the true range collapses to |delta|, which
// understates range-day volatility slightly.
func ADX(closes []float64, period int) float64 {
	if period <= 0 || len(closes) < 2*period+1 {
		return math.NaN()
	}

	dx := make([]float64, 0, len(closes)-1)
	var plusSum, minusSum, trSum float64
	for i := 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		plus := math.Max(delta, 0)
		minus := math.Max(-delta, 0)
		tr := math.Abs(delta)

		if i <= period {
			plusSum += plus
			minusSum += minus
			trSum += tr
			if i < period {
				continue
			}
		} else {
			plusSum = plusSum - plusSum/float64(period) + plus
			minusSum = minusSum - minusSum/float64(period) + minus
			trSum = trSum - trSum/float64(period) + tr
		}

		if trSum == 0 {
			dx = append(dx, 0)
			continue
		}
		plusDI := plusSum / trSum * 100
		minusDI := minusSum / trSum * 100
		if plusDI+minusDI == 0 {
			dx = append(dx, 0)
			continue
		}
		dx = append(dx, math.Abs(plusDI-minusDI)/(plusDI+minusDI)*100)
	}

	if len(dx) < period {
		return math.NaN()
	}
	adx := 0.0
	for _, v := range dx[:period] {
		adx += v
	}
	adx /= float64(period)
	for _, v := range dx[period:] {
		adx = (adx*float64(period-1) + v) / float64(period)
	}
	return adx
}

// BollingerSeries returns the middle/upper/lower bands over a rolling window.
// Samples before one full window are NaN.
func BollingerSeries(values []float64, period int, stdDevs float64) ([]float64, []float64, []float64) {
	if len(values) == 0 {
		return nil, nil, nil
	}
	middle := nanSlice(len(values))
	upper := nanSlice(len(values))
	lower := nanSlice(len(values))
	if period <= 0 {
		return middle, upper, lower
	}
	for i := period - 1; i < len(values); i++ {
		mean, std := MeanStd(values[i-period+1 : i+1])
		middle[i] = mean
		upper[i] = mean + stdDevs*std
		lower[i] = mean - stdDevs*std
	}
	return middle, upper, lower
}
