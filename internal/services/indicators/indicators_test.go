package indicators

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constant(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestEMAConstantSeries(t *testing.T) {
	series := constant(42.5, 50)
	for _, period := range []int{1, 8, 34, 50} {
		got, ok := EMA(series, period)
		require.True(t, ok, "period %d", period)
		assert.InDelta(t, 42.5, got, 1e-9, "period %d", period)
	}
}

func TestEMAUndefinedWhenShort(t *testing.T) {
	for period := 1; period <= 40; period++ {
		_, ok := EMA(constant(1, period-1), period)
		assert.False(t, ok, "period %d", period)
	}
	_, ok := EMA([]float64{1, 2, 3}, 0)
	assert.False(t, ok)
}

func TestEMAKnownValues(t *testing.T) {
	// k = 2/(3+1) = 0.5: 1 -> 1.5 -> 2.25 -> 3.125
	got, ok := EMA([]float64{1, 2, 3, 4}, 3)
	require.True(t, ok)
	assert.InDelta(t, 3.125, got, 1e-12)
}

func TestZScoreShortSeriesIsZero(t *testing.T) {
	series := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 100}
	require.Len(t, series, 19)
	assert.Equal(t, 0.0, ZScore(series))
	assert.Equal(t, 0.0, ZScore(nil))
}

func TestZScoreFlatSeriesIsZero(t *testing.T) {
	assert.Equal(t, 0.0, ZScore(constant(0.1, 100)))
	assert.Equal(t, 0.0, ZScore(constant(100, 20)))
}

func TestZScoreUsesSampleStdev(t *testing.T) {
	series := make([]float64, 20)
	for i := range series {
		series[i] = float64(i + 1)
	}
	// mean 10.5, sample variance 35
	want := (20 - 10.5) / math.Sqrt(35)
	assert.InDelta(t, want, ZScore(series), 1e-12)
}

func TestComputeFlatWindowHasNoDivergence(t *testing.T) {
	ind := Compute(constant(100, 100), 8, 34)
	require.True(t, ind.HasShort)
	require.True(t, ind.HasLong)
	assert.InDelta(t, 100.0, ind.ShortEMA, 1e-9)
	assert.InDelta(t, 100.0, ind.LongEMA, 1e-9)
	assert.Equal(t, 0.0, ind.Z)
}

func TestComputeSpikeDivergesUp(t *testing.T) {
	series := append(constant(100, 99), 130)
	ind := Compute(series, 8, 34)
	assert.Greater(t, ind.ShortEMA, ind.LongEMA)
	assert.Greater(t, ind.Z, 3.0)
}

func TestPriceWindowEvictsOldestFirst(t *testing.T) {
	w := NewPriceWindow(100)
	for i := 0; i < 250; i++ {
		w.Push(float64(i))
		assert.LessOrEqual(t, w.Len(), 100)
	}
	got := w.Values()
	require.Len(t, got, 100)
	assert.Equal(t, 150.0, got[0])
	assert.Equal(t, 249.0, got[99])
}

func TestPriceWindowReplace(t *testing.T) {
	w := NewPriceWindow(3)
	w.Push(9)
	w.Replace([]float64{1, 2, 3, 4, 5})
	assert.Equal(t, []float64{3, 4, 5}, w.Values())

	w.Replace([]float64{7})
	assert.Equal(t, []float64{7}, w.Values())
}

func TestPriceWindowValuesIsCopy(t *testing.T) {
	w := NewPriceWindow(0)
	assert.Equal(t, DefaultWindowCapacity, w.Capacity())
	w.Push(1)
	v := w.Values()
	v[0] = 99
	assert.Equal(t, []float64{1}, w.Values())
}
