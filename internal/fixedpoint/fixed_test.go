package fixedpoint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromIntRoundTrip(t *testing.T) {
	for _, n := range []int{0, 1, -1, 31, -31, 1000, -1000} {
		assert.Equal(t, n, FromInt(n).ToIntTrunc())
		assert.Equal(t, n, FromInt(n).ToIntRound())
	}
}

func TestToIntTruncTowardZero(t *testing.T) {
	x := FromInt(59).Div(FromInt(60)).MulInt(100) // 59/60 * 100 ~= 98.33
	assert.Equal(t, 98, x.ToIntTrunc())

	neg := FromInt(-59).Div(FromInt(60)).MulInt(100)
	assert.Equal(t, -98, neg.ToIntTrunc())
}

func TestToIntRoundNearest(t *testing.T) {
	// 0.5 in fixed point rounds away from zero.
	half := Fixed(F / 2)
	assert.Equal(t, 1, half.ToIntRound())
	assert.Equal(t, -1, (-half).ToIntRound())
}

func TestArithmetic(t *testing.T) {
	a := FromInt(10)
	b := FromInt(4)
	assert.Equal(t, FromInt(14), a.Add(b))
	assert.Equal(t, FromInt(6), a.Sub(b))
	assert.Equal(t, FromInt(40), a.Mul(b))
	assert.Equal(t, FromInt(2).Add(Fixed(F/2)), a.Div(b)) // 10/4 == 2.5, exactly representable

	// Exact division that isn't an integer keeps fractional precision.
	c := FromInt(1).Div(FromInt(4))
	assert.Equal(t, int64(F/4), int64(c))
}

func TestScale100Round(t *testing.T) {
	assert.Equal(t, 0, FromInt(0).Scale100Round())
	assert.Equal(t, 100, FromInt(1).Scale100Round())
	assert.Equal(t, -100, FromInt(-1).Scale100Round())
}

func TestMLFQSLoadAvgDecayFormula(t *testing.T) {
	// load_avg := (59/60)*load_avg + (1/60)*ready_count, starting at 0 with
	// one ready thread, should converge toward 1 but never reach it in a
	// handful of iterations.
	fiftyNine := FromInt(59).Div(FromInt(60))
	oneSixtieth := FromInt(1).Div(FromInt(60))
	load := Fixed(0)
	for i := 0; i < 5; i++ {
		load = fiftyNine.Mul(load).Add(oneSixtieth.MulInt(1))
	}
	assert.Greater(t, load.Scale100Round(), 0)
	assert.Less(t, load.Scale100Round(), 100)
}
