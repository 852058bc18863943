package geometry

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
)

func TestPoint_Distance(t *testing.T) {
	assert.Equal(t, 5.0, Pt(1, 1).Distance(Pt(4, 5)))
	assert.Equal(t, 0.0, Pt(2, 3).Distance(Pt(2, 3)))
}

func TestPoint_Validate(t *testing.T) {
	assert.NoError(t, Pt(1, -1).Validate())
	assert.ErrorIs(t, Pt(math.NaN(), 1).Validate(), ErrNonFinite)
	assert.ErrorIs(t, Pt(1, math.Inf(-1)).Validate(), ErrNonFinite)
}

func TestPoint_Orb(t *testing.T) {
	p := Pt(3.5, -2)
	assert.Equal(t, orb.Point{3.5, -2}, p.Orb())
	assert.Equal(t, p, FromOrb(p.Orb()))
}

func TestSnap(t *testing.T) {
	a := Pt(0.1+0.2, 1.0000000001)
	b := Pt(0.3, 1)

	assert.NotEqual(t, a, b)
	assert.Equal(t, Snap(b, 1e-6), Snap(a, 1e-6))
	assert.Equal(t, a, Snap(a, 0))
}

func TestCompare(t *testing.T) {
	assert.Equal(t, -1, Compare(Pt(0, 5), Pt(1, 0)))
	assert.Equal(t, 1, Compare(Pt(1, 1), Pt(1, 0)))
	assert.Equal(t, 0, Compare(Pt(1, 1), Pt(1, 1)))
}
