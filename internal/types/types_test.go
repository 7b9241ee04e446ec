package types

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound2(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{6.675, 6.68},
		{6.674, 6.67},
		{7, 7},
		{0.005, 0.01},
		{2.5 * 0.72, 1.8},
		{-1.005, -1.01},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Round2(tc.in), "Round2(%v)", tc.in)
	}
}

func TestCentBounds(t *testing.T) {
	assert.Equal(t, 7.01, CeilCents(7.004))
	assert.Equal(t, 7.0, CeilCents(7))
	assert.Equal(t, 0.3, CeilCents(0.1+0.2))
	assert.Equal(t, 24.99, FloorCents(24.999))
	assert.Equal(t, 25.0, FloorCents(25))
	assert.Equal(t, 0.3, FloorCents(0.1+0.2))
}

func TestPointValidate(t *testing.T) {
	valid := []Point{{0, 0}, {-90, -180}, {90, 180}, {-7.119, -34.908}}
	for _, p := range valid {
		assert.NoError(t, p.Validate(), "point %v", p)
	}

	invalid := []Point{
		{90.0001, 0},
		{-90.5, 0},
		{0, 180.01},
		{0, -181},
		{math.NaN(), 0},
		{0, math.Inf(1)},
	}
	for _, p := range invalid {
		err := p.Validate()
		if !errors.Is(err, ErrInvalidCoordinate) {
			t.Errorf("Validate(%v) = %v, want ErrInvalidCoordinate", p, err)
		}
	}
}

func TestPointString(t *testing.T) {
	assert.Equal(t, "-7.119000,-34.908000", Point{Lat: -7.119, Lng: -34.908}.String())
}
