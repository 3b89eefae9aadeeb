package synth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/RyanBlaney/pulso/algorithms/common"
)

func TestPPGSim_Deterministic(t *testing.T) {
	p := DefaultParams()
	p.Noise = 0.3

	a := NewPPGSim(p).Generate(200)
	b := NewPPGSim(p).Generate(200)
	assert.Equal(t, a, b)
}

func TestPPGSim_OneHumpPerBeat(t *testing.T) {
	p := DefaultParams()
	p.RespirationHz = 0
	x := NewPPGSim(p).Generate(300) // 10 s at 72 BPM

	maxima := 0
	for i := 1; i < len(x)-1; i++ {
		if x[i] > x[i-1] && x[i] > x[i+1] {
			maxima++
		}
	}
	assert.Equal(t, 12, maxima)
}

func TestPPGSim_Range(t *testing.T) {
	x := NewPPGSim(DefaultParams()).Generate(600)
	assert.Greater(t, common.Range(x), 0.5)
	for _, v := range x {
		assert.GreaterOrEqual(t, v, 0.0)
	}
}

func TestFlatAndSine(t *testing.T) {
	assert.Zero(t, common.Range(Flat(10, 3)))

	s := Sine(300, 30, 72, 100, 10)
	assert.Len(t, s, 300)
	assert.InDelta(t, 100, common.Mean(s), 0.5)
}
