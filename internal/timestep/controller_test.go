package timestep

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Guo-astro/hvcc-gsph-sub001/internal/core"
	"github.com/Guo-astro/hvcc-gsph-sub001/internal/particle"
)

func newParticles(n int) []particle.Particle[float64] {
	ps := make([]particle.Particle[float64], n)
	for i := range ps {
		ps[i] = particle.New[float64](i)
		ps[i].Mass = 1
		ps[i].Dens = 1
		ps[i].Ene = 1
		ps[i].Sml = 0.1
	}
	return ps
}

func TestNewController_RejectsOutOfRangeCoefficients(t *testing.T) {
	for _, coeffs := range [][3]float64{
		{0, 0.125, 0.3},
		{0.3, -1, 0.3},
		{0.3, 0.125, 1.5},
	} {
		_, err := NewController(coeffs[0], coeffs[1], coeffs[2])
		require.Error(t, err)
		assert.ErrorIs(t, err, core.ErrInvalidCoefficient)
	}
}

func TestCompute_Monotonicity(t *testing.T) {
	ctrl, err := NewController(0.3, 0.125, 0.3)
	require.NoError(t, err)

	ps := newParticles(100)
	for i := range ps {
		ps[i].Acc = core.Vec[float64]{float64(i) * 0.1, 0, 0}
		ps[i].EneDot = 0.5
	}

	dt, rec := ctrl.Compute(ps, 0.05)
	assert.LessOrEqual(t, dt, rec.DtSound)
	assert.LessOrEqual(t, dt, rec.DtForce)
	assert.Equal(t, dt, rec.Dt)
}

func TestCompute_StallBreakerScenario(t *testing.T) {
	// dt_sound = 2e-6, dt_force = 3e-6: raw dt is 2e-6, below the 1e-5
	// threshold, so the breaker boosts it by 5x to 1e-5.
	ctrl, err := NewController(1.0, 1.0, 1.0)
	require.NoError(t, err)

	ps := newParticles(1)
	ps[0].Acc = core.Vec[float64]{1, 0, 0}
	ps[0].Sml = 9e-12 // sqrt(sml/|acc|) = 3e-6

	dt, rec := ctrl.Compute(ps, 2e-6)

	assert.InEpsilon(t, 2e-6, rec.RawDt, 1e-12)
	assert.InEpsilon(t, 3e-6, rec.DtForce, 1e-12)
	assert.True(t, rec.Stalled)
	assert.InEpsilon(t, 1e-5, dt, 1e-12)
	assert.InEpsilon(t, 1e-5, rec.Dt, 1e-12)
	assert.Equal(t, "sound", rec.Limiter)
}

func TestCompute_AllAccelerationsZero(t *testing.T) {
	ctrl, err := NewController(0.3, 0.125, 0.3)
	require.NoError(t, err)

	ps := newParticles(50)
	// Acc stays zero: force criterion is unbounded.
	dt, rec := ctrl.Compute(ps, 1.0)

	assert.True(t, math.IsInf(rec.DtForce, 1))
	assert.Equal(t, rec.DtSound, dt)
	assert.Equal(t, "sound", rec.Limiter)
}

func TestCompute_EnergyCriterionIsDiagnosticOnly(t *testing.T) {
	ctrl, err := NewController(1.0, 1.0, 1.0)
	require.NoError(t, err)

	ps := newParticles(1)
	ps[0].Ene = 1e-3
	ps[0].EneDot = 1e3 // dt_energy = 1e-6, far below the others

	dt, rec := ctrl.Compute(ps, 0.5)

	assert.InEpsilon(t, 1e-6, rec.DtEnergy, 1e-12)
	assert.Greater(t, dt, rec.DtEnergy, "energy candidate must never bound dt")
	assert.Equal(t, rec.DtSound, dt)
}

func TestCompute_EnergyGuards(t *testing.T) {
	ctrl, err := NewController(0.3, 0.125, 0.3)
	require.NoError(t, err)

	ps := newParticles(2)
	ps[0].Ene = 1e-12 // below the 1e-10 floor: skipped
	ps[0].EneDot = 1e6
	ps[1].EneDot = 0 // zero derivative: skipped

	_, rec := ctrl.Compute(ps, 1.0)
	assert.True(t, math.IsInf(rec.DtEnergy, 1))
}

func TestCompute_DoesNotMutateParticles(t *testing.T) {
	ctrl, err := NewController(0.3, 0.125, 0.3)
	require.NoError(t, err)

	ps := newParticles(10)
	for i := range ps {
		ps[i].Acc = core.Vec[float64]{1, 2, 3}
		ps[i].EneDot = 0.1
	}
	before := make([]particle.Particle[float64], len(ps))
	copy(before, ps)

	ctrl.Compute(ps, 0.5)
	assert.Equal(t, before, ps)
}

func TestCompute_ReductionMatchesSerialMin(t *testing.T) {
	ctrl, err := NewController(0.3, 0.125, 0.3)
	require.NoError(t, err)

	ps := newParticles(10000)
	for i := range ps {
		ps[i].Acc = core.Vec[float64]{1 + float64(i%97)*0.013, 0, 0}
		ps[i].Sml = 0.05 + float64(i%31)*0.002
	}

	serial := math.Inf(1)
	for i := range ps {
		c := 0.125 * math.Sqrt(ps[i].Sml/ps[i].Acc.Norm())
		if c < serial {
			serial = c
		}
	}

	_, rec := ctrl.Compute(ps, 1.0)
	assert.Equal(t, serial, rec.DtForce, "parallel min must be bit-identical to serial min")
}
