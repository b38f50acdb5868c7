// Package solver orchestrates one simulation run: force evaluation, timestep
// control, predictor-corrector integration and formulation selection, in that
// order, as a single synchronous loop.
package solver

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Guo-astro/hvcc-gsph-sub001/internal/config"
	"github.com/Guo-astro/hvcc-gsph-sub001/internal/core"
	"github.com/Guo-astro/hvcc-gsph-sub001/internal/forces"
	"github.com/Guo-astro/hvcc-gsph-sub001/internal/formulation"
	"github.com/Guo-astro/hvcc-gsph-sub001/internal/integrator"
	"github.com/Guo-astro/hvcc-gsph-sub001/internal/metrics"
	"github.com/Guo-astro/hvcc-gsph-sub001/internal/particle"
	"github.com/Guo-astro/hvcc-gsph-sub001/internal/samples"
	"github.com/Guo-astro/hvcc-gsph-sub001/internal/timestep"
)

// StepRecord is the per-step diagnostic handed to observers and stored in the
// run history.
type StepRecord[T core.Float] struct {
	Step          int
	Time          T
	Dt            timestep.Record[T]
	Energy        T
	Momentum      core.Vec[T]
	ShockFraction float64
}

// Observer receives each step's diagnostics as it completes.
type Observer[T core.Float] interface {
	OnStep(rec StepRecord[T])
}

// Result collects the run history and the final particle state.
type Result[T core.Float] struct {
	Records     []StepRecord[T]
	Particles   []particle.Particle[T]
	Steps       int
	EnergyDrift float64
}

// Solver drives the time-advance pipeline over one particle population.
// Not safe for concurrent use; run one Solver per goroutine.
type Solver[T core.Float] struct {
	cfg       *config.Config
	ps        []particle.Particle[T]
	eval      *forces.Evaluator[T]
	ctrl      *timestep.Controller[T]
	integ     *integrator.Integrator[T]
	sel       *formulation.Selector[T]
	observers []Observer[T]

	hPerVSig T
}

// New builds a solver for the sample named in cfg, wiring the pipeline stages
// from the configuration. The registry is passed in by the caller; the solver
// never consults a global catalog.
func New[T core.Float](cfg *config.Config, reg *samples.Registry[T]) (*Solver[T], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ps, dim, err := reg.Build(cfg.Sample, cfg)
	if err != nil {
		return nil, err
	}

	ctrl, err := timestep.NewController(
		T(cfg.CFL.Sound), T(cfg.CFL.Force), T(cfg.CFL.Energy),
		timestep.WithStallBreaker(T(cfg.Stall.Threshold), T(cfg.Stall.Multiplier)),
	)
	if err != nil {
		return nil, err
	}

	opts := []integrator.Option[T]{}
	if cfg.Planar.Enabled {
		opts = append(opts, integrator.WithConstraint(integrator.Planar[T](cfg.Planar.Axis)))
	}
	integ, err := integrator.New(T(cfg.Physics.Gamma), opts...)
	if err != nil {
		return nil, err
	}

	s := &Solver[T]{
		cfg:   cfg,
		ps:    ps,
		eval:  forces.NewEvaluator(T(cfg.Physics.Gamma), T(cfg.AV.Alpha), dim),
		ctrl:  ctrl,
		integ: integ,
		sel:   formulation.NewSelector(T(cfg.Shock.SensorThreshold), T(cfg.Shock.RevertTolerance)),
	}
	s.initialize()
	return s, nil
}

// AddObserver registers a step observer. Call before Run.
func (s *Solver[T]) AddObserver(o Observer[T]) {
	s.observers = append(s.observers, o)
}

// Particles exposes the population, primarily for tests and storage.
func (s *Solver[T]) Particles() []particle.Particle[T] {
	return s.ps
}

// initialize seeds sound speeds from the sample's thermodynamic state and
// runs the first force evaluation, so the very first timestep computation
// sees populated accelerations.
func (s *Solver[T]) initialize() {
	gamma := s.integ.Gamma()
	soundFactor := gamma * (gamma - 1)
	for i := range s.ps {
		s.ps[i].Sound = core.Sqrt(soundFactor * s.ps[i].Ene)
	}
	s.hPerVSig = s.eval.Evaluate(s.ps)

	logrus.Infof("initialized sample %q: %d particles, gamma=%.4g",
		s.cfg.Sample, len(s.ps), float64(gamma))
}

// Run advances the population until the configured end time or context
// cancellation. Any stage failure aborts the run: a partially advanced
// particle set has no physical meaning, so there is no retry.
func (s *Solver[T]) Run(ctx context.Context) (*Result[T], error) {
	t := T(s.cfg.Time.Start)
	end := T(s.cfg.Time.End)

	result := &Result[T]{Particles: s.ps}
	initialEnergy := metrics.TotalEnergy(s.ps)

	for step := 0; t < end; step++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		dt, rec := s.ctrl.Compute(s.ps, s.hPerVSig)
		if rec.Stalled {
			logrus.Warnf("step %d: stall-breaker fired, dt %.3g -> %.3g",
				step, float64(rec.RawDt), float64(rec.Dt))
		}

		if err := s.integ.Predict(s.ps, dt); err != nil {
			return result, &core.StepError{Step: step, Time: float64(t), Wrapped: err}
		}

		s.hPerVSig = s.eval.Evaluate(s.ps)

		if err := s.integ.Correct(s.ps, dt); err != nil {
			return result, &core.StepError{Step: step, Time: float64(t), Wrapped: err}
		}

		s.eval.DetectShocks(s.ps)
		s.sel.Update(s.ps)

		t += dt
		result.Steps++

		stepRec := StepRecord[T]{
			Step:          step,
			Time:          t,
			Dt:            rec,
			Energy:        metrics.TotalEnergy(s.ps),
			Momentum:      metrics.TotalMomentum(s.ps),
			ShockFraction: metrics.ShockFraction(s.ps),
		}
		result.Records = append(result.Records, stepRec)
		for _, o := range s.observers {
			o.OnStep(stepRec)
		}

		logrus.Debugf("step %d: t=%.6g %s shock=%.1f%%",
			step, float64(t), rec, stepRec.ShockFraction*100)
	}

	result.EnergyDrift = metrics.EnergyDrift(initialEnergy, metrics.TotalEnergy(s.ps))

	logrus.Infof("run finished: %d steps, t=%.6g, energy drift %.3g",
		result.Steps, float64(t), result.EnergyDrift)
	return result, nil
}

// String describes the configured pipeline, mostly for run metadata.
func (s *Solver[T]) String() string {
	variant := "free"
	if s.cfg.Planar.Enabled {
		variant = fmt.Sprintf("planar(axis=%d)", s.cfg.Planar.Axis)
	}
	return fmt.Sprintf("kick-drift-kick %s, %d particles", variant, len(s.ps))
}
