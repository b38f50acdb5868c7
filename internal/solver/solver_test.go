package solver

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Guo-astro/hvcc-gsph-sub001/internal/config"
	"github.com/Guo-astro/hvcc-gsph-sub001/internal/core"
	"github.com/Guo-astro/hvcc-gsph-sub001/internal/samples"
)

func init() {
	logrus.SetLevel(logrus.WarnLevel)
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.N = 60
	cfg.Time.End = 0.005
	return cfg
}

type countingObserver struct {
	steps int
}

func (o *countingObserver) OnStep(rec StepRecord[float64]) { o.steps++ }

func TestRun_AdvancesShockTube(t *testing.T) {
	s, err := New(testConfig(), samples.NewRegistry[float64]())
	if err != nil {
		t.Fatal(err)
	}

	obs := &countingObserver{}
	s.AddObserver(obs)

	result, err := s.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if result.Steps == 0 {
		t.Fatal("no steps taken")
	}
	if obs.steps != result.Steps {
		t.Errorf("observer saw %d steps, result has %d", obs.steps, result.Steps)
	}

	last := result.Records[len(result.Records)-1]
	if !(last.Time >= 0.005) {
		t.Errorf("final time = %g, want >= end time", last.Time)
	}
	if last.Dt.Limiter == "" {
		t.Error("limiting criterion not labelled")
	}

	for i := range result.Particles {
		p := &result.Particles[i]
		if !p.Pos.IsValid() || !p.Vel.IsValid() || !core.IsFinite(p.Ene) {
			t.Fatalf("particle %d state invalid: pos=%v vel=%v ene=%g", p.ID, p.Pos, p.Vel, p.Ene)
		}
		if p.Sml <= 0 {
			t.Fatalf("particle %d smoothing length collapsed: %g", p.ID, p.Sml)
		}
	}
}

func TestRun_DefaultShockTubeStaysFinite(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.N = 80
	cfg.Time.End = 0.01

	s, err := New(cfg, samples.NewRegistry[float64]())
	if err != nil {
		t.Fatal(err)
	}
	result, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("default run aborted: %v", err)
	}

	for i := range result.Particles {
		p := &result.Particles[i]
		if p.Wall {
			continue
		}
		if p.Ene <= 0 || !core.IsFinite(p.Ene) {
			t.Fatalf("particle %d: ene = %g, want positive finite", p.ID, p.Ene)
		}
		if !core.IsFinite(p.Sound) || !p.Acc.IsValid() {
			t.Fatalf("particle %d: sound=%g acc=%v", p.ID, p.Sound, p.Acc)
		}
	}
}

func TestRun_TimestepRecordsAreMonotoneBounded(t *testing.T) {
	s, err := New(testConfig(), samples.NewRegistry[float64]())
	if err != nil {
		t.Fatal(err)
	}
	result, err := s.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	for _, rec := range result.Records {
		if rec.Dt.RawDt > rec.Dt.DtSound || rec.Dt.RawDt > rec.Dt.DtForce {
			t.Fatalf("step %d: raw dt %g exceeds criteria (sound=%g force=%g)",
				rec.Step, rec.Dt.RawDt, rec.Dt.DtSound, rec.Dt.DtForce)
		}
	}
}

func TestRun_PlanarVariantStaysInPlane(t *testing.T) {
	cfg := testConfig()
	cfg.Sample = "razor_thin_disk"
	cfg.Planar.Enabled = true
	cfg.Planar.Axis = 2
	cfg.Time.End = 0.002

	s, err := New(cfg, samples.NewRegistry[float64]())
	if err != nil {
		t.Fatal(err)
	}
	result, err := s.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	for i := range result.Particles {
		p := &result.Particles[i]
		if p.Wall {
			continue
		}
		if p.Pos[2] != 0 || p.Vel[2] != 0 {
			t.Fatalf("particle %d left the plane: z=%g vz=%g", p.ID, p.Pos[2], p.Vel[2])
		}
	}
}

func TestRun_ContextCancellation(t *testing.T) {
	cfg := testConfig()
	cfg.Time.End = 1e6 // effectively unbounded

	s, err := New(cfg, samples.NewRegistry[float64]())
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = s.Run(ctx)
	if err != context.DeadlineExceeded {
		t.Errorf("Run = %v, want context.DeadlineExceeded", err)
	}
}

func TestNew_UnknownSample(t *testing.T) {
	cfg := testConfig()
	cfg.Sample = "nope"
	if _, err := New(cfg, samples.NewRegistry[float64]()); err == nil {
		t.Fatal("expected error for unknown sample")
	}
}
