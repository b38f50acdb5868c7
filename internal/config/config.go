package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultCFLSound        = 0.3
	DefaultCFLForce        = 0.125
	DefaultCFLEnergy       = 0.3
	DefaultGamma           = 5.0 / 3.0
	DefaultShockThreshold  = 1.3
	DefaultRevertTolerance = 0.1
	DefaultStallThreshold  = 1e-5
	DefaultStallMultiplier = 5.0
	DefaultEndTime         = 0.2
	DefaultOutputInterval  = 0.01
	DefaultNeighborNumber  = 32
	DefaultAVAlpha         = 1.0
	DefaultParticleCount   = 400
)

type Config struct {
	Sample  string        `yaml:"sample"`
	N       int           `yaml:"n"`
	Time    TimeConfig    `yaml:"time"`
	CFL     CFLConfig     `yaml:"cfl"`
	Physics PhysicsConfig `yaml:"physics"`
	AV      AVConfig      `yaml:"av"`
	Shock   ShockConfig   `yaml:"shock"`
	Stall   StallConfig   `yaml:"stall"`
	Planar  PlanarConfig  `yaml:"planar"`
}

type TimeConfig struct {
	Start  float64 `yaml:"start"`
	End    float64 `yaml:"end"`
	Output float64 `yaml:"output"`
}

// CFLConfig holds the dimensionless safety coefficients, each in (0, 1].
type CFLConfig struct {
	Sound  float64 `yaml:"sound"`
	Force  float64 `yaml:"force"`
	Energy float64 `yaml:"energy"`
}

type PhysicsConfig struct {
	Gamma          float64 `yaml:"gamma"`
	NeighborNumber int     `yaml:"neighbor_number"`
}

type AVConfig struct {
	Alpha float64 `yaml:"alpha"`
}

// ShockConfig governs the formulation selector. Threshold values are
// calibration, not hard assumptions.
type ShockConfig struct {
	SensorThreshold float64 `yaml:"sensor_threshold"`
	RevertTolerance float64 `yaml:"revert_tolerance"`
}

// StallConfig exposes the stall-breaker literals for calibration.
type StallConfig struct {
	Threshold  float64 `yaml:"threshold"`
	Multiplier float64 `yaml:"multiplier"`
}

// PlanarConfig enables the constrained integrator variant, confining motion
// to the plane orthogonal to Axis while forces stay fully 3D.
type PlanarConfig struct {
	Enabled bool `yaml:"enabled"`
	Axis    int  `yaml:"axis"`
}

func DefaultConfig() *Config {
	return &Config{
		Sample: "shock_tube",
		N:      DefaultParticleCount,
		Time: TimeConfig{
			End:    DefaultEndTime,
			Output: DefaultOutputInterval,
		},
		CFL: CFLConfig{
			Sound:  DefaultCFLSound,
			Force:  DefaultCFLForce,
			Energy: DefaultCFLEnergy,
		},
		Physics: PhysicsConfig{
			Gamma:          DefaultGamma,
			NeighborNumber: DefaultNeighborNumber,
		},
		AV: AVConfig{
			Alpha: DefaultAVAlpha,
		},
		Shock: ShockConfig{
			SensorThreshold: DefaultShockThreshold,
			RevertTolerance: DefaultRevertTolerance,
		},
		Stall: StallConfig{
			Threshold:  DefaultStallThreshold,
			Multiplier: DefaultStallMultiplier,
		},
		Planar: PlanarConfig{
			Axis: 2,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	for name, v := range map[string]float64{
		"cfl.sound": c.CFL.Sound, "cfl.force": c.CFL.Force, "cfl.energy": c.CFL.Energy,
	} {
		if v <= 0 || v > 1 {
			return fmt.Errorf("config: %s must be in (0, 1], got %g", name, v)
		}
	}
	if c.Physics.Gamma <= 1 {
		return fmt.Errorf("config: physics.gamma must exceed 1, got %g", c.Physics.Gamma)
	}
	if c.Time.End < c.Time.Start {
		return fmt.Errorf("config: time.end %g precedes time.start %g", c.Time.End, c.Time.Start)
	}
	if c.Planar.Enabled && (c.Planar.Axis < 0 || c.Planar.Axis >= 3) {
		return fmt.Errorf("config: planar.axis must be 0, 1 or 2, got %d", c.Planar.Axis)
	}
	return nil
}
