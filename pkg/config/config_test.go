package config

import (
	"errors"
	"testing"
	"time"
)

func TestDefault_IsValid(t *testing.T) {
	for name, cfg := range map[string]*Config{
		"default":    Default(),
		"production": Production(),
		"testing":    Testing(),
	} {
		if err := cfg.Validate(); err != nil {
			t.Errorf("%s config Validate() error = %v", name, err)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{name: "zero robot length", mutate: func(c *Config) { c.RobotLength = 0 }, wantErr: ErrInvalidRobotLength},
		{name: "negative velocity", mutate: func(c *Config) { c.RobotVelocity = -1 }, wantErr: ErrInvalidRobotVelocity},
		{name: "negative dock cost", mutate: func(c *Config) { c.DockCost = -1 }, wantErr: ErrInvalidBehaviourCost},
		{name: "negative timeout", mutate: func(c *Config) { c.Phase4Timeout = -time.Second }, wantErr: ErrInvalidPhase4Timeout},
		{name: "negative iterations", mutate: func(c *Config) { c.Phase4MaxIterations = -1 }, wantErr: ErrInvalidPhase4Iterations},
		{name: "no phase-4 budget at all", mutate: func(c *Config) { c.Phase4Timeout = 0; c.Phase4MaxIterations = 0 }, wantErr: ErrNoPhase4Budget},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestClone_IsIndependent(t *testing.T) {
	cfg := Default()
	clone := cfg.Clone()
	clone.RobotLength = 99
	if cfg.RobotLength == 99 {
		t.Fatal("mutating the clone changed the original")
	}
}
