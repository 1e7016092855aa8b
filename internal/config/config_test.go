package config_test

import (
	"testing"

	"github.com/SixtySecondsApp/use60-sub018/internal/config"
)

func TestEngineConfigDefaults(t *testing.T) {
	cfg := &config.EngineConfig{}
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize() = %v", err)
	}

	if cfg.RubberStampMs != 3000 {
		t.Errorf("RubberStampMs = %d, want 3000", cfg.RubberStampMs)
	}
	if cfg.DecayHalfLifeDays != 30 {
		t.Errorf("DecayHalfLifeDays = %v, want 30", cfg.DecayHalfLifeDays)
	}
	if cfg.WindowDays != 90 {
		t.Errorf("WindowDays = %d, want 90", cfg.WindowDays)
	}
	if len(cfg.Milestones) != 3 || cfg.Milestones[1] != 10 {
		t.Errorf("Milestones = %v, want [5 10 20]", cfg.Milestones)
	}

	if w := cfg.SignalWeights["approved"]; w != 1.0 {
		t.Errorf("weight(approved) = %v, want 1.0", w)
	}
	if w := cfg.SignalWeights["auto_undone"]; w != -1.0 {
		t.Errorf("weight(auto_undone) = %v, want -1.0", w)
	}
}

func TestEngineConfigRubberStampOverride(t *testing.T) {
	cfg := &config.EngineConfig{
		RubberStampOverrides: map[string]int{"bulk_archive": 500},
	}
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize() = %v", err)
	}

	if got := cfg.RubberStampThresholdMs("bulk_archive"); got != 500 {
		t.Errorf("RubberStampThresholdMs(bulk_archive) = %d, want 500", got)
	}
	if got := cfg.RubberStampThresholdMs("draft_email"); got != 3000 {
		t.Errorf("RubberStampThresholdMs(draft_email) = %d, want global 3000", got)
	}
}

func TestEngineConfigMerge(t *testing.T) {
	base := &config.EngineConfig{}
	if err := base.Finalize(); err != nil {
		t.Fatalf("Finalize() = %v", err)
	}

	base.Merge(&config.EngineConfig{
		EligibleScore: 0.85,
		Milestones:    []int{3, 6},
	})

	if base.EligibleScore != 0.85 {
		t.Errorf("EligibleScore = %v, want 0.85 from overlay", base.EligibleScore)
	}
	if len(base.Milestones) != 2 {
		t.Errorf("Milestones = %v, want overlay [3 6]", base.Milestones)
	}
	// Untouched overlay fields keep their base values.
	if base.WindowDays != 90 {
		t.Errorf("WindowDays = %d, want base 90", base.WindowDays)
	}
}

func TestEngineConfigCooldownDurations(t *testing.T) {
	cfg := &config.EngineConfig{DemotionCooldown: "24h", DeferCooldown: "48h"}
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize() = %v", err)
	}

	if got := cfg.DemotionCooldownDuration().Hours(); got != 24 {
		t.Errorf("DemotionCooldownDuration = %vh, want 24h", got)
	}
	if got := cfg.DeferCooldownDuration().Hours(); got != 48 {
		t.Errorf("DeferCooldownDuration = %vh, want 48h", got)
	}
}

func TestEngineConfigEnvOverride(t *testing.T) {
	t.Setenv(config.EnvEngineEligibleScore, "0.9")
	t.Setenv(config.EnvEngineWindowDays, "30")

	cfg := &config.EngineConfig{}
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize() = %v", err)
	}

	if cfg.EligibleScore != 0.9 {
		t.Errorf("EligibleScore = %v, want env override 0.9", cfg.EligibleScore)
	}
	if cfg.WindowDays != 30 {
		t.Errorf("WindowDays = %d, want env override 30", cfg.WindowDays)
	}
}
