package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvEngineWindowDays       = "SIXTY_ENGINE_WINDOW_DAYS"
	EnvEngineRubberStampMs    = "SIXTY_ENGINE_RUBBER_STAMP_MS"
	EnvEngineEligibleScore    = "SIXTY_ENGINE_ELIGIBLE_SCORE"
	EnvEngineEligibleSignals  = "SIXTY_ENGINE_ELIGIBLE_SIGNALS"
	EnvEngineDemotionCooldown = "SIXTY_ENGINE_DEMOTION_COOLDOWN"
	EnvEngineDeferCooldown    = "SIXTY_ENGINE_DEFER_COOLDOWN"
)

// EngineConfig holds the trust engine tunables. Signal weights, rubber-stamp
// latency thresholds, milestones, and cooldowns are deployment configuration,
// not code constants; the defaults below are starting points for tuning.
type EngineConfig struct {
	// SignalWeights maps signal kinds to weights in [-1, 1].
	SignalWeights map[string]float64 `toml:"signal_weights"`

	// RubberStampMs is the response latency below which an approval is
	// treated as a rubber stamp. RubberStampOverrides adjusts it per
	// action type (slower actions warrant longer minimum review times).
	RubberStampMs        int            `toml:"rubber_stamp_ms"`
	RubberStampOverrides map[string]int `toml:"rubber_stamp_overrides"`

	DecayHalfLifeDays float64 `toml:"decay_half_life_days"`
	SampleFloor       int     `toml:"sample_floor"`
	WindowDays        int     `toml:"window_days"`
	RecentWindow      int     `toml:"recent_window"`

	EligibleScore   float64 `toml:"eligible_score"`
	EligibleSignals int     `toml:"eligible_signals"`

	// Milestones are the clean-approval counts at which a promotion is
	// proposed, before any per-user extra-required-signals adjustment.
	Milestones []int `toml:"milestones"`

	UndoClusterThreshold int    `toml:"undo_cluster_threshold"`
	DemotionWindow       int    `toml:"demotion_window"`
	DemotionCooldown     string `toml:"demotion_cooldown"`
	DeferCooldown        string `toml:"defer_cooldown"`
}

// RubberStampThresholdMs returns the rubber-stamp latency threshold for an
// action type, falling back to the global default.
func (c *EngineConfig) RubberStampThresholdMs(actionType string) int {
	if ms, ok := c.RubberStampOverrides[actionType]; ok {
		return ms
	}
	return c.RubberStampMs
}

// DemotionCooldownDuration returns DemotionCooldown as a time.Duration.
func (c *EngineConfig) DemotionCooldownDuration() time.Duration {
	d, _ := time.ParseDuration(c.DemotionCooldown)
	return d
}

// DeferCooldownDuration returns DeferCooldown as a time.Duration.
func (c *EngineConfig) DeferCooldownDuration() time.Duration {
	d, _ := time.ParseDuration(c.DeferCooldown)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *EngineConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *EngineConfig) Merge(overlay *EngineConfig) {
	if overlay.SignalWeights != nil {
		c.SignalWeights = overlay.SignalWeights
	}
	if overlay.RubberStampMs != 0 {
		c.RubberStampMs = overlay.RubberStampMs
	}
	if overlay.RubberStampOverrides != nil {
		c.RubberStampOverrides = overlay.RubberStampOverrides
	}
	if overlay.DecayHalfLifeDays != 0 {
		c.DecayHalfLifeDays = overlay.DecayHalfLifeDays
	}
	if overlay.SampleFloor != 0 {
		c.SampleFloor = overlay.SampleFloor
	}
	if overlay.WindowDays != 0 {
		c.WindowDays = overlay.WindowDays
	}
	if overlay.RecentWindow != 0 {
		c.RecentWindow = overlay.RecentWindow
	}
	if overlay.EligibleScore != 0 {
		c.EligibleScore = overlay.EligibleScore
	}
	if overlay.EligibleSignals != 0 {
		c.EligibleSignals = overlay.EligibleSignals
	}
	if overlay.Milestones != nil {
		c.Milestones = overlay.Milestones
	}
	if overlay.UndoClusterThreshold != 0 {
		c.UndoClusterThreshold = overlay.UndoClusterThreshold
	}
	if overlay.DemotionWindow != 0 {
		c.DemotionWindow = overlay.DemotionWindow
	}
	if overlay.DemotionCooldown != "" {
		c.DemotionCooldown = overlay.DemotionCooldown
	}
	if overlay.DeferCooldown != "" {
		c.DeferCooldown = overlay.DeferCooldown
	}
}

func (c *EngineConfig) loadDefaults() {
	if c.SignalWeights == nil {
		c.SignalWeights = map[string]float64{
			"approved":        1.0,
			"approved_edited": 0.5,
			"auto_executed":   0.6,
			"expired":         -0.2,
			"rejected":        -0.6,
			"undone":          -0.8,
			"auto_undone":     -1.0,
		}
	}
	if c.RubberStampMs == 0 {
		c.RubberStampMs = 3000
	}
	if c.DecayHalfLifeDays == 0 {
		c.DecayHalfLifeDays = 30
	}
	if c.SampleFloor == 0 {
		c.SampleFloor = 10
	}
	if c.WindowDays == 0 {
		c.WindowDays = 90
	}
	if c.RecentWindow == 0 {
		c.RecentWindow = 30
	}
	if c.EligibleScore == 0 {
		c.EligibleScore = 0.7
	}
	if c.EligibleSignals == 0 {
		c.EligibleSignals = 10
	}
	if c.Milestones == nil {
		c.Milestones = []int{5, 10, 20}
	}
	if c.UndoClusterThreshold == 0 {
		c.UndoClusterThreshold = 2
	}
	if c.DemotionWindow == 0 {
		c.DemotionWindow = 10
	}
	if c.DemotionCooldown == "" {
		c.DemotionCooldown = "336h" // 14 days
	}
	if c.DeferCooldown == "" {
		c.DeferCooldown = "720h" // 30 days
	}
}

func (c *EngineConfig) loadEnv() {
	if v := os.Getenv(EnvEngineWindowDays); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.WindowDays = n
		}
	}
	if v := os.Getenv(EnvEngineRubberStampMs); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RubberStampMs = n
		}
	}
	if v := os.Getenv(EnvEngineEligibleScore); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.EligibleScore = f
		}
	}
	if v := os.Getenv(EnvEngineEligibleSignals); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.EligibleSignals = n
		}
	}
	if v := os.Getenv(EnvEngineDemotionCooldown); v != "" {
		c.DemotionCooldown = v
	}
	if v := os.Getenv(EnvEngineDeferCooldown); v != "" {
		c.DeferCooldown = v
	}
}

func (c *EngineConfig) validate() error {
	for kind, w := range c.SignalWeights {
		if w < -1 || w > 1 {
			return fmt.Errorf("signal weight for %s out of [-1, 1]: %f", kind, w)
		}
	}
	if c.RubberStampMs < 0 {
		return fmt.Errorf("rubber_stamp_ms cannot be negative: %d", c.RubberStampMs)
	}
	if c.DecayHalfLifeDays <= 0 {
		return fmt.Errorf("decay_half_life_days must be positive: %f", c.DecayHalfLifeDays)
	}
	if c.EligibleScore <= 0 || c.EligibleScore >= 1 {
		return fmt.Errorf("eligible_score must be in (0, 1): %f", c.EligibleScore)
	}
	for _, m := range c.Milestones {
		if m < 1 {
			return fmt.Errorf("invalid milestone: %d", m)
		}
	}
	if _, err := time.ParseDuration(c.DemotionCooldown); err != nil {
		return fmt.Errorf("invalid demotion_cooldown: %w", err)
	}
	if _, err := time.ParseDuration(c.DeferCooldown); err != nil {
		return fmt.Errorf("invalid defer_cooldown: %w", err)
	}
	return nil
}
