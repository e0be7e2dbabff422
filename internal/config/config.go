// Package config exposes the engine's settings surface: plain scalars with
// documented defaults, read from environment variables or a config file via
// viper.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/tiendamoda/reclass/internal/common"
)

// Settings holds every recognized reseed option.
type Settings struct {
	// Enabled gates the whole auto-reseed phase.
	Enabled bool

	// PendingThreshold is the maximum number of already-pending proposals
	// before a run is skipped (unless forced or refreshing pending).
	PendingThreshold int

	// CandidateLimit bounds the products scored per run.
	CandidateLimit int

	// Cooldown is the minimum gap after the last completed run.
	Cooldown time.Duration

	// Staleness is the watchdog window after which a running row is
	// force-failed.
	Staleness time.Duration

	// ForceRecovery is the shorter grace period a manual forced run waits
	// before pre-empting a merely slow run.
	ForceRecovery time.Duration

	// RequireNameBacked controls whether subcategory moves need support from
	// the product name alone.
	RequireNameBacked bool

	// Concurrency bounds parallel product scoring within a run.
	Concurrency int

	// ChunkSize bounds each proposal write transaction.
	ChunkSize int
}

// SetDefaults registers the documented default for every option.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("reseed.enabled", true)
	v.SetDefault("reseed.pending_threshold", 25)
	v.SetDefault("reseed.candidate_limit", 120)
	v.SetDefault("reseed.cooldown_minutes", 30)
	v.SetDefault("reseed.staleness_minutes", 15)
	v.SetDefault("reseed.force_recovery_minutes", 5)
	v.SetDefault("reseed.require_name_backed", true)
	v.SetDefault("reseed.concurrency", 4)
	v.SetDefault("reseed.chunk_size", 400)
}

// Load reads the settings out of a configured viper instance.
func Load(v *viper.Viper) (Settings, error) {
	SetDefaults(v)

	s := Settings{
		Enabled:           v.GetBool("reseed.enabled"),
		PendingThreshold:  v.GetInt("reseed.pending_threshold"),
		CandidateLimit:    v.GetInt("reseed.candidate_limit"),
		Cooldown:          time.Duration(v.GetInt("reseed.cooldown_minutes")) * time.Minute,
		Staleness:         time.Duration(v.GetInt("reseed.staleness_minutes")) * time.Minute,
		ForceRecovery:     time.Duration(v.GetInt("reseed.force_recovery_minutes")) * time.Minute,
		RequireNameBacked: v.GetBool("reseed.require_name_backed"),
		Concurrency:       v.GetInt("reseed.concurrency"),
		ChunkSize:         v.GetInt("reseed.chunk_size"),
	}
	return s, s.Validate()
}

// Default returns the settings with every option at its documented default.
func Default() Settings {
	v := viper.New()
	s, err := Load(v)
	if err != nil {
		// Defaults are statically valid.
		panic(fmt.Sprintf("invalid default settings: %v", err))
	}
	return s
}

// Validate rejects nonsensical combinations. Every failure wraps
// common.ErrInvalidConfig so callers can match on the class.
func (s Settings) Validate() error {
	if s.PendingThreshold < 0 {
		return fmt.Errorf("%w: pending_threshold must be >= 0, got %d", common.ErrInvalidConfig, s.PendingThreshold)
	}
	if s.CandidateLimit <= 0 {
		return fmt.Errorf("%w: candidate_limit must be > 0, got %d", common.ErrInvalidConfig, s.CandidateLimit)
	}
	if s.Staleness <= 0 {
		return fmt.Errorf("%w: staleness_minutes must be > 0, got %v", common.ErrInvalidConfig, s.Staleness)
	}
	if s.ForceRecovery <= 0 || s.ForceRecovery > s.Staleness {
		return fmt.Errorf("%w: force_recovery_minutes must be > 0 and <= staleness_minutes, got %v", common.ErrInvalidConfig, s.ForceRecovery)
	}
	if s.Concurrency <= 0 {
		return fmt.Errorf("%w: concurrency must be > 0, got %d", common.ErrInvalidConfig, s.Concurrency)
	}
	if s.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk_size must be > 0, got %d", common.ErrInvalidConfig, s.ChunkSize)
	}
	return nil
}
