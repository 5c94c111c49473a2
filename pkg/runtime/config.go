package runtime

import (
	"strings"

	"github.com/spf13/viper"
)

// Config collects every tunable the prose treats as a constant. Values are
// loaded through viper so tests and embedders can override any of them via
// environment (SANITY_*) or a config file, but the defaults are normative.
type Config struct {
	InitialSP float64 `mapstructure:"initial_sp"`
	RecoverSP float64 `mapstructure:"recover_sp"`

	// Ledger modifiers.
	Strict    bool `mapstructure:"strict"`
	Lenient   bool `mapstructure:"lenient"`
	PrayMercy bool `mapstructure:"pray_mercy"`
	Audit     bool `mapstructure:"audit"`
	Chaos     bool `mapstructure:"chaos"`
	NoMood    bool `mapstructure:"no_mood"`

	LenientFloor float64 `mapstructure:"lenient_floor"`

	// Probabilities.
	UncertainChance     float64 `mapstructure:"uncertain_chance"`
	OverwhelmDropChance float64 `mapstructure:"overwhelm_drop_chance"`
	ResentfulChance     float64 `mapstructure:"resentful_chance"`
	TrustZeroVoidChance float64 `mapstructure:"trust_zero_void_chance"`
	UnluckyVoidChance   float64 `mapstructure:"unlucky_void_chance"`
	InsanityFlipChance  float64 `mapstructure:"insanity_flip_chance"`
	TiredTruncateChance float64 `mapstructure:"tired_truncate_chance"`
	EnvyConvergence     float64 `mapstructure:"envy_convergence"`
	UghQuitStep         float64 `mapstructure:"ugh_quit_step"`

	// Thresholds and windows, in ticks unless noted.
	MemoCapacity       int `mapstructure:"memo_capacity"`
	SeanceCap          int `mapstructure:"seance_cap"`
	ObserveResetTicks  int `mapstructure:"observe_reset_ticks"`
	MoodDecayTicks     int `mapstructure:"mood_decay_ticks"`
	NeglectTicks       int `mapstructure:"neglect_ticks"`
	ElderAge           int `mapstructure:"elder_age"`
	TiredAccessCount   int `mapstructure:"tired_access_count"`
	HappyAccessCount   int `mapstructure:"happy_access_count"`
	ResilientScars     int `mapstructure:"resilient_scars"`
	AngryTrust         int `mapstructure:"angry_trust"`
	ParanoidTrust      int `mapstructure:"paranoid_trust"`
	DoubtLatch         int `mapstructure:"doubt_latch"`
	WhateverDriftTicks int `mapstructure:"whatever_drift_ticks"`
	InsanitySwapTicks  int `mapstructure:"insanity_swap_ticks"`
	HauntTicks         int `mapstructure:"haunt_ticks"`
	PopularDegree      int `mapstructure:"popular_degree"`
	LonelyIdleTicks    int `mapstructure:"lonely_idle_ticks"`
	GriefTicks         int `mapstructure:"grief_ticks"`
	OopsEscalation     int `mapstructure:"oops_escalation"`
	YoloCurseCount     int `mapstructure:"yolo_curse_count"`
	UnluckyBetLosses   int `mapstructure:"unlucky_bet_losses"`
	JackpotEvery       int `mapstructure:"jackpot_every"`
	HopefullyGrace     int `mapstructure:"hopefully_grace"`

	// Function call bands.
	RepetitionCalls int `mapstructure:"repetition_calls"`
	RefactorCalls   int `mapstructure:"refactor_calls"`
	TiredCalls      int `mapstructure:"tired_calls"`
	ResentfulCalls  int `mapstructure:"resentful_calls"`

	// Mood lock degradation.
	LockStressAcquires int `mapstructure:"lock_stress_acquires"`
	LockStressLatency  int `mapstructure:"lock_stress_latency_ms"`
	LockResentfulHold  int `mapstructure:"lock_resentful_hold_ms"`
	LockSlipChance     float64 `mapstructure:"lock_slip_chance"`
	LockIdleTicks      int     `mapstructure:"lock_idle_ticks"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("initial_sp", 100.0)
	v.SetDefault("recover_sp", 50.0)
	v.SetDefault("lenient_floor", 10.0)

	v.SetDefault("uncertain_chance", 0.15)
	v.SetDefault("overwhelm_drop_chance", 0.05)
	v.SetDefault("resentful_chance", 0.05)
	v.SetDefault("trust_zero_void_chance", 0.2)
	v.SetDefault("unlucky_void_chance", 0.1)
	v.SetDefault("insanity_flip_chance", 0.1)
	v.SetDefault("tired_truncate_chance", 0.05)
	v.SetDefault("envy_convergence", 0.1)
	v.SetDefault("ugh_quit_step", 0.01)

	v.SetDefault("memo_capacity", 1000)
	v.SetDefault("seance_cap", 3)
	v.SetDefault("observe_reset_ticks", 200)
	v.SetDefault("mood_decay_ticks", 200)
	v.SetDefault("neglect_ticks", 100)
	v.SetDefault("elder_age", 500)
	v.SetDefault("tired_access_count", 200)
	v.SetDefault("happy_access_count", 7)
	v.SetDefault("resilient_scars", 3)
	v.SetDefault("angry_trust", 50)
	v.SetDefault("paranoid_trust", 30)
	v.SetDefault("doubt_latch", 5)
	v.SetDefault("whatever_drift_ticks", 50)
	v.SetDefault("insanity_swap_ticks", 20)
	v.SetDefault("haunt_ticks", 100)
	v.SetDefault("popular_degree", 5)
	v.SetDefault("lonely_idle_ticks", 100)
	v.SetDefault("grief_ticks", 5)
	v.SetDefault("oops_escalation", 10)
	v.SetDefault("yolo_curse_count", 10)
	v.SetDefault("unlucky_bet_losses", 3)
	v.SetDefault("jackpot_every", 100)
	v.SetDefault("hopefully_grace", 100)

	v.SetDefault("repetition_calls", 10)
	v.SetDefault("refactor_calls", 25)
	v.SetDefault("tired_calls", 50)
	v.SetDefault("resentful_calls", 100)

	v.SetDefault("lock_stress_acquires", 10)
	v.SetDefault("lock_stress_latency_ms", 5)
	v.SetDefault("lock_resentful_hold_ms", 50)
	v.SetDefault("lock_slip_chance", 0.05)
	v.SetDefault("lock_idle_ticks", 500)
}

// LoadConfig builds a Config from defaults plus SANITY_* environment
// overrides and, when path is non-empty, a config file.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("sanity")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}
	cfg := &Config{}
	if err := v.UnmarshalExact(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultConfig returns the normative constants without touching the
// environment. Tests start here.
func DefaultConfig() *Config {
	v := viper.New()
	setDefaults(v)
	cfg := &Config{}
	// Defaults always unmarshal cleanly.
	_ = v.UnmarshalExact(cfg)
	return cfg
}
