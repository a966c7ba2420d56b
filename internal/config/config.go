package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the trading core.
type Config struct {
	Program ProgramConfig `mapstructure:"program"`
	Fees    FeeConfig     `mapstructure:"fees"`
	Timing  TimingConfig  `mapstructure:"timing"`
	Log     LogConfig     `mapstructure:"log"`
}

// ProgramConfig identifies the deployed program.
type ProgramConfig struct {
	// ID is the Base58 program id used for PDA derivation.
	ID string `mapstructure:"id"`
}

// FeeConfig holds the fixed lamport fees charged per operation.
// Each fee is a constant charged regardless of transfer size.
type FeeConfig struct {
	Registration uint64 `mapstructure:"registration"` // pool creation
	Liquidity    uint64 `mapstructure:"liquidity"`    // deposit and withdrawal
	Swap         uint64 `mapstructure:"swap"`         // per-swap contract fee
}

// TimingConfig holds the governance time windows, in seconds.
type TimingConfig struct {
	AdminChangeTimelock int64 `mapstructure:"admin_change_timelock"`
	WithdrawalCooldown  int64 `mapstructure:"withdrawal_cooldown"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or text
}

// Default values match the deployed program. All of them are governable
// by deployment configuration rather than hard-coded in the engines.
const (
	DefaultProgramID = "quXSYkeZ8ByTCtYY1J1uxQmE36UZ3LmNGgE3CYMFixD"

	DefaultRegistrationFee = uint64(1_150_000_000) // 1.15 SOL
	DefaultLiquidityFee    = uint64(1_300_000)     // 0.0013 SOL
	DefaultSwapFee         = uint64(12_500)        // 0.0000125 SOL

	DefaultAdminChangeTimelock = int64(72 * time.Hour / time.Second)
	DefaultWithdrawalCooldown  = int64(60 * time.Minute / time.Second)
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Program: ProgramConfig{
			ID: DefaultProgramID,
		},
		Fees: FeeConfig{
			Registration: DefaultRegistrationFee,
			Liquidity:    DefaultLiquidityFee,
			Swap:         DefaultSwapFee,
		},
		Timing: TimingConfig{
			AdminChangeTimelock: DefaultAdminChangeTimelock,
			WithdrawalCooldown:  DefaultWithdrawalCooldown,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from file and environment.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(".fixedratio")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
	}

	// Environment variables
	v.SetEnvPrefix("FIXEDRATIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects configurations the engines cannot operate under.
func (c *Config) Validate() error {
	if c.Program.ID == "" {
		return fmt.Errorf("program.id must be set")
	}
	if c.Timing.AdminChangeTimelock <= 0 {
		return fmt.Errorf("timing.admin_change_timelock must be positive")
	}
	if c.Timing.WithdrawalCooldown <= 0 {
		return fmt.Errorf("timing.withdrawal_cooldown must be positive")
	}
	return nil
}
