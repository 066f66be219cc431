package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"bonus-service/internal/bonus"
)

type Config struct {
	ServerAddress  string
	Environment    string
	LogLevel       string
	Database       DatabaseConfig
	Migration      MigrationConfig
	Input          InputConfig
	Bonus          BonusConfig
	Reconciliation ReconciliationConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	Params   string
}

type MigrationConfig struct {
	Dir string
}

type InputConfig struct {
	BaseDir string
}

type BonusConfig struct {
	StatutoryPercent        decimal.Decimal
	IntroductoryPercent     decimal.Decimal
	IntermediatePercent     decimal.Decimal
	CappedBasisRatio        decimal.Decimal
	MinWorkerServiceMonths  int
	WorkerPercentExceptions []string
	StaffDepartments        []string
	WorkerDepartments       []string
}

type ReconciliationConfig struct {
	Tolerance decimal.Decimal
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_ADDRESS", ":8080")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_PORT", 3306)
	v.SetDefault("DB_PARAMS", "parseTime=true")
	v.SetDefault("MIGRATION_DIR", "migrations")
	v.SetDefault("INPUT_BASE_DIR", ".")
	v.SetDefault("BONUS_STATUTORY_PERCENT", bonus.DefaultStatutoryPercent.String())
	v.SetDefault("BONUS_INTRODUCTORY_PERCENT", bonus.DefaultIntroductoryPercent.String())
	v.SetDefault("BONUS_INTERMEDIATE_PERCENT", bonus.DefaultIntermediatePercent.String())
	v.SetDefault("BONUS_CAPPED_BASIS_RATIO", bonus.DefaultCappedBasisRatio.String())
	v.SetDefault("BONUS_MIN_WORKER_SERVICE_MONTHS", bonus.DefaultMinWorkerServiceMonths)
	v.SetDefault("BONUS_WORKER_PERCENT_EXCEPTIONS", strings.Join(bonus.DefaultWorkerPercentExceptions, ","))
	v.SetDefault("BONUS_STAFF_DEPARTMENTS", strings.Join(bonus.DefaultStaffDepartments, ","))
	v.SetDefault("BONUS_WORKER_DEPARTMENTS", strings.Join(bonus.DefaultWorkerDepartments, ","))
	v.SetDefault("RECONCILIATION_TOLERANCE", "1")
}

// Load reads configuration from an env-style file, when present, overlaid by
// environment variables. A missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("env")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	bonusCfg, err := loadBonus(v)
	if err != nil {
		return nil, err
	}
	tolerance, err := decimalKey(v, "RECONCILIATION_TOLERANCE")
	if err != nil {
		return nil, err
	}

	config := &Config{
		ServerAddress: v.GetString("SERVER_ADDRESS"),
		Environment:   v.GetString("ENVIRONMENT"),
		LogLevel:      v.GetString("LOG_LEVEL"),
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetInt("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Name:     v.GetString("DB_NAME"),
			Params:   v.GetString("DB_PARAMS"),
		},
		Migration: MigrationConfig{
			Dir: v.GetString("MIGRATION_DIR"),
		},
		Input: InputConfig{
			BaseDir: v.GetString("INPUT_BASE_DIR"),
		},
		Bonus: bonusCfg,
		Reconciliation: ReconciliationConfig{
			Tolerance: tolerance,
		},
	}

	return config, nil
}

func loadBonus(v *viper.Viper) (BonusConfig, error) {
	var (
		cfg BonusConfig
		err error
	)
	if cfg.StatutoryPercent, err = decimalKey(v, "BONUS_STATUTORY_PERCENT"); err != nil {
		return cfg, err
	}
	if cfg.IntroductoryPercent, err = decimalKey(v, "BONUS_INTRODUCTORY_PERCENT"); err != nil {
		return cfg, err
	}
	if cfg.IntermediatePercent, err = decimalKey(v, "BONUS_INTERMEDIATE_PERCENT"); err != nil {
		return cfg, err
	}
	if cfg.CappedBasisRatio, err = decimalKey(v, "BONUS_CAPPED_BASIS_RATIO"); err != nil {
		return cfg, err
	}
	cfg.MinWorkerServiceMonths = v.GetInt("BONUS_MIN_WORKER_SERVICE_MONTHS")
	cfg.WorkerPercentExceptions = splitList(v.GetString("BONUS_WORKER_PERCENT_EXCEPTIONS"))
	cfg.StaffDepartments = splitList(v.GetString("BONUS_STAFF_DEPARTMENTS"))
	cfg.WorkerDepartments = splitList(v.GetString("BONUS_WORKER_DEPARTMENTS"))
	return cfg, nil
}

func decimalKey(v *viper.Viper, key string) (decimal.Decimal, error) {
	raw := strings.TrimSpace(v.GetString(key))
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return d, nil
}

// splitList splits a comma separated value, keeping entries that contain spaces.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Rules converts the bonus settings into rule engine parameters.
func (c *Config) Rules() bonus.Rules {
	return bonus.Rules{
		StatutoryPercent:        c.Bonus.StatutoryPercent,
		IntroductoryPercent:     c.Bonus.IntroductoryPercent,
		IntermediatePercent:     c.Bonus.IntermediatePercent,
		CappedBasisRatio:        c.Bonus.CappedBasisRatio,
		MinWorkerServiceMonths:  c.Bonus.MinWorkerServiceMonths,
		WorkerPercentExceptions: c.Bonus.WorkerPercentExceptions,
		StaffDepartments:        c.Bonus.StaffDepartments,
		WorkerDepartments:       c.Bonus.WorkerDepartments,
	}
}

// Validate checks the settings every mode depends on.
func (c *Config) Validate() error {
	if err := c.Rules().Validate(); err != nil {
		return fmt.Errorf("invalid bonus rules: %w", err)
	}
	if c.Reconciliation.Tolerance.IsNegative() {
		return fmt.Errorf("reconciliation tolerance must not be negative, got %s", c.Reconciliation.Tolerance)
	}
	return nil
}

// DatabaseEnabled reports whether run history persistence is configured.
func (c *Config) DatabaseEnabled() bool {
	return c.Database.Host != ""
}

// ValidateDatabase checks the connection settings required by the server.
func (c *Config) ValidateDatabase() error {
	var missing []string
	if c.Database.Host == "" {
		missing = append(missing, "DB_HOST")
	}
	if c.Database.User == "" {
		missing = append(missing, "DB_USER")
	}
	if c.Database.Name == "" {
		missing = append(missing, "DB_NAME")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing database settings: %s", strings.Join(missing, ", "))
	}
	if c.Database.Port <= 0 {
		return fmt.Errorf("invalid DB_PORT %d", c.Database.Port)
	}
	return nil
}

// GetDSN returns the MySQL DSN string
func (c *Config) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.Params,
	)
}

// GetMigrationDBURL returns the database URL for migrations
func (c *Config) GetMigrationDBURL() string {
	return fmt.Sprintf("mysql://%s:%s@tcp(%s:%d)/%s?%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.Params,
	)
}
