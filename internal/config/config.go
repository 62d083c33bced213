package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"

	"github.com/jakechorley/duty-roster/pkg/core/allocator"
)

// DSNEnvVar overrides storage.dsn when set, typically from a .env file
const DSNEnvVar = "DUTY_ROSTER_DSN"

const configFileBase = "duty_roster_config"

// StorageConfig selects the persistence backend
type StorageConfig struct {
	Driver string `yaml:"driver" validate:"required,oneof=postgres sqlite"`
	DSN    string `yaml:"dsn,omitempty" validate:"required"`
}

// DutyTypeConfig defines a post that is filled once per day
type DutyTypeConfig struct {
	Name  string  `yaml:"name" validate:"required"`
	Hours float64 `yaml:"hours" validate:"gte=0"`
	Cycle []int   `yaml:"cycle,omitempty" validate:"omitempty,dive,min=0"`
}

// RankConfig overrides the default rank scale
type RankConfig struct {
	Scale       []string `yaml:"scale,omitempty" validate:"omitempty,dive,required"`
	OfficerRank string   `yaml:"officerRank,omitempty"`
}

// Config represents the application configuration
type Config struct {
	Storage StorageConfig `yaml:"storage" validate:"required"`

	// Input workbooks
	StaffWorkbook string `yaml:"staffWorkbook" validate:"required"`
	LeaveWorkbook string `yaml:"leaveWorkbook,omitempty"`

	// OutputDir receives exported workbooks (defaults to the current directory)
	OutputDir string `yaml:"outputDir,omitempty"`

	// RosterSheetID is the Google Sheet rosters are published to
	RosterSheetID string `yaml:"rosterSheetID,omitempty"`

	DutyTypes []DutyTypeConfig `yaml:"dutyTypes" validate:"required,min=1,dive"`

	// Permissions maps unit -> posts the unit may cover. Omitted means unrestricted.
	Permissions map[string][]string `yaml:"permissions,omitempty"`

	PrivilegedPosts []string   `yaml:"privilegedPosts,omitempty"`
	Ranks           RankConfig `yaml:"ranks,omitempty"`

	// Holidays are DD.MM keys
	Holidays        []string `yaml:"holidays,omitempty"`
	HolidayRules    []string `yaml:"holidayRules,omitempty"`
	HolidayCalendar string   `yaml:"holidayCalendar,omitempty"`

	// AbsenceCodes maps placeholder cell values to leave categories
	AbsenceCodes map[string]string `yaml:"absenceCodes,omitempty" validate:"omitempty,dive,keys,required,endkeys,oneof=vacation sick_leave day_off"`

	MonthlyNorm      float64            `yaml:"monthlyNorm,omitempty" validate:"gte=0"`
	MonthlyNorms     map[string]float64 `yaml:"monthlyNorms,omitempty" validate:"omitempty,dive,gte=0"`
	DefaultBaseHours float64            `yaml:"defaultBaseHours,omitempty" validate:"gte=0"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Load loads and validates the configuration from duty_roster_config.yaml
// It looks for the config file in the current directory first, then in the user's home directory
func Load() (*Config, error) {
	return LoadWithEnv("")
}

// LoadWithEnv loads and validates the configuration with an environment suffix
// For example, env="test" will look for "duty_roster_config.test.yaml"
func LoadWithEnv(env string) (*Config, error) {
	configPath, err := findConfigFile(env)
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if dsn := os.Getenv(DSNEnvVar); dsn != "" {
		cfg.Storage.DSN = dsn
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate validates the configuration struct and the keys, rules and names
// that struct tags cannot express
func Validate(cfg *Config) error {
	// Run struct validation
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	posts := make(map[string]bool, len(cfg.DutyTypes))
	for i, dt := range cfg.DutyTypes {
		if posts[dt.Name] {
			return fmt.Errorf("duplicate duty type %q in dutyTypes[%d]", dt.Name, i)
		}
		posts[dt.Name] = true
	}

	for unit, allowed := range cfg.Permissions {
		for _, post := range allowed {
			if !posts[post] {
				return fmt.Errorf("permissions for unit %q name unknown post %q", unit, post)
			}
		}
	}

	for _, post := range cfg.PrivilegedPosts {
		if !posts[post] {
			return fmt.Errorf("privilegedPosts names unknown post %q", post)
		}
	}

	if cfg.Ranks.OfficerRank != "" {
		policy := cfg.ToRankPolicy()
		if policy.Level(cfg.Ranks.OfficerRank) < 0 {
			return fmt.Errorf("officerRank %q is not on the rank scale", cfg.Ranks.OfficerRank)
		}
	}

	for i, key := range cfg.Holidays {
		if _, err := allocator.ParseHolidayKey(key); err != nil {
			return fmt.Errorf("invalid holiday in holidays[%d]: %w", i, err)
		}
	}

	// Validate rrule syntax for each holiday rule
	for i, rule := range cfg.HolidayRules {
		if _, err := rrule.StrToRRule(rule); err != nil {
			return fmt.Errorf("invalid rrule in holidayRules[%d]: %w", i, err)
		}
	}

	for key := range cfg.MonthlyNorms {
		if _, err := allocator.ParseMonthKey(key); err != nil {
			return fmt.Errorf("invalid month in monthlyNorms: %w", err)
		}
	}

	return nil
}

// ToDutyTypes converts the configured posts into engine duty types, in column order
func (c *Config) ToDutyTypes() []allocator.DutyType {
	types := make([]allocator.DutyType, len(c.DutyTypes))
	for i, dt := range c.DutyTypes {
		types[i] = allocator.DutyType{
			Name:  dt.Name,
			Hours: dt.Hours,
			Cycle: append([]int(nil), dt.Cycle...),
		}
	}
	return types
}

// ToPermissions returns the unit permissions, or nil when every unit may cover every post
func (c *Config) ToPermissions() map[string][]string {
	if len(c.Permissions) == 0 {
		return nil
	}
	perms := make(map[string][]string, len(c.Permissions))
	for unit, posts := range c.Permissions {
		perms[strings.TrimSpace(unit)] = append([]string(nil), posts...)
	}
	return perms
}

// ToRankPolicy builds the rank policy, falling back to the default scale and officer rank
func (c *Config) ToRankPolicy() allocator.RankPolicy {
	policy := allocator.DefaultRankPolicy()
	if len(c.Ranks.Scale) > 0 {
		policy.Scale = c.Ranks.Scale
	}
	if c.Ranks.OfficerRank != "" {
		policy.OfficerRank = c.Ranks.OfficerRank
	}
	if len(c.PrivilegedPosts) > 0 {
		policy.Privileged = allocator.PrivilegedPosts(c.PrivilegedPosts...)
	}
	return policy
}

// ToAbsenceCodes returns the configured absence codes, or nil to use the defaults
func (c *Config) ToAbsenceCodes() map[string]allocator.LeaveCategory {
	if len(c.AbsenceCodes) == 0 {
		return nil
	}
	codes := make(map[string]allocator.LeaveCategory, len(c.AbsenceCodes))
	for code, category := range c.AbsenceCodes {
		codes[code] = allocator.LeaveCategory(category)
	}
	return codes
}

// ToMonthlyNorms builds the per-month hour norms
func (c *Config) ToMonthlyNorms() allocator.MonthlyNorms {
	norms := allocator.MonthlyNorms{Default: c.MonthlyNorm}
	if len(c.MonthlyNorms) > 0 {
		norms.ByMonth = make(map[allocator.MonthKey]float64, len(c.MonthlyNorms))
		for key, hours := range c.MonthlyNorms {
			// Keys were checked by Validate
			month, err := allocator.ParseMonthKey(key)
			if err != nil {
				continue
			}
			norms.ByMonth[month] = hours
		}
	}
	return norms
}

// BaseHours returns the hours assumed for staff records without a base value
func (c *Config) BaseHours() float64 {
	if c.DefaultBaseHours > 0 {
		return c.DefaultBaseHours
	}
	return allocator.DefaultBaseHours
}

// findConfigFile searches for the config file in current directory and home directory
// If env is provided, it adds it as an extension (e.g., "duty_roster_config.test.yaml")
func findConfigFile(env string) (string, error) {
	if env == "" {
		return findFile(configFileBase + ".yaml")
	}
	return findFile(configFileBase + "." + env + ".yaml")
}
