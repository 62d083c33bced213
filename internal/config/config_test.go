package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/duty-roster/pkg/core/allocator"
)

func validConfig() *Config {
	return &Config{
		Storage:       StorageConfig{Driver: "sqlite", DSN: "roster.db"},
		StaffWorkbook: "staff.xlsx",
		DutyTypes: []DutyTypeConfig{
			{Name: "Gate", Hours: 24, Cycle: []int{4}},
			{Name: "Patrol", Hours: 12},
		},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := validConfig()
	cfg.Permissions = map[string][]string{"Alpha": {"Gate"}}
	cfg.PrivilegedPosts = []string{"Gate"}
	cfg.Holidays = []string{"01.01", "29.02", "9.5"}
	cfg.HolidayRules = []string{"FREQ=YEARLY;BYMONTH=12;BYMONTHDAY=25"}
	cfg.AbsenceCodes = map[string]string{"Б": "sick_leave", "В": "day_off"}
	cfg.MonthlyNorms = map[string]float64{"2024-03": 168}

	err := Validate(cfg)
	assert.NoError(t, err)
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr string
	}{
		{
			name:    "missing storage driver",
			mutate:  func(cfg *Config) { cfg.Storage.Driver = "" },
			wantErr: "validation failed",
		},
		{
			name:    "unknown storage driver",
			mutate:  func(cfg *Config) { cfg.Storage.Driver = "mysql" },
			wantErr: "validation failed",
		},
		{
			name:    "no duty types",
			mutate:  func(cfg *Config) { cfg.DutyTypes = nil },
			wantErr: "validation failed",
		},
		{
			name:    "negative hours",
			mutate:  func(cfg *Config) { cfg.DutyTypes[0].Hours = -1 },
			wantErr: "validation failed",
		},
		{
			name:    "duplicate duty type",
			mutate:  func(cfg *Config) { cfg.DutyTypes[1].Name = "Gate" },
			wantErr: "duplicate duty type",
		},
		{
			name:    "permission names unknown post",
			mutate:  func(cfg *Config) { cfg.Permissions = map[string][]string{"Alpha": {"Kitchen"}} },
			wantErr: "unknown post",
		},
		{
			name:    "privileged post unknown",
			mutate:  func(cfg *Config) { cfg.PrivilegedPosts = []string{"Kitchen"} },
			wantErr: "unknown post",
		},
		{
			name:    "officer rank not on scale",
			mutate:  func(cfg *Config) { cfg.Ranks.OfficerRank = "Admiral" },
			wantErr: "not on the rank scale",
		},
		{
			name:    "invalid holiday key",
			mutate:  func(cfg *Config) { cfg.Holidays = []string{"31.02"} },
			wantErr: "invalid holiday",
		},
		{
			name:    "invalid rrule",
			mutate:  func(cfg *Config) { cfg.HolidayRules = []string{"INVALID_RRULE_SYNTAX"} },
			wantErr: "invalid rrule",
		},
		{
			name:    "invalid month norm key",
			mutate:  func(cfg *Config) { cfg.MonthlyNorms = map[string]float64{"March": 168} },
			wantErr: "invalid month",
		},
		{
			name:    "unknown absence category",
			mutate:  func(cfg *Config) { cfg.AbsenceCodes = map[string]string{"X": "holiday"} },
			wantErr: "validation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFromPath_ValidConfig(t *testing.T) {
	t.Setenv(DSNEnvVar, "")
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test_config.yaml")

	content := `
storage:
  driver: postgres
  dsn: "postgres://localhost/roster"
staffWorkbook: "staff.xlsx"
leaveWorkbook: "leave.xlsx"
rosterSheetID: "sheet123"
dutyTypes:
  - name: Gate
    hours: 24
    cycle: [4]
  - name: Patrol
    hours: 12
permissions:
  Alpha: [Gate, Patrol]
  Bravo: [Patrol]
privilegedPosts: [Gate]
ranks:
  officerRank: Captain
holidays: ["01.01", "08.03"]
holidayRules:
  - "FREQ=YEARLY;BYMONTH=5;BYMONTHDAY=9"
absenceCodes:
  "Б": sick_leave
monthlyNorm: 150
monthlyNorms:
  "2024-03": 168
defaultBaseHours: 140
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	cfg, err := LoadFromPath(configPath)
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Storage.Driver)
	assert.Equal(t, "postgres://localhost/roster", cfg.Storage.DSN)
	assert.Equal(t, "leave.xlsx", cfg.LeaveWorkbook)
	assert.Equal(t, "sheet123", cfg.RosterSheetID)

	dutyTypes := cfg.ToDutyTypes()
	require.Len(t, dutyTypes, 2)
	assert.Equal(t, "Gate", dutyTypes[0].Name)
	assert.Equal(t, 4, dutyTypes[0].MinInterval())
	assert.Equal(t, 1, dutyTypes[1].MinInterval())

	assert.Equal(t, []string{"Patrol"}, cfg.ToPermissions()["Bravo"])

	policy := cfg.ToRankPolicy()
	assert.True(t, policy.IsPrivileged("gate"))
	assert.False(t, policy.IsPrivileged("Patrol"))
	assert.True(t, policy.IsOfficer("Major"))
	assert.False(t, policy.IsOfficer("Lieutenant"))

	assert.Equal(t, allocator.LeaveSick, cfg.ToAbsenceCodes()["Б"])

	norms := cfg.ToMonthlyNorms()
	assert.Equal(t, 168.0, norms.NormFor(allocator.MonthKey{Year: 2024, Month: time.March}))
	assert.Equal(t, 150.0, norms.NormFor(allocator.MonthKey{Year: 2024, Month: time.April}))

	assert.Equal(t, 140.0, cfg.BaseHours())
}

func TestLoadFromPath_MinimalConfigDefaults(t *testing.T) {
	t.Setenv(DSNEnvVar, "")
	configPath := filepath.Join(t.TempDir(), "minimal_config.yaml")

	content := `
storage:
  driver: sqlite
  dsn: roster.db
staffWorkbook: staff.xlsx
dutyTypes:
  - name: Gate
    hours: 24
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	cfg, err := LoadFromPath(configPath)
	require.NoError(t, err)

	assert.Nil(t, cfg.ToPermissions())
	assert.Nil(t, cfg.ToAbsenceCodes())
	assert.Equal(t, allocator.DefaultBaseHours, cfg.BaseHours())
	assert.Equal(t, allocator.DefaultMonthlyNorm, cfg.ToMonthlyNorms().NormFor(allocator.MonthKey{Year: 2024, Month: time.May}))

	policy := cfg.ToRankPolicy()
	assert.Equal(t, allocator.DefaultRankScale, policy.Scale)
	assert.False(t, policy.IsPrivileged("Gate"))
}

func TestLoadFromPath_DSNFromEnvironment(t *testing.T) {
	t.Setenv(DSNEnvVar, "postgres://env/roster")
	configPath := filepath.Join(t.TempDir(), "env_config.yaml")

	content := `
storage:
  driver: postgres
staffWorkbook: staff.xlsx
dutyTypes:
  - name: Gate
    hours: 24
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	cfg, err := LoadFromPath(configPath)
	require.NoError(t, err)
	assert.Equal(t, "postgres://env/roster", cfg.Storage.DSN)
}

func TestLoadFromPath_MissingDSN(t *testing.T) {
	t.Setenv(DSNEnvVar, "")
	configPath := filepath.Join(t.TempDir(), "no_dsn.yaml")

	content := `
storage:
  driver: postgres
staffWorkbook: staff.xlsx
dutyTypes:
  - name: Gate
    hours: 24
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	_, err := LoadFromPath(configPath)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoadFromPath_InvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "invalid_yaml.yaml")

	invalidYAML := `
storage:
  driver: sqlite
    invalid indentation
staffWorkbook: staff.xlsx
`
	require.NoError(t, os.WriteFile(configPath, []byte(invalidYAML), 0644))

	_, err := LoadFromPath(configPath)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoadFromPath_FileNotFound(t *testing.T) {
	_, err := LoadFromPath("/nonexistent/path/config.yaml")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadWithEnv_CurrentDirectory(t *testing.T) {
	t.Setenv(DSNEnvVar, "")
	tmpDir := t.TempDir()
	origWD, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(tmpDir))
	t.Cleanup(func() { _ = os.Chdir(origWD) })

	content := `
storage:
  driver: sqlite
  dsn: test.db
staffWorkbook: staff.xlsx
dutyTypes:
  - name: Gate
    hours: 24
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "duty_roster_config.test.yaml"), []byte(content), 0644))

	cfg, err := LoadWithEnv("test")
	require.NoError(t, err)
	assert.Equal(t, "test.db", cfg.Storage.DSN)

	_, err = LoadWithEnv("missing-env-name")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to find config file")
}
