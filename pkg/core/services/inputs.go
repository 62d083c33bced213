package services

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/duty-roster/internal/config"
	"github.com/jakechorley/duty-roster/pkg/calendar"
	"github.com/jakechorley/duty-roster/pkg/core/allocator"
	"github.com/jakechorley/duty-roster/pkg/workbook"
)

// Inputs is the reference data read from the staff and leave workbooks
type Inputs struct {
	Staff []workbook.StaffRecord
	Leave []allocator.LeaveRange
}

// Members returns the staff members in workbook order
func (in *Inputs) Members() []allocator.StaffMember {
	return workbook.Members(in.Staff)
}

// LoadInputs reads the staff workbook and, when configured, the leave workbook
func LoadInputs(cfg *config.Config, logger *zap.Logger) (*Inputs, error) {
	logger.Debug("Reading staff workbook", zap.String("path", cfg.StaffWorkbook))
	records, err := workbook.ReadStaffFile(cfg.StaffWorkbook, cfg.BaseHours())
	if err != nil {
		return nil, fmt.Errorf("failed to read staff workbook: %w", err)
	}

	inputs := &Inputs{Staff: records}

	if cfg.LeaveWorkbook != "" {
		logger.Debug("Reading leave workbook", zap.String("path", cfg.LeaveWorkbook))
		leave, err := workbook.ReadLeaveFile(cfg.LeaveWorkbook, inputs.Members())
		if err != nil {
			return nil, fmt.Errorf("failed to read leave workbook: %w", err)
		}
		inputs.Leave = leave
	}

	logger.Info("Loaded inputs",
		zap.Int("staff", len(inputs.Staff)),
		zap.Int("leave_ranges", len(inputs.Leave)))

	return inputs, nil
}

// newAllocator builds the engine snapshot for a roster covering [start, end]
func newAllocator(cfg *config.Config, inputs *Inputs, start, end time.Time) (*allocator.Allocator, error) {
	holidays, err := calendar.Resolve(calendar.Sources{
		Keys:    cfg.Holidays,
		Rules:   cfg.HolidayRules,
		ICSPath: cfg.HolidayCalendar,
	}, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve holidays: %w", err)
	}

	a, err := allocator.NewAllocator(allocator.Snapshot{
		Staff:        inputs.Members(),
		DutyTypes:    cfg.ToDutyTypes(),
		Leave:        inputs.Leave,
		Holidays:     holidays,
		Permissions:  cfg.ToPermissions(),
		Ranks:        cfg.ToRankPolicy(),
		AbsenceCodes: cfg.ToAbsenceCodes(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build allocator: %w", err)
	}
	return a, nil
}

// displayName renders staff IDs as "rank name" and leaves other cell values unchanged
func displayName(a *allocator.Allocator) func(string) string {
	return func(value string) string {
		if m, ok := a.Member(strings.TrimSpace(value)); ok {
			return m.DisplayName()
		}
		return value
	}
}
