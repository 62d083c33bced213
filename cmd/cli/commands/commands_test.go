package commands

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/duty-roster/pkg/core/allocator"
)

func TestParseCommandLine(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		expected []string
		wantErr  bool
	}{
		{"plain words", "buildUnits 2024-04-01 2024-04-30", []string{"buildUnits", "2024-04-01", "2024-04-30"}, false},
		{"extra spaces", "  reconcile   r1 ", []string{"reconcile", "r1"}, false},
		{"double quotes", `auditRoster --file "my roster.xlsx"`, []string{"auditRoster", "--file", "my roster.xlsx"}, false},
		{"single quotes", `exportRoster --dir 'out dir'`, []string{"exportRoster", "--dir", "out dir"}, false},
		{"empty quotes", `reconcile ""`, []string{"reconcile", ""}, false},
		{"unclosed quote", `auditRoster --file "open`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args, err := parseCommandLine(tt.line)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, args)
		})
	}
}

func TestParseDateArg(t *testing.T) {
	want := time.Date(2024, 4, 5, 0, 0, 0, 0, time.UTC)

	got, err := parseDateArg("2024-04-05")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	got, err = parseDateArg("05.04.2024")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = parseDateArg("April 5")
	assert.Error(t, err)
}

func TestDeltaColor(t *testing.T) {
	green, yellow, red := "GREEN", "YELLOW", "RED"

	tests := []struct {
		name      string
		delta     float64
		tolerance float64
		expected  string
	}{
		{"on target", 0, 8, green},
		{"within tolerance below", -8, 8, green},
		{"within tolerance above", 8, 8, green},
		{"under", -9, 8, red},
		{"over", 9, 8, yellow},
		{"zero tolerance under", -1, 0, red},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, deltaColor(tt.delta, tt.tolerance, green, yellow, red))
		})
	}
}

func TestPrintGrid(t *testing.T) {
	grid := allocator.NewRosterGrid([]string{"Gate", "Patrol"}, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC))
	grid.Rows[0].Cells = []string{"a1", "b1"}

	var buf bytes.Buffer
	printGrid(&buf, grid, func(s string) string {
		if s == "a1" {
			return "Sergeant Smith"
		}
		return s
	})

	out := buf.String()
	assert.Contains(t, out, "Gate")
	assert.Contains(t, out, "01.04.2024")
	assert.Contains(t, out, "Sergeant Smith")
	assert.Contains(t, out, "b1")
	assert.Contains(t, out, allocator.EmptyMarker)
}

func TestRunLine(t *testing.T) {
	var got []string
	commands := map[string]*cobra.Command{
		"reconcile": {
			Use:  "reconcile [rosterID]",
			Args: cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				got = args
				return nil
			},
		},
		"fail": {
			Use: "fail",
			RunE: func(cmd *cobra.Command, args []string) error {
				return errors.New("boom")
			},
		},
	}
	logger := zap.NewNop()

	var buf bytes.Buffer
	assert.False(t, runLine(&buf, logger, commands, "reconcile r1"))
	assert.Equal(t, []string{"r1"}, got)

	buf.Reset()
	assert.False(t, runLine(&buf, logger, commands, "reconcile r1 r2"))
	assert.Contains(t, buf.String(), "❌ Error")

	buf.Reset()
	assert.False(t, runLine(&buf, logger, commands, "fail"))
	assert.Contains(t, buf.String(), "boom")

	buf.Reset()
	assert.False(t, runLine(&buf, logger, commands, "unknown"))
	assert.Contains(t, buf.String(), "Unknown command: unknown")

	buf.Reset()
	assert.False(t, runLine(&buf, logger, commands, "help"))
	assert.Contains(t, buf.String(), "reconcile [rosterID]")

	assert.False(t, runLine(&buf, logger, commands, "   "))
	assert.True(t, runLine(&buf, logger, commands, "exit"))
	assert.True(t, runLine(&buf, logger, commands, "quit"))
}

func TestRunLine_ResetsFlags(t *testing.T) {
	var dryRuns []bool
	cmd := &cobra.Command{
		Use: "buildUnits",
		RunE: func(cmd *cobra.Command, args []string) error {
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			dryRuns = append(dryRuns, dryRun)
			return nil
		},
	}
	cmd.Flags().Bool("dry-run", false, "")
	commands := map[string]*cobra.Command{"buildUnits": cmd}

	var buf bytes.Buffer
	runLine(&buf, zap.NewNop(), commands, "buildUnits --dry-run")
	runLine(&buf, zap.NewNop(), commands, "buildUnits")

	assert.Equal(t, []bool{true, false}, dryRuns)
}
