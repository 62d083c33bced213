package allocator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocateUnits_ConservesSlots(t *testing.T) {
	tests := []struct {
		name   string
		counts []UnitHeadcount
		slots  int
	}{
		{"two units", []UnitHeadcount{{"A", 3}, {"B", 1}}, 10},
		{"uneven thirds", []UnitHeadcount{{"A", 1}, {"B", 1}, {"C", 1}}, 31},
		{"one empty unit", []UnitHeadcount{{"A", 7}, {"B", 0}, {"C", 5}}, 93},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := AllocateUnits(tt.counts, tt.slots)
			require.Len(t, records, len(tt.counts))

			sum, percent := 0.0, 0.0
			for _, r := range records {
				sum += r.TargetDuties
				percent += r.Percent
			}
			assert.InDelta(t, float64(tt.slots), sum, 1e-9)
			assert.InDelta(t, 100.0, percent, 1e-9)
		})
	}
}

func TestAllocateUnits_Shares(t *testing.T) {
	records := AllocateUnits([]UnitHeadcount{{"A", 3}, {"B", 1}}, 10)

	assert.Equal(t, "A", records[0].Unit)
	assert.Equal(t, 3, records[0].Headcount)
	assert.InDelta(t, 75.0, records[0].Percent, 1e-9)
	assert.InDelta(t, 7.5, records[0].TargetDuties, 1e-9)
	assert.InDelta(t, 25.0, records[1].Percent, 1e-9)
	assert.InDelta(t, 2.5, records[1].TargetDuties, 1e-9)
}

func TestAllocateUnits_NoPersonnel(t *testing.T) {
	records := AllocateUnits([]UnitHeadcount{{"A", 0}, {"B", 0}}, 10)

	for _, r := range records {
		assert.Zero(t, r.Percent)
		assert.Zero(t, r.TargetDuties)
	}
}
