package allocator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedLedger(t *testing.T) {
	members := []StaffMember{
		{ID: "s1", BaseHours: 160},
		{ID: "s2", BaseHours: 120},
		{ID: "s3"},
	}

	ledger := SeedLedger(members, map[string]float64{"s1": 10, "s3": -5})

	assert.Equal(t, -150.0, ledger.Balance("s1"))
	assert.Equal(t, -120.0, ledger.Balance("s2"))
	assert.Equal(t, -5.0, ledger.Balance("s3"))
	assert.Equal(t, 0.0, ledger.Balance("unknown"))
}

func TestHourLedger_Credit(t *testing.T) {
	ledger := NewHourLedger()
	ledger.Seed("s1", 0, 24)

	ledger.Credit("s1", 12)
	ledger.Credit("s1", 24)
	ledger.Credit("s2", 8)

	assert.Equal(t, 12.0, ledger.Balance("s1"))
	assert.Equal(t, 8.0, ledger.Balance("s2"))
}

func TestHourLedger_LowestPrefersFirstOnTie(t *testing.T) {
	ledger := NewHourLedger()
	ledger.Seed("s1", 0, 0)
	ledger.Seed("s2", 0, 10)
	ledger.Seed("s3", 0, 10)

	id, ok := ledger.Lowest([]string{"s1", "s2", "s3"})
	require.True(t, ok)
	assert.Equal(t, "s2", id)

	id, ok = ledger.Lowest([]string{"s3", "s2"})
	require.True(t, ok)
	assert.Equal(t, "s3", id)

	_, ok = ledger.Lowest(nil)
	assert.False(t, ok)
}

func TestHourLedger_EntriesKeepFirstSeenOrder(t *testing.T) {
	ledger := NewHourLedger()
	ledger.Credit("b", 1)
	ledger.Seed("a", 5, 0)
	ledger.Credit("b", 2)

	assert.Equal(t, []LedgerEntry{
		{StaffID: "b", Balance: 3},
		{StaffID: "a", Balance: 5},
	}, ledger.Entries())
}
