package allocator

// UnitHeadcount is the number of active members in a unit
type UnitHeadcount struct {
	Unit  string
	Count int
}

// UnitAllocationRecord is a unit's share of the duty slots.
// Targets are soft and only used to rank units.
type UnitAllocationRecord struct {
	Unit      string
	Headcount int

	// Percent of all personnel
	Percent float64

	// TargetDuties is the real-valued number of slots the unit should cover
	TargetDuties float64
}

// AllocateUnits apportions totalSlots across units in proportion to headcount.
// With no personnel at all every share is zero.
func AllocateUnits(counts []UnitHeadcount, totalSlots int) []UnitAllocationRecord {
	total := 0
	for _, c := range counts {
		total += c.Count
	}

	records := make([]UnitAllocationRecord, len(counts))
	for i, c := range counts {
		records[i] = UnitAllocationRecord{Unit: c.Unit, Headcount: c.Count}
		if total == 0 {
			continue
		}
		share := float64(c.Count) / float64(total)
		records[i].Percent = share * 100
		records[i].TargetDuties = share * float64(totalSlots)
	}

	return records
}
