package allocator

import "strings"

// DefaultRankScale lists ranks from lowest to highest
var DefaultRankScale = []string{
	"Private",
	"Corporal",
	"Sergeant",
	"Staff Sergeant",
	"Warrant Officer",
	"Second Lieutenant",
	"Lieutenant",
	"Senior Lieutenant",
	"Captain",
	"Major",
	"Lieutenant Colonel",
	"Colonel",
}

// DefaultOfficerRank is the lowest rank that may serve privileged posts
const DefaultOfficerRank = "Second Lieutenant"

// RankPolicy decides which ranks may serve privileged posts
type RankPolicy struct {
	// Scale is ordered from lowest to highest rank
	Scale []string

	// OfficerRank is the threshold. Ranks at or above it count as officers.
	OfficerRank string

	// Privileged marks posts restricted to officers. Nil means no post is privileged.
	Privileged func(post string) bool
}

// DefaultRankPolicy returns the default scale with no privileged posts
func DefaultRankPolicy() RankPolicy {
	return RankPolicy{Scale: DefaultRankScale, OfficerRank: DefaultOfficerRank}
}

// PrivilegedPosts returns a predicate matching the named posts
func PrivilegedPosts(posts ...string) func(string) bool {
	set := make(map[string]bool, len(posts))
	for _, p := range posts {
		set[normalizeLabel(p)] = true
	}
	return func(post string) bool {
		return set[normalizeLabel(post)]
	}
}

// Level returns the position of rank on the scale, or -1 if it is not on it
func (p RankPolicy) Level(rank string) int {
	rank = normalizeLabel(rank)
	for i, r := range p.Scale {
		if normalizeLabel(r) == rank {
			return i
		}
	}
	return -1
}

// IsOfficer reports whether rank is at or above the officer threshold.
// Unknown ranks are never officers.
func (p RankPolicy) IsOfficer(rank string) bool {
	level := p.Level(rank)
	threshold := p.Level(p.OfficerRank)
	return level >= 0 && threshold >= 0 && level >= threshold
}

// IsPrivileged reports whether post is restricted to officers
func (p RankPolicy) IsPrivileged(post string) bool {
	return p.Privileged != nil && p.Privileged(post)
}

func normalizeLabel(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
