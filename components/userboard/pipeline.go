package userboard

import (
	"cmp"
	"slices"
	"strings"
)

// DefaultStatsLimit is how many ranked groups are shown while collapsed.
const DefaultStatsLimit = 5

// FilterUsers applies the search term and age bounds, in that order.
func FilterUsers(users []User, controls ViewControls) []User {
	term := strings.ToLower(controls.SearchTerm)
	out := make([]User, 0, len(users))
	for _, u := range users {
		if term != "" && !strings.Contains(strings.ToLower(u.Name), term) {
			continue
		}
		if controls.AgeMin != nil && u.Age < *controls.AgeMin {
			continue
		}
		if controls.AgeMax != nil && u.Age > *controls.AgeMax {
			continue
		}
		out = append(out, u)
	}
	return out
}

// SortUsers returns a stably sorted copy. Equal keys keep their input order.
func SortUsers(users []User, key SortKey, direction SortDirection) []User {
	out := slices.Clone(users)
	if key == SortNone {
		return out
	}
	compare := func(a, b User) int {
		if key == SortAge {
			return cmp.Compare(a.Age, b.Age)
		}
		return cmp.Compare(a.Name, b.Name)
	}
	slices.SortStableFunc(out, func(a, b User) int {
		if direction == SortDesc {
			return compare(b, a)
		}
		return compare(a, b)
	})
	return out
}

// ProcessUsers runs the filter stage then the sort stage.
func ProcessUsers(users []User, controls ViewControls) []User {
	return SortUsers(FilterUsers(users, controls), controls.SortKey, controls.SortDirection)
}

// ToggleSort returns the controls after a click on the given column header.
func ToggleSort(controls ViewControls, key SortKey) ViewControls {
	next := controls.clone()
	direction := SortAsc
	if controls.SortKey == key && controls.SortDirection == SortAsc {
		direction = SortDesc
	}
	next.SortKey = key
	next.SortDirection = direction
	return next
}

// StatsEntry is one ranked group with its proportional bar width in percent.
type StatsEntry struct {
	Group string  `json:"group"`
	Avg   float64 `json:"avg"`
	Width float64 `json:"width"`
}

// StatsView is the ranked subset handed to the chart.
type StatsView struct {
	Entries   []StatsEntry `json:"entries"`
	MaxAvg    float64      `json:"max_avg"`
	Total     int          `json:"total"`
	Expanded  bool         `json:"expanded"`
	CanExpand bool         `json:"can_expand"`
}

// RankStats orders groups by average age descending and keeps the top five
// unless expanded. Ties are ordered by group code.
func RankStats(stats AgeGroupStats, expanded bool) StatsView {
	ranked := make([]StatsEntry, 0, len(stats))
	for group, avg := range stats {
		ranked = append(ranked, StatsEntry{Group: group, Avg: avg})
	}
	slices.SortFunc(ranked, func(a, b StatsEntry) int {
		if c := cmp.Compare(b.Avg, a.Avg); c != 0 {
			return c
		}
		return cmp.Compare(a.Group, b.Group)
	})

	view := StatsView{
		Total:     len(ranked),
		Expanded:  expanded,
		CanExpand: len(ranked) > DefaultStatsLimit,
	}
	if len(ranked) > 0 {
		view.MaxAvg = ranked[0].Avg
	}
	if !expanded && len(ranked) > DefaultStatsLimit {
		ranked = ranked[:DefaultStatsLimit]
	}
	for i := range ranked {
		ranked[i].Width = BarWidth(ranked[i].Avg, view.MaxAvg)
	}
	view.Entries = ranked
	return view
}

// BarWidth scales avg against maxAvg as a percentage. A non-positive maxAvg yields 0.
func BarWidth(avg, maxAvg float64) float64 {
	if maxAvg <= 0 {
		return 0
	}
	return avg / maxAvg * 100
}
