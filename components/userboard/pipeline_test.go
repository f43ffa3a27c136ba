package userboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleUsers() []User {
	return []User{
		{Name: "Bulbasaur", Age: 14},
		{Name: "Venusaur", Age: 24},
		{Name: "Charizard", Age: 36},
		{Name: "charmander", Age: 24},
		{Name: "Eevee", Age: 3},
	}
}

func intPtr(v int) *int { return &v }

func TestFilterUsersByAgeBounds(t *testing.T) {
	users := []User{{Name: "Bulbasaur", Age: 14}, {Name: "Venusaur", Age: 24}, {Name: "Charizard", Age: 36}}
	got := FilterUsers(users, ViewControls{AgeMin: intPtr(20), AgeMax: intPtr(30)})
	assert.Equal(t, []User{{Name: "Venusaur", Age: 24}}, got)
}

func TestFilterUsersSearchIsCaseInsensitive(t *testing.T) {
	got := FilterUsers(sampleUsers(), ViewControls{SearchTerm: "CHAR"})
	require.Len(t, got, 2)
	assert.Equal(t, "Charizard", got[0].Name)
	assert.Equal(t, "charmander", got[1].Name)
}

func TestProcessUsersCountInvariant(t *testing.T) {
	users := sampleUsers()
	controls := []ViewControls{
		DefaultViewControls(),
		{SortKey: SortAge, SortDirection: SortDesc},
		{SortKey: SortName, SortDirection: SortAsc},
		{SearchTerm: "saur"},
		{AgeMin: intPtr(10)},
		{AgeMax: intPtr(5), SortKey: SortAge},
		{SearchTerm: "zzz"},
	}
	for _, c := range controls {
		got := ProcessUsers(users, c)
		assert.LessOrEqual(t, len(got), len(users))
		if c.SearchTerm == "" && c.AgeMin == nil && c.AgeMax == nil {
			assert.Len(t, got, len(users))
		}
	}
}

func TestSortUsersIsStableAndReversible(t *testing.T) {
	users := []User{
		{Name: "a", Age: 30},
		{Name: "b", Age: 10},
		{Name: "c", Age: 20},
	}
	asc := SortUsers(users, SortAge, SortAsc)
	desc := SortUsers(users, SortAge, SortDesc)
	require.Len(t, desc, len(asc))
	for i := range asc {
		assert.Equal(t, asc[i], desc[len(desc)-1-i])
	}

	ties := sampleUsers()
	sorted := SortUsers(ties, SortAge, SortAsc)
	assert.Equal(t, []string{"Eevee", "Bulbasaur", "Venusaur", "charmander", "Charizard"}, names(sorted))
	sorted = SortUsers(ties, SortAge, SortDesc)
	assert.Equal(t, []string{"Charizard", "Venusaur", "charmander", "Bulbasaur", "Eevee"}, names(sorted))
}

func TestSortUsersDoesNotMutateInput(t *testing.T) {
	users := sampleUsers()
	_ = SortUsers(users, SortName, SortDesc)
	assert.Equal(t, sampleUsers(), users)
	assert.Equal(t, names(users), names(SortUsers(users, SortNone, SortDesc)))
}

func TestToggleSort(t *testing.T) {
	c := DefaultViewControls()
	c = ToggleSort(c, SortAge)
	assert.Equal(t, SortAge, c.SortKey)
	assert.Equal(t, SortAsc, c.SortDirection)
	c = ToggleSort(c, SortAge)
	assert.Equal(t, SortDesc, c.SortDirection)
	c = ToggleSort(c, SortAge)
	assert.Equal(t, SortAsc, c.SortDirection)
	c = ToggleSort(ToggleSort(c, SortAge), SortName)
	assert.Equal(t, SortName, c.SortKey)
	assert.Equal(t, SortAsc, c.SortDirection)
}

func TestRankStats(t *testing.T) {
	view := RankStats(AgeGroupStats{"A": 10, "B": 30, "C": 20}, false)
	assert.Equal(t, []string{"B", "C", "A"}, groups(view))
	assert.Equal(t, 3, view.Total)
	assert.False(t, view.CanExpand)
	assert.Equal(t, 30.0, view.MaxAvg)
	assert.InDelta(t, 100.0, view.Entries[0].Width, 1e-9)
	assert.InDelta(t, 33.333, view.Entries[2].Width, 1e-3)
}

func TestRankStatsTopFiveAndExpansion(t *testing.T) {
	stats := AgeGroupStats{"A": 1, "B": 2, "C": 3, "D": 4, "E": 5, "F": 6, "G": 6}
	collapsed := RankStats(stats, false)
	assert.Equal(t, []string{"F", "G", "E", "D", "C"}, groups(collapsed))
	assert.True(t, collapsed.CanExpand)
	assert.Equal(t, 7, collapsed.Total)

	expanded := RankStats(stats, true)
	assert.Len(t, expanded.Entries, 7)
	assert.True(t, expanded.Expanded)
}

func TestRankStatsZeroMax(t *testing.T) {
	view := RankStats(AgeGroupStats{"A": 0, "B": 0}, false)
	for _, e := range view.Entries {
		assert.Zero(t, e.Width)
	}
	assert.Empty(t, RankStats(nil, false).Entries)
	assert.Zero(t, BarWidth(5, 0))
	assert.Zero(t, BarWidth(5, -1))
}

func names(users []User) []string {
	out := make([]string, len(users))
	for i, u := range users {
		out[i] = u.Name
	}
	return out
}

func groups(view StatsView) []string {
	out := make([]string, len(view.Entries))
	for i, e := range view.Entries {
		out[i] = e.Group
	}
	return out
}
