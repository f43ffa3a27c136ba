package usersapi

import "github.com/goliatone/go-userboard/components/userboard"

// Dataset is a users list with its precomputed group stats.
type Dataset struct {
	Users []userboard.User
	Stats userboard.AgeGroupStats
}

// Clone returns an independent copy.
func (d Dataset) Clone() Dataset {
	return Dataset{
		Users: append([]userboard.User{}, d.Users...),
		Stats: d.Stats.Clone(),
	}
}

// DemoFixtures returns the fixed dataset served while the backend is unreachable.
// The stats are fixed values and are not derived from the users.
func DemoFixtures() Dataset {
	return Dataset{
		Users: []userboard.User{
			{Name: "Bulbasaur", Age: 14},
			{Name: "Ivysaur", Age: 13},
			{Name: "Venusaur", Age: 24},
			{Name: "Charmander", Age: 22},
			{Name: "Charmeleon", Age: 13},
			{Name: "Charizard", Age: 36},
			{Name: "Squirtle", Age: 10},
			{Name: "Wartortle", Age: 18},
			{Name: "Blastoise", Age: 45},
			{Name: "Pikachu", Age: 5},
			{Name: "Raichu", Age: 28},
			{Name: "Mewtwo", Age: 100},
			{Name: "Snorlax", Age: 35},
			{Name: "Gengar", Age: 55},
			{Name: "Eevee", Age: 3},
			{Name: "Dragonite", Age: 40},
			{Name: "Mew", Age: 150},
			{Name: "Celebi", Age: 99},
		},
		Stats: userboard.AgeGroupStats{
			"B": 24.3,
			"I": 13.0,
			"V": 24.0,
			"C": 23.6,
			"S": 22.5,
			"W": 18.0,
			"P": 5.0,
			"R": 28.0,
			"M": 100.0,
			"G": 55.0,
			"E": 3.0,
			"D": 40.0,
			"X": 99.0,
			"Y": 12.0,
			"Z": 88.0,
		},
	}
}
