// README: Distance tiers for display; never used in fee computation.
package zone

// Zone is a named distance bucket. MaxDistanceKm is zero for the open-ended last tier.
type Zone struct {
	Number        int     `json:"number"`
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	MaxDistanceKm float64 `json:"max_distance_km,omitempty"`
}

// Zones are ordered by MaxDistanceKm; each upper bound is inclusive.
var Zones = []Zone{
	{Number: 1, Name: "Zone 1", Description: "central area, fast delivery", MaxDistanceKm: 3},
	{Number: 2, Name: "Zone 2", Description: "urban area, standard delivery", MaxDistanceKm: 7},
	{Number: 3, Name: "Zone 3", Description: "metro area, extended delivery", MaxDistanceKm: 15},
}

var outer = Zone{Number: 4, Name: "Zone 4", Description: "rural area, special delivery"}

func Classify(distanceKm float64) Zone {
	for _, z := range Zones {
		if distanceKm <= z.MaxDistanceKm {
			return z
		}
	}
	return outer
}
