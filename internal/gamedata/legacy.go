package gamedata

// ChartsFromLegacy builds tier slots from the raw positional lists. A fifth
// rating is a placeholder and is dropped; a trailing rating of exactly zero
// marks an uncharted tier, which is left unset together with its charter.
func ChartsFromLegacy(difficulty []float64, charter []string) [TierCount]Chart {
	ratings := difficulty
	if len(ratings) > TierCount {
		ratings = ratings[:TierCount]
	}
	if n := len(ratings); n > 0 && ratings[n-1] == 0 {
		ratings = ratings[:n-1]
	}

	var charts [TierCount]Chart
	for i := range charts {
		charts[i].Tier = Tiers[i]
	}
	for i, rating := range ratings {
		charts[i].Rating = rating
		charts[i].HasRating = true
		if i < len(charter) {
			charts[i].Charter = charter[i]
			charts[i].HasCharter = true
		}
	}
	return charts
}

// StableID strips the two-character version suffix from a raw song id.
func StableID(raw string) string {
	runes := []rune(raw)
	if len(runes) < 2 {
		return ""
	}
	return string(runes[:len(runes)-2])
}
