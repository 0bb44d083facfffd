package normalize

import (
	"slices"

	"phiextract/internal/gamedata"
)

// Keys splits unlock keys into single and illustration names. Both lists
// keep first-encounter order without duplicates. An illustration whose name
// is excluded, or is a single anywhere in the key list, is left out.
func Keys(keys []gamedata.Key, excluded []string) (single, illustration []string) {
	singles := make(map[string]struct{})
	single = []string{}
	for _, k := range keys {
		if k.Kind != gamedata.KindSingle {
			continue
		}
		if _, seen := singles[k.Name]; seen {
			continue
		}
		singles[k.Name] = struct{}{}
		single = append(single, k.Name)
	}

	illustration = []string{}
	seen := make(map[string]struct{})
	for _, k := range keys {
		if k.Kind != gamedata.KindIllustration {
			continue
		}
		if slices.Contains(excluded, k.Name) {
			continue
		}
		if _, ok := singles[k.Name]; ok {
			continue
		}
		if _, ok := seen[k.Name]; ok {
			continue
		}
		seen[k.Name] = struct{}{}
		illustration = append(illustration, k.Name)
	}
	return single, illustration
}
