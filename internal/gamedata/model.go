package gamedata

import "fmt"

// Tier is a chart difficulty level.
type Tier int

const (
	EZ Tier = iota
	HD
	IN
	AT
)

// TierCount is the number of difficulty tiers a song can have.
const TierCount = 4

// Tiers lists the tiers in column order.
var Tiers = [TierCount]Tier{EZ, HD, IN, AT}

func (t Tier) String() string {
	switch t {
	case EZ:
		return "EZ"
	case HD:
		return "HD"
	case IN:
		return "IN"
	case AT:
		return "AT"
	default:
		return fmt.Sprintf("Tier(%d)", int(t))
	}
}

// Chart is one tier of a song. A tier without a rating is unset.
type Chart struct {
	Tier       Tier
	Rating     float64
	HasRating  bool
	Charter    string
	HasCharter bool
}

// Song is a typed song entry.
type Song struct {
	Category    string
	RawID       string
	ID          string
	Title       string
	Composer    string
	Illustrator string
	Charts      [TierCount]Chart
}

// Difficulties returns the ratings of the populated tiers in tier order.
func (s Song) Difficulties() []float64 {
	out := make([]float64, 0, TierCount)
	for _, c := range s.Charts {
		if c.HasRating {
			out = append(out, c.Rating)
		}
	}
	return out
}

// Charters returns the charter of each populated tier, aligned with
// Difficulties. A populated tier without a credited charter yields "".
func (s Song) Charters() []string {
	out := make([]string, 0, TierCount)
	for _, c := range s.Charts {
		if c.HasRating {
			out = append(out, c.Charter)
		}
	}
	return out
}

// Category is a named song list.
type Category struct {
	Name  string
	Songs []Song
}

// KeyKind classifies an unlock key.
type KeyKind int

const (
	KindSingle       KeyKind = 0
	KindIllustration KeyKind = 2
)

// Key is an unlock key.
type Key struct {
	Name string
	Kind KeyKind
}

// GameInformation holds the song table and unlock keys.
type GameInformation struct {
	Categories []Category
	Keys       []Key
}

// CollectionItem is one raw collection entry. Keys may repeat.
type CollectionItem struct {
	Key      string
	Title    string
	SubIndex int64
}

// Avatar is a selectable avatar.
type Avatar struct {
	Name           string
	AddressableKey string
}

// Collections holds collection items and avatars.
type Collections struct {
	Items   []CollectionItem
	Avatars []Avatar
}

// Tips holds the tip groups in source order.
type Tips struct {
	Groups [][]string
}
