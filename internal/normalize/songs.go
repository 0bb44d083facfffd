package normalize

import (
	"slices"
	"strconv"

	"phiextract/internal/gamedata"
)

// DifficultyColumns is the width of a difficulty row: id plus four tiers.
const DifficultyColumns = 1 + gamedata.TierCount

// InfoFixedColumns precede the charter columns of an info row.
const InfoFixedColumns = 4

// SongRows holds both projections of the exported songs.
type SongRows struct {
	// Songs are the exported songs in category then list order.
	Songs []gamedata.Song
	// Difficulty rows are (id, EZ, HD, IN, AT).
	Difficulty [][]string
	// Info rows are (id, title, composer, illustrator, charter1..charterK).
	Info [][]string
	// CharterColumns is K, the largest charter count among exported songs.
	CharterColumns int
}

// FormatRating renders a rating with exactly one fractional digit, rounding
// the exact binary value half to even.
func FormatRating(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// Songs projects every song outside the excluded categories into difficulty
// and info rows. Info rows are padded to a common width, never truncated.
func Songs(info *gamedata.GameInformation, excluded []string) SongRows {
	var out SongRows
	if info == nil {
		return out
	}
	for _, category := range info.Categories {
		if slices.Contains(excluded, category.Name) {
			continue
		}
		for _, song := range category.Songs {
			out.Songs = append(out.Songs, song)
			if n := len(song.Charters()); n > out.CharterColumns {
				out.CharterColumns = n
			}
		}
	}

	for _, song := range out.Songs {
		row := make([]string, DifficultyColumns)
		row[0] = song.ID
		for i, rating := range song.Difficulties() {
			row[1+i] = FormatRating(rating)
		}
		out.Difficulty = append(out.Difficulty, row)

		full := make([]string, InfoFixedColumns+out.CharterColumns)
		full[0] = song.ID
		full[1] = song.Title
		full[2] = song.Composer
		full[3] = song.Illustrator
		copy(full[InfoFixedColumns:], song.Charters())
		out.Info = append(out.Info, full)
	}
	return out
}
