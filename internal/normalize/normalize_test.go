package normalize

import (
	"reflect"
	"testing"

	"phiextract/internal/gamedata"
)

func song(raw, title string, ratings []float64, charters []string) gamedata.Song {
	return gamedata.Song{
		RawID:  raw,
		ID:     gamedata.StableID(raw),
		Title:  title,
		Charts: gamedata.ChartsFromLegacy(ratings, charters),
	}
}

func TestFormatRating(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{7, "7.0"},
		{7.1, "7.1"},
		{7.25, "7.2"},
		{7.75, "7.8"},
		{0.05, "0.1"},
		{15.99, "16.0"},
		{float64(float32(9.8)), "9.8"},
	}
	for _, tc := range cases {
		if got := FormatRating(tc.in); got != tc.want {
			t.Fatalf("FormatRating(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSongsBuildsPaddedRows(t *testing.T) {
	info := &gamedata.GameInformation{Categories: []gamedata.Category{
		{Name: "mainSongs", Songs: []gamedata.Song{
			song("song01xx", "First", []float64{1.0, 3.5, 7.2, 9.8, 0.0}, []string{"a", "b", "c", "d"}),
			song("song02xx", "Second", []float64{2, 0}, []string{"e", "f"}),
		}},
		{Name: "otherSongs", Songs: []gamedata.Song{
			song("hiddenxx", "Hidden", []float64{1, 2, 3}, []string{"x", "y", "z"}),
		}},
		{Name: "extraSongs", Songs: []gamedata.Song{
			song("song03xx", "Third", nil, nil),
		}},
	}}

	rows := Songs(info, []string{"otherSongs"})
	wantDiff := [][]string{
		{"song01", "1.0", "3.5", "7.2", "9.8"},
		{"song02", "2.0", "", "", ""},
		{"song03", "", "", "", ""},
	}
	if !reflect.DeepEqual(rows.Difficulty, wantDiff) {
		t.Fatalf("difficulty rows = %v, want %v", rows.Difficulty, wantDiff)
	}
	if rows.CharterColumns != 4 {
		t.Fatalf("CharterColumns = %d, want 4", rows.CharterColumns)
	}
	wantInfo := [][]string{
		{"song01", "First", "", "", "a", "b", "c", "d"},
		{"song02", "Second", "", "", "e", "", "", ""},
		{"song03", "Third", "", "", "", "", "", ""},
	}
	if !reflect.DeepEqual(rows.Info, wantInfo) {
		t.Fatalf("info rows = %v, want %v", rows.Info, wantInfo)
	}
	for _, row := range rows.Info {
		if len(row) != InfoFixedColumns+rows.CharterColumns {
			t.Fatalf("row %v has %d columns", row, len(row))
		}
	}
	if len(rows.Songs) != 3 {
		t.Fatalf("exported songs = %d, want 3", len(rows.Songs))
	}
}

func TestSongsWithoutExclusionsKeepsEverything(t *testing.T) {
	info := &gamedata.GameInformation{Categories: []gamedata.Category{
		{Name: "otherSongs", Songs: []gamedata.Song{song("abcxx", "", []float64{1}, []string{"a"})}},
	}}
	rows := Songs(info, nil)
	if len(rows.Difficulty) != 1 || rows.Difficulty[0][0] != "abc" {
		t.Fatalf("difficulty rows = %v", rows.Difficulty)
	}
	if empty := Songs(nil, nil); len(empty.Difficulty) != 0 || empty.CharterColumns != 0 {
		t.Fatalf("nil input produced %+v", empty)
	}
}

func TestKeysSuppressesSinglesFromIllustrations(t *testing.T) {
	keys := []gamedata.Key{
		{Name: "A", Kind: gamedata.KindIllustration},
		{Name: "A", Kind: gamedata.KindSingle},
		{Name: "B", Kind: gamedata.KindIllustration},
	}
	single, illustration := Keys(keys, []string{"Introduction"})
	if !reflect.DeepEqual(single, []string{"A"}) {
		t.Fatalf("single = %v", single)
	}
	if !reflect.DeepEqual(illustration, []string{"B"}) {
		t.Fatalf("illustration = %v", illustration)
	}
}

func TestKeysOrderingAndExclusions(t *testing.T) {
	keys := []gamedata.Key{
		{Name: "Introduction", Kind: gamedata.KindIllustration},
		{Name: "C", Kind: gamedata.KindIllustration},
		{Name: "S", Kind: gamedata.KindSingle},
		{Name: "B", Kind: gamedata.KindIllustration},
		{Name: "C", Kind: gamedata.KindIllustration},
		{Name: "S", Kind: gamedata.KindSingle},
		{Name: "Z", Kind: gamedata.KeyKind(1)},
	}
	single, illustration := Keys(keys, []string{"Introduction"})
	if !reflect.DeepEqual(single, []string{"S"}) {
		t.Fatalf("single = %v", single)
	}
	if !reflect.DeepEqual(illustration, []string{"C", "B"}) {
		t.Fatalf("illustration = %v", illustration)
	}

	single, illustration = Keys(nil, nil)
	if single == nil || illustration == nil || len(single)+len(illustration) != 0 {
		t.Fatalf("expected empty non-nil lists, got %v %v", single, illustration)
	}
}

func TestCollectionsMergeKeepsFirstTitleLastIndex(t *testing.T) {
	c := &gamedata.Collections{Items: []gamedata.CollectionItem{
		{Key: "1", Title: "X", SubIndex: 0},
		{Key: "2", Title: "Other", SubIndex: 1},
		{Key: "1", Title: "Y", SubIndex: 3},
	}}
	got := Collections(c)
	want := []CollectionEntry{
		{Key: "1", Title: "X", SubIndex: 3},
		{Key: "2", Title: "Other", SubIndex: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Collections() = %+v, want %+v", got, want)
	}
	if len(Collections(nil)) != 0 {
		t.Fatal("nil collections should yield no entries")
	}
}

func TestAvatarsStripPrefix(t *testing.T) {
	c := &gamedata.Collections{Avatars: []gamedata.Avatar{
		{Name: "Cat", AddressableKey: "avatar.cat_01"},
		{Name: "Short", AddressableKey: "avatar"},
		{Name: "Wide", AddressableKey: "头像头像头像头像图"},
	}}
	got := Avatars(c)
	want := []AvatarEntry{
		{Name: "Cat", Suffix: "cat_01"},
		{Name: "Short", Suffix: ""},
		{Name: "Wide", Suffix: "像图"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Avatars() = %+v, want %+v", got, want)
	}
}

func TestTipsUsesFirstGroup(t *testing.T) {
	got := Tips(&gamedata.Tips{Groups: [][]string{{"a", "b"}, {"c"}}})
	if !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("Tips() = %v", got)
	}
	for _, in := range []*gamedata.Tips{nil, {}, {Groups: [][]string{nil}}} {
		if got := Tips(in); got == nil || len(got) != 0 {
			t.Fatalf("Tips(%v) = %v, want empty", in, got)
		}
	}
}
