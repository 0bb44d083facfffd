package gamedata

import (
	"fmt"
	"strconv"

	"golang.org/x/text/language"

	"phiextract/internal/assets"
)

// Title field names of the multi-language string, by language.
var titleFields = []struct {
	tag   language.Tag
	field string
}{
	{language.Chinese, "chinese"},
	{language.TraditionalChinese, "chineseTraditional"},
	{language.English, "english"},
	{language.Japanese, "japanese"},
	{language.Korean, "korean"},
}

var titleMatcher = func() language.Matcher {
	tags := make([]language.Tag, 0, len(titleFields))
	for _, tf := range titleFields {
		tags = append(tags, tf.tag)
	}
	return language.NewMatcher(tags)
}()

// TitleField maps a BCP 47 language tag to the title field holding that
// language. Unknown languages fall back to Chinese.
func TitleField(lang string) (string, error) {
	tag, err := language.Parse(lang)
	if err != nil {
		return "", fmt.Errorf("title language %q: %w", lang, err)
	}
	_, idx, _ := titleMatcher.Match(tag)
	return titleFields[idx].field, nil
}

// FromGameInformation converts a decoded GameInformation behaviour.
func FromGameInformation(f *assets.Fields) (*GameInformation, error) {
	songTable, err := requireFields(f, "song")
	if err != nil {
		return nil, err
	}
	info := &GameInformation{}
	for _, name := range songTable.Names() {
		raw, _ := songTable.Get(name)
		items, ok := raw.([]any)
		if !ok {
			return nil, fmt.Errorf("song.%s: expected a list, got %T", name, raw)
		}
		category := Category{Name: name}
		for i, item := range items {
			entry, ok := item.(*assets.Fields)
			if !ok {
				return nil, fmt.Errorf("song.%s[%d]: expected a structure, got %T", name, i, item)
			}
			category.Songs = append(category.Songs, songFrom(name, entry))
		}
		info.Categories = append(info.Categories, category)
	}

	keys, err := requireList(f, "keyStore")
	if err != nil {
		return nil, err
	}
	for i, item := range keys {
		entry, ok := item.(*assets.Fields)
		if !ok {
			return nil, fmt.Errorf("keyStore[%d]: expected a structure, got %T", i, item)
		}
		info.Keys = append(info.Keys, Key{
			Name: stringField(entry, "keyName"),
			Kind: KeyKind(intField(entry, "kindOfKey")),
		})
	}
	return info, nil
}

func songFrom(category string, f *assets.Fields) Song {
	raw := stringField(f, "songsId")
	var ratings []float64
	for _, v := range listField(f, "difficulty") {
		if n, ok := asFloat(v); ok {
			ratings = append(ratings, n)
		}
	}
	var charters []string
	for _, v := range listField(f, "charter") {
		s, _ := v.(string)
		charters = append(charters, s)
	}
	return Song{
		Category:    category,
		RawID:       raw,
		ID:          StableID(raw),
		Title:       stringField(f, "songsName"),
		Composer:    stringField(f, "composer"),
		Illustrator: stringField(f, "illustrator"),
		Charts:      ChartsFromLegacy(ratings, charters),
	}
}

// FromCollections converts a decoded collection control behaviour, reading
// titles from titleField of each multi-language title.
func FromCollections(f *assets.Fields, titleField string) (*Collections, error) {
	items, err := requireList(f, "collectionItems")
	if err != nil {
		return nil, err
	}
	out := &Collections{}
	for i, item := range items {
		entry, ok := item.(*assets.Fields)
		if !ok {
			return nil, fmt.Errorf("collectionItems[%d]: expected a structure, got %T", i, item)
		}
		var title string
		if raw, ok := entry.Get("multiLanguageTitle"); ok {
			if titles, ok := raw.(*assets.Fields); ok {
				title = stringField(titles, titleField)
			}
		}
		out.Items = append(out.Items, CollectionItem{
			Key:      scalarString(entry, "key"),
			Title:    title,
			SubIndex: intField(entry, "subIndex"),
		})
	}

	avatars, err := requireList(f, "avatars")
	if err != nil {
		return nil, err
	}
	for i, item := range avatars {
		entry, ok := item.(*assets.Fields)
		if !ok {
			return nil, fmt.Errorf("avatars[%d]: expected a structure, got %T", i, item)
		}
		out.Avatars = append(out.Avatars, Avatar{
			Name:           stringField(entry, "name"),
			AddressableKey: stringField(entry, "addressableKey"),
		})
	}
	return out, nil
}

// FromTips converts a decoded tips provider behaviour. A missing tips list
// yields no groups.
func FromTips(f *assets.Fields) (*Tips, error) {
	out := &Tips{}
	for i, item := range listField(f, "tips") {
		entry, ok := item.(*assets.Fields)
		if !ok {
			return nil, fmt.Errorf("tips[%d]: expected a structure, got %T", i, item)
		}
		var group []string
		for _, v := range listField(entry, "tips") {
			if s, ok := v.(string); ok {
				group = append(group, s)
			}
		}
		out.Groups = append(out.Groups, group)
	}
	return out, nil
}

func requireFields(f *assets.Fields, name string) (*assets.Fields, error) {
	raw, ok := f.Get(name)
	if !ok {
		return nil, fmt.Errorf("field %s missing", name)
	}
	out, ok := raw.(*assets.Fields)
	if !ok {
		return nil, fmt.Errorf("field %s: expected a structure, got %T", name, raw)
	}
	return out, nil
}

func requireList(f *assets.Fields, name string) ([]any, error) {
	raw, ok := f.Get(name)
	if !ok {
		return nil, fmt.Errorf("field %s missing", name)
	}
	out, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("field %s: expected a list, got %T", name, raw)
	}
	return out, nil
}

func listField(f *assets.Fields, name string) []any {
	raw, _ := f.Get(name)
	out, _ := raw.([]any)
	return out
}

func stringField(f *assets.Fields, name string) string {
	raw, _ := f.Get(name)
	s, _ := raw.(string)
	return s
}

func scalarString(f *assets.Fields, name string) string {
	raw, _ := f.Get(name)
	switch v := raw.(type) {
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	default:
		return ""
	}
}

func intField(f *assets.Fields, name string) int64 {
	raw, _ := f.Get(name)
	switch v := raw.(type) {
	case int64:
		return v
	case uint64:
		return int64(v)
	case bool:
		if v {
			return 1
		}
	}
	return 0
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}
