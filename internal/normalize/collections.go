package normalize

import "phiextract/internal/gamedata"

// addressablePrefixLen is the length of the shared addressable key prefix.
const addressablePrefixLen = 7

// CollectionEntry is a merged collection record.
type CollectionEntry struct {
	Key      string
	Title    string
	SubIndex int64
}

// AvatarEntry pairs an avatar name with its addressable key suffix.
type AvatarEntry struct {
	Name   string
	Suffix string
}

// Collections merges items sharing a key. The first occurrence fixes the
// title and position; later occurrences only update the sub index.
func Collections(c *gamedata.Collections) []CollectionEntry {
	out := []CollectionEntry{}
	if c == nil {
		return out
	}
	index := make(map[string]int, len(c.Items))
	for _, item := range c.Items {
		if i, ok := index[item.Key]; ok {
			out[i].SubIndex = item.SubIndex
			continue
		}
		index[item.Key] = len(out)
		out = append(out, CollectionEntry{Key: item.Key, Title: item.Title, SubIndex: item.SubIndex})
	}
	return out
}

// Avatars lists avatars in source order with the addressable key prefix
// removed.
func Avatars(c *gamedata.Collections) []AvatarEntry {
	out := []AvatarEntry{}
	if c == nil {
		return out
	}
	for _, a := range c.Avatars {
		out = append(out, AvatarEntry{Name: a.Name, Suffix: dropRunes(a.AddressableKey, addressablePrefixLen)})
	}
	return out
}

// Tips returns the first tip group, or an empty list.
func Tips(t *gamedata.Tips) []string {
	out := []string{}
	if t == nil || len(t.Groups) == 0 {
		return out
	}
	return append(out, t.Groups[0]...)
}

func dropRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return ""
	}
	return string(runes[n:])
}
