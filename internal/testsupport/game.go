package testsupport

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"phiextract/internal/assets"
)

// Song is a raw chart list entry as stored in the game data.
type Song struct {
	ID          string
	Name        string
	Composer    string
	Illustrator string
	Difficulty  []float64
	Charter     []string
}

// Category groups songs under a named list of the song table.
type Category struct {
	Name  string
	Songs []Song
}

// Key is a raw unlock key.
type Key struct {
	Name string
	Kind int
}

// CollectionItem is a raw collection entry.
type CollectionItem struct {
	Key          string
	SubIndex     int
	Title        string
	EnglishTitle string
}

// Avatar is a raw avatar entry.
type Avatar struct {
	Name           string
	AddressableKey string
}

// Game describes the content of a synthetic game package.
type Game struct {
	Categories  []Category
	Keys        []Key
	Collections []CollectionItem
	Avatars     []Avatar
	Tips        [][]string

	// Omit lists script names whose behaviour is left out of level0.
	Omit []string
	// Bundled stores level0 inside a UnityFS bundle.
	Bundled bool
	// SplitParts stores level0 as that many numbered split entries.
	SplitParts int
}

// Script names the locator looks for.
const (
	ScriptGameInformation = "GameInformation"
	ScriptCollections     = "GetCollectionControl"
	ScriptTips            = "TipsProvider"
)

// Archive entry names inside the package.
const (
	EntryGlobalGameManagers = "assets/bin/Data/globalgamemanagers.assets"
	EntryLevel0             = "assets/bin/Data/level0"
)

type nodeSpec struct {
	typ      string
	name     string
	flag     int32
	children []nodeSpec
}

func prim(typ, name string) nodeSpec { return nodeSpec{typ: typ, name: name} }

func alignedPrim(typ, name string) nodeSpec {
	return nodeSpec{typ: typ, name: name, flag: assets.AlignFlag}
}

func str(name string) nodeSpec {
	return nodeSpec{typ: "string", name: name, children: []nodeSpec{{
		typ: "Array", name: "Array", flag: assets.AlignFlag,
		children: []nodeSpec{prim("int", "size"), prim("char", "data")},
	}}}
}

func vec(name string, elem nodeSpec) nodeSpec {
	elem.name = "data"
	return nodeSpec{typ: "vector", name: name, children: []nodeSpec{{
		typ: "Array", name: "Array", flag: assets.AlignFlag,
		children: []nodeSpec{prim("int", "size"), elem},
	}}}
}

func class(typ, name string, children ...nodeSpec) nodeSpec {
	return nodeSpec{typ: typ, name: name, children: children}
}

func pptr(target, name string) nodeSpec {
	return class("PPtr<"+target+">", name, prim("int", "m_FileID"), prim("SInt64", "m_PathID"))
}

func behaviour(fields ...nodeSpec) []assets.Node {
	children := []nodeSpec{
		pptr("GameObject", "m_GameObject"),
		alignedPrim("UInt8", "m_Enabled"),
		pptr("MonoScript", "m_Script"),
		str("m_Name"),
	}
	children = append(children, fields...)
	var out []assets.Node
	flatten(class("MonoBehaviour", "Base", children...), 0, &out)
	return out
}

func flatten(s nodeSpec, level int, out *[]assets.Node) {
	*out = append(*out, assets.Node{Level: level, Type: s.typ, Name: s.name, MetaFlag: s.flag})
	for _, c := range s.children {
		flatten(c, level+1, out)
	}
}

// GameSchema returns the node lists for the three scripts. Song categories
// follow the names used in g, in order.
func GameSchema(g Game) map[string][]assets.Node {
	song := class("SongsItem", "data",
		str("songsId"),
		str("songsKey"),
		str("songsName"),
		str("composer"),
		str("illustrator"),
		vec("difficulty", prim("float", "data")),
		vec("charter", str("data")),
	)
	var categories []nodeSpec
	for _, c := range g.Categories {
		categories = append(categories, vec(c.Name, song))
	}
	info := behaviour(
		class("SongsInfo", "song", categories...),
		vec("keyStore", class("KeyInfo", "data", str("keyName"), prim("int", "kindOfKey"), prim("int", "unlockTimes"))),
	)
	collections := behaviour(
		vec("collectionItems", class("CollectionItemIndex", "data",
			str("key"),
			prim("int", "subIndex"),
			class("MultiLanguageString", "multiLanguageTitle", str("chinese"), str("english"), str("japanese"), str("korean")),
		)),
		vec("avatars", class("AvatarInfo", "data", str("name"), str("addressableKey"))),
	)
	tips := behaviour(
		vec("tips", class("TipsGroup", "data", prim("int", "language"), vec("tips", str("data")))),
	)
	return map[string][]assets.Node{
		ScriptGameInformation: info,
		ScriptCollections:     collections,
		ScriptTips:            tips,
	}
}

// SchemaJSON renders a schema in the typetree dump format.
func SchemaJSON(t testing.TB, schema map[string][]assets.Node) []byte {
	t.Helper()
	type jsonNode struct {
		Level    int    `json:"m_Level"`
		Type     string `json:"m_Type"`
		Name     string `json:"m_Name"`
		MetaFlag int32  `json:"m_MetaFlag"`
	}
	out := make(map[string][]jsonNode, len(schema))
	for name, nodes := range schema {
		list := make([]jsonNode, 0, len(nodes))
		for _, n := range nodes {
			list = append(list, jsonNode{Level: n.Level, Type: n.Type, Name: n.Name, MetaFlag: n.MetaFlag})
		}
		out[name] = list
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		t.Fatalf("marshal schema: %v", err)
	}
	return data
}

// WriteSchema writes the schema for g to path.
func WriteSchema(t testing.TB, path string, g Game) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, SchemaJSON(t, GameSchema(g)), 0o644); err != nil {
		t.Fatalf("write schema %s: %v", path, err)
	}
}

func header(scriptPathID int64, name string) *assets.Fields {
	f := assets.NewFields()
	gameObject := assets.NewFields()
	gameObject.Set("m_FileID", int64(0))
	gameObject.Set("m_PathID", int64(0))
	script := assets.NewFields()
	script.Set("m_FileID", int64(1))
	script.Set("m_PathID", scriptPathID)
	f.Set("m_GameObject", gameObject)
	f.Set("m_Enabled", int64(1))
	f.Set("m_Script", script)
	f.Set("m_Name", name)
	return f
}

func stringList(values []string) []any {
	out := make([]any, 0, len(values))
	for _, v := range values {
		out = append(out, v)
	}
	return out
}

func gameInformationValue(g Game, scriptPathID int64) *assets.Fields {
	root := header(scriptPathID, "")
	songs := assets.NewFields()
	for _, c := range g.Categories {
		var list []any
		for _, s := range c.Songs {
			item := assets.NewFields()
			item.Set("songsId", s.ID)
			item.Set("songsKey", s.ID)
			item.Set("songsName", s.Name)
			item.Set("composer", s.Composer)
			item.Set("illustrator", s.Illustrator)
			var diffs []any
			for _, d := range s.Difficulty {
				diffs = append(diffs, d)
			}
			item.Set("difficulty", diffs)
			item.Set("charter", stringList(s.Charter))
			list = append(list, item)
		}
		songs.Set(c.Name, list)
	}
	root.Set("song", songs)
	var keys []any
	for _, k := range g.Keys {
		item := assets.NewFields()
		item.Set("keyName", k.Name)
		item.Set("kindOfKey", int64(k.Kind))
		item.Set("unlockTimes", int64(1))
		keys = append(keys, item)
	}
	root.Set("keyStore", keys)
	return root
}

func collectionsValue(g Game, scriptPathID int64) *assets.Fields {
	root := header(scriptPathID, "")
	var items []any
	for _, c := range g.Collections {
		title := assets.NewFields()
		title.Set("chinese", c.Title)
		title.Set("english", c.EnglishTitle)
		title.Set("japanese", "")
		title.Set("korean", "")
		item := assets.NewFields()
		item.Set("key", c.Key)
		item.Set("subIndex", int64(c.SubIndex))
		item.Set("multiLanguageTitle", title)
		items = append(items, item)
	}
	root.Set("collectionItems", items)
	var avatars []any
	for _, a := range g.Avatars {
		item := assets.NewFields()
		item.Set("name", a.Name)
		item.Set("addressableKey", a.AddressableKey)
		avatars = append(avatars, item)
	}
	root.Set("avatars", avatars)
	return root
}

func tipsValue(g Game, scriptPathID int64) *assets.Fields {
	root := header(scriptPathID, "")
	var groups []any
	for i, tips := range g.Tips {
		item := assets.NewFields()
		item.Set("language", int64(i))
		item.Set("tips", stringList(tips))
		groups = append(groups, item)
	}
	root.Set("tips", groups)
	return root
}

// Files builds the two serialized entries of a game package.
func Files(t testing.TB, g Game) (globalGameManagers, level0 []byte) {
	t.Helper()
	schema := GameSchema(g)
	scripts := []string{ScriptGameInformation, ScriptCollections, ScriptTips, "LevelStartup"}

	gm := SerializedFile{}
	for i, name := range scripts {
		gm.Objects = append(gm.Objects, UnityObject{PathID: int64(i + 1), ClassID: assets.ClassMonoScript, Data: MonoScriptData(name)})
	}

	omitted := make(map[string]bool, len(g.Omit))
	for _, name := range g.Omit {
		omitted[name] = true
	}

	lvl := SerializedFile{Externals: []string{"globalgamemanagers.assets"}}
	lvl.Objects = append(lvl.Objects, UnityObject{PathID: 1, ClassID: 1, Data: make([]byte, 24)})

	// An unrelated behaviour decoded with a header-only layout.
	other, err := EncodeTypeTree(behaviour(), header(4, "startup"))
	if err != nil {
		t.Fatalf("encode LevelStartup: %v", err)
	}
	lvl.Objects = append(lvl.Objects, UnityObject{PathID: 2, ClassID: assets.ClassMonoBehaviour, Data: other})

	values := map[string]*assets.Fields{
		ScriptGameInformation: gameInformationValue(g, 1),
		ScriptCollections:     collectionsValue(g, 2),
		ScriptTips:            tipsValue(g, 3),
	}
	for i, name := range scripts[:3] {
		if omitted[name] {
			continue
		}
		data, err := EncodeTypeTree(schema[name], values[name])
		if err != nil {
			t.Fatalf("encode %s: %v", name, err)
		}
		lvl.Objects = append(lvl.Objects, UnityObject{PathID: int64(10 + i), ClassID: assets.ClassMonoBehaviour, Data: data})
	}
	return gm.Bytes(), lvl.Bytes()
}

type zipEntry struct {
	name string
	data []byte
}

// WriteGame writes a synthetic game package for g to dir and returns the
// package path.
func WriteGame(t testing.TB, dir string, g Game) string {
	t.Helper()
	gm, level0 := Files(t, g)
	if g.Bundled {
		level0 = Bundle([]BundleFile{{Path: "CAB-level0", Data: level0, Serialized: true}})
	}

	entries := []zipEntry{{EntryGlobalGameManagers, gm}}
	if g.SplitParts > 1 {
		size := (len(level0) + g.SplitParts - 1) / g.SplitParts
		for i := 0; i < g.SplitParts; i++ {
			start := i * size
			end := min(start+size, len(level0))
			entries = append(entries, zipEntry{fmt.Sprintf("%s.split%d", EntryLevel0, i), level0[start:end]})
		}
	} else {
		entries = append(entries, zipEntry{EntryLevel0, level0})
	}

	path := filepath.Join(dir, "phigros.apk")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	zw := zip.NewWriter(f)
	for _, e := range entries {
		w, err := zw.Create(e.name)
		if err != nil {
			t.Fatalf("zip create %s: %v", e.name, err)
		}
		if _, err := w.Write(e.data); err != nil {
			t.Fatalf("zip write %s: %v", e.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return path
}

// SampleGame is the single-song package used across pipeline tests.
func SampleGame() Game {
	return Game{
		Categories: []Category{
			{Name: "mainSongs", Songs: []Song{{
				ID:          "song01xx",
				Name:        "First Song",
				Composer:    "Composer, A",
				Illustrator: "Painter",
				Difficulty:  []float64{1.0, 3.5, 7.2, 9.8, 0.0},
				Charter:     []string{"a", "b", "c", "d"},
			}}},
			{Name: "otherSongs", Songs: []Song{{
				ID:         "hidden0.0",
				Name:       "Hidden",
				Difficulty: []float64{1, 2, 3},
				Charter:    []string{"x", "y", "z"},
			}}},
		},
		Keys: []Key{{Name: "A", Kind: 2}, {Name: "A", Kind: 0}, {Name: "B", Kind: 2}, {Name: "Introduction", Kind: 2}},
		Collections: []CollectionItem{
			{Key: "1", Title: "X", EnglishTitle: "Ex", SubIndex: 0},
			{Key: "1", Title: "Y", EnglishTitle: "Why", SubIndex: 3},
		},
		Avatars: []Avatar{{Name: "Cat", AddressableKey: "avatar.cat_01"}},
		Tips:    [][]string{{"tip one", "tip two"}, {"other language"}},
	}
}
