package assets

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// ErrEntryMissing reports an archive without a configured entry.
var ErrEntryMissing = errors.New("archive entry missing")

// Container indexes the serialized files loaded from an archive.
type Container struct {
	files  []*SerializedFile
	byName map[string]*SerializedFile
}

// NewContainer returns an empty container.
func NewContainer() *Container {
	return &Container{byName: make(map[string]*SerializedFile)}
}

// Load adds a blob to the container. Bundles are unpacked and each contained
// serialized file is added; other blobs must be serialized files.
func (c *Container) Load(name string, data []byte) error {
	if IsBundle(data) {
		entries, err := ReadBundle(data)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		for _, e := range entries {
			if !e.Serialized() && !LooksSerialized(e.Data) {
				continue
			}
			if err := c.addSerialized(e.Path, e.Data); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
		}
		return nil
	}
	return c.addSerialized(name, data)
}

func (c *Container) addSerialized(name string, data []byte) error {
	f, err := ParseSerializedFile(name, data)
	if err != nil {
		return err
	}
	f.container = c
	c.files = append(c.files, f)
	c.byName[fileKey(name)] = f
	return nil
}

// File finds a loaded serialized file by path, comparing base names
// case-insensitively the way external references are written.
func (c *Container) File(name string) (*SerializedFile, bool) {
	f, ok := c.byName[fileKey(name)]
	return f, ok
}

// Files lists loaded serialized files in load order.
func (c *Container) Files() []*SerializedFile { return c.files }

// Objects lists every object of every loaded file in load order.
func (c *Container) Objects() []*Object {
	var out []*Object
	for _, f := range c.files {
		out = append(out, f.objects...)
	}
	return out
}

// OpenArchive opens an APK (zip) and loads each named entry. An entry stored
// as numbered split parts is reassembled in order.
func OpenArchive(path string, entries []string) (*Container, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", path, err)
	}
	defer zr.Close()

	index := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		index[f.Name] = f
	}

	c := NewContainer()
	for _, entry := range entries {
		data, err := readEntry(index, entry)
		if err != nil {
			return nil, err
		}
		if err := c.Load(entry, data); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func readEntry(index map[string]*zip.File, entry string) ([]byte, error) {
	if f, ok := index[entry]; ok {
		return readZipFile(f)
	}
	parts := splitParts(index, entry)
	if len(parts) == 0 {
		return nil, fmt.Errorf("%s: %w", entry, ErrEntryMissing)
	}
	var out []byte
	for _, f := range parts {
		data, err := readZipFile(f)
		if err != nil {
			return nil, err
		}
		out = append(out, data...)
	}
	return out, nil
}

func splitParts(index map[string]*zip.File, entry string) []*zip.File {
	prefix := entry + ".split"
	type part struct {
		n int
		f *zip.File
	}
	var parts []part
	for name, f := range index {
		suffix, ok := strings.CutPrefix(name, prefix)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(suffix)
		if err != nil || n < 0 {
			continue
		}
		parts = append(parts, part{n: n, f: f})
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i].n < parts[j].n })
	out := make([]*zip.File, 0, len(parts))
	for i, p := range parts {
		if p.n != i {
			break
		}
		out = append(out, p.f)
	}
	return out
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open entry %s: %w", f.Name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read entry %s: %w", f.Name, err)
	}
	return data, nil
}
