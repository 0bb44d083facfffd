package testsupport

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/pierrec/lz4"

	"phiextract/internal/assets"
)

// UnityObject is one object written into a synthetic serialized file.
type UnityObject struct {
	PathID  int64
	ClassID int32
	Data    []byte
}

// SerializedFile describes a synthetic little-endian serialized file without
// embedded type trees.
type SerializedFile struct {
	Version      uint32
	UnityVersion string
	Externals    []string
	Objects      []UnityObject
}

// Bytes renders the file in the layout the assets package parses.
func (s SerializedFile) Bytes() []byte {
	version := s.Version
	if version == 0 {
		version = 21
	}
	unityVersion := s.UnityVersion
	if unityVersion == "" {
		unityVersion = "2019.4.31f1"
	}
	headerLen := 20
	if version >= 22 {
		headerLen = 48
	}

	typeIndex := make(map[int32]int32)
	var classes []int32
	for _, obj := range s.Objects {
		if _, ok := typeIndex[obj.ClassID]; !ok {
			typeIndex[obj.ClassID] = int32(len(classes))
			classes = append(classes, obj.ClassID)
		}
	}

	var body writer
	body.order = binary.LittleEndian
	starts := make([]int64, len(s.Objects))
	for i, obj := range s.Objects {
		body.align(8)
		starts[i] = int64(body.Len())
		body.Write(obj.Data)
	}

	meta := writer{order: binary.LittleEndian}
	meta.cstring(unityVersion)
	meta.i32(13)
	meta.u8(0)
	meta.i32(int32(len(classes)))
	for _, class := range classes {
		meta.i32(class)
		meta.u8(0)
		if class == assets.ClassMonoBehaviour {
			meta.i16(0)
			meta.Write(make([]byte, 16))
		} else {
			meta.i16(-1)
		}
		meta.Write(make([]byte, 16))
	}
	meta.i32(int32(len(s.Objects)))
	for i, obj := range s.Objects {
		meta.align(4)
		meta.i64(obj.PathID)
		if version >= 22 {
			meta.i64(starts[i])
		} else {
			meta.u32(uint32(starts[i]))
		}
		meta.u32(uint32(len(obj.Data)))
		meta.i32(typeIndex[obj.ClassID])
	}
	meta.i32(0)
	meta.i32(int32(len(s.Externals)))
	for _, ext := range s.Externals {
		meta.cstring("")
		meta.Write(make([]byte, 16))
		meta.i32(0)
		meta.cstring(ext)
	}
	if version >= 20 {
		meta.i32(0)
	}
	meta.cstring("")

	dataOffset := alignUp(headerLen+meta.Len(), 16)
	fileSize := dataOffset + body.Len()

	out := writer{order: binary.BigEndian}
	if version >= 22 {
		out.u32(0)
		out.u32(0)
		out.u32(version)
		out.u32(0)
		out.Write([]byte{0, 0, 0, 0})
		out.u32(uint32(meta.Len()))
		out.i64(int64(fileSize))
		out.i64(int64(dataOffset))
		out.i64(0)
	} else {
		out.u32(uint32(meta.Len()))
		out.u32(uint32(fileSize))
		out.u32(version)
		out.u32(uint32(dataOffset))
		out.Write([]byte{0, 0, 0, 0})
	}
	out.Write(meta.Bytes())
	out.Write(make([]byte, dataOffset-out.Len()))
	out.Write(body.Bytes())
	return out.Bytes()
}

// BundleFile is one entry written into a synthetic UnityFS bundle.
type BundleFile struct {
	Path       string
	Data       []byte
	Serialized bool
}

// Bundle packs files into a UnityFS bundle. Each file becomes its own data
// block, LZ4 compressed when that shrinks it.
func Bundle(files []BundleFile) []byte {
	type block struct {
		raw, stored []byte
		flags       uint16
	}
	var blocks []block
	info := writer{order: binary.BigEndian}
	var offset int64
	var nodes writer
	nodes.order = binary.BigEndian
	for _, f := range files {
		stored, compressed := compressLZ4(f.Data)
		b := block{raw: f.Data, stored: stored}
		if compressed {
			b.flags = 2
		}
		blocks = append(blocks, b)

		nodes.i64(offset)
		nodes.i64(int64(len(f.Data)))
		var flags uint32
		if f.Serialized {
			flags = 4
		}
		nodes.u32(flags)
		nodes.cstring(f.Path)
		offset += int64(len(f.Data))
	}
	info.Write(make([]byte, 16))
	info.i32(int32(len(blocks)))
	for _, b := range blocks {
		info.u32(uint32(len(b.raw)))
		info.u32(uint32(len(b.stored)))
		info.u16(b.flags)
	}
	info.i32(int32(len(files)))
	info.Write(nodes.Bytes())

	infoStored, infoCompressed := compressLZ4(info.Bytes())
	archiveFlags := uint32(0x40)
	if infoCompressed {
		archiveFlags |= 2
	}

	out := writer{order: binary.BigEndian}
	out.cstring("UnityFS")
	out.u32(7)
	out.cstring("5.x.x")
	out.cstring("2019.4.31f1")
	sizeAt := out.Len()
	out.i64(0)
	out.u32(uint32(len(infoStored)))
	out.u32(uint32(info.Len()))
	out.u32(archiveFlags)
	out.align(16)
	out.Write(infoStored)
	for _, b := range blocks {
		out.Write(b.stored)
	}
	data := out.Bytes()
	binary.BigEndian.PutUint64(data[sizeAt:], uint64(len(data)))
	return data
}

func compressLZ4(src []byte) ([]byte, bool) {
	if len(src) == 0 {
		return src, false
	}
	dst := make([]byte, lz4.CompressBlockBound(len(src)))
	n, err := lz4.CompressBlock(src, dst, make([]int, 1<<16))
	if err != nil || n == 0 || n >= len(src) {
		return src, false
	}
	return dst[:n], true
}

// MonoScriptData encodes a script object whose m_Name is name.
func MonoScriptData(name string) []byte {
	w := writer{order: binary.LittleEndian}
	w.alignedString(name)
	w.alignedString(name)
	w.alignedString("")
	w.alignedString("Assembly-CSharp.dll")
	return w.Bytes()
}

// EncodeTypeTree serializes value according to nodes, mirroring the layout
// the assets decoder reads.
func EncodeTypeTree(nodes []assets.Node, value *assets.Fields) ([]byte, error) {
	tree, err := assets.NewTree(nodes)
	if err != nil {
		return nil, err
	}
	w := &writer{order: binary.LittleEndian}
	if err := w.encode(tree, value); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

type writer struct {
	bytes.Buffer
	order binary.ByteOrder
}

func (w *writer) u8(v uint8) { w.WriteByte(v) }

func (w *writer) u16(v uint16) {
	var b [2]byte
	w.order.PutUint16(b[:], v)
	w.Write(b[:])
}

func (w *writer) i16(v int16) { w.u16(uint16(v)) }

func (w *writer) u32(v uint32) {
	var b [4]byte
	w.order.PutUint32(b[:], v)
	w.Write(b[:])
}

func (w *writer) i32(v int32) { w.u32(uint32(v)) }

func (w *writer) u64(v uint64) {
	var b [8]byte
	w.order.PutUint64(b[:], v)
	w.Write(b[:])
}

func (w *writer) i64(v int64) { w.u64(uint64(v)) }

func (w *writer) cstring(s string) {
	w.WriteString(s)
	w.WriteByte(0)
}

func (w *writer) alignedString(s string) {
	w.i32(int32(len(s)))
	w.WriteString(s)
	w.align(4)
}

func (w *writer) align(n int) {
	for w.Len()%n != 0 {
		w.WriteByte(0)
	}
}

func alignUp(v, n int) int {
	return (v + n - 1) / n * n
}

func (w *writer) encode(t *assets.Tree, value any) error {
	align := t.Aligned()
	switch t.Type {
	case "SInt8", "UInt8", "char":
		w.u8(uint8(asInt(value)))
	case "bool":
		b, _ := value.(bool)
		if b {
			w.u8(1)
		} else {
			w.u8(0)
		}
	case "SInt16", "short", "UInt16", "unsigned short":
		w.u16(uint16(asInt(value)))
	case "SInt32", "int", "Type*", "UInt32", "unsigned int":
		w.u32(uint32(asInt(value)))
	case "SInt64", "long long", "UInt64", "unsigned long long", "FileSize":
		w.u64(uint64(asInt(value)))
	case "float":
		f, _ := value.(float64)
		w.u32(math.Float32bits(float32(f)))
	case "double":
		f, _ := value.(float64)
		w.u64(math.Float64bits(f))
	case "string":
		s, _ := value.(string)
		w.i32(int32(len(s)))
		w.WriteString(s)
		if len(t.Children) > 0 && t.Children[0].Aligned() {
			align = true
		}
	case "TypelessData":
		b, _ := value.([]byte)
		w.i32(int32(len(b)))
		w.Write(b)
	case "pair":
		p, _ := value.(assets.Pair)
		if err := w.encode(t.Children[0], p.Key); err != nil {
			return err
		}
		if err := w.encode(t.Children[1], p.Value); err != nil {
			return err
		}
	default:
		if elem, arrAligned, ok := t.IsArray(); ok {
			if arrAligned {
				align = true
			}
			if pairs, isMap := value.([]assets.Pair); isMap {
				w.i32(int32(len(pairs)))
				for _, p := range pairs {
					if err := w.encode(elem, p); err != nil {
						return err
					}
				}
				break
			}
			items, _ := value.([]any)
			w.i32(int32(len(items)))
			for _, item := range items {
				if err := w.encode(elem, item); err != nil {
					return err
				}
			}
			break
		}
		fields, ok := value.(*assets.Fields)
		if !ok {
			return fmt.Errorf("field %s: want *assets.Fields, got %T", t.Name, value)
		}
		for _, child := range t.Children {
			v, ok := fields.Get(child.Name)
			if !ok {
				return fmt.Errorf("field %s.%s missing", t.Name, child.Name)
			}
			if err := w.encode(child, v); err != nil {
				return err
			}
		}
	}
	if align {
		w.align(4)
	}
	return nil
}

func asInt(v any) int64 {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case int64:
		return n
	case uint64:
		return int64(n)
	case bool:
		if n {
			return 1
		}
	}
	return 0
}
