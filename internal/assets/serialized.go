package assets

import (
	"encoding/binary"
	"errors"
	"fmt"
	"path"
	"strings"
)

// Class identifiers used by the locator.
const (
	ClassMonoBehaviour int32 = 114
	ClassMonoScript    int32 = 115
)

const (
	minSerializedVersion = 17
	maxSerializedVersion = 22
)

// ErrUnsupported reports a container layout this package cannot read.
var ErrUnsupported = errors.New("unsupported asset format")

// SerializedType is one entry of a serialized file's type table.
type SerializedType struct {
	ClassID         int32
	ScriptTypeIndex int16
}

// External is a reference to another serialized file.
type External struct {
	PathName string
}

// SerializedFile is a parsed Unity serialized file.
type SerializedFile struct {
	Name         string
	Version      uint32
	UnityVersion string
	Platform     int32
	Types        []SerializedType
	Externals    []External

	order     binary.ByteOrder
	data      []byte
	objects   []*Object
	byPathID  map[int64]*Object
	container *Container
}

// Objects lists the file's objects in table order.
func (f *SerializedFile) Objects() []*Object { return f.objects }

// Object looks up an object by path id.
func (f *SerializedFile) Object(pathID int64) (*Object, bool) {
	obj, ok := f.byPathID[pathID]
	return obj, ok
}

// ByteOrder is the endianness of the object data.
func (f *SerializedFile) ByteOrder() binary.ByteOrder { return f.order }

// LooksSerialized applies a cheap header check without parsing metadata.
func LooksSerialized(data []byte) bool {
	if len(data) < 20 {
		return false
	}
	version := binary.BigEndian.Uint32(data[8:12])
	if version < minSerializedVersion || version > maxSerializedVersion {
		return false
	}
	if version >= 22 {
		if len(data) < 48 {
			return false
		}
		return int64(binary.BigEndian.Uint64(data[24:32])) == int64(len(data))
	}
	return int64(binary.BigEndian.Uint32(data[4:8])) == int64(len(data))
}

// ParseSerializedFile reads the header, type table, object table and
// externals of a serialized file. Embedded type trees are skipped.
func ParseSerializedFile(name string, data []byte) (*SerializedFile, error) {
	head := newReader(data, binary.BigEndian)
	metadataSize := int64(head.U32())
	fileSize := int64(head.U32())
	version := head.U32()
	dataOffset := int64(head.U32())
	if err := head.Err(); err != nil {
		return nil, fmt.Errorf("%s: header: %w", name, err)
	}
	if version < minSerializedVersion || version > maxSerializedVersion {
		return nil, fmt.Errorf("%s: serialized file version %d: %w", name, version, ErrUnsupported)
	}
	endian := head.U8()
	head.Skip(3)
	if version >= 22 {
		metadataSize = int64(head.U32())
		fileSize = head.I64()
		dataOffset = head.I64()
		head.Skip(8)
	}
	if err := head.Err(); err != nil {
		return nil, fmt.Errorf("%s: header: %w", name, err)
	}
	if fileSize != int64(len(data)) {
		return nil, fmt.Errorf("%s: header declares %d bytes, have %d", name, fileSize, len(data))
	}
	if dataOffset < 0 || dataOffset > fileSize || metadataSize < 0 {
		return nil, fmt.Errorf("%s: data offset %d out of range", name, dataOffset)
	}

	var order binary.ByteOrder = binary.LittleEndian
	if endian != 0 {
		order = binary.BigEndian
	}
	f := &SerializedFile{
		Name:     name,
		Version:  version,
		order:    order,
		data:     data,
		byPathID: make(map[int64]*Object),
	}

	r := newReader(data, order)
	r.Seek(head.Pos())
	f.UnityVersion = r.CString()
	f.Platform = r.I32()
	typeTrees := r.Bool()

	typeCount := r.I32()
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("%s: metadata: %w", name, err)
	}
	if typeCount < 0 || int(typeCount) > r.Remaining() {
		return nil, fmt.Errorf("%s: implausible type count %d", name, typeCount)
	}
	for i := 0; i < int(typeCount); i++ {
		t := f.readType(r, typeTrees)
		if err := r.Err(); err != nil {
			return nil, fmt.Errorf("%s: type %d: %w", name, i, err)
		}
		f.Types = append(f.Types, t)
	}

	objectCount := r.I32()
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("%s: object table: %w", name, err)
	}
	if objectCount < 0 || int(objectCount) > r.Remaining() {
		return nil, fmt.Errorf("%s: implausible object count %d", name, objectCount)
	}
	for i := 0; i < int(objectCount); i++ {
		r.Align(4)
		obj := &Object{file: f}
		obj.PathID = r.I64()
		if version >= 22 {
			obj.ByteStart = r.I64()
		} else {
			obj.ByteStart = int64(r.U32())
		}
		obj.ByteStart += dataOffset
		obj.ByteSize = r.U32()
		obj.TypeID = r.I32()
		if err := r.Err(); err != nil {
			return nil, fmt.Errorf("%s: object %d: %w", name, i, err)
		}
		if obj.TypeID < 0 || int(obj.TypeID) >= len(f.Types) {
			return nil, fmt.Errorf("%s: object %d references type %d of %d", name, obj.PathID, obj.TypeID, len(f.Types))
		}
		if obj.ByteStart < 0 || obj.ByteStart+int64(obj.ByteSize) > fileSize {
			return nil, fmt.Errorf("%s: object %d data outside file", name, obj.PathID)
		}
		obj.ClassID = f.Types[obj.TypeID].ClassID
		f.objects = append(f.objects, obj)
		f.byPathID[obj.PathID] = obj
	}

	scriptCount := r.I32()
	if scriptCount < 0 || int(scriptCount) > r.Remaining() {
		return nil, fmt.Errorf("%s: implausible script count %d", name, scriptCount)
	}
	for i := 0; i < int(scriptCount); i++ {
		r.Skip(4)
		r.Align(4)
		r.Skip(8)
	}

	externalCount := r.I32()
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("%s: script table: %w", name, err)
	}
	if externalCount < 0 || int(externalCount) > r.Remaining() {
		return nil, fmt.Errorf("%s: implausible external count %d", name, externalCount)
	}
	for i := 0; i < int(externalCount); i++ {
		r.CString()
		r.Skip(16)
		r.Skip(4)
		f.Externals = append(f.Externals, External{PathName: r.CString()})
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("%s: externals: %w", name, err)
	}
	return f, nil
}

func (f *SerializedFile) readType(r *reader, typeTrees bool) SerializedType {
	t := SerializedType{ClassID: r.I32(), ScriptTypeIndex: -1}
	r.Skip(1) // stripped
	t.ScriptTypeIndex = r.I16()
	if t.ClassID == ClassMonoBehaviour {
		r.Skip(16)
	}
	r.Skip(16)
	if typeTrees {
		f.skipTypeTree(r)
	}
	return t
}

func (f *SerializedFile) skipTypeTree(r *reader) {
	nodeCount := r.I32()
	stringSize := r.I32()
	nodeSize := 24
	if f.Version >= 19 {
		nodeSize = 32
	}
	if nodeCount < 0 || stringSize < 0 {
		r.err = errors.New("negative type tree size")
		return
	}
	r.Skip(int(nodeCount)*nodeSize + int(stringSize))
	if f.Version >= 21 {
		deps := r.I32()
		if deps < 0 {
			r.err = errors.New("negative type dependency count")
			return
		}
		r.Skip(int(deps) * 4)
	}
}

// fileKey normalizes a serialized file or external path for lookup.
func fileKey(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	return strings.ToLower(path.Base(name))
}
