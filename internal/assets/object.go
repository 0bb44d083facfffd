package assets

import (
	"errors"
	"fmt"
)

// Object is one entry of a serialized file's object table.
type Object struct {
	PathID    int64
	ByteStart int64
	ByteSize  uint32
	TypeID    int32
	ClassID   int32

	file       *SerializedFile
	scriptName *string
}

// File returns the serialized file holding the object.
func (o *Object) File() *SerializedFile { return o.file }

// Data returns the raw serialized bytes of the object.
func (o *Object) Data() []byte {
	return o.file.data[o.ByteStart : o.ByteStart+int64(o.ByteSize)]
}

// ScriptName resolves the behaviour's script through its m_Script pointer
// and returns the script's m_Name. Only behaviour objects have one.
func (o *Object) ScriptName() (string, error) {
	if o.scriptName != nil {
		return *o.scriptName, nil
	}
	if o.ClassID != ClassMonoBehaviour {
		return "", fmt.Errorf("object %d has class %d, not a behaviour", o.PathID, o.ClassID)
	}
	r := newReader(o.Data(), o.file.order)
	r.Skip(12) // m_GameObject
	r.U8()     // m_Enabled
	r.Align(4)
	ptr := PPtr{FileID: r.I32(), PathID: r.I64()}
	if err := r.Err(); err != nil {
		return "", fmt.Errorf("object %d: read script pointer: %w", o.PathID, err)
	}
	script, err := o.file.Resolve(ptr)
	if err != nil {
		return "", fmt.Errorf("object %d: %w", o.PathID, err)
	}
	if script.ClassID != ClassMonoScript {
		return "", fmt.Errorf("object %d: script pointer targets class %d", o.PathID, script.ClassID)
	}
	sr := newReader(script.Data(), script.file.order)
	name := sr.AlignedString()
	if err := sr.Err(); err != nil {
		return "", fmt.Errorf("script %d: read name: %w", script.PathID, err)
	}
	o.scriptName = &name
	return name, nil
}

// Decode interprets the object's bytes with the given typetree nodes.
func (o *Object) Decode(nodes []Node, mode ReadMode) (*Fields, error) {
	fields, err := Decode(o.Data(), o.file.order, nodes, mode)
	if err != nil {
		return nil, fmt.Errorf("decode object %d in %s: %w", o.PathID, o.file.Name, err)
	}
	return fields, nil
}

// PPtr is a cross-object reference. FileID 0 means the same file; other
// values index the externals table starting at 1.
type PPtr struct {
	FileID int32
	PathID int64
}

// IsNull reports whether the pointer references nothing.
func (p PPtr) IsNull() bool { return p.PathID == 0 }

// Resolve dereferences a pointer relative to this file.
func (f *SerializedFile) Resolve(ptr PPtr) (*Object, error) {
	if ptr.IsNull() {
		return nil, errors.New("null pointer")
	}
	target := f
	if ptr.FileID != 0 {
		idx := int(ptr.FileID) - 1
		if idx < 0 || idx >= len(f.Externals) {
			return nil, fmt.Errorf("pointer file id %d outside %d externals", ptr.FileID, len(f.Externals))
		}
		ext := f.Externals[idx].PathName
		if f.container == nil {
			return nil, fmt.Errorf("external %s not loaded", ext)
		}
		other, ok := f.container.File(ext)
		if !ok {
			return nil, fmt.Errorf("external %s not loaded", ext)
		}
		target = other
	}
	obj, ok := target.Object(ptr.PathID)
	if !ok {
		return nil, fmt.Errorf("path id %d not found in %s", ptr.PathID, target.Name)
	}
	return obj, nil
}
