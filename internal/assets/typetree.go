package assets

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// AlignFlag marks a node whose value is followed by padding to 4 bytes.
const AlignFlag int32 = 0x4000

// Node is one entry of a flattened typetree, in pre-order with depth levels.
type Node struct {
	Level    int
	Type     string
	Name     string
	MetaFlag int32
}

// Aligned reports whether the node carries the alignment flag.
func (n Node) Aligned() bool { return n.MetaFlag&AlignFlag != 0 }

// ReadMode selects how the root of a decoded behaviour is shaped.
type ReadMode int

const (
	// ModeDefault returns every field of the root.
	ModeDefault ReadMode = iota
	// ModeFlat drops the behaviour bookkeeping fields from the root.
	ModeFlat
)

var bookkeepingFields = []string{"m_GameObject", "m_Enabled", "m_Script", "m_Name"}

// Tree is a typetree rebuilt from its flat node list.
type Tree struct {
	Node
	Children []*Tree
}

// NewTree rebuilds the hierarchy implied by the node levels.
func NewTree(nodes []Node) (*Tree, error) {
	if len(nodes) == 0 {
		return nil, errors.New("typetree has no nodes")
	}
	root := &Tree{Node: nodes[0]}
	stack := []*Tree{root}
	for i, n := range nodes[1:] {
		for len(stack) > 0 && stack[len(stack)-1].Level >= n.Level {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			return nil, fmt.Errorf("node %d (%s %s) has no parent", i+1, n.Type, n.Name)
		}
		child := &Tree{Node: n}
		parent := stack[len(stack)-1]
		parent.Children = append(parent.Children, child)
		stack = append(stack, child)
	}
	return root, nil
}

// IsArray reports whether the node is serialized as a counted sequence and
// returns the node describing one element.
func (t *Tree) IsArray() (elem *Tree, aligned bool, ok bool) {
	if t.Type == "Array" && len(t.Children) == 2 {
		return t.Children[1], t.Aligned(), true
	}
	if len(t.Children) == 1 && t.Children[0].Type == "Array" {
		arr := t.Children[0]
		if len(arr.Children) != 2 {
			return nil, false, false
		}
		return arr.Children[1], arr.Aligned(), true
	}
	return nil, false, false
}

// Decode interprets data according to nodes. The whole blob must be consumed;
// a length mismatch means the schema does not describe the object.
func Decode(data []byte, order binary.ByteOrder, nodes []Node, mode ReadMode) (*Fields, error) {
	tree, err := NewTree(nodes)
	if err != nil {
		return nil, err
	}
	d := &decoder{r: newReader(data, order)}
	value, err := d.read(tree, 0)
	if err != nil {
		return nil, err
	}
	fields, ok := value.(*Fields)
	if !ok {
		return nil, fmt.Errorf("root node %s is not a structure", tree.Type)
	}
	if d.r.Pos() != len(data) {
		return nil, fmt.Errorf("decoded %d of %d bytes for %s", d.r.Pos(), len(data), tree.Type)
	}
	if mode == ModeFlat {
		for _, name := range bookkeepingFields {
			fields.Delete(name)
		}
	}
	return fields, nil
}

const maxDepth = 64

type decoder struct {
	r *reader
}

func (d *decoder) read(t *Tree, depth int) (any, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("typetree deeper than %d levels", maxDepth)
	}
	align := t.Aligned()
	var value any

	switch t.Type {
	case "SInt8":
		value = int64(int8(d.r.U8()))
	case "UInt8", "char":
		value = int64(d.r.U8())
	case "bool":
		value = d.r.Bool()
	case "SInt16", "short":
		value = int64(d.r.I16())
	case "UInt16", "unsigned short":
		value = int64(d.r.U16())
	case "SInt32", "int", "Type*":
		value = int64(d.r.I32())
	case "UInt32", "unsigned int":
		value = int64(d.r.U32())
	case "SInt64", "long long":
		value = d.r.I64()
	case "UInt64", "unsigned long long", "FileSize":
		value = d.r.U64()
	case "float":
		value = float64(d.r.F32())
	case "double":
		value = d.r.F64()
	case "string":
		n := d.r.I32()
		if n < 0 || int(n) > d.r.Remaining() {
			return nil, fmt.Errorf("field %s: string length %d exceeds remaining %d bytes", t.Name, n, d.r.Remaining())
		}
		value = string(d.r.Bytes(int(n)))
		if len(t.Children) > 0 && t.Children[0].Aligned() {
			align = true
		}
	case "TypelessData":
		n := d.r.I32()
		if n < 0 || int(n) > d.r.Remaining() {
			return nil, fmt.Errorf("field %s: data length %d exceeds remaining %d bytes", t.Name, n, d.r.Remaining())
		}
		value = d.r.Bytes(int(n))
	case "pair":
		if len(t.Children) != 2 {
			return nil, fmt.Errorf("field %s: pair needs two children", t.Name)
		}
		first, err := d.read(t.Children[0], depth+1)
		if err != nil {
			return nil, err
		}
		second, err := d.read(t.Children[1], depth+1)
		if err != nil {
			return nil, err
		}
		value = Pair{Key: first, Value: second}
	default:
		if elem, arrAligned, ok := t.IsArray(); ok {
			if arrAligned {
				align = true
			}
			items, err := d.readArray(t, elem, depth)
			if err != nil {
				return nil, err
			}
			value = items
			break
		}
		fields := NewFields()
		for _, child := range t.Children {
			v, err := d.read(child, depth+1)
			if err != nil {
				return nil, err
			}
			fields.Set(child.Name, v)
		}
		value = fields
	}

	if err := d.r.Err(); err != nil {
		return nil, fmt.Errorf("field %s (%s): %w", t.Name, t.Type, err)
	}
	if align {
		d.r.Align(4)
	}
	return value, nil
}

func (d *decoder) readArray(t, elem *Tree, depth int) (any, error) {
	n := d.r.I32()
	if err := d.r.Err(); err != nil {
		return nil, fmt.Errorf("field %s: %w", t.Name, err)
	}
	if n < 0 || int(n) > d.r.Remaining() {
		return nil, fmt.Errorf("field %s: element count %d exceeds remaining %d bytes", t.Name, n, d.r.Remaining())
	}
	if t.Type == "map" {
		pairs := make([]Pair, 0, n)
		for i := 0; i < int(n); i++ {
			v, err := d.read(elem, depth+2)
			if err != nil {
				return nil, err
			}
			p, ok := v.(Pair)
			if !ok {
				return nil, fmt.Errorf("field %s: map element is %T, want pair", t.Name, v)
			}
			pairs = append(pairs, p)
		}
		return pairs, nil
	}
	items := make([]any, 0, n)
	for i := 0; i < int(n); i++ {
		v, err := d.read(elem, depth+2)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	return items, nil
}
