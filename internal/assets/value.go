package assets

// Fields is an ordered field-name to value mapping produced by the typetree
// decoder. Field order follows the node list.
type Fields struct {
	names  []string
	values map[string]any
}

// NewFields returns an empty ordered mapping.
func NewFields() *Fields {
	return &Fields{values: make(map[string]any)}
}

// Set stores value under name, appending name when it is new.
func (f *Fields) Set(name string, value any) {
	if _, ok := f.values[name]; !ok {
		f.names = append(f.names, name)
	}
	f.values[name] = value
}

// Get returns the value stored under name.
func (f *Fields) Get(name string) (any, bool) {
	if f == nil {
		return nil, false
	}
	v, ok := f.values[name]
	return v, ok
}

// Delete removes name, keeping the order of the remaining fields.
func (f *Fields) Delete(name string) {
	if _, ok := f.values[name]; !ok {
		return
	}
	delete(f.values, name)
	for i, n := range f.names {
		if n == name {
			f.names = append(f.names[:i], f.names[i+1:]...)
			break
		}
	}
}

// Names lists the field names in decode order.
func (f *Fields) Names() []string {
	if f == nil {
		return nil
	}
	out := make([]string, len(f.names))
	copy(out, f.names)
	return out
}

// Len reports the number of fields.
func (f *Fields) Len() int {
	if f == nil {
		return 0
	}
	return len(f.names)
}

// Pair is one decoded map entry or pair node.
type Pair struct {
	Key   any
	Value any
}
