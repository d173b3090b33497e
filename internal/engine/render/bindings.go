package render

import "sort"

// Bindings is the process-wide table of named textures visible to
// materials. Writes happen on the render thread only; the last writer for
// a name wins.
type Bindings struct {
	textures map[string]Target
}

// NewBindings creates an empty binding table.
func NewBindings() *Bindings {
	return &Bindings{textures: make(map[string]Target)}
}

// Set binds t under name, replacing any previous binding.
func (b *Bindings) Set(name string, t Target) {
	b.textures[name] = t
}

// Get returns the texture bound under name.
func (b *Bindings) Get(name string) (Target, bool) {
	t, ok := b.textures[name]
	return t, ok
}

// Unbind removes every binding that refers to t. Used when a target is
// released so materials never sample a destroyed texture.
func (b *Bindings) Unbind(t Target) {
	for name, bound := range b.textures {
		if bound == t {
			delete(b.textures, name)
		}
	}
}

// Names returns the bound names in sorted order.
func (b *Bindings) Names() []string {
	names := make([]string, 0, len(b.textures))
	for name := range b.textures {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of bound names.
func (b *Bindings) Len() int {
	return len(b.textures)
}
