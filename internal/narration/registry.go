package narration

import "strconv"

// Registry binds character labels to voices for the lifetime of one analysis.
// It is not safe for concurrent use; each Analyze call owns its own Registry.
type Registry struct {
	pool     []Voice
	bindings map[string]Voice
	next     int
	generic  int
}

// NewRegistry creates an empty registry over pool. Index 0 is reserved for the narrator,
// so the first character bound receives pool[1].
func NewRegistry(pool []Voice) *Registry {
	if len(pool) == 0 {
		pool = DefaultPool
	}
	return &Registry{
		pool:     pool,
		bindings: make(map[string]Voice),
		next:     1,
	}
}

// Narrator returns the narrator voice.
func (r *Registry) Narrator() Voice {
	return r.pool[0]
}

// Assign returns the voice bound to character, binding the next pool voice on first use.
func (r *Registry) Assign(character string) Voice {
	if v, ok := r.bindings[character]; ok {
		return v
	}
	v := r.pool[r.next%len(r.pool)]
	r.bindings[character] = v
	r.next++
	return v
}

// NextGenericLabel issues the next anonymous speaker label ("Character 1", "Character 2", ...).
func (r *Registry) NextGenericLabel() string {
	r.generic++
	return "Character " + strconv.Itoa(r.generic)
}
