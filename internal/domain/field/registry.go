package field

import (
	"fmt"
	"sync"
)

// Constructor builds a field variant from its stored config.
type Constructor func(cfg Config) Field

// Registry maps a kind to its constructor. First registration wins.
type Registry struct {
	mu    sync.RWMutex
	ctors map[Kind]Constructor
	order []Kind
}

func NewRegistry() *Registry {
	return &Registry{ctors: make(map[Kind]Constructor)}
}

// DefaultRegistry returns a registry holding every built-in kind.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(KindText, func(c Config) Field { return &Text{base{c}} })
	r.Register(KindTextArea, func(c Config) Field { return &TextArea{base{c}} })
	r.Register(KindNumbers, func(c Config) Field { return &Numbers{base{c}} })
	r.Register(KindEmail, func(c Config) Field { return &Email{base{c}} })
	r.Register(KindTel, func(c Config) Field { return &Text{base{c}} })
	r.Register(KindSelect, func(c Config) Field { return &Choice{base{c}} })
	r.Register(KindMultiselect, func(c Config) Field { return &MultiChoice{base{c}} })
	r.Register(KindRadio, func(c Config) Field { return &Choice{base{c}} })
	r.Register(KindCheckbox, func(c Config) Field { return &MultiChoice{base{c}} })
	r.Register(KindFileUpload, func(c Config) Field { return &FileUpload{base{c}} })
	r.Register(KindDate, func(c Config) Field { return &Date{base{c}} })
	r.Register(KindCountry, func(c Config) Field { return &Text{base{c}} })
	r.Register(KindHidden, func(c Config) Field { return &Text{base{c}} })
	r.Register(KindConsent, func(c Config) Field { return &Consent{base{c}} })
	r.Register(KindSubmit, func(c Config) Field { return &Submit{base{c}} })
	return r
}

// Register adds kind and reports false if it was already registered.
func (r *Registry) Register(kind Kind, ctor Constructor) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ctors[kind]; ok || ctor == nil {
		return false
	}
	r.ctors[kind] = ctor
	r.order = append(r.order, kind)
	return true
}

func (r *Registry) Resolve(kind Kind) (Constructor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ctor, ok := r.ctors[kind]
	return ctor, ok
}

// Active lists registered kinds in registration order.
func (r *Registry) Active() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Kind, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Registry) Delete(kind Kind) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ctors[kind]; !ok {
		return false
	}
	delete(r.ctors, kind)
	for i, k := range r.order {
		if k == kind {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Build resolves cfg.Type and constructs the field.
func (r *Registry) Build(cfg Config) (Field, error) {
	if cfg.ID == "" {
		return nil, ErrMissingID
	}
	ctor, ok := r.Resolve(cfg.Type)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, cfg.Type)
	}
	return ctor(cfg), nil
}
