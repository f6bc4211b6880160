// Package param provides lock-free engine parameters and per-sample
// smoothing. Control threads store values atomically; the render thread reads
// them without ever taking a lock.
package param

import (
	"math"
	"sync"
	"sync/atomic"
)

// Parameter is a single engine parameter. The stored value is normalized to
// [0,1]; Min/Max define the plain range the engines consume.
type Parameter struct {
	ID   uint32
	Name string
	Unit string
	Min  float64
	Max  float64

	// Normalized default, set by the builder.
	DefaultValue float64

	// Atomic bits of the normalized value for lock-free audio-thread reads.
	value atomic.Uint64
}

// GetValue returns the current normalized value (0-1).
func (p *Parameter) GetValue() float64 {
	return math.Float64frombits(p.value.Load())
}

// SetValue sets the normalized value, clamped to 0-1.
func (p *Parameter) SetValue(value float64) {
	if value < 0 {
		value = 0
	} else if value > 1 {
		value = 1
	}
	p.value.Store(math.Float64bits(value))
}

// GetPlainValue converts the normalized value to the plain range.
func (p *Parameter) GetPlainValue() float64 {
	return p.Min + p.GetValue()*(p.Max-p.Min)
}

// SetPlainValue converts a plain value to normalized and stores it.
func (p *Parameter) SetPlainValue(plain float64) {
	if p.Max <= p.Min {
		p.SetValue(0)
		return
	}
	p.SetValue((plain - p.Min) / (p.Max - p.Min))
}

// Builder provides a fluent API for creating parameters.
type Builder struct {
	param *Parameter
}

// New creates a new parameter builder.
func New(id uint32, name string) *Builder {
	return &Builder{
		param: &Parameter{
			ID:   id,
			Name: name,
			Min:  0,
			Max:  1,
		},
	}
}

// Range sets the plain min and max values.
func (b *Builder) Range(min, max float64) *Builder {
	b.param.Min = min
	b.param.Max = max
	return b
}

// Default sets the default value in the plain range.
func (b *Builder) Default(plain float64) *Builder {
	if b.param.Max > b.param.Min {
		b.param.DefaultValue = (plain - b.param.Min) / (b.param.Max - b.param.Min)
	}
	return b
}

// Unit sets the unit string.
func (b *Builder) Unit(unit string) *Builder {
	b.param.Unit = unit
	return b
}

// Build returns the configured parameter initialized to its default.
func (b *Builder) Build() *Parameter {
	b.param.SetValue(b.param.DefaultValue)
	return b.param
}

// Registry manages the engine's parameters.
type Registry struct {
	mu     sync.RWMutex
	params map[uint32]*Parameter
	order  []uint32
}

// NewRegistry creates an empty parameter registry.
func NewRegistry() *Registry {
	return &Registry{params: make(map[uint32]*Parameter)}
}

// Add registers parameters; duplicate IDs are skipped.
func (r *Registry) Add(params ...*Parameter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range params {
		if _, exists := r.params[p.ID]; exists {
			continue
		}
		r.params[p.ID] = p
		r.order = append(r.order, p.ID)
	}
}

// Get retrieves a parameter by ID, or nil.
func (r *Registry) Get(id uint32) *Parameter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.params[id]
}

// Count returns the number of registered parameters.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// All returns all parameters in registration order.
func (r *Registry) All() []*Parameter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*Parameter, len(r.order))
	for i, id := range r.order {
		result[i] = r.params[id]
	}
	return result
}
