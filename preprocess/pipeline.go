package preprocess

import (
	"sync"

	"github.com/MasterOfBinary/geobatch"
	"github.com/MasterOfBinary/geobatch/array"
)

// Func transforms one sample. args are the values bound when the callback
// was appended.
type Func func(a *array.Array, args ...interface{}) (*array.Array, error)

type step struct {
	name string
	fn   Func
	args []interface{}
}

// Pipeline is an ordered list of named callbacks. It is safe for concurrent
// use.
type Pipeline struct {
	mu    sync.RWMutex
	steps []step
}

// New returns an empty pipeline.
func New() *Pipeline {
	return &Pipeline{}
}

// Append adds fn under name with bound args. If name is already present its
// callback and args are replaced and it keeps its position.
func (p *Pipeline) Append(name string, fn Func, args ...interface{}) error {
	if name == "" {
		return geobatch.InvalidParameter("callback name is empty")
	}
	if fn == nil {
		return geobatch.InvalidParameter("callback %q is nil", name)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	s := step{name: name, fn: fn, args: append([]interface{}(nil), args...)}
	for i := range p.steps {
		if p.steps[i].name == name {
			p.steps[i] = s
			return nil
		}
	}
	p.steps = append(p.steps, s)
	return nil
}

// Remove deletes the callback registered under name and reports whether it
// existed.
func (p *Pipeline) Remove(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.steps {
		if p.steps[i].name == name {
			steps := make([]step, 0, len(p.steps)-1)
			steps = append(steps, p.steps[:i]...)
			p.steps = append(steps, p.steps[i+1:]...)
			return true
		}
	}
	return false
}

// Get returns the callback and bound args registered under name.
func (p *Pipeline) Get(name string) (Func, []interface{}, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, s := range p.steps {
		if s.name == name {
			return s.fn, s.args, true
		}
	}
	return nil, nil, false
}

// Names returns the callback names in application order.
func (p *Pipeline) Names() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	names := make([]string, len(p.steps))
	for i, s := range p.steps {
		names[i] = s.name
	}
	return names
}

// Len returns the number of callbacks.
func (p *Pipeline) Len() int {
	if p == nil {
		return 0
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.steps)
}

// Clone returns an independent copy. Later changes to p do not affect it.
func (p *Pipeline) Clone() *Pipeline {
	if p == nil {
		return New()
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return &Pipeline{steps: append([]step(nil), p.steps...)}
}

// Apply runs every callback in order. A failing callback stops the pipeline
// and is reported as a geobatch.ProcessorError carrying its name.
func (p *Pipeline) Apply(a *array.Array) (*array.Array, error) {
	if p == nil {
		return a, nil
	}
	p.mu.RLock()
	steps := append([]step(nil), p.steps...)
	p.mu.RUnlock()

	for _, s := range steps {
		out, err := s.fn(a, s.args...)
		if err != nil {
			return nil, geobatch.ProcessorError{Name: s.name, Err: err}
		}
		if out == nil {
			return nil, geobatch.ProcessorError{Name: s.name, Err: geobatch.InvalidParameter("callback returned no array")}
		}
		a = out
	}
	return a, nil
}
