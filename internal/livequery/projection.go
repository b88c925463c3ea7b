package livequery

import "sync"

// Projection mantiene "el registro actual" de una vista (p.ej. el lead más reciente
// del usuario) y admite un valor especulativo que se muestra antes de que el store
// confirme. El siguiente snapshot que no coincida lo descarta.
type Projection[T any] struct {
	mu sync.Mutex

	same func(a, b T) bool

	confirmed    T
	hasConfirmed bool

	speculative T
	hasSpec     bool
}

func NewProjection[T any](same func(a, b T) bool) *Projection[T] {
	return &Projection[T]{same: same}
}

func (p *Projection[T]) Speculate(v T) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.speculative = v
	p.hasSpec = true
}

// Apply incorpora el valor autoritativo de un snapshot (ok=false: no hay registro).
// Devuelve true si había una especulación y fue descartada por no coincidir.
func (p *Projection[T]) Apply(v T, ok bool) (discarded bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.confirmed = v
	p.hasConfirmed = ok

	if !p.hasSpec {
		return false
	}
	agrees := ok && p.same(v, p.speculative)
	var zero T
	p.speculative = zero
	p.hasSpec = false
	return !agrees
}

// Current devuelve lo que hay que mostrar: la especulación si existe, si no lo confirmado.
func (p *Projection[T]) Current() (v T, ok bool, speculative bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.hasSpec {
		return p.speculative, true, true
	}
	return p.confirmed, p.hasConfirmed, false
}
