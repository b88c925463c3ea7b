// Package workflow contiene la máquina de estados compartida por todas las entidades
// con campo status (leads, pets, lost pets, rescates, prontuarios).
package workflow

import (
	"strings"

	"apa-backoffice/internal/domain/errs"
)

// Definition describe una máquina: estados, estado inicial y transiciones legales.
type Definition[S ~string] struct {
	Name    string
	Initial S

	// Fallback se usa al leer un registro sin status (o con uno desconocido).
	// Si está vacío se usa Initial.
	Fallback S

	Transitions map[S][]S

	// AnyTo: destinos alcanzables desde cualquier estado (corrección manual).
	AnyTo []S

	// ReasonRequired: destinos que exigen un motivo no vacío.
	ReasonRequired []S
}

type Machine[S ~string] struct {
	name     string
	initial  S
	fallback S
	states   map[S]struct{}
	edges    map[S]map[S]struct{}
	anyTo    map[S]struct{}
	reason   map[S]struct{}
}

// New construye la máquina. Todo estado mencionado en la definición es un estado válido.
func New[S ~string](def Definition[S]) *Machine[S] {
	m := &Machine[S]{
		name:     def.Name,
		initial:  def.Initial,
		fallback: def.Fallback,
		states:   map[S]struct{}{},
		edges:    map[S]map[S]struct{}{},
		anyTo:    map[S]struct{}{},
		reason:   map[S]struct{}{},
	}
	if m.fallback == "" {
		m.fallback = def.Initial
	}

	m.states[def.Initial] = struct{}{}
	for from, tos := range def.Transitions {
		m.states[from] = struct{}{}
		set := m.edges[from]
		if set == nil {
			set = map[S]struct{}{}
			m.edges[from] = set
		}
		for _, to := range tos {
			m.states[to] = struct{}{}
			set[to] = struct{}{}
		}
	}
	for _, to := range def.AnyTo {
		m.states[to] = struct{}{}
		m.anyTo[to] = struct{}{}
	}
	for _, s := range def.ReasonRequired {
		m.reason[s] = struct{}{}
	}
	return m
}

func (m *Machine[S]) Name() string { return m.name }

func (m *Machine[S]) Initial() S { return m.initial }

func (m *Machine[S]) Valid(s S) bool {
	_, ok := m.states[s]
	return ok
}

// Normalize aplica el default de lectura. No persiste nada.
func (m *Machine[S]) Normalize(s S) S {
	if m.Valid(s) {
		return s
	}
	return m.fallback
}

func (m *Machine[S]) CanTransition(from, to S) bool {
	from = m.Normalize(from)
	if !m.Valid(to) {
		return false
	}
	if _, ok := m.anyTo[to]; ok {
		return true
	}
	_, ok := m.edges[from][to]
	return ok
}

func (m *Machine[S]) RequiresReason(to S) bool {
	_, ok := m.reason[to]
	return ok
}

// Change es el resultado de un Check exitoso.
type Change[S ~string] struct {
	From   S
	To     S
	Reason string
	// Noop: el registro ya estaba en el destino; no hay que escribir ni emitir eventos.
	Noop bool
}

// Check valida una transición pedida por actor. Orden de validación:
// privilegio, idempotencia, alcanzabilidad, motivo.
func (m *Machine[S]) Check(actor Actor, from, to S, reason string) (Change[S], error) {
	if err := RequireAdmin(actor); err != nil {
		return Change[S]{}, err
	}
	return m.check(from, to, reason)
}

// CheckAs es como Check pero la autorización ya fue resuelta por el llamador
// (p.ej. reabrir un lead propio).
func (m *Machine[S]) CheckAs(from, to S, reason string) (Change[S], error) {
	return m.check(from, to, reason)
}

func (m *Machine[S]) check(from, to S, reason string) (Change[S], error) {
	from = m.Normalize(from)
	reason = strings.TrimSpace(reason)

	if !m.Valid(to) {
		return Change[S]{}, errs.Invalid("status", "unknown status "+string(to))
	}
	if from == to {
		return Change[S]{From: from, To: to, Noop: true}, nil
	}
	if !m.CanTransition(from, to) {
		return Change[S]{}, &errs.IllegalTransitionError{Machine: m.name, From: string(from), To: string(to)}
	}
	if m.RequiresReason(to) && reason == "" {
		return Change[S]{}, errs.Invalid("reason", "a reason is required")
	}
	if !m.RequiresReason(to) {
		reason = ""
	}
	return Change[S]{From: from, To: to, Reason: reason}, nil
}
