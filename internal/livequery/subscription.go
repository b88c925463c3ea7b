package livequery

import (
	"context"
	"errors"
	"sync"
	"time"

	"apa-backoffice/internal/domain/errs"
)

// State permite a la UI distinguir "sin datos" de "consulta rota".
type State string

const (
	StateReady         State = "ready"
	StateEmpty         State = "empty"
	StateMisconfigured State = "misconfigured"
	StateUnavailable   State = "unavailable"
)

type Snapshot[T any] struct {
	Seq     uint64
	Records []T
	Err     error
	At      time.Time
}

func (s Snapshot[T]) State() State {
	switch {
	case s.Err != nil && errors.Is(s.Err, errs.ErrConfiguration):
		return StateMisconfigured
	case s.Err != nil:
		return StateUnavailable
	case len(s.Records) == 0:
		return StateEmpty
	default:
		return StateReady
	}
}

// FetchFunc ejecuta la consulta (filtro + orden + límite) contra el store.
type FetchFunc[T any] func(ctx context.Context) ([]T, error)

type Subscription[T any] struct {
	hub        *Hub
	collection string
	id         uint64
	fetch      FetchFunc[T]

	out    chan Snapshot[T]
	wakeCh chan struct{}
	done   chan struct{}

	cancel    context.CancelFunc
	closeOnce sync.Once
}

// Subscribe registra una consulta permanente sobre collection y entrega un snapshot
// inicial de inmediato. Se da de baja con Close o cancelando ctx.
// C() conserva solo el snapshot más reciente si el consumidor se atrasa.
func Subscribe[T any](ctx context.Context, h *Hub, collection string, fetch FetchFunc[T]) *Subscription[T] {
	ctx, cancel := context.WithCancel(ctx)

	s := &Subscription[T]{
		hub:        h,
		collection: collection,
		fetch:      fetch,
		out:        make(chan Snapshot[T], 1),
		wakeCh:     make(chan struct{}, 1),
		done:       make(chan struct{}),
		cancel:     cancel,
	}
	s.id = h.register(collection, s)

	go s.loop(ctx)
	return s
}

func (s *Subscription[T]) C() <-chan Snapshot[T] { return s.out }

// Done se cierra cuando la suscripción terminó de liberar recursos.
func (s *Subscription[T]) Done() <-chan struct{} { return s.done }

func (s *Subscription[T]) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
	})
	<-s.done
}

func (s *Subscription[T]) wake() {
	select {
	case s.wakeCh <- struct{}{}:
	default:
	}
}

func (s *Subscription[T]) loop(ctx context.Context) {
	defer close(s.done)
	defer close(s.out)
	defer s.hub.unregister(s.collection, s.id)

	var seq uint64
	eval := func() {
		seq++
		records, err := s.fetch(ctx)
		if ctx.Err() != nil {
			return
		}
		s.deliver(Snapshot[T]{Seq: seq, Records: records, Err: err, At: time.Now()})
	}

	eval()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.wakeCh:
			eval()
		}
	}
}

// deliver reemplaza el snapshot pendiente si el consumidor no lo leyó.
// Solo loop escribe en out, así que después de vaciar el buffer el envío no bloquea.
func (s *Subscription[T]) deliver(snap Snapshot[T]) {
	select {
	case s.out <- snap:
		return
	default:
	}
	select {
	case <-s.out:
	default:
	}
	s.out <- snap
}
