package leads

import "sync"

// watchers avisa a los streams en vivo de un usuario que hay un envío en curso,
// antes de que el store lo confirme.
type watchers struct {
	mu   sync.Mutex
	next uint64
	subs map[watchKey]map[uint64]chan Lead
}

type watchKey struct {
	kind   Kind
	userID string
}

func (w *watchers) add(kind Kind, userID string) (uint64, chan Lead) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.subs == nil {
		w.subs = map[watchKey]map[uint64]chan Lead{}
	}
	k := watchKey{kind, userID}
	if w.subs[k] == nil {
		w.subs[k] = map[uint64]chan Lead{}
	}
	w.next++
	ch := make(chan Lead, 1)
	w.subs[k][w.next] = ch
	return w.next, ch
}

func (w *watchers) remove(kind Kind, userID string, id uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	k := watchKey{kind, userID}
	delete(w.subs[k], id)
	if len(w.subs[k]) == 0 {
		delete(w.subs, k)
	}
}

func (w *watchers) emit(l Lead) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, ch := range w.subs[watchKey{l.Kind, l.UserID}] {
		select {
		case ch <- l:
		default:
			// reemplaza el pendiente: solo importa el último envío
			select {
			case <-ch:
			default:
			}
			ch <- l
		}
	}
}

// WatchSubmissions entrega los envíos del usuario en cuanto pasan validación.
// cancel debe llamarse al terminar.
func (s *Service) WatchSubmissions(kind Kind, userID string) (<-chan Lead, func()) {
	id, ch := s.watch.add(kind, userID)
	return ch, func() { s.watch.remove(kind, userID, id) }
}
