package workflow

import "time"

// Latest es la proyección "el más reciente gana": devuelve el elemento con mayor
// createdAt. En empate gana el que aparece primero.
// No es una restricción de unicidad del store; es solo una lectura.
func Latest[T any](items []T, createdAt func(T) time.Time) (T, bool) {
	var winner T
	has := false
	for _, it := range items {
		if !has || createdAt(it).After(createdAt(winner)) {
			winner = it
			has = true
		}
	}
	return winner, has
}
