// Package tabular genera los CSV de exportación del back office con una sola
// política de escape para todos los módulos.
package tabular

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// bom hace que Excel abra el archivo como UTF-8 (acentos en los encabezados).
const bom = "\ufeff"

// Table es un encabezado fijo más filas. Todas las filas deben tener len(Header) celdas.
type Table struct {
	Header []string
	Rows   [][]string
}

func (t *Table) Append(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

// Write escribe el CSV. encoding/csv pone comillas cuando la celda tiene coma,
// comillas o salto de línea, igual para todas las columnas.
func (t Table) Write(w io.Writer) error {
	if _, err := io.WriteString(w, bom); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return err
	}
	for i, row := range t.Rows {
		if len(row) != len(t.Header) {
			return fmt.Errorf("tabular: row %d has %d cells, want %d", i, len(row), len(t.Header))
		}
		clean := make([]string, len(row))
		for j, c := range row {
			clean[j] = strings.TrimSpace(c)
		}
		if err := cw.Write(clean); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (t Table) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := t.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Date formatea como dd/mm/aaaa (pt-BR). Fecha cero => celda vacía.
func Date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02/01/2006")
}

// FileName arma "<prefix>_<aaaa-mm-dd>.csv".
func FileName(prefix string, now time.Time) string {
	return fmt.Sprintf("%s_%s.csv", prefix, now.Format("2006-01-02"))
}

// Serve responde el CSV como descarga.
func Serve(w http.ResponseWriter, name string, t Table) {
	b, err := t.Bytes()
	if err != nil {
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}
