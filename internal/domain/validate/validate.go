// Package validate tiene las reglas de formulario repetidas entre módulos.
package validate

import (
	"net/mail"
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"

	"apa-backoffice/internal/domain/errs"
)

// PhoneDigits es la cantidad de dígitos de un celular con DDD.
const PhoneDigits = 11

// Digits elimina todo lo que no sea dígito: "(42) 99999-0000" -> "42999990000".
func Digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Phone valida y devuelve el teléfono normalizado (solo dígitos).
func Phone(field, s string) (string, error) {
	d := Digits(s)
	if len(d) != PhoneDigits {
		return "", errs.Invalid(field, "phone must have 11 digits including area code")
	}
	return d, nil
}

// MaskPhone formatea 11 dígitos como "(42) 99999-0000". Otros largos se devuelven tal cual.
func MaskPhone(digits string) string {
	if len(digits) != PhoneDigits {
		return digits
	}
	return "(" + digits[:2] + ") " + digits[2:7] + "-" + digits[7:]
}

// MinLen exige al menos n caracteres después de recortar espacios.
func MinLen(field, s string, n int) (string, error) {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) < n {
		return "", errs.Invalid(field, "too short")
	}
	return s, nil
}

func Required(field, s string) (string, error) {
	return MinLen(field, s, 1)
}

// OneOf valida que v pertenezca al dominio.
func OneOf[S ~string](field string, v S, allowed ...S) (S, error) {
	v = S(strings.TrimSpace(string(v)))
	for _, a := range allowed {
		if v == a {
			return v, nil
		}
	}
	return "", errs.Invalid(field, "unsupported value "+string(v))
}

// OptionalURL acepta vacío o una URL http(s) absoluta.
func OptionalURL(field, s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", errs.Invalid(field, "invalid url")
	}
	return s, nil
}

// Email exige una dirección simple (sin nombre para mostrar).
func Email(field, s string) (string, error) {
	s = strings.TrimSpace(s)
	a, err := mail.ParseAddress(s)
	if err != nil || a.Address != s {
		return "", errs.Invalid(field, "invalid email")
	}
	return s, nil
}

// Collect acumula el primer error de una serie de validaciones.
type Collect struct {
	Err error
}

func (c *Collect) Str(v string, err error) string {
	if err != nil && c.Err == nil {
		c.Err = err
	}
	return v
}
