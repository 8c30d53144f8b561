package util

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout é o formato AAAA-MM-DD usado nas datas de certidões.
const DateLayout = "2006-01-02"

// ValidationError descreve falha de validação em um campo de entrada.
type ValidationError struct {
	Campo    string `json:"campo"`
	Mensagem string `json:"mensagem"`
}

func (e *ValidationError) Error() string {
	if e.Campo == "" {
		return e.Mensagem
	}
	return e.Campo + ": " + e.Mensagem
}

// Invalid cria um ValidationError para o campo.
func Invalid(campo, mensagem string) error {
	return &ValidationError{Campo: campo, Mensagem: mensagem}
}

// AsValidation extrai o ValidationError da cadeia, se houver.
func AsValidation(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}

// RequireString garante string não vazia.
func RequireString(value, field string) error {
	if strings.TrimSpace(value) == "" {
		return Invalid(field, field+" é obrigatório")
	}
	return nil
}

// ParseDate valida uma data AAAA-MM-DD.
func ParseDate(value, field string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, Invalid(field, "Data é obrigatória")
	}
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, Invalid(field, "Data deve estar no formato AAAA-MM-DD")
	}
	return t, nil
}

// IntRange garante min <= v <= max.
func IntRange(v, min, max int, field string) error {
	if v < min || v > max {
		return Invalid(field, fmt.Sprintf("deve estar entre %d e %d", min, max))
	}
	return nil
}

// ValidatePassword verifica requisitos mínimos de senha.
func ValidatePassword(password, field string) error {
	if len(password) < 6 {
		return Invalid(field, "Senha deve ter no mínimo 6 caracteres")
	}
	return nil
}
