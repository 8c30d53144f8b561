package util

import "github.com/google/uuid"

// NewID gera identificador textual para sub-registros (pendências, notas, anexos).
func NewID() string {
	return uuid.NewString()
}
