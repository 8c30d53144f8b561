package util

import (
	"bytes"
	"encoding/json"
)

// Opcional distingue três estados de um campo no JSON: ausente, null explícito
// e valor.
type Opcional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// HasValue informa se o campo veio com valor (não ausente e não null).
func (o Opcional[T]) HasValue() bool { return o.Set && !o.Null }

// Ptr devolve nil para null e ponteiro para o valor caso contrário.
func (o Opcional[T]) Ptr() *T {
	if !o.HasValue() {
		return nil
	}
	v := o.Value
	return &v
}

// UnmarshalJSON só é chamado quando a chave está presente.
func (o *Opcional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Null = true
		var zero T
		o.Value = zero
		return nil
	}
	o.Null = false
	return json.Unmarshal(data, &o.Value)
}
