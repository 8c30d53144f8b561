// Package empresa mantém o cadastro de empresas e os tipos de certidão
// bloqueados para cada uma.
package empresa

import (
	"errors"
	"strings"

	"github.com/siscert/api/internal/util"
)

var ErrNotFound = errors.New("Empresa não encontrada")

// Empresa é uma empresa acompanhada pelo sistema.
type Empresa struct {
	ID                int64   `json:"id"`
	Slug              string  `json:"slug"`
	Nome              string  `json:"nome"`
	Cor               *string `json:"cor"`
	Ordem             int     `json:"ordem"`
	Ativo             bool    `json:"ativo"`
	TipoIDsBloqueados []int64 `json:"tipoIdsBloqueados"`
}

// CreateInput é o corpo de criação.
type CreateInput struct {
	Nome  string  `json:"nome"`
	Ordem *int    `json:"ordem"`
	Cor   *string `json:"cor"`
}

func (in CreateInput) Validate() error {
	if strings.TrimSpace(in.Nome) == "" {
		return util.Invalid("nome", "Nome é obrigatório")
	}
	if len(in.Nome) > 200 {
		return util.Invalid("nome", "Nome muito longo")
	}
	if in.Ordem != nil && *in.Ordem < 0 {
		return util.Invalid("ordem", "ordem deve ser maior ou igual a zero")
	}
	if in.Cor != nil && len(*in.Cor) > 20 {
		return util.Invalid("cor", "cor muito longa")
	}
	return nil
}

// UpdateInput altera apenas campos presentes. Cor aceita null para limpar.
type UpdateInput struct {
	Slug  *string               `json:"slug"`
	Nome  *string               `json:"nome"`
	Ordem *int                  `json:"ordem"`
	Ativo *bool                 `json:"ativo"`
	Cor   util.Opcional[string] `json:"cor"`
}

func (in UpdateInput) Validate() error {
	if in.Nome != nil && strings.TrimSpace(*in.Nome) == "" {
		return util.Invalid("nome", "Nome é obrigatório")
	}
	if in.Ordem != nil && *in.Ordem < 0 {
		return util.Invalid("ordem", "ordem deve ser maior ou igual a zero")
	}
	if in.Cor.HasValue() && len(in.Cor.Value) > 20 {
		return util.Invalid("cor", "cor muito longa")
	}
	return nil
}
