package repo

import "time"

// Status de conta do usuário.
const (
	StatusPendente  = "pendente"
	StatusAtivo     = "ativo"
	StatusBloqueado = "bloqueado"
)

// Usuario representa conta de acesso ao sistema.
type Usuario struct {
	ID         int64
	Login      string
	SenhaHash  string
	Nome       *string
	Role       string
	Status     string
	ApprovedAt *time.Time
	ApprovedBy *int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// UsuarioGrupo vincula usuário a grupo com nível de acesso.
type UsuarioGrupo struct {
	UsuarioID int64
	GrupoID   int64
	Acesso    string
}

// Grupo agrupa usuários, empresas e certidões.
type Grupo struct {
	ID        int64
	Nome      string
	CreatedAt time.Time
}

// GrupoMembro é um usuário listado dentro do grupo.
type GrupoMembro struct {
	UsuarioID int64
	Login     string
	Nome      *string
	Acesso    string
}

// TipoCertidao é item do catálogo de tipos.
type TipoCertidao struct {
	ID        int64
	Nome      string
	Ordem     int
	Ativo     bool
	CreatedAt time.Time
}

// InsertUsuarioParams agrupa campos de criação de usuário.
type InsertUsuarioParams struct {
	Login     string
	SenhaHash string
	Nome      *string
	Role      string
	Status    string
}

// UpdateUsuarioParams atualiza apenas campos não nulos; Nome usa SetNome
// para permitir limpar o valor.
type UpdateUsuarioParams struct {
	Login     *string
	SenhaHash *string
	SetNome   bool
	Nome      *string
}

// UpdateTipoParams atualiza campos informados do tipo.
type UpdateTipoParams struct {
	Nome  *string
	Ordem *int
	Ativo *bool
}
