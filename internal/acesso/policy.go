// Package acesso decide quem pode ver e editar certidões a partir do papel do
// usuário e dos seus vínculos com grupos.
package acesso

import (
	"errors"
	"sort"
)

// Role é o papel global do usuário.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleUsuario Role = "usuario"
)

// Nivel é o nível de acesso do usuário dentro de um grupo.
type Nivel string

const (
	NivelComum        Nivel = "comum"
	NivelVisualizador Nivel = "visualizador"
)

// ValidNivel informa se o valor é um nível conhecido.
func ValidNivel(n Nivel) bool {
	return n == NivelComum || n == NivelVisualizador
}

var (
	ErrForbidden     = errors.New("Sem permissão para acessar esta certidão")
	ErrForbiddenEdit = errors.New("Sem permissão para editar esta certidão (apenas visualização)")
)

// Vinculo associa um grupo ao nível de acesso do usuário nele.
type Vinculo struct {
	GrupoID int64 `json:"grupoId"`
	Acesso  Nivel `json:"acesso"`
}

// AuthContext é imutável depois de criado: o mapa interno nunca é exposto.
type AuthContext struct {
	userID int64
	role   Role
	niveis map[int64]Nivel
}

// NewAuthContext copia os vínculos informados. Níveis desconhecidos valem como
// visualizador.
func NewAuthContext(userID int64, role Role, vinculos []Vinculo) AuthContext {
	niveis := make(map[int64]Nivel, len(vinculos))
	for _, v := range vinculos {
		nivel := v.Acesso
		if !ValidNivel(nivel) {
			nivel = NivelVisualizador
		}
		niveis[v.GrupoID] = nivel
	}
	return AuthContext{userID: userID, role: role, niveis: niveis}
}

func (c AuthContext) UserID() int64 { return c.userID }
func (c AuthContext) Role() Role    { return c.role }
func (c AuthContext) IsAdmin() bool { return c.role == RoleAdmin }

// Nivel retorna o nível do usuário no grupo.
func (c AuthContext) Nivel(grupoID int64) (Nivel, bool) {
	n, ok := c.niveis[grupoID]
	return n, ok
}

// GrupoIDs devolve os grupos do usuário em ordem crescente.
func (c AuthContext) GrupoIDs() []int64 {
	ids := make([]int64, 0, len(c.niveis))
	for id := range c.niveis {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Vinculos devolve uma cópia dos vínculos, ordenada por grupo.
func (c AuthContext) Vinculos() []Vinculo {
	out := make([]Vinculo, 0, len(c.niveis))
	for _, id := range c.GrupoIDs() {
		out = append(out, Vinculo{GrupoID: id, Acesso: c.niveis[id]})
	}
	return out
}

// CanView: admin vê tudo; certidão sem grupo é global; senão exige vínculo.
func CanView(c AuthContext, grupoID *int64) bool {
	if c.IsAdmin() || grupoID == nil {
		return true
	}
	_, ok := c.niveis[*grupoID]
	return ok
}

// CanEdit: apenas admin edita certidões globais; nos grupos exige acesso comum.
func CanEdit(c AuthContext, grupoID *int64) bool {
	if c.IsAdmin() {
		return true
	}
	if grupoID == nil {
		return false
	}
	return c.niveis[*grupoID] == NivelComum
}

// CheckEdit valida uma mutação sobre certidão existente.
func CheckEdit(c AuthContext, grupoID *int64) error {
	if !CanView(c, grupoID) {
		return ErrForbidden
	}
	if !CanEdit(c, grupoID) {
		return ErrForbiddenEdit
	}
	return nil
}

// CheckCreate valida o grupo de destino de uma certidão nova (ou realocada).
func CheckCreate(c AuthContext, grupoID *int64) error {
	if c.IsAdmin() {
		return nil
	}
	if grupoID == nil {
		return ErrForbiddenEdit
	}
	nivel, ok := c.niveis[*grupoID]
	if !ok {
		return ErrForbidden
	}
	if nivel != NivelComum {
		return ErrForbiddenEdit
	}
	return nil
}

// Visibility é o filtro de leitura aplicado nas consultas.
type Visibility struct {
	All      bool
	GrupoIDs []int64
}

// Visibility: admin sem filtro; demais veem globais e as dos seus grupos.
func (c AuthContext) Visibility() Visibility {
	if c.IsAdmin() {
		return Visibility{All: true}
	}
	return Visibility{GrupoIDs: c.GrupoIDs()}
}

// Allows aplica o filtro em memória com a mesma regra de CanView.
func (v Visibility) Allows(grupoID *int64) bool {
	if v.All || grupoID == nil {
		return true
	}
	for _, id := range v.GrupoIDs {
		if id == *grupoID {
			return true
		}
	}
	return false
}
