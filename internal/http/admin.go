package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/siscert/api/internal/empresa"
	"github.com/siscert/api/internal/notificacoes"
	"github.com/siscert/api/internal/push"
	"github.com/siscert/api/internal/service"
)

func (h *Handler) mountAdmin(r chi.Router) {
	r.Get("/stats", h.AdminStats)

	r.Route("/usuarios", func(u chi.Router) {
		u.Get("/", h.AdminListUsuarios)
		u.Post("/", h.AdminCreateUsuario)
		u.Put("/{id}", h.AdminUpdateUsuario)
		u.Delete("/{id}", h.AdminDeleteUsuario)
		u.Put("/{id}/aprovar", h.AdminAprovarUsuario)
		u.Put("/{id}/bloquear", h.AdminBloquearUsuario)
		u.Put("/{id}/reativar", h.AdminReativarUsuario)
		u.Put("/{id}/grupos", h.AdminSetUsuarioGrupos)
	})

	r.Route("/grupos", func(g chi.Router) {
		g.Get("/", h.AdminListGrupos)
		g.Post("/", h.AdminCreateGrupo)
		g.Get("/{id}", h.AdminGetGrupo)
		g.Put("/{id}", h.AdminUpdateGrupo)
		g.Delete("/{id}", h.AdminDeleteGrupo)
		g.Put("/{id}/usuarios", h.AdminSetGrupoUsuarios)
		g.Put("/{id}/empresas", h.AdminSetGrupoEmpresas)
	})

	r.Route("/tipos-certidao", func(t chi.Router) {
		t.Get("/", h.AdminListTipos)
		t.Post("/", h.AdminCreateTipo)
		t.Put("/{id}", h.AdminUpdateTipo)
		t.Delete("/{id}", h.AdminDeleteTipo)
	})

	r.Route("/empresas", func(e chi.Router) {
		e.Get("/", h.AdminListEmpresas)
		e.Post("/", h.AdminCreateEmpresa)
		e.Get("/{id}", h.AdminGetEmpresa)
		e.Put("/{id}", h.AdminUpdateEmpresa)
		e.Delete("/{id}", h.AdminDeleteEmpresa)
		e.Put("/{id}/tipos-bloqueados", h.AdminSetEmpresaTipos)
	})

	r.Post("/lembretes/executar", h.AdminExecutarLembretes)
}

// AdminStats resume usuários e certidões.
func (h *Handler) AdminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Admin.Stats(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, stats)
}

// AdminListUsuarios lista usuários com vínculos.
func (h *Handler) AdminListUsuarios(w http.ResponseWriter, r *http.Request) {
	usuarios, err := h.Admin.ListUsuarios(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"usuarios": usuarios})
}

// AdminCreateUsuario cria conta já aprovada.
func (h *Handler) AdminCreateUsuario(w http.ResponseWriter, r *http.Request) {
	var in service.UsuarioCreateInput
	if err := decodeJSON(r, &in); err != nil {
		writeDomainError(w, r, err)
		return
	}
	usuario, err := h.Admin.CriarUsuario(r.Context(), in)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]any{"usuario": usuario})
}

// AdminUpdateUsuario altera login, senha ou nome.
func (h *Handler) AdminUpdateUsuario(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	var in service.UsuarioUpdateInput
	if err := decodeJSON(r, &in); err != nil {
		writeDomainError(w, r, err)
		return
	}
	usuario, err := h.Admin.AtualizarUsuario(r.Context(), id, in)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"usuario": usuario})
}

// AdminDeleteUsuario exclui usuário comum.
func (h *Handler) AdminDeleteUsuario(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := h.Admin.ExcluirUsuario(r.Context(), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AdminAprovarUsuario ativa cadastro pendente.
func (h *Handler) AdminAprovarUsuario(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	usuario, err := h.Admin.AprovarUsuario(r.Context(), id, authContext(r).UserID())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"usuario": usuario})
}

// AdminBloquearUsuario bloqueia o acesso do usuário.
func (h *Handler) AdminBloquearUsuario(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	usuario, err := h.Admin.BloquearUsuario(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"usuario": usuario})
}

// AdminReativarUsuario volta o usuário para ativo.
func (h *Handler) AdminReativarUsuario(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	usuario, err := h.Admin.ReativarUsuario(r.Context(), id, authContext(r).UserID())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"usuario": usuario})
}

// AdminSetUsuarioGrupos substitui os grupos do usuário.
func (h *Handler) AdminSetUsuarioGrupos(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	var in struct {
		Grupos []service.VinculoInput `json:"grupos"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeDomainError(w, r, err)
		return
	}
	usuario, err := h.Admin.SetUsuarioGrupos(r.Context(), id, in.Grupos)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"usuario": usuario})
}

// AdminListGrupos lista todos os grupos.
func (h *Handler) AdminListGrupos(w http.ResponseWriter, r *http.Request) {
	grupos, err := h.Admin.ListGrupos(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"grupos": grupos})
}

// AdminGetGrupo devolve grupo com membros e empresas.
func (h *Handler) AdminGetGrupo(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	grupo, err := h.Admin.GetGrupo(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"grupo": grupo})
}

// AdminCreateGrupo cria grupo.
func (h *Handler) AdminCreateGrupo(w http.ResponseWriter, r *http.Request) {
	var in service.GrupoInput
	if err := decodeJSON(r, &in); err != nil {
		writeDomainError(w, r, err)
		return
	}
	grupo, err := h.Admin.CriarGrupo(r.Context(), in)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]any{"grupo": grupo})
}

// AdminUpdateGrupo renomeia grupo.
func (h *Handler) AdminUpdateGrupo(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	var in service.GrupoInput
	if err := decodeJSON(r, &in); err != nil {
		writeDomainError(w, r, err)
		return
	}
	grupo, err := h.Admin.AtualizarGrupo(r.Context(), id, in)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"grupo": grupo})
}

// AdminDeleteGrupo exclui grupo.
func (h *Handler) AdminDeleteGrupo(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := h.Admin.ExcluirGrupo(r.Context(), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AdminSetGrupoUsuarios substitui os membros do grupo.
func (h *Handler) AdminSetGrupoUsuarios(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	var in struct {
		Usuarios []service.MembroInput `json:"usuarios"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeDomainError(w, r, err)
		return
	}
	grupo, err := h.Admin.SetGrupoUsuarios(r.Context(), id, in.Usuarios)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"grupo": grupo})
}

// AdminSetGrupoEmpresas substitui as empresas do grupo.
func (h *Handler) AdminSetGrupoEmpresas(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	var in struct {
		EmpresaIDs []int64 `json:"empresaIds"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeDomainError(w, r, err)
		return
	}
	grupo, err := h.Admin.SetGrupoEmpresas(r.Context(), id, in.EmpresaIDs)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"grupo": grupo})
}

// AdminListTipos lista o catálogo completo, inclusive inativos.
func (h *Handler) AdminListTipos(w http.ResponseWriter, r *http.Request) {
	tipos, err := h.Admin.ListTipos(r.Context(), false)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"tipos": tipos})
}

// AdminCreateTipo adiciona tipo ao catálogo.
func (h *Handler) AdminCreateTipo(w http.ResponseWriter, r *http.Request) {
	var in service.TipoCreateInput
	if err := decodeJSON(r, &in); err != nil {
		writeDomainError(w, r, err)
		return
	}
	tipo, err := h.Admin.CriarTipo(r.Context(), in)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]any{"tipo": tipo})
}

// AdminUpdateTipo altera tipo do catálogo.
func (h *Handler) AdminUpdateTipo(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	var in service.TipoUpdateInput
	if err := decodeJSON(r, &in); err != nil {
		writeDomainError(w, r, err)
		return
	}
	tipo, err := h.Admin.AtualizarTipo(r.Context(), id, in)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"tipo": tipo})
}

// AdminDeleteTipo remove tipo do catálogo.
func (h *Handler) AdminDeleteTipo(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := h.Admin.ExcluirTipo(r.Context(), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AdminListEmpresas lista todas as empresas, inclusive inativas.
func (h *Handler) AdminListEmpresas(w http.ResponseWriter, r *http.Request) {
	empresas, err := h.Empresas.List(r.Context(), queryBool(r, "ativos", false))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"empresas": empresas})
}

// AdminGetEmpresa devolve a empresa com tipos bloqueados.
func (h *Handler) AdminGetEmpresa(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	e, err := h.Empresas.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"empresa": e})
}

// AdminCreateEmpresa cria empresa com slug derivado do nome.
func (h *Handler) AdminCreateEmpresa(w http.ResponseWriter, r *http.Request) {
	var in empresa.CreateInput
	if err := decodeJSON(r, &in); err != nil {
		writeDomainError(w, r, err)
		return
	}
	e, err := h.Empresas.Create(r.Context(), in)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]any{"empresa": e})
}

// AdminUpdateEmpresa altera campos presentes da empresa.
func (h *Handler) AdminUpdateEmpresa(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	var in empresa.UpdateInput
	if err := decodeJSON(r, &in); err != nil {
		writeDomainError(w, r, err)
		return
	}
	e, err := h.Empresas.Update(r.Context(), id, in)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"empresa": e})
}

// AdminDeleteEmpresa exclui empresa.
func (h *Handler) AdminDeleteEmpresa(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := h.Empresas.Delete(r.Context(), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AdminSetEmpresaTipos substitui os tipos de certidão bloqueados da empresa.
func (h *Handler) AdminSetEmpresaTipos(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	var in struct {
		TipoIDs []int64 `json:"tipoIds"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := h.Empresas.SetTiposBloqueados(r.Context(), id, in.TipoIDs); err != nil {
		writeDomainError(w, r, err)
		return
	}
	e, err := h.Empresas.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"empresa": e})
}

// AdminExecutarLembretes roda o job de lembretes agora; ?horario=HH:MM limita
// aos usuários daquele horário.
func (h *Handler) AdminExecutarLembretes(w http.ResponseWriter, r *http.Request) {
	if h.Lembretes == nil {
		writeDomainError(w, r, push.ErrNotConfigured)
		return
	}
	horario := strings.TrimSpace(r.URL.Query().Get("horario"))
	if horario != "" {
		normalized, err := notificacoes.NormalizeHorario(horario)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		horario = normalized
	}

	summary, err := h.Lembretes.RunNow(r.Context(), horario)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"resumo": summary})
}
