package http

import (
	"net/http"
	"strconv"
	"strings"
)

// ListGrupos lista todos os grupos para admin e só os do usuário para os demais.
func (h *Handler) ListGrupos(w http.ResponseWriter, r *http.Request) {
	grupos, err := h.Admin.GruposVisiveis(r.Context(), authContext(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"grupos": grupos})
}

// ListEmpresas lista as empresas disponíveis ao usuário; ?ativos=false inclui
// inativas.
func (h *Handler) ListEmpresas(w http.ResponseWriter, r *http.Request) {
	empresas, err := h.Empresas.ListForUser(r.Context(), authContext(r), queryBool(r, "ativos", true))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"empresas": empresas})
}

// ListTiposCertidao lista o catálogo de tipos ativos.
func (h *Handler) ListTiposCertidao(w http.ResponseWriter, r *http.Request) {
	tipos, err := h.Admin.ListTipos(r.Context(), true)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"tipos": tipos})
}

func queryBool(r *http.Request, name string, def bool) bool {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}
