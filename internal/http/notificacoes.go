package http

import (
	"net/http"

	"github.com/siscert/api/internal/notificacoes"
)

// GetNotificacoesConfig devolve a configuração salva ou o padrão.
func (h *Handler) GetNotificacoesConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.Notificacoes.Get(r.Context(), authContext(r).UserID())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"config": cfg})
}

// PutNotificacoesConfig grava a configuração completa.
func (h *Handler) PutNotificacoesConfig(w http.ResponseWriter, r *http.Request) {
	var in notificacoes.Input
	if err := decodeJSON(r, &in); err != nil {
		writeDomainError(w, r, err)
		return
	}
	cfg, err := h.Notificacoes.Save(r.Context(), authContext(r).UserID(), in)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"config": cfg})
}
