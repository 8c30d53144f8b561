package http

import (
	"net/http"
	"strings"

	"github.com/siscert/api/internal/push"
)

// VAPIDKey devolve a chave pública para o navegador assinar a inscrição.
func (h *Handler) VAPIDKey(w http.ResponseWriter, r *http.Request) {
	key, err := h.Push.VAPIDPublicKey()
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"publicKey": key})
}

// Subscribe registra (ou atualiza) a inscrição do navegador.
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var in push.SubscribeInput
	if err := decodeJSON(r, &in); err != nil {
		writeDomainError(w, r, err)
		return
	}
	if in.UserAgent == nil {
		if ua := strings.TrimSpace(r.UserAgent()); ua != "" {
			in.UserAgent = &ua
		}
	}

	if _, err := h.Push.Subscribe(r.Context(), authContext(r).UserID(), in); err != nil {
		writeDomainError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]bool{"ok": true})
}

// Unsubscribe remove a inscrição do endpoint informado.
func (h *Handler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Endpoint string `json:"endpoint"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeDomainError(w, r, err)
		return
	}

	deleted, err := h.Push.Unsubscribe(r.Context(), authContext(r).UserID(), in.Endpoint)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"ok": true, "deleted": deleted})
}
