package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/siscert/api/internal/acesso"
	"github.com/siscert/api/internal/certidao"
	"github.com/siscert/api/internal/util"
)

// ListCertidoes lista as certidões visíveis; ?status filtra por estado.
func (h *Handler) ListCertidoes(w http.ResponseWriter, r *http.Request) {
	var status *certidao.Status
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		s := certidao.Status(raw)
		if !certidao.ValidStatus(s) {
			writeDomainError(w, r, util.Invalid("status", "status deve ser ativa, arquivada ou lixeira"))
			return
		}
		status = &s
	}

	list, err := h.Certidoes.List(r.Context(), authContext(r), status)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if list == nil {
		list = []certidao.Item{}
	}
	WriteJSON(w, http.StatusOK, map[string]any{"certidoes": list})
}

// GetCertidao devolve a certidão com podeEditar.
func (h *Handler) GetCertidao(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	item, err := h.Certidoes.Get(r.Context(), authContext(r), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"certidao": item})
}

// CreateCertidao cria certidão ativa.
func (h *Handler) CreateCertidao(w http.ResponseWriter, r *http.Request) {
	var in certidao.CreateInput
	if err := decodeJSON(r, &in); err != nil {
		writeDomainError(w, r, err)
		return
	}
	item, err := h.Certidoes.Create(r.Context(), authContext(r), in)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]any{"certidao": item})
}

// UpdateCertidao aplica atualização parcial; null limpa o campo.
func (h *Handler) UpdateCertidao(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	var patch certidao.Patch
	if err := decodeJSON(r, &patch); err != nil {
		writeDomainError(w, r, err)
		return
	}
	item, err := h.Certidoes.Update(r.Context(), authContext(r), id, patch)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"certidao": item})
}

// DeleteCertidao exclui definitivamente.
func (h *Handler) DeleteCertidao(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := h.Certidoes.Delete(r.Context(), authContext(r), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type certidaoTransition func(ctx context.Context, ac acesso.AuthContext, id uuid.UUID) (*certidao.Item, error)

func (h *Handler) transition(fn certidaoTransition, status int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "id")
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		item, err := fn(r.Context(), authContext(r), id)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		WriteJSON(w, status, map[string]any{"certidao": item})
	}
}

// ArquivarCertidao move para arquivada.
func (h *Handler) ArquivarCertidao(w http.ResponseWriter, r *http.Request) {
	h.transition(h.Certidoes.Archive, http.StatusOK)(w, r)
}

// RestaurarCertidao volta para ativa.
func (h *Handler) RestaurarCertidao(w http.ResponseWriter, r *http.Request) {
	h.transition(h.Certidoes.Restore, http.StatusOK)(w, r)
}

// LixeiraCertidao move para a lixeira.
func (h *Handler) LixeiraCertidao(w http.ResponseWriter, r *http.Request) {
	h.transition(h.Certidoes.Trash, http.StatusOK)(w, r)
}

// DuplicarCertidao cria cópia ativa com novo id.
func (h *Handler) DuplicarCertidao(w http.ResponseWriter, r *http.Request) {
	h.transition(h.Certidoes.Duplicate, http.StatusCreated)(w, r)
}

// CalendarioCertidoes exporta os vencimentos em iCalendar.
func (h *Handler) CalendarioCertidoes(w http.ResponseWriter, r *http.Request) {
	ac := authContext(r)
	if err := h.Notificacoes.CalendarioLiberado(r.Context(), ac.UserID()); err != nil {
		writeDomainError(w, r, err)
		return
	}
	body, err := h.Certidoes.Calendar(r.Context(), ac)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="certidoes.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
