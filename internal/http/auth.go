package http

import (
	"net/http"

	"github.com/siscert/api/internal/acesso"
	httpmiddleware "github.com/siscert/api/internal/http/middleware"
	"github.com/siscert/api/internal/service"
)

type refreshPayload struct {
	RefreshToken string `json:"refreshToken"`
}

// Cadastro registra conta pendente de aprovação.
func (h *Handler) Cadastro(w http.ResponseWriter, r *http.Request) {
	var in service.CadastroInput
	if err := decodeJSON(r, &in); err != nil {
		writeDomainError(w, r, err)
		return
	}

	usuario, err := h.Auth.Cadastrar(r.Context(), in)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]any{
		"usuario":  usuario,
		"mensagem": "Conta criada. Aguarde aprovação do administrador.",
	})
}

// Login autentica por login e senha.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var in service.LoginInput
	if err := decodeJSON(r, &in); err != nil {
		writeDomainError(w, r, err)
		return
	}

	sessao, err := h.Auth.Login(r.Context(), in)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, sessao)
}

// Refresh troca o refresh token por uma sessão nova.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var in refreshPayload
	if err := decodeJSON(r, &in); err != nil {
		writeDomainError(w, r, err)
		return
	}

	sessao, err := h.Auth.Refresh(r.Context(), in.RefreshToken)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, sessao)
}

// Logout revoga o refresh token.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var in refreshPayload
	if err := decodeJSON(r, &in); err != nil {
		writeDomainError(w, r, err)
		return
	}

	if err := h.Auth.Logout(r.Context(), in.RefreshToken); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me devolve o usuário autenticado com seus grupos.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	usuario, err := h.Auth.Me(r.Context(), authContext(r).UserID())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"usuario": usuario})
}

// TrocarSenha altera a senha do próprio usuário.
func (h *Handler) TrocarSenha(w http.ResponseWriter, r *http.Request) {
	var in service.TrocarSenhaInput
	if err := decodeJSON(r, &in); err != nil {
		writeDomainError(w, r, err)
		return
	}

	if err := h.Auth.TrocarSenha(r.Context(), authContext(r).UserID(), in); err != nil {
		writeDomainError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// authContext devolve o contexto de acesso anexado por LoadAccess. Fora das
// rotas privadas cai para um usuário sem vínculos, que não vê nada de grupo.
func authContext(r *http.Request) acesso.AuthContext {
	if ac, ok := acesso.FromContext(r.Context()); ok {
		return ac
	}
	userID, _ := httpmiddleware.GetUserID(r.Context())
	return acesso.NewAuthContext(userID, acesso.RoleUsuario, nil)
}
