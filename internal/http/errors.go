package http

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/siscert/api/internal/acesso"
	"github.com/siscert/api/internal/certidao"
	"github.com/siscert/api/internal/empresa"
	"github.com/siscert/api/internal/notificacoes"
	"github.com/siscert/api/internal/push"
	"github.com/siscert/api/internal/repo"
	"github.com/siscert/api/internal/service"
	"github.com/siscert/api/internal/util"
)

var notFoundErrors = []error{
	certidao.ErrNotFound,
	empresa.ErrNotFound,
	service.ErrUsuarioNaoEncontrado,
	service.ErrGrupoNaoEncontrado,
	service.ErrTipoNaoEncontrado,
}

var unauthorizedErrors = []error{
	service.ErrInvalidCredentials,
	service.ErrRefreshInvalid,
	service.ErrUnauthenticated,
	service.ErrSenhaAtualIncorreta,
}

var forbiddenErrors = []error{
	acesso.ErrForbidden,
	service.ErrForbidden,
	service.ErrAccountPending,
	service.ErrAccountBlocked,
	service.ErrAdminNaoExcluivel,
	notificacoes.ErrCalendarioDesativado,
}

// writeDomainError traduz erros de domínio para o envelope HTTP. Erros não
// reconhecidos viram 500 e são logados.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	if verr, ok := util.AsValidation(err); ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", verr.Mensagem, map[string]string{
			"campo":    verr.Campo,
			"mensagem": verr.Mensagem,
		})
		return
	}

	switch {
	case errors.Is(err, acesso.ErrForbiddenEdit):
		WriteError(w, http.StatusForbidden, "FORBIDDEN_EDIT", err.Error(), nil)
		return
	case errors.Is(err, push.ErrNotConfigured):
		WriteError(w, http.StatusServiceUnavailable, "CONFIGURATION", err.Error(), nil)
		return
	case errors.Is(err, service.ErrLoginEmUso):
		WriteError(w, http.StatusConflict, "CONFLICT", err.Error(), nil)
		return
	case errors.Is(err, repo.ErrConflict):
		WriteError(w, http.StatusConflict, "CONFLICT", "Registro já existe", nil)
		return
	case errors.Is(err, repo.ErrNotFound):
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "Registro não encontrado", nil)
		return
	}

	if target := firstMatch(err, notFoundErrors); target != nil {
		WriteError(w, http.StatusNotFound, "NOT_FOUND", target.Error(), nil)
		return
	}
	if target := firstMatch(err, unauthorizedErrors); target != nil {
		WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", target.Error(), nil)
		return
	}
	if target := firstMatch(err, forbiddenErrors); target != nil {
		WriteError(w, http.StatusForbidden, "FORBIDDEN", target.Error(), nil)
		return
	}

	log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("erro inesperado")
	WriteError(w, http.StatusInternalServerError, "INTERNAL", "Erro interno do servidor", nil)
}

func firstMatch(err error, targets []error) error {
	for _, target := range targets {
		if errors.Is(err, target) {
			return target
		}
	}
	return nil
}
