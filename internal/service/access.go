package service

import (
	"context"
	"errors"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/siscert/api/internal/acesso"
	"github.com/siscert/api/internal/repo"
)

var (
	// ErrUnauthenticated indica token válido de usuário que não existe mais.
	ErrUnauthenticated = errors.New("Usuário não autenticado")
	// ErrAccountPending indica cadastro aguardando aprovação.
	ErrAccountPending = errors.New("Conta aguardando aprovação do administrador.")
	// ErrAccountBlocked indica conta bloqueada.
	ErrAccountBlocked = errors.New("Conta bloqueada.")
	// ErrForbidden indica rota restrita a administradores.
	ErrForbidden = errors.New("Acesso restrito a administradores")
)

var (
	accessCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "siscert_access_cache_hits_total",
		Help: "AuthContext encontrados no cache",
	})
	accessCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "siscert_access_cache_misses_total",
		Help: "AuthContext montados a partir do banco",
	})
)

const accessCacheSize = 1024

type accessStore interface {
	GetUsuarioByID(ctx context.Context, id int64) (repo.Usuario, error)
	ListUsuarioGrupos(ctx context.Context, usuarioID int64) ([]repo.UsuarioGrupo, error)
}

// AccessService monta o AuthContext de cada requisição. Com ttl > 0 guarda o
// resultado por usuário; alterações de vínculo devem chamar Invalidate.
type AccessService struct {
	store accessStore
	cache *lru.LRU[int64, acesso.AuthContext]
}

// NewAccessService cria o carregador. ttl <= 0 desliga o cache.
func NewAccessService(store accessStore, ttl time.Duration) *AccessService {
	s := &AccessService{store: store}
	if ttl > 0 {
		s.cache = lru.NewLRU[int64, acesso.AuthContext](accessCacheSize, nil, ttl)
	}
	return s
}

// Load devolve o AuthContext do usuário ativo.
func (s *AccessService) Load(ctx context.Context, userID int64) (acesso.AuthContext, error) {
	if s.cache != nil {
		if ac, ok := s.cache.Get(userID); ok {
			accessCacheHits.Inc()
			return ac, nil
		}
		accessCacheMisses.Inc()
	}

	u, err := s.store.GetUsuarioByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return acesso.AuthContext{}, ErrUnauthenticated
		}
		return acesso.AuthContext{}, err
	}
	if err := statusError(u.Status); err != nil {
		return acesso.AuthContext{}, err
	}

	vinculos, err := s.store.ListUsuarioGrupos(ctx, userID)
	if err != nil {
		return acesso.AuthContext{}, err
	}
	ac := acesso.NewAuthContext(u.ID, acesso.Role(u.Role), toVinculos(vinculos))
	if s.cache != nil {
		s.cache.Add(userID, ac)
	}
	return ac, nil
}

// Invalidate descarta o AuthContext em cache do usuário.
func (s *AccessService) Invalidate(userID int64) {
	if s.cache != nil {
		s.cache.Remove(userID)
	}
}

// Purge descarta todo o cache; usado quando um grupo inteiro muda.
func (s *AccessService) Purge() {
	if s.cache != nil {
		s.cache.Purge()
	}
}

func statusError(status string) error {
	switch status {
	case repo.StatusAtivo:
		return nil
	case repo.StatusPendente:
		return ErrAccountPending
	default:
		return ErrAccountBlocked
	}
}

func toVinculos(list []repo.UsuarioGrupo) []acesso.Vinculo {
	out := make([]acesso.Vinculo, 0, len(list))
	for _, v := range list {
		out = append(out, acesso.Vinculo{GrupoID: v.GrupoID, Acesso: acesso.Nivel(v.Acesso)})
	}
	return out
}
