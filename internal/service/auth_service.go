package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/siscert/api/internal/auth"
	"github.com/siscert/api/internal/repo"
	"github.com/siscert/api/internal/util"
)

var (
	// ErrInvalidCredentials indica login ou senha incorretos.
	ErrInvalidCredentials = errors.New("Login ou senha inválidos")
	// ErrRefreshInvalid indica refresh token inválido ou expirado.
	ErrRefreshInvalid = errors.New("Refresh token inválido ou expirado")
	// ErrLoginEmUso indica login já cadastrado.
	ErrLoginEmUso = errors.New("Login já em uso")
	// ErrSenhaAtualIncorreta indica falha na confirmação da senha atual.
	ErrSenhaAtualIncorreta = errors.New("Senha atual incorreta")
)

type usuarioStore interface {
	GetUsuarioByLogin(ctx context.Context, login string) (repo.Usuario, error)
	GetUsuarioByID(ctx context.Context, id int64) (repo.Usuario, error)
	InsertUsuario(ctx context.Context, arg repo.InsertUsuarioParams) (repo.Usuario, error)
	UpdateSenha(ctx context.Context, id int64, senhaHash string) error
	ListUsuarioGrupos(ctx context.Context, usuarioID int64) ([]repo.UsuarioGrupo, error)
}

type redisCommander interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// AuthService concentra cadastro, login e sessões.
type AuthService struct {
	store      usuarioStore
	redis      redisCommander
	jwt        *auth.JWTManager
	refreshTTL time.Duration
}

// NewAuthService cria novo serviço.
func NewAuthService(store usuarioStore, redisClient redisCommander, jwtMgr *auth.JWTManager, refreshTTL time.Duration) *AuthService {
	return &AuthService{store: store, redis: redisClient, jwt: jwtMgr, refreshTTL: refreshTTL}
}

// JWT expõe gerenciador de JWT (útil em middlewares).
func (s *AuthService) JWT() *auth.JWTManager {
	return s.jwt
}

// CadastroInput é o auto-cadastro; a conta nasce pendente.
type CadastroInput struct {
	Login string  `json:"login"`
	Senha string  `json:"senha"`
	Nome  *string `json:"nome"`
}

func (in CadastroInput) Validate() error {
	if err := validateLogin(in.Login); err != nil {
		return err
	}
	if err := util.ValidatePassword(in.Senha, "senha"); err != nil {
		return err
	}
	return validateNome(in.Nome)
}

// LoginInput são as credenciais de login.
type LoginInput struct {
	Login string `json:"login"`
	Senha string `json:"senha"`
}

func (in LoginInput) Validate() error {
	if strings.TrimSpace(in.Login) == "" {
		return util.Invalid("login", "Login é obrigatório")
	}
	if in.Senha == "" {
		return util.Invalid("senha", "Senha é obrigatória")
	}
	return nil
}

// TrocarSenhaInput pede a senha atual para confirmar a troca.
type TrocarSenhaInput struct {
	SenhaAtual string `json:"senhaAtual"`
	SenhaNova  string `json:"senhaNova"`
}

func (in TrocarSenhaInput) Validate() error {
	if in.SenhaAtual == "" {
		return util.Invalid("senhaAtual", "Senha atual é obrigatória")
	}
	if len(in.SenhaNova) < 6 {
		return util.Invalid("senhaNova", "Senha nova deve ter no mínimo 6 caracteres")
	}
	return nil
}

// Sessao é o retorno de login e refresh.
type Sessao struct {
	Token        string     `json:"token"`
	RefreshToken string     `json:"refreshToken"`
	ExpiresAt    time.Time  `json:"refreshExpiresAt"`
	Usuario      UsuarioAPI `json:"usuario"`
}

// Cadastrar registra usuário comum pendente de aprovação.
func (s *AuthService) Cadastrar(ctx context.Context, in CadastroInput) (UsuarioAPI, error) {
	if err := in.Validate(); err != nil {
		return UsuarioAPI{}, err
	}
	hash, err := auth.Hash(in.Senha)
	if err != nil {
		return UsuarioAPI{}, err
	}
	u, err := s.store.InsertUsuario(ctx, repo.InsertUsuarioParams{
		Login:     strings.TrimSpace(in.Login),
		SenhaHash: hash,
		Nome:      trimNome(in.Nome),
		Role:      "usuario",
		Status:    repo.StatusPendente,
	})
	if err != nil {
		if errors.Is(err, repo.ErrConflict) {
			return UsuarioAPI{}, ErrLoginEmUso
		}
		return UsuarioAPI{}, err
	}
	log.Info().Int64("usuario_id", u.ID).Str("login", u.Login).Msg("novo cadastro pendente")
	return toUsuarioAPI(u, nil), nil
}

// Login autentica por login e senha. Só contas ativas recebem sessão.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (Sessao, error) {
	if err := in.Validate(); err != nil {
		return Sessao{}, err
	}
	u, err := s.store.GetUsuarioByLogin(ctx, strings.TrimSpace(in.Login))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return Sessao{}, ErrInvalidCredentials
		}
		return Sessao{}, err
	}
	if err := auth.CheckPassword(in.Senha, u.SenhaHash); err != nil {
		return Sessao{}, ErrInvalidCredentials
	}
	if err := statusError(u.Status); err != nil {
		return Sessao{}, err
	}
	return s.issue(ctx, u)
}

// Refresh troca o refresh token por uma sessão nova e revoga o anterior.
func (s *AuthService) Refresh(ctx context.Context, raw string) (Sessao, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Sessao{}, ErrRefreshInvalid
	}
	key := auth.RefreshRedisKey(auth.HashRefreshToken(raw))
	val, err := s.redis.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Sessao{}, ErrRefreshInvalid
		}
		return Sessao{}, err
	}
	userID, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return Sessao{}, ErrRefreshInvalid
	}
	u, err := s.store.GetUsuarioByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return Sessao{}, ErrRefreshInvalid
		}
		return Sessao{}, err
	}
	if err := statusError(u.Status); err != nil {
		return Sessao{}, err
	}

	sessao, err := s.issue(ctx, u)
	if err != nil {
		return Sessao{}, err
	}
	if err := s.redis.Del(ctx, key).Err(); err != nil {
		log.Warn().Err(err).Int64("usuario_id", u.ID).Msg("falha ao revogar refresh anterior")
	}
	return sessao, nil
}

// Logout revoga o refresh token informado. Token desconhecido não é erro.
func (s *AuthService) Logout(ctx context.Context, raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	return s.redis.Del(ctx, auth.RefreshRedisKey(auth.HashRefreshToken(raw))).Err()
}

// TrocarSenha altera a senha do próprio usuário.
func (s *AuthService) TrocarSenha(ctx context.Context, userID int64, in TrocarSenhaInput) error {
	if err := in.Validate(); err != nil {
		return err
	}
	u, err := s.store.GetUsuarioByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUnauthenticated
		}
		return err
	}
	if err := auth.CheckPassword(in.SenhaAtual, u.SenhaHash); err != nil {
		return ErrSenhaAtualIncorreta
	}
	hash, err := auth.Hash(in.SenhaNova)
	if err != nil {
		return err
	}
	return s.store.UpdateSenha(ctx, userID, hash)
}

// Me devolve o usuário autenticado com seus grupos.
func (s *AuthService) Me(ctx context.Context, userID int64) (UsuarioAPI, error) {
	u, err := s.store.GetUsuarioByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return UsuarioAPI{}, ErrUnauthenticated
		}
		return UsuarioAPI{}, err
	}
	vinculos, err := s.store.ListUsuarioGrupos(ctx, userID)
	if err != nil {
		return UsuarioAPI{}, err
	}
	return toUsuarioAPI(u, vinculos), nil
}

func (s *AuthService) issue(ctx context.Context, u repo.Usuario) (Sessao, error) {
	token, err := s.jwt.GenerateAccessToken(u.ID, u.Login, u.Role)
	if err != nil {
		return Sessao{}, err
	}
	raw, hash, err := auth.GenerateRefreshToken()
	if err != nil {
		return Sessao{}, err
	}
	expires := time.Now().Add(s.refreshTTL)
	if err := s.redis.Set(ctx, auth.RefreshRedisKey(hash), strconv.FormatInt(u.ID, 10), s.refreshTTL).Err(); err != nil {
		return Sessao{}, err
	}
	vinculos, err := s.store.ListUsuarioGrupos(ctx, u.ID)
	if err != nil {
		return Sessao{}, err
	}
	return Sessao{Token: token, RefreshToken: raw, ExpiresAt: expires, Usuario: toUsuarioAPI(u, vinculos)}, nil
}

func validateLogin(login string) error {
	login = strings.TrimSpace(login)
	if login == "" {
		return util.Invalid("login", "Login é obrigatório")
	}
	if len(login) > 100 {
		return util.Invalid("login", "Login muito longo")
	}
	return nil
}

func validateNome(nome *string) error {
	if nome != nil && len(*nome) > 200 {
		return util.Invalid("nome", "Nome muito longo")
	}
	return nil
}

func trimNome(nome *string) *string {
	if nome == nil {
		return nil
	}
	v := strings.TrimSpace(*nome)
	if v == "" {
		return nil
	}
	return &v
}
