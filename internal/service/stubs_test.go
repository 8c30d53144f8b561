package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/siscert/api/internal/certidao"
	"github.com/siscert/api/internal/repo"
)

type stubRedis struct {
	store map[string]string
}

func (s *stubRedis) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	if s.store == nil {
		s.store = make(map[string]string)
	}
	s.store[key] = fmt.Sprint(value)
	cmd := redis.NewStatusCmd(ctx)
	cmd.SetVal("OK")
	return cmd
}

func (s *stubRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	val, ok := s.store[key]
	if !ok {
		cmd.SetErr(redis.Nil)
		return cmd
	}
	cmd.SetVal(val)
	return cmd
}

func (s *stubRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	var removed int64
	for _, key := range keys {
		if _, ok := s.store[key]; ok {
			delete(s.store, key)
			removed++
		}
	}
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(removed)
	return cmd
}

// memStore cobre usuários e vínculos; métodos de grupos e tipos não usados
// pelos testes caem na interface embutida (nil) e entram em pânico.
type memStore struct {
	adminStore

	mu        sync.Mutex
	nextID    int64
	usuarios  map[int64]repo.Usuario
	vinculos  map[int64][]repo.UsuarioGrupo
	grupos    map[int64]repo.Grupo
	getByID   int
	setGrupos int
}

func newMemStore() *memStore {
	return &memStore{
		usuarios: make(map[int64]repo.Usuario),
		vinculos: make(map[int64][]repo.UsuarioGrupo),
		grupos:   make(map[int64]repo.Grupo),
	}
}

func (m *memStore) GetUsuarioByLogin(_ context.Context, login string) (repo.Usuario, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.usuarios {
		if u.Login == login {
			return u, nil
		}
	}
	return repo.Usuario{}, repo.ErrNotFound
}

func (m *memStore) GetUsuarioByID(_ context.Context, id int64) (repo.Usuario, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getByID++
	u, ok := m.usuarios[id]
	if !ok {
		return repo.Usuario{}, repo.ErrNotFound
	}
	return u, nil
}

func (m *memStore) InsertUsuario(_ context.Context, arg repo.InsertUsuarioParams) (repo.Usuario, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.usuarios {
		if u.Login == arg.Login {
			return repo.Usuario{}, repo.ErrConflict
		}
	}
	m.nextID++
	u := repo.Usuario{
		ID:        m.nextID,
		Login:     arg.Login,
		SenhaHash: arg.SenhaHash,
		Nome:      arg.Nome,
		Role:      arg.Role,
		Status:    arg.Status,
		CreatedAt: time.Now(),
	}
	m.usuarios[u.ID] = u
	return u, nil
}

func (m *memStore) UpdateSenha(_ context.Context, id int64, senhaHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.usuarios[id]
	if !ok {
		return repo.ErrNotFound
	}
	u.SenhaHash = senhaHash
	m.usuarios[id] = u
	return nil
}

func (m *memStore) SetUsuarioStatus(_ context.Context, id int64, status string, approvedBy *int64) (repo.Usuario, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.usuarios[id]
	if !ok {
		return repo.Usuario{}, repo.ErrNotFound
	}
	u.Status = status
	if status == repo.StatusAtivo && approvedBy != nil {
		now := time.Now()
		u.ApprovedAt = &now
		u.ApprovedBy = approvedBy
	}
	m.usuarios[id] = u
	return u, nil
}

func (m *memStore) DeleteUsuario(_ context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.usuarios[id]; !ok {
		return false, nil
	}
	delete(m.usuarios, id)
	delete(m.vinculos, id)
	return true, nil
}

func (m *memStore) CountUsuariosByStatus(context.Context) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]int{}
	for _, u := range m.usuarios {
		out[u.Status]++
	}
	return out, nil
}

func (m *memStore) ListUsuarios(context.Context) ([]repo.Usuario, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := make([]repo.Usuario, 0, len(m.usuarios))
	for _, u := range m.usuarios {
		list = append(list, u)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (m *memStore) ListUsuarioGrupos(_ context.Context, usuarioID int64) ([]repo.UsuarioGrupo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]repo.UsuarioGrupo(nil), m.vinculos[usuarioID]...), nil
}

func (m *memStore) ListAllUsuarioGrupos(context.Context) ([]repo.UsuarioGrupo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []repo.UsuarioGrupo
	for _, list := range m.vinculos {
		out = append(out, list...)
	}
	return out, nil
}

func (m *memStore) SetUsuarioGrupos(_ context.Context, usuarioID int64, vinculos []repo.UsuarioGrupo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range vinculos {
		if _, ok := m.grupos[v.GrupoID]; !ok {
			return repo.ErrNotFound
		}
	}
	m.setGrupos++
	m.vinculos[usuarioID] = append([]repo.UsuarioGrupo(nil), vinculos...)
	return nil
}

func (m *memStore) ListGrupos(context.Context) ([]repo.Grupo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := make([]repo.Grupo, 0, len(m.grupos))
	for _, g := range m.grupos {
		list = append(list, g)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Nome < list[j].Nome })
	return list, nil
}

func (m *memStore) addUsuario(login, role, status string) repo.Usuario {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	u := repo.Usuario{ID: m.nextID, Login: login, Role: role, Status: status}
	m.usuarios[u.ID] = u
	return u
}

func (m *memStore) addGrupo(id int64, nome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.grupos[id] = repo.Grupo{ID: id, Nome: nome}
}

type stubCounter map[certidao.Status]int

func (s stubCounter) CountByStatus(context.Context) (map[certidao.Status]int, error) {
	return s, nil
}
