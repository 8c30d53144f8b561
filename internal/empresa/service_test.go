package empresa

import (
	"context"
	"encoding/json"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siscert/api/internal/acesso"
	"github.com/siscert/api/internal/repo"
	"github.com/siscert/api/internal/util"
)

type memStore struct {
	nextID     int64
	rows       map[int64]Empresa
	grupos     map[int64][]int64
	bloqueados map[int64][]int64
}

func newMemStore() *memStore {
	return &memStore{rows: map[int64]Empresa{}, grupos: map[int64][]int64{}, bloqueados: map[int64][]int64{}}
}

func (m *memStore) List(_ context.Context, apenasAtivos bool, grupoIDs []int64) ([]Empresa, error) {
	allowed := map[int64]bool{}
	for _, g := range grupoIDs {
		for _, id := range m.grupos[g] {
			allowed[id] = true
		}
	}
	out := []Empresa{}
	for _, e := range m.rows {
		if apenasAtivos && !e.Ativo {
			continue
		}
		if grupoIDs != nil && !allowed[e.ID] {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) Get(_ context.Context, id int64) (Empresa, error) {
	e, ok := m.rows[id]
	if !ok {
		return Empresa{}, ErrNotFound
	}
	return e, nil
}

func (m *memStore) SlugExists(_ context.Context, slug string) (bool, error) {
	for _, e := range m.rows {
		if e.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) Insert(ctx context.Context, e Empresa) (Empresa, error) {
	if exists, _ := m.SlugExists(ctx, e.Slug); exists {
		return Empresa{}, repo.ErrConflict
	}
	m.nextID++
	e.ID = m.nextID
	e.Ativo = true
	m.rows[e.ID] = e
	return e, nil
}

func (m *memStore) Update(_ context.Context, e Empresa) (Empresa, error) {
	m.rows[e.ID] = e
	return e, nil
}

func (m *memStore) Delete(_ context.Context, id int64) (bool, error) {
	_, ok := m.rows[id]
	delete(m.rows, id)
	return ok, nil
}

func (m *memStore) TiposBloqueados(_ context.Context, ids []int64) (map[int64][]int64, error) {
	out := map[int64][]int64{}
	for _, id := range ids {
		if b, ok := m.bloqueados[id]; ok {
			out[id] = b
		}
	}
	return out, nil
}

func (m *memStore) SetTiposBloqueados(_ context.Context, id int64, tipoIDs []int64) error {
	m.bloqueados[id] = tipoIDs
	return nil
}

func TestCreateAddsSuffixOnSlugCollision(t *testing.T) {
	svc := NewService(newMemStore())
	ctx := context.Background()

	first, err := svc.Create(ctx, CreateInput{Nome: "Padaria Pão Quente"})
	require.NoError(t, err)
	second, err := svc.Create(ctx, CreateInput{Nome: "padaria pao quente"})
	require.NoError(t, err)
	third, err := svc.Create(ctx, CreateInput{Nome: "PADARIA PÃO QUENTE"})
	require.NoError(t, err)

	assert.Equal(t, "padaria-pao-quente", first.Slug)
	assert.Equal(t, "padaria-pao-quente-1", second.Slug)
	assert.Equal(t, "padaria-pao-quente-2", third.Slug)
	assert.Equal(t, []int64{}, first.TipoIDsBloqueados)
}

func TestCreateValidates(t *testing.T) {
	svc := NewService(newMemStore())
	_, err := svc.Create(context.Background(), CreateInput{Nome: " "})
	verr, ok := util.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "nome", verr.Campo)
}

func TestListForUser(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	ctx := context.Background()

	a, _ := svc.Create(ctx, CreateInput{Nome: "A"})
	b, _ := svc.Create(ctx, CreateInput{Nome: "B"})
	c, _ := svc.Create(ctx, CreateInput{Nome: "C"})
	store.grupos[10] = []int64{a.ID, b.ID}
	store.grupos[20] = []int64{b.ID}
	require.NoError(t, svc.SetTiposBloqueados(ctx, b.ID, []int64{3, 3, 4}))

	inativo := false
	_, err := svc.Update(ctx, c.ID, UpdateInput{Ativo: &inativo})
	require.NoError(t, err)

	membro := acesso.NewAuthContext(1, acesso.RoleUsuario, []acesso.Vinculo{{GrupoID: 20, Acesso: acesso.NivelComum}})
	list, err := svc.ListForUser(ctx, membro, true)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, b.ID, list[0].ID)
	assert.Equal(t, []int64{3, 4}, list[0].TipoIDsBloqueados)

	semGrupo := acesso.NewAuthContext(2, acesso.RoleUsuario, nil)
	list, err = svc.ListForUser(ctx, semGrupo, true)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	admin := acesso.NewAuthContext(3, acesso.RoleAdmin, nil)
	list, err = svc.ListForUser(ctx, admin, false)
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

func TestUpdateCorNullClears(t *testing.T) {
	svc := NewService(newMemStore())
	ctx := context.Background()

	cor := "#ff0000"
	e, err := svc.Create(ctx, CreateInput{Nome: "Cor", Cor: &cor})
	require.NoError(t, err)

	var in UpdateInput
	require.NoError(t, json.Unmarshal([]byte(`{"nome":"Nova"}`), &in))
	updated, err := svc.Update(ctx, e.ID, in)
	require.NoError(t, err)
	require.NotNil(t, updated.Cor)

	in = UpdateInput{}
	require.NoError(t, json.Unmarshal([]byte(`{"cor":null,"slug":"Nova Slug"}`), &in))
	updated, err = svc.Update(ctx, e.ID, in)
	require.NoError(t, err)
	assert.Nil(t, updated.Cor)
	assert.Equal(t, "nova-slug", updated.Slug)
	assert.Equal(t, "Nova", updated.Nome)

	assert.ErrorIs(t, svc.Delete(ctx, 999), ErrNotFound)
}
