//go:build integration

package certidao

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siscert/api/internal/acesso"
	"github.com/siscert/api/internal/db/dbtest"
)

func TestRepositoryLifecycle(t *testing.T) {
	pool := dbtest.NewPool(t)
	ctx := context.Background()

	var grupoID int64
	require.NoError(t, pool.QueryRow(ctx, `INSERT INTO grupos (nome) VALUES ('Matriz') RETURNING id`).Scan(&grupoID))

	repo := NewRepository(pool)
	svc := NewService(repo)
	editor := acesso.NewAuthContext(10, acesso.RoleUsuario, []acesso.Vinculo{{GrupoID: grupoID, Acesso: acesso.NivelComum}})
	outro := acesso.NewAuthContext(11, acesso.RoleUsuario, nil)

	in := createIn(&grupoID)
	created, err := svc.Create(ctx, editor, in)
	require.NoError(t, err)
	assert.Equal(t, "2026-06-30", created.DataValidade)
	assert.Equal(t, "Enviar contrato", created.Pendencias[0].Titulo)
	assert.Equal(t, []Documento{}, created.DocumentosAdicionais)

	got, err := svc.Get(ctx, editor, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Notas, got.Notas)

	_, err = svc.Get(ctx, outro, created.ID)
	assert.ErrorIs(t, err, acesso.ErrForbidden)

	expiring, err := svc.Expiring(ctx, editor.Visibility(), "2026-06-01", "2026-06-30")
	require.NoError(t, err)
	require.Len(t, expiring, 1)

	expiring, err = svc.Expiring(ctx, outro.Visibility(), "2026-06-01", "2026-06-30")
	require.NoError(t, err)
	assert.Empty(t, expiring)

	trashed, err := svc.Trash(ctx, editor, created.ID)
	require.NoError(t, err)
	assert.NotNil(t, trashed.DataExclusao)

	counts, err := svc.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[StatusLixeira])

	require.NoError(t, svc.Delete(ctx, editor, created.ID))
	_, err = repo.Get(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}
