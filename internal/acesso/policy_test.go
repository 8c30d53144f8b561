package acesso

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v int64) *int64 { return &v }

// contextos gera todas as combinações de papel e vínculos (nenhum, comum,
// visualizador) para os grupos 1 e 2.
func contextos() []AuthContext {
	opcoes := []*Nivel{nil, nivelPtr(NivelComum), nivelPtr(NivelVisualizador)}
	var out []AuthContext
	for _, role := range []Role{RoleAdmin, RoleUsuario} {
		for _, g1 := range opcoes {
			for _, g2 := range opcoes {
				var vs []Vinculo
				if g1 != nil {
					vs = append(vs, Vinculo{GrupoID: 1, Acesso: *g1})
				}
				if g2 != nil {
					vs = append(vs, Vinculo{GrupoID: 2, Acesso: *g2})
				}
				out = append(out, NewAuthContext(42, role, vs))
			}
		}
	}
	return out
}

func nivelPtr(n Nivel) *Nivel { return &n }

func TestCanEditGlobalOnlyAdmin(t *testing.T) {
	for _, ac := range contextos() {
		assert.Equal(t, ac.IsAdmin(), CanEdit(ac, nil), "role=%s vinculos=%v", ac.Role(), ac.Vinculos())
		assert.True(t, CanView(ac, nil))
	}
}

func TestCanEditGroupedAdminOrComum(t *testing.T) {
	for _, ac := range contextos() {
		for _, g := range []int64{1, 2, 3} {
			nivel, member := ac.Nivel(g)
			want := ac.IsAdmin() || (member && nivel == NivelComum)
			assert.Equal(t, want, CanEdit(ac, ptr(g)), "grupo=%d role=%s", g, ac.Role())
			assert.Equal(t, ac.IsAdmin() || member, CanView(ac, ptr(g)))
		}
	}
}

func TestCheckEditOrder(t *testing.T) {
	ac := NewAuthContext(7, RoleUsuario, []Vinculo{{GrupoID: 1, Acesso: NivelVisualizador}})

	assert.ErrorIs(t, CheckEdit(ac, ptr(9)), ErrForbidden)
	assert.ErrorIs(t, CheckEdit(ac, ptr(1)), ErrForbiddenEdit)
	assert.ErrorIs(t, CheckEdit(ac, nil), ErrForbiddenEdit)
	assert.NoError(t, CheckEdit(NewAuthContext(1, RoleAdmin, nil), nil))
}

func TestCheckCreate(t *testing.T) {
	ac := NewAuthContext(7, RoleUsuario, []Vinculo{
		{GrupoID: 1, Acesso: NivelComum},
		{GrupoID: 2, Acesso: NivelVisualizador},
	})

	tests := []struct {
		grupo *int64
		want  error
	}{
		{nil, ErrForbiddenEdit},
		{ptr(1), nil},
		{ptr(2), ErrForbiddenEdit},
		{ptr(3), ErrForbidden},
	}
	for _, tc := range tests {
		name := "nil"
		if tc.grupo != nil {
			name = fmt.Sprint(*tc.grupo)
		}
		t.Run(name, func(t *testing.T) {
			err := CheckCreate(ac, tc.grupo)
			if tc.want == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tc.want)
		})
	}

	assert.NoError(t, CheckCreate(NewAuthContext(1, RoleAdmin, nil), nil))
}

func TestAuthContextIsImmutable(t *testing.T) {
	vs := []Vinculo{{GrupoID: 1, Acesso: NivelComum}}
	ac := NewAuthContext(3, RoleUsuario, vs)

	vs[0].Acesso = NivelVisualizador
	got := ac.Vinculos()
	got[0].Acesso = NivelVisualizador

	nivel, ok := ac.Nivel(1)
	require.True(t, ok)
	assert.Equal(t, NivelComum, nivel)
}

func TestUnknownNivelTreatedAsViewer(t *testing.T) {
	ac := NewAuthContext(3, RoleUsuario, []Vinculo{{GrupoID: 5, Acesso: "dono"}})
	assert.True(t, CanView(ac, ptr(5)))
	assert.False(t, CanEdit(ac, ptr(5)))
}

func TestVisibilityMatchesCanView(t *testing.T) {
	for _, ac := range contextos() {
		vis := ac.Visibility()
		for _, g := range []*int64{nil, ptr(1), ptr(2), ptr(3)} {
			assert.Equal(t, CanView(ac, g), vis.Allows(g))
		}
	}
}

func TestContextRoundTrip(t *testing.T) {
	ac := NewAuthContext(9, RoleAdmin, nil)
	ctx := WithContext(context.Background(), ac)

	got, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, int64(9), got.UserID())

	_, ok = FromContext(context.Background())
	assert.False(t, ok)
}
