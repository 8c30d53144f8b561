package certidao

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siscert/api/internal/util"
)

func TestPatchDecodeThreeStates(t *testing.T) {
	var p Patch
	err := json.Unmarshal([]byte(`{"nome":null,"observacoes":"obs","grupoId":7}`), &p)
	require.NoError(t, err)

	assert.True(t, p.Nome.Set)
	assert.True(t, p.Nome.Null)
	assert.True(t, p.Observacoes.HasValue())
	assert.Equal(t, "obs", p.Observacoes.Value)
	assert.Equal(t, int64(7), p.GrupoID.Value)
	assert.False(t, p.Descricao.Set)
}

func TestPatchApplyKeepsAbsentAndClearsNull(t *testing.T) {
	cur := Certidao{
		Empresa:      "acme",
		Nome:         ptr("CND"),
		Descricao:    ptr("desc"),
		DataEmissao:  "2026-01-01",
		DataValidade: "2026-06-01",
		Status:       StatusAtiva,
		Pendencias:   []Pendencia{{ID: "p1", Titulo: "a"}},
	}
	p := Patch{Nome: Null[string](), Pendencias: Some([]Pendencia{{Titulo: "nova"}})}

	out := p.Apply(cur, fixedNow)
	assert.Nil(t, out.Nome)
	assert.Equal(t, "desc", *out.Descricao)
	require.Len(t, out.Pendencias, 1)
	assert.NotEmpty(t, out.Pendencias[0].ID)

	// o original não é alterado
	assert.Equal(t, "CND", *cur.Nome)
	assert.Equal(t, "p1", cur.Pendencias[0].ID)
}

func TestPatchApplyStatusAndDataExclusao(t *testing.T) {
	cur := Certidao{Status: StatusAtiva}
	explicit := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	out := Patch{Status: Some(StatusLixeira)}.Apply(cur, fixedNow)
	require.NotNil(t, out.DataExclusao)
	assert.True(t, out.DataExclusao.Equal(fixedNow))

	out = Patch{Status: Some(StatusLixeira), DataExclusao: Some(explicit)}.Apply(cur, fixedNow)
	assert.True(t, out.DataExclusao.Equal(explicit))

	trashed := Certidao{Status: StatusLixeira, DataExclusao: &explicit}
	out = Patch{Status: Some(StatusArquivada)}.Apply(trashed, fixedNow)
	assert.Nil(t, out.DataExclusao)

	out = Patch{DataExclusao: Some(fixedNow)}.Apply(cur, fixedNow)
	assert.Nil(t, out.DataExclusao, "data de exclusão só existe na lixeira")
}

func TestPatchValidate(t *testing.T) {
	cases := []struct {
		name  string
		patch Patch
		campo string
	}{
		{"empresa nula", Patch{Empresa: Null[string]()}, "empresa"},
		{"empresa vazia", Patch{Empresa: Some("  ")}, "empresa"},
		{"data invalida", Patch{DataEmissao: Some("01/01/2026")}, "dataEmissao"},
		{"tipo documento", Patch{TipoDocumento: Some(TipoDocumento("XLS"))}, "tipoDocumento"},
		{"dias fora do intervalo", Patch{NotificarDiasAntes: Some(0)}, "notificarDiasAntes"},
		{"status desconhecido", Patch{Status: Some(Status("apagada"))}, "status"},
		{"pendencia sem titulo", Patch{Pendencias: Some([]Pendencia{{}})}, "pendencias"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			verr, ok := util.AsValidation(tc.patch.Validate())
			require.True(t, ok)
			assert.Equal(t, tc.campo, verr.Campo)
		})
	}

	assert.NoError(t, Patch{NotificarDiasAntes: Null[int](), Nome: Null[string]()}.Validate())
}
