package certidao

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildICS(t *testing.T) {
	id := uuid.MustParse("6f1c3a38-8e53-4b7e-9d5f-2f0a1c2b3d4e")
	list := []Certidao{{
		ID:                 id,
		Empresa:            "acme",
		Tipo:               "SEFAZ",
		Nome:               ptr("CND Estadual; matriz"),
		DataValidade:       "2026-12-31",
		NotificarDiasAntes: ptr(15),
	}}

	out := string(BuildICS(list, fixedNow))

	assert.True(t, strings.HasPrefix(out, "BEGIN:VCALENDAR\r\n"))
	assert.Contains(t, out, "UID:"+id.String()+"@siscert\r\n")
	assert.Contains(t, out, "DTSTART;VALUE=DATE:20261231\r\n")
	assert.Contains(t, out, "DTEND;VALUE=DATE:20270101\r\n")
	assert.Contains(t, out, `SUMMARY:Vencimento: CND Estadual\; matriz`)
	assert.Contains(t, out, "TRIGGER:-P15D\r\n")
	assert.Contains(t, out, "DTSTAMP:20260310T120000Z\r\n")
}

func TestBuildICSFoldsLongLines(t *testing.T) {
	nome := strings.Repeat("Certidão Negativa de Débitos Estaduais ", 4)
	list := []Certidao{{
		ID:           uuid.New(),
		Empresa:      "acme",
		Tipo:         "SEFAZ",
		Nome:         ptr(nome),
		DataValidade: "2026-12-31",
	}}

	out := string(BuildICS(list, fixedNow))

	for _, line := range strings.Split(strings.TrimSuffix(out, "\r\n"), "\r\n") {
		assert.LessOrEqual(t, len(line), 75, "linha não dobrada: %q", line)
	}
	unfolded := strings.ReplaceAll(out, "\r\n ", "")
	assert.Contains(t, unfolded, "SUMMARY:Vencimento: "+nome)
}

func TestCalendarSkipsAlertOffAndInvisible(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	on, err := svc.Create(ctx, admin, createIn(nil))
	require.NoError(t, err)

	off := createIn(nil)
	off.AlertaAtivo = ptr(false)
	offCreated, err := svc.Create(ctx, admin, off)
	require.NoError(t, err)

	hidden, err := svc.Create(ctx, admin, createIn(ptr(int64(9))))
	require.NoError(t, err)

	out, err := svc.Calendar(ctx, editorG1)
	require.NoError(t, err)
	body := string(out)
	assert.Contains(t, body, on.ID.String())
	assert.NotContains(t, body, offCreated.ID.String())
	assert.NotContains(t, body, hidden.ID.String())
}
