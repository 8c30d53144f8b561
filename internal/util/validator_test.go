package util

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-02-28", "dataEmissao")
	require.NoError(t, err)
	assert.Equal(t, 28, d.Day())

	for _, bad := range []string{"", "28/02/2026", "2026-2-28", "2026-02-30"} {
		_, err := ParseDate(bad, "dataEmissao")
		verr, ok := AsValidation(err)
		require.True(t, ok, "esperava ValidationError para %q", bad)
		assert.Equal(t, "dataEmissao", verr.Campo)
	}
}

func TestAsValidationUnwraps(t *testing.T) {
	err := fmt.Errorf("criar: %w", Invalid("tipo", "Tipo da certidão é obrigatório"))
	verr, ok := AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "tipo: Tipo da certidão é obrigatório", verr.Error())
}

func TestIntRange(t *testing.T) {
	assert.NoError(t, IntRange(1, 1, 365, "notificarDiasAntes"))
	assert.NoError(t, IntRange(365, 1, 365, "notificarDiasAntes"))
	assert.Error(t, IntRange(0, 1, 365, "notificarDiasAntes"))
	assert.Error(t, IntRange(366, 1, 365, "notificarDiasAntes"))
}
