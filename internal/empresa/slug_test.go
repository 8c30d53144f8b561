package empresa

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Construtora São João":      "construtora-sao-joao",
		"  ACME  Ltda.  ":           "acme-ltda",
		"Café & Cia":                "cafe-cia",
		"Ação -- Social":            "acao-social",
		"Empresa 123":               "empresa-123",
		"Pão de Açúcar Ltda":        "pao-de-acucar-ltda",
		"!!!":                       "empresa",
		"":                          "empresa",
		"Indústria_Metalúrgica/Sul": "industriametalurgicasul",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestCandidateSlug(t *testing.T) {
	assert.Equal(t, "acme", candidateSlug("acme", 0))
	assert.Equal(t, "acme-2", candidateSlug("acme", 2))
}
