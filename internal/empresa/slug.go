package empresa

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const fallbackSlug = "empresa"

// Slugify gera o identificador da empresa a partir do nome: minúsculas, sem
// acentos, espaços viram hífen e demais símbolos são descartados.
func Slugify(nome string) string {
	// a cadeia guarda estado, então não é compartilhada entre chamadas
	stripAccents := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	semAcento, _, err := transform.String(stripAccents, strings.ToLower(nome))
	if err != nil {
		semAcento = strings.ToLower(nome)
	}

	var b strings.Builder
	lastDash := false
	for _, r := range semAcento {
		switch {
		case unicode.IsSpace(r) || r == '-':
			if !lastDash && b.Len() > 0 {
				b.WriteByte('-')
				lastDash = true
			}
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastDash = false
		}
	}

	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		return fallbackSlug
	}
	return slug
}

// candidateSlug devolve base para n=0 e base-n a partir de 1.
func candidateSlug(base string, n int) string {
	if n == 0 {
		return base
	}
	return base + "-" + strconv.Itoa(n)
}
