package certidao

import (
	"strings"
	"time"

	"github.com/siscert/api/internal/util"
)

// Some cria um campo de patch com valor.
func Some[T any](v T) util.Opcional[T] { return util.Opcional[T]{Set: true, Value: v} }

// Null cria um campo de patch com null explícito.
func Null[T any]() util.Opcional[T] { return util.Opcional[T]{Set: true, Null: true} }

// Patch é a atualização parcial de uma certidão.
type Patch struct {
	Empresa              util.Opcional[string]        `json:"empresa"`
	Tipo                 util.Opcional[string]        `json:"tipo"`
	Nome                 util.Opcional[string]        `json:"nome"`
	Descricao            util.Opcional[string]        `json:"descricao"`
	DataEmissao          util.Opcional[string]        `json:"dataEmissao"`
	DataValidade         util.Opcional[string]        `json:"dataValidade"`
	TipoDocumento        util.Opcional[TipoDocumento] `json:"tipoDocumento"`
	URLDocumento         util.Opcional[string]        `json:"urlDocumento"`
	AlertaAtivo          util.Opcional[bool]          `json:"alertaAtivo"`
	NotificarDiasAntes   util.Opcional[int]           `json:"notificarDiasAntes"`
	Observacoes          util.Opcional[string]        `json:"observacoes"`
	Pendencias           util.Opcional[[]Pendencia]   `json:"pendencias"`
	DocumentosAdicionais util.Opcional[[]Documento]   `json:"documentosAdicionais"`
	Notas                util.Opcional[[]Nota]        `json:"notas"`
	Status               util.Opcional[Status]        `json:"status"`
	DataExclusao         util.Opcional[time.Time]     `json:"dataExclusao"`
	GrupoID              util.Opcional[int64]         `json:"grupoId"`
}

// Validate checa os campos presentes no patch isoladamente.
func (p Patch) Validate() error {
	required := []struct {
		set, null bool
		campo     string
	}{
		{p.Empresa.Set, p.Empresa.Null, "empresa"},
		{p.Tipo.Set, p.Tipo.Null, "tipo"},
		{p.DataEmissao.Set, p.DataEmissao.Null, "dataEmissao"},
		{p.DataValidade.Set, p.DataValidade.Null, "dataValidade"},
		{p.TipoDocumento.Set, p.TipoDocumento.Null, "tipoDocumento"},
		{p.AlertaAtivo.Set, p.AlertaAtivo.Null, "alertaAtivo"},
		{p.Pendencias.Set, p.Pendencias.Null, "pendencias"},
		{p.DocumentosAdicionais.Set, p.DocumentosAdicionais.Null, "documentosAdicionais"},
		{p.Notas.Set, p.Notas.Null, "notas"},
		{p.Status.Set, p.Status.Null, "status"},
	}
	for _, f := range required {
		if f.set && f.null {
			return util.Invalid(f.campo, f.campo+" não pode ser nulo")
		}
	}

	if p.Empresa.HasValue() && strings.TrimSpace(p.Empresa.Value) == "" {
		return util.Invalid("empresa", "empresa é obrigatório")
	}
	if p.Tipo.HasValue() && strings.TrimSpace(p.Tipo.Value) == "" {
		return util.Invalid("tipo", "Tipo da certidão é obrigatório")
	}
	if p.DataEmissao.HasValue() {
		if _, err := util.ParseDate(p.DataEmissao.Value, "dataEmissao"); err != nil {
			return err
		}
	}
	if p.DataValidade.HasValue() {
		if _, err := util.ParseDate(p.DataValidade.Value, "dataValidade"); err != nil {
			return err
		}
	}
	if p.TipoDocumento.HasValue() && !ValidTipoDocumento(p.TipoDocumento.Value) {
		return util.Invalid("tipoDocumento", "Tipo de documento inválido")
	}
	if p.NotificarDiasAntes.HasValue() {
		if err := util.IntRange(p.NotificarDiasAntes.Value, 1, 365, "notificarDiasAntes"); err != nil {
			return err
		}
	}
	if p.Status.HasValue() && !ValidStatus(p.Status.Value) {
		return util.Invalid("status", "Status inválido")
	}
	if p.GrupoID.HasValue() && p.GrupoID.Value <= 0 {
		return util.Invalid("grupoId", "grupoId inválido")
	}
	return validateSubRecords(p.Pendencias.Value, p.DocumentosAdicionais.Value)
}

// Apply mescla o patch sobre a certidão atual sem alterar o original. Campos
// ausentes são preservados; null explícito limpa campos opcionais.
func (p Patch) Apply(cur Certidao, now time.Time) Certidao {
	out := cur.Clone()

	if p.Empresa.HasValue() {
		out.Empresa = strings.TrimSpace(p.Empresa.Value)
	}
	if p.Tipo.HasValue() {
		out.Tipo = strings.TrimSpace(p.Tipo.Value)
	}
	applyString(&out.Nome, p.Nome)
	applyString(&out.Descricao, p.Descricao)
	if p.DataEmissao.HasValue() {
		out.DataEmissao = p.DataEmissao.Value
	}
	if p.DataValidade.HasValue() {
		out.DataValidade = p.DataValidade.Value
	}
	if p.TipoDocumento.HasValue() {
		out.TipoDocumento = p.TipoDocumento.Value
	}
	applyString(&out.URLDocumento, p.URLDocumento)
	if p.AlertaAtivo.HasValue() {
		out.AlertaAtivo = p.AlertaAtivo.Value
	}
	if p.NotificarDiasAntes.Set {
		if p.NotificarDiasAntes.Null {
			out.NotificarDiasAntes = nil
		} else {
			v := p.NotificarDiasAntes.Value
			out.NotificarDiasAntes = &v
		}
	}
	applyString(&out.Observacoes, p.Observacoes)
	if p.Pendencias.HasValue() {
		out.Pendencias = append([]Pendencia{}, p.Pendencias.Value...)
	}
	if p.DocumentosAdicionais.HasValue() {
		out.DocumentosAdicionais = append([]Documento{}, p.DocumentosAdicionais.Value...)
	}
	if p.Notas.HasValue() {
		out.Notas = append([]Nota{}, p.Notas.Value...)
	}
	if p.GrupoID.Set {
		if p.GrupoID.Null {
			out.GrupoID = nil
		} else {
			v := p.GrupoID.Value
			out.GrupoID = &v
		}
	}

	if p.Status.HasValue() {
		out.Status = p.Status.Value
	}
	switch {
	case p.DataExclusao.Set:
		if p.DataExclusao.Null {
			out.DataExclusao = nil
		} else {
			v := p.DataExclusao.Value
			out.DataExclusao = &v
		}
	case p.Status.HasValue() && out.Status == StatusLixeira:
		if cur.Status != StatusLixeira || out.DataExclusao == nil {
			stamp := now
			out.DataExclusao = &stamp
		}
	case p.Status.HasValue():
		out.DataExclusao = nil
	}
	if out.Status != StatusLixeira {
		out.DataExclusao = nil
	}

	out.fillSubRecordIDs()
	return out
}

func applyString(dst **string, o util.Opcional[string]) {
	if !o.Set {
		return
	}
	if o.Null {
		*dst = nil
		return
	}
	v := o.Value
	*dst = &v
}
