package certidao

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/siscert/api/internal/util"
)

var (
	ErrNotFound = errors.New("Certidão não encontrada")
)

// Status é o estado de vida da certidão.
type Status string

const (
	StatusAtiva     Status = "ativa"
	StatusArquivada Status = "arquivada"
	StatusLixeira   Status = "lixeira"
)

// ValidStatus informa se o status é conhecido.
func ValidStatus(s Status) bool {
	switch s {
	case StatusAtiva, StatusArquivada, StatusLixeira:
		return true
	}
	return false
}

// TipoDocumento indica como o documento principal é armazenado.
type TipoDocumento string

const (
	TipoPDF              TipoDocumento = "PDF"
	TipoLink             TipoDocumento = "Link"
	TipoDocumentoArquivo TipoDocumento = "Documento"
)

func ValidTipoDocumento(t TipoDocumento) bool {
	switch t {
	case TipoPDF, TipoLink, TipoDocumentoArquivo:
		return true
	}
	return false
}

type Pendencia struct {
	ID        string  `json:"id"`
	Titulo    string  `json:"titulo"`
	Descricao *string `json:"descricao,omitempty"`
	Prazo     *string `json:"prazo,omitempty"`
	Concluida bool    `json:"concluida"`
}

// Documento é um anexo adicional da certidão.
type Documento struct {
	ID         string        `json:"id"`
	Nome       string        `json:"nome"`
	URL        string        `json:"url"`
	Tipo       TipoDocumento `json:"tipo"`
	DataAdicao string        `json:"dataAdicao"`
}

type Nota struct {
	ID       string `json:"id"`
	Texto    string `json:"texto"`
	DataHora string `json:"dataHora"`
}

// Certidao é o documento de conformidade com data de validade.
type Certidao struct {
	ID                   uuid.UUID     `json:"id"`
	Empresa              string        `json:"empresa"`
	Tipo                 string        `json:"tipo"`
	Nome                 *string       `json:"nome"`
	Descricao            *string       `json:"descricao"`
	DataEmissao          string        `json:"dataEmissao"`
	DataValidade         string        `json:"dataValidade"`
	TipoDocumento        TipoDocumento `json:"tipoDocumento"`
	URLDocumento         *string       `json:"urlDocumento"`
	AlertaAtivo          bool          `json:"alertaAtivo"`
	NotificarDiasAntes   *int          `json:"notificarDiasAntes"`
	Observacoes          *string       `json:"observacoes"`
	Pendencias           []Pendencia   `json:"pendencias"`
	DocumentosAdicionais []Documento   `json:"documentosAdicionais"`
	Notas                []Nota        `json:"notas"`
	Status               Status        `json:"status"`
	DataExclusao         *time.Time    `json:"dataExclusao"`
	GrupoID              *int64        `json:"grupoId"`
	CreatedAt            time.Time     `json:"createdAt"`
	UpdatedAt            time.Time     `json:"updatedAt"`
}

// Clone devolve cópia profunda: listas e ponteiros não são compartilhados.
func (c Certidao) Clone() Certidao {
	out := c
	out.Nome = cloneString(c.Nome)
	out.Descricao = cloneString(c.Descricao)
	out.URLDocumento = cloneString(c.URLDocumento)
	out.Observacoes = cloneString(c.Observacoes)
	if c.NotificarDiasAntes != nil {
		v := *c.NotificarDiasAntes
		out.NotificarDiasAntes = &v
	}
	if c.GrupoID != nil {
		v := *c.GrupoID
		out.GrupoID = &v
	}
	if c.DataExclusao != nil {
		v := *c.DataExclusao
		out.DataExclusao = &v
	}
	out.Pendencias = make([]Pendencia, len(c.Pendencias))
	for i, p := range c.Pendencias {
		p.Descricao = cloneString(p.Descricao)
		p.Prazo = cloneString(p.Prazo)
		out.Pendencias[i] = p
	}
	out.DocumentosAdicionais = append([]Documento{}, c.DocumentosAdicionais...)
	out.Notas = append([]Nota{}, c.Notas...)
	return out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// Item é a certidão como listada para um usuário, com a capacidade de edição.
type Item struct {
	Certidao
	PodeEditar bool `json:"podeEditar"`
}

// CreateInput traz os campos de criação; ponteiros nulos recebem defaults.
type CreateInput struct {
	Empresa              string        `json:"empresa"`
	Tipo                 string        `json:"tipo"`
	Nome                 *string       `json:"nome"`
	Descricao            *string       `json:"descricao"`
	DataEmissao          string        `json:"dataEmissao"`
	DataValidade         string        `json:"dataValidade"`
	TipoDocumento        TipoDocumento `json:"tipoDocumento"`
	URLDocumento         *string       `json:"urlDocumento"`
	AlertaAtivo          *bool         `json:"alertaAtivo"`
	NotificarDiasAntes   *int          `json:"notificarDiasAntes"`
	Observacoes          *string       `json:"observacoes"`
	Pendencias           []Pendencia   `json:"pendencias"`
	DocumentosAdicionais []Documento   `json:"documentosAdicionais"`
	Notas                []Nota        `json:"notas"`
	GrupoID              *int64        `json:"grupoId"`
}

// Validate checa formato e coerência dos campos de criação.
func (in CreateInput) Validate() error {
	if err := util.RequireString(in.Empresa, "empresa"); err != nil {
		return err
	}
	if strings.TrimSpace(in.Tipo) == "" {
		return util.Invalid("tipo", "Tipo da certidão é obrigatório")
	}
	if !ValidTipoDocumento(in.TipoDocumento) {
		return util.Invalid("tipoDocumento", "Tipo de documento inválido")
	}
	if in.NotificarDiasAntes != nil {
		if err := util.IntRange(*in.NotificarDiasAntes, 1, 365, "notificarDiasAntes"); err != nil {
			return err
		}
	}
	if in.GrupoID != nil && *in.GrupoID <= 0 {
		return util.Invalid("grupoId", "grupoId inválido")
	}
	if err := validateSubRecords(in.Pendencias, in.DocumentosAdicionais); err != nil {
		return err
	}
	return validateDates(in.DataEmissao, in.DataValidade)
}

// toCertidao aplica defaults de criação.
func (in CreateInput) toCertidao() Certidao {
	alerta := true
	if in.AlertaAtivo != nil {
		alerta = *in.AlertaAtivo
	}
	c := Certidao{
		Empresa:              strings.TrimSpace(in.Empresa),
		Tipo:                 strings.TrimSpace(in.Tipo),
		Nome:                 in.Nome,
		Descricao:            in.Descricao,
		DataEmissao:          in.DataEmissao,
		DataValidade:         in.DataValidade,
		TipoDocumento:        in.TipoDocumento,
		URLDocumento:         in.URLDocumento,
		AlertaAtivo:          alerta,
		NotificarDiasAntes:   in.NotificarDiasAntes,
		Observacoes:          in.Observacoes,
		Pendencias:           in.Pendencias,
		DocumentosAdicionais: in.DocumentosAdicionais,
		Notas:                in.Notas,
		Status:               StatusAtiva,
		GrupoID:              in.GrupoID,
	}
	c = c.Clone()
	c.fillSubRecordIDs()
	return c
}

// fillSubRecordIDs gera id para sub-registros enviados sem um.
func (c *Certidao) fillSubRecordIDs() {
	for i := range c.Pendencias {
		if strings.TrimSpace(c.Pendencias[i].ID) == "" {
			c.Pendencias[i].ID = util.NewID()
		}
	}
	for i := range c.DocumentosAdicionais {
		if strings.TrimSpace(c.DocumentosAdicionais[i].ID) == "" {
			c.DocumentosAdicionais[i].ID = util.NewID()
		}
	}
	for i := range c.Notas {
		if strings.TrimSpace(c.Notas[i].ID) == "" {
			c.Notas[i].ID = util.NewID()
		}
	}
}

func validateDates(emissao, validade string) error {
	e, err := util.ParseDate(emissao, "dataEmissao")
	if err != nil {
		return err
	}
	v, err := util.ParseDate(validade, "dataValidade")
	if err != nil {
		return err
	}
	if v.Before(e) {
		return util.Invalid("dataValidade", "Data de validade deve ser posterior ou igual à emissão.")
	}
	return nil
}

func validateSubRecords(pendencias []Pendencia, documentos []Documento) error {
	for _, p := range pendencias {
		if strings.TrimSpace(p.Titulo) == "" {
			return util.Invalid("pendencias", "Título da pendência é obrigatório")
		}
	}
	for _, d := range documentos {
		if !ValidTipoDocumento(d.Tipo) {
			return util.Invalid("documentosAdicionais", "Tipo de documento inválido")
		}
	}
	return nil
}
