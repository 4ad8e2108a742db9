package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Entrada TipoLancamento = "entrada"
	Saida   TipoLancamento = "saida"
)

// DateLayout is the wire format for dates exchanged with the API.
const DateLayout = "2006-01-02"

// MonthLayout is the wire format for the balance month parameter.
const MonthLayout = "2006-01"

type (
	TipoLancamento string

	Date struct {
		time.Time
	}

	Usuario struct {
		ID    string `json:"id"`
		Nome  string `json:"nome"`
		Email string `json:"email"`
	}

	// Perfil is what the current-user endpoint returns: the user plus the
	// wallet every other query is scoped to.
	Perfil struct {
		Usuario    Usuario `json:"usuario"`
		CarteiraID string  `json:"carteiraId"`
	}

	Categoria struct {
		ID   string         `json:"id"`
		Nome string         `json:"nome"`
		Tipo TipoLancamento `json:"tipo,omitempty"`
		Cor  string         `json:"cor,omitempty"`
	}

	Lancamento struct {
		ID          string          `json:"id"`
		Titulo      string          `json:"titulo"`
		Descricao   string          `json:"descricao,omitempty"`
		Valor       decimal.Decimal `json:"valor"`
		Data        Date            `json:"data"`
		Tipo        TipoLancamento  `json:"tipo"`
		CategoriaID string          `json:"categoriaId"`
		CarteiraID  string          `json:"carteiraId,omitempty"`
	}

	NovoLancamento struct {
		Titulo      string          `json:"titulo"`
		Descricao   string          `json:"descricao,omitempty"`
		Valor       decimal.Decimal `json:"valor"`
		Data        Date            `json:"data"`
		Tipo        TipoLancamento  `json:"tipo"`
		CategoriaID string          `json:"categoriaId"`
		CarteiraID  string          `json:"carteiraId"`
	}

	CategoriaValor struct {
		CategoriaID string          `json:"categoriaId"`
		Nome        string          `json:"nome"`
		Total       decimal.Decimal `json:"total"`
	}

	Saldo struct {
		CarteiraID   string           `json:"carteiraId"`
		Mes          string           `json:"mes"`
		Entradas     decimal.Decimal  `json:"entradas"`
		Saidas       decimal.Decimal  `json:"saidas"`
		Saldo        decimal.Decimal  `json:"saldo"`
		PorCategoria []CategoriaValor `json:"porCategoria,omitempty"`
	}

	Pagina[T any] struct {
		Itens   []T `json:"itens"`
		Pagina  int `json:"pagina"`
		Tamanho int `json:"tamanho"`
		Total   int `json:"total"`
	}

	// FiltroLancamentos holds the optional transaction filters. Zero values
	// are not sent, so the server applies its own defaults.
	FiltroLancamentos struct {
		DataInicio  Date
		DataFim     Date
		CategoriaID string
		Titulo      string
		Tipo        TipoLancamento
		Pagina      int
		Tamanho     int
	}

	Credenciais struct {
		Email string `json:"email"`
		Senha string `json:"senha"`
	}

	AlterarSenha struct {
		SenhaAtual string `json:"senhaAtual"`
		NovaSenha  string `json:"novaSenha"`
	}

	NovoUsuario struct {
		Nome          string `json:"nome"`
		Email         string `json:"email"`
		Senha         string `json:"senha"`
		AceitouTermos bool   `json:"aceitouTermos"`
	}

	AtualizarUsuario struct {
		Nome  string `json:"nome,omitempty"`
		Email string `json:"email,omitempty"`
	}

	// Resposta is the generic acknowledgement envelope.
	Resposta struct {
		StatusCode int    `json:"statusCode"`
		Message    string `json:"message"`
	}

	Termos struct {
		Versao   string `json:"versao"`
		Conteudo string `json:"conteudo"`
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidType      = errors.New("invalid transaction type")
	ErrEmptyTitle       = errors.New("empty title")
	ErrEmptyCategory    = errors.New("empty category")
	ErrEmptyWallet      = errors.New("empty wallet")
	ErrEmptyEmail       = errors.New("empty email")
	ErrEmptyPassword    = errors.New("empty password")
	ErrTermsNotAccepted = errors.New("terms not accepted")
	ErrInvalidDateRange = errors.New("start date after end date")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(DateLayout) + `"`), nil
}

// UnmarshalJSON accepts YYYY-MM-DD as well as full RFC 3339 timestamps.
func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		*d = Date{Time: t}
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("parse date %q: %w", s, err)
	}
	*d = Date{Time: t}
	return nil
}

// Month formats a year and month as the API expects it (YYYY-MM).
func Month(year int, month time.Month) string {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Format(MonthLayout)
}

func (t TipoLancamento) Valid() bool {
	return t == Entrada || t == Saida
}

func (n NovoLancamento) Validate() error {
	if strings.TrimSpace(n.Titulo) == "" {
		return ErrEmptyTitle
	}
	if len(n.Titulo) > 200 {
		return errors.New("title too long (max 200 characters)")
	}
	if !n.Valor.IsPositive() {
		return ErrInvalidAmount
	}
	if !n.Tipo.Valid() {
		return ErrInvalidType
	}
	if n.Data.IsZero() {
		return errors.New("date cannot be zero")
	}
	if strings.TrimSpace(n.CategoriaID) == "" {
		return ErrEmptyCategory
	}
	if strings.TrimSpace(n.CarteiraID) == "" {
		return ErrEmptyWallet
	}
	return nil
}

func (f FiltroLancamentos) Validate() error {
	if f.Tipo != "" && !f.Tipo.Valid() {
		return ErrInvalidType
	}
	if !f.DataInicio.IsZero() && !f.DataFim.IsZero() && f.DataInicio.After(f.DataFim.Time) {
		return ErrInvalidDateRange
	}
	if f.Pagina < 0 || f.Tamanho < 0 {
		return errors.New("page and page size must not be negative")
	}
	return nil
}

func (c Credenciais) Validate() error {
	if strings.TrimSpace(c.Email) == "" {
		return ErrEmptyEmail
	}
	if c.Senha == "" {
		return ErrEmptyPassword
	}
	return nil
}

func (a AlterarSenha) Validate() error {
	if a.SenhaAtual == "" || a.NovaSenha == "" {
		return ErrEmptyPassword
	}
	return nil
}

func (u NovoUsuario) Validate() error {
	if strings.TrimSpace(u.Nome) == "" {
		return errors.New("empty name")
	}
	if strings.TrimSpace(u.Email) == "" {
		return ErrEmptyEmail
	}
	if u.Senha == "" {
		return ErrEmptyPassword
	}
	if !u.AceitouTermos {
		return ErrTermsNotAccepted
	}
	return nil
}
