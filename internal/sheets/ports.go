// Package sheets exports a month of lançamentos to a spreadsheet-like sink.
package sheets

import (
	"context"
	"errors"

	"planejai/internal/core"
)

// Header is the first row written by every exporter.
var Header = []string{"Data", "Titulo", "Tipo", "Categoria", "Valor", "Descricao", "ID"}

// ErrEmptyBatch is returned when there is nothing to export.
var ErrEmptyBatch = errors.New("nothing to export")

type (
	// Batch is one export request: the lançamentos of a month and a way to
	// resolve category ids to names.
	Batch struct {
		Mes         string
		Lancamentos []core.Lancamento
		Categoria   func(id string) string
	}

	TransactionExporter interface {
		// Export writes the batch and returns a reference to where it landed.
		Export(ctx context.Context, b Batch) (ref string, err error)
	}
)

// Rows renders the batch as string cells, header first. Amounts keep two
// decimal places with a dot separator so spreadsheets parse them as numbers
// under USER_ENTERED.
func Rows(b Batch) [][]string {
	out := make([][]string, 0, len(b.Lancamentos)+1)
	out = append(out, append([]string(nil), Header...))
	for _, l := range b.Lancamentos {
		cat := l.CategoriaID
		if b.Categoria != nil {
			if name := b.Categoria(l.CategoriaID); name != "" {
				cat = name
			}
		}
		out = append(out, []string{
			l.Data.String(),
			l.Titulo,
			string(l.Tipo),
			cat,
			l.Valor.StringFixed(2),
			l.Descricao,
			l.ID,
		})
	}
	return out
}
