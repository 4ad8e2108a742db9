package sheets

import (
	"reflect"
	"testing"

	"github.com/shopspring/decimal"
	"planejai/internal/core"
)

func TestRows(t *testing.T) {
	b := Batch{
		Mes: "2024-03",
		Lancamentos: []core.Lancamento{
			{ID: "1", Titulo: "Salario", Valor: decimal.RequireFromString("5000"), Data: core.NewDate(2024, 3, 5), Tipo: core.Entrada, CategoriaID: "c-sal"},
			{ID: "2", Titulo: "Feira", Descricao: "sabado", Valor: decimal.RequireFromString("87.456"), Data: core.NewDate(2024, 3, 9), Tipo: core.Saida, CategoriaID: "c-unknown"},
		},
		Categoria: func(id string) string {
			if id == "c-sal" {
				return "Salário"
			}
			return ""
		},
	}

	got := Rows(b)
	want := [][]string{
		Header,
		{"2024-03-05", "Salario", "entrada", "Salário", "5000.00", "", "1"},
		{"2024-03-09", "Feira", "saida", "c-unknown", "87.46", "sabado", "2"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Rows =\n%v\nwant\n%v", got, want)
	}
}

func TestRowsNilResolver(t *testing.T) {
	got := Rows(Batch{Lancamentos: []core.Lancamento{{CategoriaID: "c1"}}})
	if got[1][3] != "c1" {
		t.Errorf("categoria = %q, want id fallback", got[1][3])
	}
}
