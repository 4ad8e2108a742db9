package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseValor(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.0", "1", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{"0.01", "0.01", true},
		{"1.005", "1.01", true}, // half-up rounding
		{" 2.50 ", "2.5", true},
		{"-1", "", false},
		{"0", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseValor(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(decimal.RequireFromString(tc.out)) {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestFormatReais(t *testing.T) {
	cases := map[string]string{
		"1234.5": "R$ 1234,50",
		"0":      "R$ 0,00",
		"-3.2":   "-R$ 3,20",
	}
	for in, want := range cases {
		if got := FormatReais(decimal.RequireFromString(in)); got != want {
			t.Fatalf("FormatReais(%s) = %q, want %q", in, got, want)
		}
	}
}

func TestTotal(t *testing.T) {
	itens := []Lancamento{
		{Tipo: Entrada, Valor: decimal.RequireFromString("100.00")},
		{Tipo: Saida, Valor: decimal.RequireFromString("30.50")},
		{Tipo: Saida, Valor: decimal.RequireFromString("9.50")},
	}
	if got := Total(itens); !got.Equal(decimal.RequireFromString("60")) {
		t.Fatalf("expected 60, got %s", got)
	}
}
