// Package core provides the domain types shared by the API client, the
// stores and the CLI.
//
// This file contains helpers for parsing and formatting monetary amounts.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseValor parses a positive amount written with either a dot (12.34) or a
// comma (12,34) decimal separator, rounded half-up to two places.
//
// Examples:
//
//	ParseValor("12.34")  -> 12.34, nil
//	ParseValor("12,345") -> 12.35, nil
//	ParseValor("-1")     -> 0, ErrInvalidAmount
func ParseValor(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	d = d.Round(2)
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// FormatReais formats an amount as Brazilian reais (e.g. "R$ 1234,50").
func FormatReais(v decimal.Decimal) string {
	neg := v.IsNegative()
	s := strings.ReplaceAll(v.Abs().StringFixed(2), ".", ",")
	if neg {
		return "-R$ " + s
	}
	return "R$ " + s
}

// Total sums the signed value of a set of lançamentos: entradas add, saídas
// subtract.
func Total(itens []Lancamento) decimal.Decimal {
	total := decimal.Zero
	for _, l := range itens {
		switch l.Tipo {
		case Entrada:
			total = total.Add(l.Valor)
		case Saida:
			total = total.Sub(l.Valor)
		}
	}
	return total
}
