package memory

import (
	"context"
	"fmt"
	"sync"

	ports "planejai/internal/sheets"
)

// Store keeps exported rows in memory. It backs the CLI when no spreadsheet
// is configured and the tests.
type Store struct {
	mu     sync.Mutex
	sheets map[string][][]string
	order  []string
}

var _ ports.TransactionExporter = (*Store)(nil)

func New() *Store {
	return &Store{sheets: map[string][][]string{}}
}

// Export replaces whatever was stored for the batch's month.
func (s *Store) Export(_ context.Context, b ports.Batch) (string, error) {
	if len(b.Lancamentos) == 0 {
		return "", ports.ErrEmptyBatch
	}
	rows := ports.Rows(b)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sheets[b.Mes]; !ok {
		s.order = append(s.order, b.Mes)
	}
	s.sheets[b.Mes] = rows
	return fmt.Sprintf("mem:%s!A1:G%d", b.Mes, len(rows)), nil
}

// Rows returns a copy of what was exported for mes.
func (s *Store) Rows(mes string) [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	src := s.sheets[mes]
	out := make([][]string, len(src))
	for i, r := range src {
		out[i] = append([]string(nil), r...)
	}
	return out
}

// Months lists exported months in first-export order.
func (s *Store) Months() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...)
}
