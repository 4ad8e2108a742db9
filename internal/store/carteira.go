package store

import "sync"

// WalletID holds the selected wallet, or none.
type WalletID struct {
	mu  sync.RWMutex
	id  string
	set bool
}

func (w *WalletID) Get() (string, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.id, w.set
}

// Set selects id. An empty id clears the selection.
func (w *WalletID) Set(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.id = id
	w.set = id != ""
}

func (w *WalletID) Clear() {
	w.Set("")
}
