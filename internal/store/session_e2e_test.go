package store

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"planejai/internal/api"
	"planejai/internal/cache"
	"planejai/internal/core"
	"planejai/internal/resources"
)

func TestLoginThenFetchUsuario(t *testing.T) {
	var meCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var cred core.Credenciais
		if err := json.NewDecoder(r.Body).Decode(&cred); err != nil || cred.Senha != "segredo" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "SESSION", Value: "s1", Path: "/"})
		w.Write([]byte(`{"statusCode":200,"message":"ok"}`))
	})
	mux.HandleFunc("/planejai/usuario/me", func(w http.ResponseWriter, r *http.Request) {
		meCalls.Add(1)
		if _, err := r.Cookie("SESSION"); err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"usuario":{"id":"u1","nome":"Ana","email":"ana@example.com"},"carteiraId":"w42"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	guard := api.NewGuard(api.NewPathNavigator("/", nil))
	client, err := api.NewClient(api.Options{BaseURL: srv.URL, Guard: guard})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	sess := NewSessionFromClient(guard, resources.New(client, ""), nil)

	if st := sess.Users.Snapshot().State(); st != cache.Idle {
		t.Fatalf("expected idle before login, got %v", st)
	}

	if _, err := sess.Login(context.Background(), core.Credenciais{Email: "ana@example.com", Senha: "errada"}); err == nil || err.Error() != "invalid credentials" {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if guard.State() == api.SessionExpired {
		t.Fatalf("a login 401 is not an expired session")
	}

	snap, err := sess.Login(context.Background(), core.Credenciais{Email: "ana@example.com", Senha: "segredo"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if snap.State() != cache.Ready || snap.Data.Usuario.Nome != "Ana" || snap.Data.CarteiraID != "w42" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if id, ok := sess.Wallet.Get(); !ok || id != "w42" {
		t.Fatalf("wallet not populated: %q %v", id, ok)
	}

	sess.Users.FetchUsuario(context.Background())
	if meCalls.Load() != 1 {
		t.Fatalf("expected one profile call, got %d", meCalls.Load())
	}
}
