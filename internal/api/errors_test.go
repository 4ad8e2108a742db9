package api

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassifyStatusTable(t *testing.T) {
	cases := []struct {
		status int
		text   string
		body   string
		want   string
		kind   Kind
	}{
		{400, "400 Bad Request", "", "invalid data", KindClient},
		{401, "401 Unauthorized", "", "invalid credentials", KindClient},
		{403, "403 Forbidden", "", "access denied", KindClient},
		{404, "404 Not Found", "", "not found", KindClient},
		{409, "409 Conflict", "", "conflict", KindClient},
		{500, "500 Internal Server Error", "", "internal server error", KindServer},
		{418, "418 I'm a teapot", "", "request failed: 418 I'm a teapot", KindServer},
		{422, "422 Unprocessable Entity", "", "request failed: 422 Unprocessable Entity", KindServer},
		{422, "422 Unprocessable Entity", `{"message":"valor inválido"}`, "valor inválido", KindServer},
		{503, "503 Service Unavailable", "<html>down</html>", "request failed: 503 Service Unavailable", KindServer},
		{404, "404 Not Found", `{"error":"x"}`, "not found", KindClient},
		{404, "404 Not Found", `{"message":""}`, "not found", KindClient},
		{409, "409 Conflict", `{"message":"email já cadastrado"}`, "email já cadastrado", KindClient},
		{500, "500 Internal Server Error", `{"message":"boom"}`, "boom", KindServer},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%d_%s", tc.status, tc.want), func(t *testing.T) {
			err := classify(tc.status, tc.text, []byte(tc.body))
			if err.Message != tc.want {
				t.Fatalf("message = %q, want %q", err.Message, tc.want)
			}
			if err.Kind != tc.kind {
				t.Fatalf("kind = %v, want %v", err.Kind, tc.kind)
			}
			if err.Status != tc.status {
				t.Fatalf("status = %d, want %d", err.Status, tc.status)
			}
		})
	}
}

func TestClassifyWithoutStatusText(t *testing.T) {
	err := classify(418, "", nil)
	if err.Message != "request failed: 418 I'm a teapot" {
		t.Fatalf("unexpected message: %q", err.Message)
	}
}

func TestErrorMatching(t *testing.T) {
	var err error = fmt.Errorf("load user: %w", sessionExpiredError(401, "401 Unauthorized"))
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected session expired match")
	}
	if errors.Is(err, ErrNetwork) {
		t.Fatalf("did not expect network match")
	}
	if StatusOf(err) != 401 {
		t.Fatalf("expected status 401, got %d", StatusOf(err))
	}
	if kind, ok := KindOf(err); !ok || kind != KindSessionExpired {
		t.Fatalf("unexpected kind: %v %v", kind, ok)
	}

	cause := errors.New("dial tcp: refused")
	netErr := networkError(cause)
	if !errors.Is(netErr, ErrNetwork) || !errors.Is(netErr, cause) {
		t.Fatalf("network error should match sentinel and cause")
	}
	if netErr.Error() != "network error: dial tcp: refused" {
		t.Fatalf("unexpected network message: %q", netErr.Error())
	}

	if StatusOf(errors.New("plain")) != 0 {
		t.Fatalf("plain errors carry no status")
	}
}
