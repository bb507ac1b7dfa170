package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"flip_royale/internal/domain"
)

const (
	testHash     = "0x9f1c2e8b5a7d4c3b2a1f0e9d8c7b6a5f4e3d2c1b0a9f8e7d6c5b4a3f2e1d0c9b"
	testSender   = "0x1111111111111111111111111111111111111111"
	testTreasury = "0x2222222222222222222222222222222222222222"
)

func explorer(t *testing.T, handler http.HandlerFunc) *ExplorerVerifier {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewExplorerVerifier(srv.URL, "key", "", testTreasury)
}

func transferJSON(status, token, from, to, value string, confirmations int) string {
	return fmt.Sprintf(`{"hash":%q,"status":%q,"token":%q,"from":%q,"to":%q,"value":%s,"confirmations":%d}`,
		testHash, status, token, from, to, value, confirmations)
}

func TestExplorerVerifierAcceptsTransfer(t *testing.T) {
	v := explorer(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer key" {
			t.Errorf("missing bearer key, got %q", got)
		}
		if !strings.HasSuffix(r.URL.Path, "/transfers/"+testHash) {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, transferJSON("success", DefaultTokenAddress, testSender, testTreasury, `"200000000000000000"`, 3))
	})

	tr, err := v.Verify(context.Background(), Proof{ExternalRef: testHash, From: testSender, Count: 2})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if tr.Value.String() != "200000000000000000" {
		t.Fatalf("unexpected value %s", tr.Value)
	}
}

func TestExplorerVerifierRejections(t *testing.T) {
	cases := []struct {
		name string
		body string
		code int
		want error
	}{
		{"failed tx", transferJSON("reverted", DefaultTokenAddress, testSender, testTreasury, `"1"`, 3), 200, domain.ErrAuthenticationFailed},
		{"wrong token", transferJSON("success", testSender, testSender, testTreasury, `"1"`, 3), 200, domain.ErrAuthenticationFailed},
		{"wrong recipient", transferJSON("success", DefaultTokenAddress, testSender, testSender, `"1"`, 3), 200, domain.ErrAuthenticationFailed},
		{"wrong sender", transferJSON("success", DefaultTokenAddress, testTreasury, testTreasury, `"1"`, 3), 200, domain.ErrAuthenticationFailed},
		{"zero value", transferJSON("success", DefaultTokenAddress, testSender, testTreasury, `"0x0"`, 3), 200, domain.ErrAuthenticationFailed},
		{"unconfirmed", transferJSON("success", DefaultTokenAddress, testSender, testTreasury, `1`, 0), 200, domain.ErrUpstreamUnavailable},
		{"unknown tx", `{}`, 404, domain.ErrAuthenticationFailed},
		{"indexer down", `oops`, 502, domain.ErrUpstreamUnavailable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := explorer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.code)
				fmt.Fprint(w, tc.body)
			})
			_, err := v.Verify(context.Background(), Proof{ExternalRef: testHash, From: testSender, Count: 1})
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestExplorerVerifierRejectsMalformedHash(t *testing.T) {
	v := explorer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("indexer must not be called for a malformed hash")
	})
	if _, err := v.Verify(context.Background(), Proof{ExternalRef: "0x1234"}); !errors.Is(err, domain.ErrAuthenticationFailed) {
		t.Fatalf("expected ErrAuthenticationFailed, got %v", err)
	}
}

func TestExplorerVerifierUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	v := NewExplorerVerifier(url, "", "", "")
	if _, err := v.Verify(context.Background(), Proof{ExternalRef: testHash}); !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestTrustingVerifierEchoesProof(t *testing.T) {
	tr, err := TrustingVerifier{}.Verify(context.Background(), Proof{ExternalRef: "0xAB", From: "0xCD"})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if tr.Hash != "0xab" || tr.From != "0xcd" {
		t.Fatalf("unexpected transfer %+v", tr)
	}
}
