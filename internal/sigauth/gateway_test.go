package sigauth

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"flip_royale/internal/domain"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// sign produces a wallet-style personal_sign signature (v = 27/28)
func sign(t *testing.T, key *ecdsa.PrivateKey, message string) string {
	t.Helper()
	sig, err := crypto.Sign(accounts.TextHash([]byte(message)), key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	sig[crypto.RecoveryIDOffset] += 27
	return hexutil.Encode(sig)
}

func newKey(t *testing.T) (*ecdsa.PrivateKey, string) {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return key, crypto.PubkeyToAddress(key.PublicKey).Hex()
}

func TestAuthenticateValidSignature(t *testing.T) {
	g := NewGateway("")
	key, addr := newKey(t)
	msg := "Flip Royale: Save Picks #42"
	sig := sign(t, key, msg)

	if err := g.Authenticate(addr, msg, sig); err != nil {
		t.Fatalf("expected valid signature, got %v", err)
	}
	// address comparison is case-insensitive
	if !g.Verify(strings.ToLower(addr), msg, sig) {
		t.Fatalf("expected lowercase address to verify")
	}
}

func TestAuthenticateAcceptsRawRecoveryID(t *testing.T) {
	g := NewGateway("")
	key, addr := newKey(t)
	msg := "Flip Royale: Lock Card"

	raw, err := crypto.Sign(accounts.TextHash([]byte(msg)), key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if !g.Verify(addr, msg, hexutil.Encode(raw)) {
		t.Fatalf("expected v in {0,1} to verify")
	}
}

func TestAuthenticateWrongSigner(t *testing.T) {
	g := NewGateway("")
	_, victim := newKey(t)
	attacker, _ := newKey(t)
	msg := "Flip Royale: Save Picks"

	err := g.Authenticate(victim, msg, sign(t, attacker, msg))
	if !errors.Is(err, domain.ErrAuthenticationFailed) {
		t.Fatalf("expected ErrAuthenticationFailed, got %v", err)
	}
	if !errors.Is(err, errSignerMismatch) {
		t.Fatalf("expected signer mismatch, got %v", err)
	}
}

func TestAuthenticateRejectsBeforeCrypto(t *testing.T) {
	g := NewGateway("")
	_, addr := newKey(t)

	cases := []struct {
		name      string
		addr      string
		message   string
		signature string
		reason    error
	}{
		// the garbage signature proves recovery never ran: it would fail as malformed otherwise
		{"missing prefix", addr, "Save Picks", "0xnot-hex", errBadPrefix},
		{"prefix not at start", addr, "hello Flip Royale:", "0xnot-hex", errBadPrefix},
		{"missing signature", addr, "Flip Royale: x", "", errMissingSignature},
		{"bad address", "alice", "Flip Royale: x", "0x00", errBadAddress},
		{"short signature", addr, "Flip Royale: x", "0x1234", errBadSignature},
		{"non hex signature", addr, "Flip Royale: x", "zz", errBadSignature},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := g.Authenticate(tc.addr, tc.message, tc.signature)
			if !errors.Is(err, domain.ErrAuthenticationFailed) {
				t.Fatalf("expected ErrAuthenticationFailed, got %v", err)
			}
			if !errors.Is(err, tc.reason) {
				t.Fatalf("expected reason %v, got %v", tc.reason, err)
			}
		})
	}
}

func TestTamperedMessageFails(t *testing.T) {
	g := NewGateway("")
	key, addr := newKey(t)
	sig := sign(t, key, "Flip Royale: Save Picks round 3")

	if g.Verify(addr, "Flip Royale: Save Picks round 4", sig) {
		t.Fatalf("expected tampered message to fail")
	}
}

func TestCustomPrefix(t *testing.T) {
	g := NewGateway("Test Game:")
	key, addr := newKey(t)

	if g.Verify(addr, "Flip Royale: x", sign(t, key, "Flip Royale: x")) {
		t.Fatalf("expected default tag to be rejected under a custom prefix")
	}
	if !g.Verify(addr, "Test Game: x", sign(t, key, "Test Game: x")) {
		t.Fatalf("expected custom prefix to verify")
	}
}

func TestAuthenticateBareAddress(t *testing.T) {
	g := NewGateway("")
	key, addr := newKey(t)
	msg := "Flip Royale: Save Picks"

	if err := g.Authenticate(strings.TrimPrefix(addr, "0x"), msg, sign(t, key, msg)); err != nil {
		t.Fatalf("expected bare address to verify, got %v", err)
	}
}

func TestAuthenticateFreshness(t *testing.T) {
	now := time.Unix(1_760_000_000, 0)
	g := NewGateway("").WithMaxAge(5 * time.Minute)
	g.now = func() time.Time { return now }
	key, addr := newKey(t)

	cases := []struct {
		name    string
		message string
		reason  error
	}{
		{"fresh seconds", fmt.Sprintf("Flip Royale: Buy Pack\nTimestamp: %d", now.Add(-time.Minute).Unix()), nil},
		{"fresh millis", fmt.Sprintf("Flip Royale: Buy Pack timestamp: %d", now.UnixMilli()), nil},
		{"replayed later", fmt.Sprintf("Flip Royale: Buy Pack\nTimestamp: %d", now.Add(-time.Hour).Unix()), errStaleMessage},
		{"from the future", fmt.Sprintf("Flip Royale: Buy Pack\nTimestamp: %d", now.Add(time.Hour).Unix()), errStaleMessage},
		{"no timestamp", "Flip Royale: Buy Pack", errNoTimestamp},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := g.Authenticate(addr, tc.message, sign(t, key, tc.message))
			if tc.reason == nil {
				if err != nil {
					t.Fatalf("expected fresh message to verify, got %v", err)
				}
				return
			}
			if !errors.Is(err, domain.ErrAuthenticationFailed) || !errors.Is(err, tc.reason) {
				t.Fatalf("expected %v, got %v", tc.reason, err)
			}
		})
	}
}
