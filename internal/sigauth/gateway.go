package sigauth

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"flip_royale/internal/domain"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// DefaultPrefix tags every message the game asks a wallet to sign
const DefaultPrefix = "Flip Royale:"

var (
	errMissingSignature = errors.New("signature required")
	errBadPrefix        = errors.New("message does not carry the application tag")
	errBadAddress       = errors.New("claimed address is not a valid address")
	errBadSignature     = errors.New("malformed signature")
	errSignerMismatch   = errors.New("signature does not belong to the claimed address")
	errNoTimestamp      = errors.New("message carries no timestamp")
	errStaleMessage     = errors.New("message timestamp outside the accepted window")
)

// timestampPattern finds "Timestamp: <unix seconds or millis>" in a signed message
var timestampPattern = regexp.MustCompile(`(?i)\btimestamp:\s*(\d{10,13})\b`)

// Gateway verifies that a claimed address signed a message (EIP-191 personal_sign)
type Gateway struct {
	prefix string
	maxAge time.Duration
	now    func() time.Time
}

// NewGateway creates a gateway requiring messages to start with prefix
func NewGateway(prefix string) *Gateway {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Gateway{prefix: prefix, now: time.Now}
}

// WithMaxAge requires signed messages to carry a timestamp no further than
// maxAge from now. Zero disables the check.
func (g *Gateway) WithMaxAge(maxAge time.Duration) *Gateway {
	g.maxAge = maxAge
	return g
}

// Prefix returns the required message tag
func (g *Gateway) Prefix() string {
	return g.prefix
}

// Verify reports whether signature over message was produced by claimedAddress
func (g *Gateway) Verify(claimedAddress, message, signature string) bool {
	return g.Authenticate(claimedAddress, message, signature) == nil
}

// Authenticate is Verify with the failure reason wrapped in ErrAuthenticationFailed
func (g *Gateway) Authenticate(claimedAddress, message, signature string) error {
	// cheap checks first, before any curve arithmetic
	if signature == "" {
		return fail(errMissingSignature)
	}
	if !strings.HasPrefix(message, g.prefix) {
		return fail(errBadPrefix)
	}
	if err := g.checkFresh(message); err != nil {
		return fail(err)
	}
	if !common.IsHexAddress(claimedAddress) {
		return fail(errBadAddress)
	}

	signer, err := RecoverSigner(message, signature)
	if err != nil {
		return fail(err)
	}
	if signer != common.HexToAddress(strings.TrimSpace(claimedAddress)) {
		return fail(errSignerMismatch)
	}
	return nil
}

// RecoverSigner returns the address that produced a personal_sign signature over message
func RecoverSigner(message, signature string) (common.Address, error) {
	sig, err := hexutil.Decode(strings.TrimSpace(signature))
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", errBadSignature, err)
	}
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, fmt.Errorf("%w: length %d", errBadSignature, len(sig))
	}

	// wallets emit v as 27/28, go-ethereum expects 0/1
	sig = append([]byte(nil), sig...)
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}
	if sig[crypto.RecoveryIDOffset] > 1 {
		return common.Address{}, fmt.Errorf("%w: recovery id %d", errBadSignature, sig[crypto.RecoveryIDOffset])
	}

	pub, err := crypto.SigToPub(accounts.TextHash([]byte(message)), sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", errBadSignature, err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

func (g *Gateway) checkFresh(message string) error {
	if g.maxAge <= 0 {
		return nil
	}
	m := timestampPattern.FindStringSubmatch(message)
	if m == nil {
		return errNoTimestamp
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return fmt.Errorf("%w: %v", errNoTimestamp, err)
	}
	signedAt := time.Unix(n, 0)
	if len(m[1]) > 10 {
		signedAt = time.UnixMilli(n)
	}

	age := g.now().Sub(signedAt)
	if age > g.maxAge || age < -g.maxAge {
		return fmt.Errorf("%w: signed %s ago", errStaleMessage, age.Round(time.Second))
	}
	return nil
}

// ValidAddress reports whether s is a 20-byte hex address
func ValidAddress(s string) bool {
	return common.IsHexAddress(strings.TrimSpace(s))
}

func fail(reason error) error {
	return fmt.Errorf("%w: %w", domain.ErrAuthenticationFailed, reason)
}
