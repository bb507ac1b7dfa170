package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"time"

	"flip_royale/internal/domain"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// DefaultTokenAddress is the ERC-20 contract packs are paid in
const DefaultTokenAddress = "0x0b3e328455c4059eeb9e3f84b5543f74e24e7e1b"

// Transfer is a token transfer as reported by the indexer
type Transfer struct {
	Hash          string   `json:"hash"`
	Status        string   `json:"status"`
	Token         string   `json:"token"`
	From          string   `json:"from"`
	To            string   `json:"to"`
	Value         *big.Int `json:"-"`
	Confirmations int      `json:"confirmations"`
}

// ProofVerifier decides whether a payment proof reflects a real transfer.
// It runs outside any record lock.
type ProofVerifier interface {
	Verify(ctx context.Context, proof Proof) (*Transfer, error)
}

// TrustingVerifier accepts every proof. Used in dev mode and for operator reconciliation.
type TrustingVerifier struct{}

func (TrustingVerifier) Verify(_ context.Context, proof Proof) (*Transfer, error) {
	proof = proof.Normalize()
	return &Transfer{
		Hash:   proof.ExternalRef,
		Status: "success",
		From:   proof.From,
		Value:  proof.ClaimedAmount,
	}, nil
}

// ExplorerVerifier checks proofs against a block-explorer transfer endpoint
type ExplorerVerifier struct {
	baseURL          string
	apiKey           string
	token            string
	treasury         string
	minConfirmations int
	httpClient       *http.Client
}

// NewExplorerVerifier creates a verifier querying baseURL for transfers of token to treasury
func NewExplorerVerifier(baseURL, apiKey, token, treasury string) *ExplorerVerifier {
	if token == "" {
		token = DefaultTokenAddress
	}
	return &ExplorerVerifier{
		baseURL:          strings.TrimRight(baseURL, "/"),
		apiKey:           apiKey,
		token:            strings.ToLower(token),
		treasury:         strings.ToLower(treasury),
		minConfirmations: 1,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// GetTransfer fetches the transfer of the configured token in tx hash. A nil
// transfer with a nil error means the indexer does not know the transaction.
func (v *ExplorerVerifier) GetTransfer(ctx context.Context, hash string) (*Transfer, error) {
	url := fmt.Sprintf("%s/transfers/%s?token=%s", v.baseURL, hash, v.token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if v.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+v.apiKey)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("API error: %s - %s", resp.Status, string(body))
	}

	var wire struct {
		Transfer
		Value json.RawMessage `json:"value"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, err
	}
	tr := wire.Transfer
	// indexers send amounts as decimal or hex strings, sometimes bare numbers
	if raw := strings.Trim(string(wire.Value), `"`); raw != "" && raw != "null" {
		value, ok := new(big.Int).SetString(raw, 0)
		if !ok {
			return nil, fmt.Errorf("invalid transfer value %q", raw)
		}
		tr.Value = value
	}
	return &tr, nil
}

// Verify confirms that proof names a successful transfer of the pack token from
// the claimant to the treasury. The verified amount is returned on the transfer.
func (v *ExplorerVerifier) Verify(ctx context.Context, proof Proof) (*Transfer, error) {
	proof = proof.Normalize()
	if !isTxHash(proof.ExternalRef) {
		return nil, reject("malformed transaction hash")
	}

	tr, err := v.GetTransfer(ctx, proof.ExternalRef)
	if err != nil {
		return nil, fmt.Errorf("%w: payment verifier: %v", domain.ErrUpstreamUnavailable, err)
	}
	if tr == nil {
		return nil, reject("transaction not found")
	}

	switch {
	case !strings.EqualFold(tr.Status, "success"):
		return nil, reject("transaction status " + tr.Status)
	case tr.Confirmations < v.minConfirmations:
		// not final yet; the client may retry the same hash later
		return nil, fmt.Errorf("%w: transaction has %d confirmations", domain.ErrUpstreamUnavailable, tr.Confirmations)
	case !strings.EqualFold(tr.Token, v.token):
		return nil, reject("wrong token contract")
	case v.treasury != "" && !strings.EqualFold(tr.To, v.treasury):
		return nil, reject("payment not sent to treasury")
	case proof.From != "" && !strings.EqualFold(tr.From, proof.From):
		return nil, reject("payment sent from another wallet")
	case tr.Value == nil || tr.Value.Sign() <= 0:
		return nil, reject("empty transfer")
	}
	return tr, nil
}

var errRejected = errors.New("payment proof rejected")

func reject(reason string) error {
	return fmt.Errorf("%w: %w: %s", domain.ErrAuthenticationFailed, errRejected, reason)
}

func isTxHash(s string) bool {
	b, err := hexutil.Decode(s)
	return err == nil && len(b) == common.HashLength
}
