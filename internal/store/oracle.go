package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"flip_royale/internal/domain"
)

// OracleStore talks to the Oracle record service over HTTP
type OracleStore struct {
	baseURL    string
	secret     string
	httpClient *http.Client
}

// NewOracleStore creates an Oracle client authenticated with a bearer secret
func NewOracleStore(baseURL, secret string) *OracleStore {
	return &OracleStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		secret:  secret,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type oracleUserResponse struct {
	User *domain.UserRecord `json:"user"`
}

type oracleUpdateRequest struct {
	Address  string              `json:"address"`
	UserData *domain.RecordPatch `json:"userData"`
}

func (s *OracleStore) Get(ctx context.Context, address string) (*domain.UserRecord, error) {
	address = domain.NormalizeAddress(address)
	endpoint := fmt.Sprintf("%s/api/users/get?address=%s", s.baseURL, url.QueryEscape(address))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	s.authorize(req)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, unavailable("oracle get", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, unavailable("oracle get", apiError(resp))
	}

	var out oracleUserResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, unavailable("oracle get", err)
	}
	if out.User == nil {
		return nil, ErrNotFound
	}
	return out.User, nil
}

func (s *OracleStore) Update(ctx context.Context, address string, patch *domain.RecordPatch) (*domain.UserRecord, error) {
	address = domain.NormalizeAddress(address)
	body, err := json.Marshal(oracleUpdateRequest{Address: address, UserData: patch})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/users/update", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	s.authorize(req)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, unavailable("oracle update", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, unavailable("oracle update", apiError(resp))
	}

	var out oracleUserResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err == nil && out.User != nil {
		return out.User, nil
	}
	// some Oracle versions answer {ok:true} without the record
	return s.Get(ctx, address)
}

// Ping treats any non-5xx answer from the Oracle as reachable
func (s *OracleStore) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/users/get?address=", nil)
	if err != nil {
		return err
	}
	s.authorize(req)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return unavailable("oracle ping", err)
	}
	resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		return unavailable("oracle ping", fmt.Errorf("status %s", resp.Status))
	}
	return nil
}

func (s *OracleStore) authorize(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if s.secret != "" {
		req.Header.Set("Authorization", "Bearer "+s.secret)
	}
}

func apiError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("API error: %s - %s", resp.Status, string(body))
}
