// Package client talks to a registrar over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"voting-registrar/api"
	"voting-registrar/ledger"
	"voting-registrar/models"
	"voting-registrar/service"
	"voting-registrar/voting"
)

// StatusError is a non-2xx reply. A 403 unwraps to service.ErrNotAuthorized.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("registrar replied %d: %s", e.Code, e.Body)
}

func (e *StatusError) Unwrap() error {
	if e.Code == http.StatusForbidden {
		return service.ErrNotAuthorized
	}
	return nil
}

type Client struct {
	baseURL string
	http    *http.Client
}

// New makes a client for the registrar at baseURL. A nil httpClient means
// http.DefaultClient.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

func (c *Client) do(ctx context.Context, method, path string, header http.Header, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %v", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s reply: %v", method, path, err)
	}
	return nil
}

func (c *Client) RegistrarKey(ctx context.Context) (models.JSONKey, error) {
	var key models.JSONKey
	err := c.do(ctx, http.MethodGet, "/registrar-key", nil, nil, &key)
	return key, err
}

func (c *Client) ListBallots(ctx context.Context) ([]uint64, error) {
	var nums []uint64
	err := c.do(ctx, http.MethodGet, "/ballots", nil, nil, &nums)
	return nums, err
}

// GetBallot fetches the signed triplet of ballot n. found is false when the
// registrar has no such ballot.
func (c *Client) GetBallot(ctx context.Context, n uint64) (load models.SignedLoad, found bool, err error) {
	err = c.do(ctx, http.MethodGet, "/ballots/"+strconv.FormatUint(n, 10), nil, nil, &load)
	if se, ok := err.(*StatusError); ok && se.Code == http.StatusNotFound {
		return models.SignedLoad{}, false, nil
	}
	if err != nil {
		return models.SignedLoad{}, false, err
	}
	return load, true, nil
}

func (c *Client) MakeOneToken(ctx context.Context) (string, error) {
	var resp api.MakeTokenResponse
	if err := c.do(ctx, http.MethodPost, "/admin/make-one-token", nil, nil, &resp); err != nil {
		return "", err
	}
	return resp.RegistrationOTT, nil
}

// Register registers a voter using token.
func (c *Client) Register(ctx context.Context, token string, req service.RegistrationRequest) (voting.SignedBallotInfo, error) {
	var info voting.SignedBallotInfo
	header := http.Header{}
	header.Set(api.HeaderRegistrationOTT, token)
	err := c.do(ctx, http.MethodPut, "/register", header, req, &info)
	return info, err
}

func (c *Client) Metrics(ctx context.Context) (service.MetricsResponse, error) {
	var m service.MetricsResponse
	err := c.do(ctx, http.MethodGet, "/admin/metrics", nil, nil, &m)
	return m, err
}

func (c *Client) ResetMetrics(ctx context.Context) (service.MetricsResponse, error) {
	var m service.MetricsResponse
	err := c.do(ctx, http.MethodPost, "/admin/metrics/reset", nil, nil, &m)
	return m, err
}

func (c *Client) LedgerStatus(ctx context.Context) (ledger.Status, error) {
	var status ledger.Status
	err := c.do(ctx, http.MethodGet, "/admin/ledger", nil, nil, &status)
	return status, err
}
