package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const httpStoreTimeout = 30 * time.Second

// httpStore talks to a remote state API. Both endpoints take a POST with a
// bearer token; the fetch endpoint answers {"lastEntry":{"state":[...]}}.
type httpStore struct {
	cfg    ServiceConfig
	client *http.Client
}

func newHTTPStore(cfg ServiceConfig, client *http.Client) *httpStore {
	if client == nil {
		client = &http.Client{Timeout: httpStoreTimeout}
	}
	return &httpStore{cfg: cfg, client: client}
}

type fetchResponse struct {
	LastEntry *struct {
		State json.RawMessage `json:"state"`
	} `json:"lastEntry"`
}

func (s *httpStore) Load(ctx context.Context) ([]RoomRecord, error) {
	body, err := s.post(ctx, s.cfg.FetchURL, nil)
	if err != nil {
		return nil, err
	}

	var fetched fetchResponse
	if err := json.Unmarshal(body, &fetched); err != nil {
		return nil, fmt.Errorf("failed to decode state response: %w", err)
	}
	if fetched.LastEntry == nil || len(fetched.LastEntry.State) == 0 {
		return nil, nil
	}

	return decodeRecords(fetched.LastEntry.State)
}

func (s *httpStore) Save(ctx context.Context, records []RoomRecord) error {
	data, err := encodeRecords(records)
	if err != nil {
		return err
	}

	_, err = s.post(ctx, s.cfg.SaveURL, data)
	return err
}

func (s *httpStore) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

func (s *httpStore) post(ctx context.Context, url string, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build state request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.cfg.Token)

	res, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("state request to %s failed: %w", url, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read state response: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, fmt.Errorf("state request to %s returned %d", url, res.StatusCode)
	}

	return body, nil
}
