package store

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"poker/internal/app/user"
)

func sampleRecords() []RoomRecord {
	est := "5"
	return []RoomRecord{
		{ID: 1, Visible: true, Users: []user.User{{ID: "a", ItemNumber: &est, Name: "Alice"}}},
		{ID: 7, Visible: false, Users: []user.User{{ID: "b", Name: "Bob"}}},
	}
}

func checkRecords(t *testing.T, got []RoomRecord) {
	t.Helper()

	if len(got) != 2 {
		t.Fatalf("expected 2 rooms, got %d", len(got))
	}
	if got[0].ID != 1 || !got[0].Visible || got[1].ID != 7 || got[1].Visible {
		t.Fatalf("rooms not restored in order: %+v", got)
	}
	if got[0].Users[0].ItemNumber == nil || *got[0].Users[0].ItemNumber != "5" {
		t.Fatalf("estimate lost: %+v", got[0].Users[0])
	}
	if got[1].Users[0].ItemNumber != nil {
		t.Fatalf("null estimate became %q", *got[1].Users[0].ItemNumber)
	}
}

func TestHTTPStoreRoundTrip(t *testing.T) {
	var saved []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("unexpected auth header %q", got)
		}

		switch r.URL.Path {
		case "/save":
			saved, _ = io.ReadAll(r.Body)
			w.WriteHeader(http.StatusNoContent)
		case "/fetch":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"lastEntry":{"state":` + string(saved) + `}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	s := newHTTPStore(ServiceConfig{
		FetchURL: srv.URL + "/fetch",
		SaveURL:  srv.URL + "/save",
		Token:    "secret",
	}, srv.Client())

	ctx := context.Background()
	if err := s.Save(ctx, sampleRecords()); err != nil {
		t.Fatalf("save: %v", err)
	}

	var raw []map[string]any
	if err := json.Unmarshal(saved, &raw); err != nil {
		t.Fatalf("saved body is not a JSON list: %v", err)
	}
	if _, ok := raw[1]["users"].([]any)[0].(map[string]any)["itemNumber"]; !ok {
		t.Fatalf("null estimate must be written explicitly: %s", saved)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	checkRecords(t, got)
}

func TestHTTPStoreLoadWithoutEntry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	s := newHTTPStore(ServiceConfig{FetchURL: srv.URL}, srv.Client())
	got, err := s.Load(context.Background())
	if err != nil || got != nil {
		t.Fatalf("expected no state, got %v, %v", got, err)
	}
}

func TestHTTPStoreReportsStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	s := newHTTPStore(ServiceConfig{SaveURL: srv.URL}, srv.Client())
	if err := s.Save(context.Background(), nil); err == nil {
		t.Fatal("expected an error for a 502 answer")
	}
}

func TestRedisStoreRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	s := newRedisStoreWithClient(client, "")
	ctx := context.Background()

	got, err := s.Load(ctx)
	if err != nil || got != nil {
		t.Fatalf("expected empty store, got %v, %v", got, err)
	}

	if err := s.Save(ctx, sampleRecords()); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !mr.Exists(defaultRedisKey + ":saved_at") {
		t.Fatal("save time not recorded")
	}

	got, err = s.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	checkRecords(t, got)
}

func TestRedisStoreEmptyListIsNotNull(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	s := newRedisStoreWithClient(client, "rooms")
	if err := s.Save(context.Background(), nil); err != nil {
		t.Fatalf("save: %v", err)
	}

	v, err := mr.Get("rooms")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if v != "[]" {
		t.Fatalf("expected [], got %q", v)
	}
}

func TestNewRejectsUnknownBackend(t *testing.T) {
	if _, err := New(context.Background(), ServiceConfig{Backend: "floppy"}); err == nil {
		t.Fatal("expected an error")
	}

	s, err := New(context.Background(), ServiceConfig{})
	if err != nil {
		t.Fatalf("default backend: %v", err)
	}
	if got, _ := s.Load(context.Background()); got != nil {
		t.Fatalf("noop store returned %v", got)
	}
}

func TestDecodeRecordsSanitizesStoredData(t *testing.T) {
	data := []byte(`[
		{"id": -3, "visible": true, "users": [
			{"id": "aaaaaaaaaabbbbbbbbbbccccccccccdddd", "itemNumber": 8, "name": "  "},
			{"id": 4, "itemNumber": "13", "name": "Bob"},
			"junk"
		]},
		5,
		{"id": 1234567890123456, "visible": "yes", "users": null}
	]`)

	got, err := decodeRecords(data)
	if err != nil {
		t.Fatalf("a malformed entry must not fail the whole list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rooms, got %+v", got)
	}

	if got[0].ID != 0 || !got[0].Visible || len(got[0].Users) != 2 {
		t.Fatalf("unexpected first room %+v", got[0])
	}
	first := got[0].Users[0]
	if first.ID != "aaaaaaaaaabbbbbbbbbbcccccccccc" || first.ItemNumber != nil || first.Name != user.AnonymousName {
		t.Fatalf("stored user not sanitized: %+v", first)
	}
	if second := got[0].Users[1]; second.ID != user.FallbackID || *second.ItemNumber != "13" {
		t.Fatalf("stored user not sanitized: %+v", second)
	}

	if got[1].ID != 1234567890123456 || got[1].Visible || len(got[1].Users) != 0 {
		t.Fatalf("unexpected second room %+v", got[1])
	}
}
