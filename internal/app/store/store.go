/*
Package store persists the room list between restarts.

A Store moves the whole list at once: Load returns the last saved list and
Save replaces it. Connections and online flags are never part of it. The
backend is picked by configuration; "none" keeps everything in memory.
*/
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"poker/internal/app/user"
)

// Backend names accepted by New.
const (
	BackendNone     = "none"
	BackendHTTP     = "http"
	BackendRedis    = "redis"
	BackendS3       = "s3"
	BackendPostgres = "postgres"
)

// RoomRecord is the persisted shape of one room.
type RoomRecord struct {
	ID      int         `json:"id"`
	Visible bool        `json:"visible"`
	Users   []user.User `json:"users"`
}

// Store loads and saves the full room list.
type Store interface {
	// Load returns the saved rooms; (nil, nil) means nothing was saved yet.
	Load(ctx context.Context) ([]RoomRecord, error)

	// Save replaces the saved rooms with records.
	Save(ctx context.Context, records []RoomRecord) error

	// Close releases backend resources.
	Close() error
}

// ServiceConfig holds the settings of every backend; only the fields of the
// selected one are read.
type ServiceConfig struct {
	Backend string

	FetchURL string
	SaveURL  string
	Token    string

	RedisAddr string
	RedisKey  string

	S3BucketName      string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3ObjectKey       string

	DatabaseURL string
}

// New is the factory function for Store.
func New(ctx context.Context, cfg ServiceConfig) (Store, error) {
	switch cfg.Backend {
	case "", BackendNone:
		return noopStore{}, nil
	case BackendHTTP:
		return newHTTPStore(cfg, nil), nil
	case BackendRedis:
		return newRedisStore(cfg), nil
	case BackendS3:
		return newS3Store(ctx, cfg)
	case BackendPostgres:
		return newPostgresStore(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown state backend %q", cfg.Backend)
	}
}

// decodeRecords parses a JSON room list. A JSON null yields nil. Stored data
// is treated like client input: entries that are not objects are skipped,
// room ids that are not non-negative numbers become 0 and user fields are
// sanitized the way live estimates are.
func decodeRecords(data []byte) ([]RoomRecord, error) {
	var raw []any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode room list: %w", err)
	}
	if raw == nil {
		return nil, nil
	}

	records := make([]RoomRecord, 0, len(raw))
	for _, entry := range raw {
		fields, ok := entry.(map[string]any)
		if !ok {
			continue
		}

		visible, _ := fields["visible"].(bool)
		rec := RoomRecord{ID: storedRoomID(fields["id"]), Visible: visible}

		users, _ := fields["users"].([]any)
		for _, u := range users {
			uf, ok := u.(map[string]any)
			if !ok {
				continue
			}
			rec.Users = append(rec.Users, user.New(uf["id"], uf["itemNumber"], uf["name"]))
		}
		records = append(records, rec)
	}
	return records, nil
}

// storedRoomID accepts non-negative integers only.
func storedRoomID(v any) int {
	n, ok := v.(json.Number)
	if !ok {
		return 0
	}
	id, err := strconv.Atoi(n.String())
	if err != nil || id < 0 {
		return 0
	}
	return id
}

// encodeRecords serializes records, writing an empty list as [].
func encodeRecords(records []RoomRecord) ([]byte, error) {
	if records == nil {
		records = []RoomRecord{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("failed to encode room list: %w", err)
	}
	return data, nil
}

type noopStore struct{}

func (noopStore) Load(context.Context) ([]RoomRecord, error) { return nil, nil }
func (noopStore) Save(context.Context, []RoomRecord) error   { return nil }
func (noopStore) Close() error                               { return nil }
