// Package checkpoint persists the paused request of an in-flight invocation
// so a restarted host resumes at the stabilize step instead of re-issuing the
// mutating call.
package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/AltairaLabs/datazone-handlers/internal/engine"
)

// ErrNotFound is returned by Load when no checkpoint exists for a key.
var ErrNotFound = errors.New("checkpoint not found")

// Checkpoint is the replayable request of one in-flight invocation.
type Checkpoint struct {
	Key       string            `json:"key"`
	Request   engine.RawRequest `json:"request"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Store persists checkpoints by key.
type Store interface {
	// Load returns the checkpoint for key, or ErrNotFound.
	Load(ctx context.Context, key string) (*Checkpoint, error)
	// Save creates or replaces the checkpoint stored under cp.Key.
	Save(ctx context.Context, cp *Checkpoint) error
	// Delete removes the checkpoint for key. Deleting a missing key is not
	// an error.
	Delete(ctx context.Context, key string) error
	// Close releases the store's connections.
	Close() error
}

// Open returns the Store selected by the URL scheme:
//
//	memory://
//	sqlite:///var/lib/datazone-handlers/checkpoints.db
//	s3://bucket/prefix
//	redis://localhost:6379/0
func Open(ctx context.Context, rawURL string) (Store, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse checkpoint URL: %w", err)
	}
	switch u.Scheme {
	case "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		path := u.Path
		if u.Host != "" {
			path = u.Host + path
		}
		return OpenSQLite(ctx, path)
	case "s3":
		return OpenS3(ctx, u.Host, strings.TrimPrefix(u.Path, "/"))
	case "redis", "rediss":
		return OpenRedis(ctx, rawURL)
	default:
		return nil, fmt.Errorf("unsupported checkpoint store scheme %q", u.Scheme)
	}
}

func validate(cp *Checkpoint) error {
	if cp == nil || cp.Key == "" {
		return errors.New("checkpoint: key is required")
	}
	return nil
}
