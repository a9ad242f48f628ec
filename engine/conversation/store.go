package conversation

import (
	"context"
	"fmt"
)

// Store persists a session's ordered message list, keyed by session id
// (spec.md §3/§4.3.2). Implementations MUST serialize concurrent Append
// calls for the same session id (spec.md §5: "one lock per session").
type Store interface {
	Load(ctx context.Context, sessionID string) ([]Message, error)
	Append(ctx context.Context, sessionID string, messages ...Message) error
	Clear(ctx context.Context, sessionID string) error
}

// keyFor namespaces every session under a shared prefix, so a Redis
// backend can coexist with other Metis key families in the same database.
func keyFor(sessionID string) string {
	return fmt.Sprintf("metis:conversation:%s", sessionID)
}

var errEmptySessionID = fmt.Errorf("session id must not be empty")
