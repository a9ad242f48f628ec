package datalake

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/url"
	"time"
)

var clock = time.Now

// generateFilename produces a `{timestamp}_{rand8}.{ext}` name (spec.md
// §4.5/§6); callers MUST NOT assume filename ordering implies record
// ordering.
func generateFilename(ext string) (string, error) {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("generating random filename suffix: %w", err)
	}
	ts := clock().UTC().Format("20060102_150405")
	return fmt.Sprintf("%s_%s.%s", ts, hex.EncodeToString(b[:]), ext), nil
}

// encodePath matches spec.md §4.5's "callers receive URL-encoded paths
// from list operations and MUST pass them back exactly; the storage layer
// decodes exactly once internally" discipline.
func encodePath(path string) string {
	return url.PathEscape(path)
}

func decodePath(path string) (string, error) {
	decoded, err := url.PathUnescape(path)
	if err != nil {
		return "", fmt.Errorf("invalid path encoding %q: %w", path, err)
	}
	return decoded, nil
}
