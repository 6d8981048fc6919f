package publish

import (
	"context"
	"fmt"
	"strings"
)

// Mirror pushes a copy of the artifact bytes to one remote target.
type Mirror interface {
	// Target returns the mirror's URL for logging and error reporting.
	Target() string
	// Upload replaces the remote object with data.
	Upload(ctx context.Context, data []byte) error
}

// parseBucketKey splits "scheme://bucket/key/parts" into bucket and key,
// checking the scheme matches.
func parseBucketKey(target, scheme string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(target, scheme+"://")
	if !ok {
		return "", "", fmt.Errorf("target %q: expected %s:// URL", target, scheme)
	}
	bucket, key, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("target %q: expected %s://bucket/key", target, scheme)
	}
	return bucket, key, nil
}
