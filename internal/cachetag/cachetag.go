// Package cachetag fingerprints feed responses for conditional requests.
//
// A tag is computed over the exact bytes that are sent to the client, so two
// responses share a tag only if their item lists are identical, in order.
package cachetag

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Of returns the strong ETag (quoted hex BLAKE2b-256) of body.
func Of(body []byte) string {
	sum := blake2b.Sum256(body)
	return `"` + hex.EncodeToString(sum[:]) + `"`
}

// Encode serializes v and returns the bytes together with their tag.
func Encode(v any) ([]byte, string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, "", fmt.Errorf("encode body: %w", err)
	}
	return b, Of(b), nil
}

// Matches reports whether an If-None-Match header value selects tag.
// The header may list several tags, weak tags compare by opaque value.
func Matches(ifNoneMatch, tag string) bool {
	ifNoneMatch = strings.TrimSpace(ifNoneMatch)
	if ifNoneMatch == "" || tag == "" {
		return false
	}
	if ifNoneMatch == "*" {
		return true
	}
	want := strings.TrimPrefix(tag, "W/")
	for _, candidate := range strings.Split(ifNoneMatch, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == want {
			return true
		}
	}
	return false
}
