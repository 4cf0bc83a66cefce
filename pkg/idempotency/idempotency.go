package idempotency

import (
	"net/http"
	"strings"
)

const Header = "Idempotency-Key"

// Key returns the caller-supplied idempotency key, or "" when absent.
func Key(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(Header))
}
