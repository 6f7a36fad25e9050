package server

import (
	"net/http"
	"strconv"
)

// setRateLimitHeaders writes the caller's quota as X-RateLimit-* response
// headers. Headers go out on every detect response, including rejections,
// so clients can back off before hitting the limit.
func setRateLimitHeaders(w http.ResponseWriter, capacity, remaining int) {
	if capacity <= 0 {
		return
	}
	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(capacity))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
}
