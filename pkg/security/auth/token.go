package auth

import (
	"net/http"
	"strings"
)

// ExtractBearerToken pulls the bearer token out of a request's
// Authorization header. The accepted grammar is
//
//	Authorization: (Bearer|Token) <token>
//
// with the scheme matched case-insensitively and the token taken as the
// second whitespace-separated field. Any other scheme, a missing header,
// or a missing token field all count as "no token".
func ExtractBearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}

	fields := strings.Fields(header)
	if len(fields) < 2 {
		return "", false
	}

	scheme := fields[0]
	if !strings.EqualFold(scheme, "bearer") && !strings.EqualFold(scheme, "token") {
		return "", false
	}

	return fields[1], true
}
