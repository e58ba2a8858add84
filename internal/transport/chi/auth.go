package chi

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"
)

// publicRoutes skip the API key check.
var publicRoutes = []string{"/health", "/metrics"}

// keyring holds SHA-256 digests of the accepted API keys so that lookups
// compare fixed-size values in constant time.
type keyring [][sha256.Size]byte

func newKeyring(keys []string) keyring {
	var kr keyring
	for _, k := range keys {
		if k == "" {
			continue
		}
		kr = append(kr, sha256.Sum256([]byte(k)))
	}
	return kr
}

func (kr keyring) accepts(token string) bool {
	sum := sha256.Sum256([]byte(token))
	match := 0
	for i := range kr {
		match |= subtle.ConstantTimeCompare(kr[i][:], sum[:])
	}
	return match == 1
}

// bearerToken extracts the token of an "Authorization: Bearer <token>" header.
func bearerToken(r *http.Request) (string, string) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", "missing authorization header"
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || scheme != "Bearer" {
		return "", "authorization header must use Bearer scheme"
	}
	return token, ""
}

func isPublic(path string) bool {
	for _, p := range publicRoutes {
		if p == path {
			return true
		}
	}
	return false
}

// BearerAuthMiddleware rejects requests without one of apiKeys as a Bearer
// token. Empty keys are ignored; with no keys left every request passes.
func BearerAuthMiddleware(apiKeys []string) func(http.Handler) http.Handler {
	kr := newKeyring(apiKeys)

	return func(next http.Handler) http.Handler {
		if len(kr) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublic(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			token, problem := bearerToken(r)
			if problem == "" && !kr.accepts(token) {
				problem = "invalid api key"
			}
			if problem != "" {
				writeError(w, http.StatusUnauthorized, ErrorCodeUnauthorized, problem)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
