package gateway

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

type contextKey string

const userIDKey contextKey = "user_id"

// requireSession lets a request through only when it carries a bearer token
// of the signed-in user. Browsers cannot set headers on a websocket upgrade,
// so /ws may pass the token as ?access_token= instead.
func (a *API) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			unauthorizedResponse(w, r, "missing bearer token")
			return
		}

		userID, err := a.Sessions.Authorize(token)
		if err != nil {
			log.Debug().Err(err).Str("path", r.URL.Path).Msg("rejected request")
			unauthorizedResponse(w, r, "token does not belong to the signed-in user")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			return ""
		}
		return strings.TrimSpace(token)
	}
	if websocket.IsWebSocketUpgrade(r) {
		return r.URL.Query().Get("access_token")
	}
	return ""
}

// userIDFrom returns the user authorized by requireSession
func userIDFrom(ctx context.Context) string {
	userID, _ := ctx.Value(userIDKey).(string)
	return userID
}
