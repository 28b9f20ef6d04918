package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/jwtauth"
	"github.com/go-chi/render"

	"github.com/tendant/simple-cms/pkg/simplecms"
)

// userClaim carries the user id in admin tokens; delivery tokens carry appClaim
const (
	userClaim = "user"
	appClaim  = "app"
)

// UserTokenHeader carries the admin user token, leaving Authorization to the
// API key middleware in front of the admin routes
const UserTokenHeader = "X-User-Token"

// LoginRequest exchanges a user's email and password for an admin token
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userContextKey struct{}

// UserFromContext returns the user signed in for the request, or nil when the
// request only carries the admin API key.
func UserFromContext(ctx context.Context) *simplecms.User {
	user, _ := ctx.Value(userContextKey{}).(*simplecms.User)
	return user
}

func author(r *http.Request) *int {
	if user := UserFromContext(r.Context()); user != nil {
		id := user.ID
		return &id
	}
	return nil
}

// Login authenticates a user and issues an admin bearer token
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeMessage(w, r, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	claims := map[string]interface{}{
		"sub":     user.Email,
		userClaim: user.ID,
	}
	jwtauth.SetIssuedNow(claims)
	jwtauth.SetExpiryIn(claims, h.ttl)
	_, token, err := h.tokenAuth.Encode(claims)
	if err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("User signed in", "user_id", user.ID)

	render.JSON(w, r, TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(h.ttl.Seconds()),
	})
}

// tokenFromUserHeader accepts the token with or without a "Bearer " prefix
func tokenFromUserHeader(r *http.Request) string {
	token := strings.TrimSpace(r.Header.Get(UserTokenHeader))
	if len(token) > 7 && strings.EqualFold(token[:7], "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	return token
}

// identify loads the user named by a verified admin token into the request
// context. Requests without a token pass through anonymously; a bad token or
// a token for a user that no longer exists is rejected.
func (h *AdminHandler) identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, claims, err := jwtauth.FromContext(r.Context())
		if errors.Is(err, jwtauth.ErrNoTokenFound) {
			next.ServeHTTP(w, r)
			return
		}
		if err != nil {
			writeMessage(w, r, http.StatusUnauthorized, err.Error())
			return
		}
		id, ok := intClaim(claims, userClaim)
		if !ok {
			writeMessage(w, r, http.StatusUnauthorized, "not a user token")
			return
		}
		user, err := h.service.GetUser(r.Context(), id)
		if err != nil {
			if errors.Is(err, simplecms.ErrUserNotFound) {
				writeMessage(w, r, http.StatusUnauthorized, "unknown user")
				return
			}
			writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userContextKey{}, user)))
	})
}

// adminOnly rejects signed-in users without the admin role
func adminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user := UserFromContext(r.Context()); user != nil && user.Role != simplecms.RoleAdmin {
			writeMessage(w, r, http.StatusForbidden, "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireClaim rejects verified tokens that lack the named claim
func requireClaim(name string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, claims, err := jwtauth.FromContext(r.Context())
			if err != nil {
				writeMessage(w, r, http.StatusUnauthorized, err.Error())
				return
			}
			if _, ok := claims[name]; !ok {
				writeMessage(w, r, http.StatusUnauthorized, "token not valid for this API")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// intClaim reads a numeric claim; JSON decoding yields float64
func intClaim(claims map[string]interface{}, name string) (int, bool) {
	switch v := claims[name].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case json.Number:
		n, err := v.Int64()
		return int(n), err == nil
	case string:
		n, err := strconv.Atoi(v)
		return n, err == nil
	default:
		return 0, false
	}
}
