package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth"
	"github.com/go-chi/render"

	"github.com/tendant/simple-cms/pkg/simplecms"
)

// DefaultTokenTTL is the lifetime of delivery API tokens
const DefaultTokenTTL = time.Hour

// TokenRequest exchanges application credentials for a token
type TokenRequest struct {
	ClientID     string `json:"client-id"`
	ClientSecret string `json:"client-secret"`
}

// TokenResponse carries an issued bearer token
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// DeliveryHandler serves live content to applications holding a bearer token
type DeliveryHandler struct {
	service   simplecms.Service
	tokenAuth *jwtauth.JWTAuth
	ttl       time.Duration
}

// NewDeliveryHandler creates a delivery handler signing HS256 tokens with secret
func NewDeliveryHandler(service simplecms.Service, secret []byte, ttl time.Duration) *DeliveryHandler {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &DeliveryHandler{
		service:   service,
		tokenAuth: jwtauth.New("HS256", secret, nil),
		ttl:       ttl,
	}
}

// Routes returns the delivery routes
func (h *DeliveryHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/token", h.Token)

	r.Group(func(r chi.Router) {
		r.Use(jwtauth.Verifier(h.tokenAuth))
		r.Use(jwtauth.Authenticator)
		r.Use(requireClaim(appClaim))

		r.Get("/{type}", h.ListLive)
		r.Get("/{type}/{id}", h.GetLive)
		r.Get("/{type}/key/{key}", h.GetLiveByKey)
	})

	return r
}

// Token authenticates application credentials, sent as JSON or HTTP basic
// auth, and issues a bearer token
func (h *DeliveryHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if id, secret, ok := r.BasicAuth(); ok {
		req = TokenRequest{ClientID: id, ClientSecret: secret}
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.ClientID) == "" || req.ClientSecret == "" {
		writeMessage(w, r, http.StatusBadRequest, "client-id and client-secret are required")
		return
	}

	app, err := h.service.AuthenticateClient(r.Context(), req.ClientID, req.ClientSecret)
	if err != nil {
		writeError(w, r, err)
		return
	}

	claims := map[string]interface{}{
		"sub":    app.ClientID,
		appClaim: app.ID,
	}
	jwtauth.SetIssuedNow(claims)
	jwtauth.SetExpiryIn(claims, h.ttl)
	_, token, err := h.tokenAuth.Encode(claims)
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.JSON(w, r, TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(h.ttl.Seconds()),
	})
}

// ListLive lists the live items of a type
func (h *DeliveryHandler) ListLive(w http.ResponseWriter, r *http.Request) {
	ct, ok := resolveType(h.service, w, r)
	if !ok {
		return
	}
	recs, err := h.service.ListLive(r.Context(), ct.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, recs)
}

// GetLive returns the live version of an item
func (h *DeliveryHandler) GetLive(w http.ResponseWriter, r *http.Request) {
	ct, ok := resolveType(h.service, w, r)
	if !ok {
		return
	}
	id, ok := contentID(w, r)
	if !ok {
		return
	}
	rec, err := h.service.Live(r.Context(), ct.ID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, rec)
}

// GetLiveByKey returns the live item whose key slug matches {key}
func (h *DeliveryHandler) GetLiveByKey(w http.ResponseWriter, r *http.Request) {
	ct, ok := resolveType(h.service, w, r)
	if !ok {
		return
	}
	rec, err := h.service.LiveByKey(r.Context(), ct.ID, chi.URLParam(r, "key"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, rec)
}
