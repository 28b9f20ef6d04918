package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/tendant/simple-cms/pkg/simplecms"
	"github.com/tendant/simple-cms/pkg/simplecms/content/check"
	"github.com/tendant/simple-cms/pkg/simplecms/contenttype"
)

const maxUploadSize = 32 << 20

// AdminHandler serves content editing, workflow, user and application management
type AdminHandler struct {
	service   simplecms.Service
	tokenAuth *jwtauth.JWTAuth
	ttl       time.Duration
}

// NewAdminHandler creates an admin handler signing HS256 user tokens with secret
func NewAdminHandler(service simplecms.Service, secret []byte, ttl time.Duration) *AdminHandler {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &AdminHandler{
		service:   service,
		tokenAuth: jwtauth.New("HS256", secret, nil),
		ttl:       ttl,
	}
}

// Routes returns the admin routes. A token from /login, sent in
// UserTokenHeader or the jwt cookie, identifies the user; its id is recorded
// as author and its access list limits content types.
func (h *AdminHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/login", h.Login)

	r.Group(func(r chi.Router) {
		r.Use(jwtauth.Verify(h.tokenAuth, tokenFromUserHeader, jwtauth.TokenFromCookie))
		r.Use(h.identify)

		r.Get("/types", h.ListTypes)
		r.Get("/types/{type}", h.GetType)

		r.Get("/content/{type}", h.ListContent)
		r.Post("/content/{type}", h.SaveContent)
		r.Get("/content/{type}/{id}", h.GetContent)
		r.Post("/content/{type}/{id}", h.SaveContent)
		r.Get("/content/{type}/{id}/revisions", h.ListRevisions)
		r.Get("/content/{type}/{id}/{revision}", h.GetRevision)
		r.Post("/content/{type}/{id}/{revision}/approve", h.Approve)

		r.Post("/files/{type}", h.UploadFile)

		r.Group(func(r chi.Router) {
			r.Use(adminOnly)

			r.Get("/users", h.ListUsers)
			r.Post("/users", h.CreateUser)
			r.Get("/users/{id}", h.GetUser)

			r.Get("/applications", h.ListApplications)
			r.Post("/applications", h.CreateApplication)
			r.Get("/applications/{id}", h.GetApplication)
			r.Post("/applications/{id}/secret", h.ResetSecret)
		})
	})

	return r
}

// contentType resolves the {type} parameter, writing a 404 when it is unknown
// and a 403 when the signed-in user has no access to it
func (h *AdminHandler) contentType(w http.ResponseWriter, r *http.Request) (contenttype.ContentType, bool) {
	ct, ok := resolveType(h.service, w, r)
	if !ok {
		return ct, false
	}
	if user := UserFromContext(r.Context()); user != nil && !user.CanAccess(ct.ID) {
		writeMessage(w, r, http.StatusForbidden, "no access to content type "+ct.ID)
		return ct, false
	}
	return ct, true
}

func resolveType(service simplecms.Service, w http.ResponseWriter, r *http.Request) (contenttype.ContentType, bool) {
	ct, err := service.Type(chi.URLParam(r, "type"))
	if err != nil {
		writeError(w, r, err)
		return ct, false
	}
	if !check.Type(check.FromHTTP(r), ct) {
		writeMessage(w, r, http.StatusNotFound, "content type not found")
		return ct, false
	}
	return ct, true
}

// contentID validates and parses the {id} parameter
func contentID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	if !check.ID(check.FromHTTP(r)) {
		writeMessage(w, r, http.StatusBadRequest, "invalid content id")
		return uuid.Nil, false
	}
	return uuid.MustParse(chi.URLParam(r, "id")), true
}

func revisionNumber(w http.ResponseWriter, r *http.Request) (int, bool) {
	if !check.Revision(check.FromHTTP(r)) {
		writeMessage(w, r, http.StatusBadRequest, "revision is required")
		return 0, false
	}
	rev, err := strconv.Atoi(chi.URLParam(r, "revision"))
	if err != nil || rev < 1 {
		writeMessage(w, r, http.StatusBadRequest, "invalid revision")
		return 0, false
	}
	return rev, true
}

func intParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	v, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		writeMessage(w, r, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return v, true
}

// ListTypes lists the content types the caller may edit
func (h *AdminHandler) ListTypes(w http.ResponseWriter, r *http.Request) {
	types := h.service.Types()
	if user := UserFromContext(r.Context()); user != nil {
		allowed := make([]contenttype.ContentType, 0, len(types))
		for _, ct := range types {
			if user.CanAccess(ct.ID) {
				allowed = append(allowed, ct)
			}
		}
		types = allowed
	}
	render.JSON(w, r, types)
}

// GetType returns one content type
func (h *AdminHandler) GetType(w http.ResponseWriter, r *http.Request) {
	ct, ok := h.contentType(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, ct)
}

// ListContent lists the latest revision of every item of a type
func (h *AdminHandler) ListContent(w http.ResponseWriter, r *http.Request) {
	ct, ok := h.contentType(w, r)
	if !ok {
		return
	}
	revs, err := h.service.ListContent(r.Context(), ct.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, revs)
}

// SaveContent saves a new revision; without an {id} it creates a new item
func (h *AdminHandler) SaveContent(w http.ResponseWriter, r *http.Request) {
	ct, ok := h.contentType(w, r)
	if !ok {
		return
	}

	var req simplecms.SaveContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, r, http.StatusBadRequest, err.Error())
		return
	}
	req.TypeID = ct.ID
	req.Author = author(r)
	req.ID = uuid.Nil
	if chi.URLParam(r, "id") != "" {
		id, ok := contentID(w, r)
		if !ok {
			return
		}
		req.ID = id
	}

	rev, err := h.service.SaveContent(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, rev)
}

// GetContent returns the latest revision of an item
func (h *AdminHandler) GetContent(w http.ResponseWriter, r *http.Request) {
	ct, ok := h.contentType(w, r)
	if !ok {
		return
	}
	id, ok := contentID(w, r)
	if !ok {
		return
	}
	rev, err := h.service.GetContent(r.Context(), ct.ID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, rev)
}

// ListRevisions lists every revision of an item, newest first
func (h *AdminHandler) ListRevisions(w http.ResponseWriter, r *http.Request) {
	ct, ok := h.contentType(w, r)
	if !ok {
		return
	}
	id, ok := contentID(w, r)
	if !ok {
		return
	}
	revs, err := h.service.ListRevisions(r.Context(), ct.ID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, revs)
}

// GetRevision returns one revision of an item
func (h *AdminHandler) GetRevision(w http.ResponseWriter, r *http.Request) {
	ct, ok := h.contentType(w, r)
	if !ok {
		return
	}
	id, ok := contentID(w, r)
	if !ok {
		return
	}
	revision, ok := revisionNumber(w, r)
	if !ok {
		return
	}
	rev, err := h.service.GetRevision(r.Context(), ct.ID, id, revision)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, rev)
}

// Approve records one workflow approval of a revision
func (h *AdminHandler) Approve(w http.ResponseWriter, r *http.Request) {
	ct, ok := h.contentType(w, r)
	if !ok {
		return
	}
	id, ok := contentID(w, r)
	if !ok {
		return
	}
	revision, ok := revisionNumber(w, r)
	if !ok {
		return
	}
	rev, err := h.service.Approve(r.Context(), simplecms.ApproveRequest{
		TypeID:   ct.ID,
		ID:       id,
		Revision: revision,
		Author:   author(r),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, rev)
}

// UploadFile stores the multipart "file" field and returns its file value
func (h *AdminHandler) UploadFile(w http.ResponseWriter, r *http.Request) {
	ct, ok := h.contentType(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeMessage(w, r, http.StatusBadRequest, "file is required: "+err.Error())
		return
	}
	defer file.Close()

	// browsers and multipart writers default to octet-stream; let the
	// service detect the type from the file name instead
	mimeType := header.Header.Get("Content-Type")
	if mimeType == "application/octet-stream" {
		mimeType = ""
	}

	fv, err := h.service.UploadFile(r.Context(), simplecms.UploadFileRequest{
		TypeID:   ct.ID,
		FileName: header.Filename,
		MimeType: mimeType,
		Reader:   file,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, fv)
}

// ListUsers lists admin users
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, users)
}

// CreateUser creates an admin user
func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req simplecms.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, r, http.StatusBadRequest, err.Error())
		return
	}
	user, err := h.service.CreateUser(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, user)
}

// GetUser returns one admin user
func (h *AdminHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	user, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, user)
}

// ApplicationResponse carries the client secret only when it was just issued
type ApplicationResponse struct {
	*simplecms.Application
	ClientSecret string `json:"client-secret,omitempty"`
}

// ListApplications lists registered applications
func (h *AdminHandler) ListApplications(w http.ResponseWriter, r *http.Request) {
	apps, err := h.service.ListApplications(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, apps)
}

// CreateApplication registers an application and issues its credentials
func (h *AdminHandler) CreateApplication(w http.ResponseWriter, r *http.Request) {
	var req simplecms.CreateApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, r, http.StatusBadRequest, err.Error())
		return
	}
	app, creds, err := h.service.CreateApplication(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, ApplicationResponse{Application: app, ClientSecret: creds.ClientSecret})
}

// GetApplication returns one application
func (h *AdminHandler) GetApplication(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	app, err := h.service.GetApplication(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, app)
}

// ResetSecret issues a new client secret, revoking the old one
func (h *AdminHandler) ResetSecret(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	creds, err := h.service.ResetSecret(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, creds)
}
