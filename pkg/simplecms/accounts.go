package simplecms

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 8
	secretBytes       = 32
)

// User operations

func (s *service) CreateUser(ctx context.Context, req CreateUserRequest) (*User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, invalid("a valid email is required")
	}
	if len(req.Password) < minPasswordLength {
		return nil, invalid("password must be at least %d characters", minPasswordLength)
	}
	role := req.Role
	if role == "" {
		role = RoleEditor
	}
	switch role {
	case RoleAdmin, RoleEditor, RolePublisher:
	default:
		return nil, invalid("unknown role %s", role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.clock()
	user := &User{
		Email:    email,
		Password: string(hash),
		Role:     role,
		Access:   req.Access,
		Created:  now,
		Updated:  now,
	}
	if err := s.repository.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	slog.Info("User created", "user_id", user.ID, "role", user.Role)
	return user, nil
}

func (s *service) GetUser(ctx context.Context, id int) (*User, error) {
	return s.repository.GetUser(ctx, id)
}

func (s *service) ListUsers(ctx context.Context) ([]*User, error) {
	return s.repository.ListUsers(ctx)
}

func (s *service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repository.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Application operations

func (s *service) CreateApplication(ctx context.Context, req CreateApplicationRequest) (*Application, *Credentials, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, nil, invalid("application name is required")
	}
	for _, endpoint := range []string{req.LiveEndpoint, req.UpdatedEndpoint, req.SunsetEndpoint} {
		if err := validateEndpoint(endpoint); err != nil {
			return nil, nil, err
		}
	}

	creds, hash, err := newCredentials(uuid.NewString())
	if err != nil {
		return nil, nil, err
	}

	now := s.clock()
	app := &Application{
		Name:            name,
		LiveEndpoint:    req.LiveEndpoint,
		UpdatedEndpoint: req.UpdatedEndpoint,
		SunsetEndpoint:  req.SunsetEndpoint,
		ClientID:        creds.ClientID,
		ClientSecret:    hash,
		Responses:       map[EventType]NotificationResponse{},
		Created:         now,
		Updated:         now,
	}
	if err := s.repository.CreateApplication(ctx, app); err != nil {
		return nil, nil, fmt.Errorf("failed to create application: %w", err)
	}
	slog.Info("Application created", "application_id", app.ID, "client_id", app.ClientID)
	return app, creds, nil
}

func (s *service) GetApplication(ctx context.Context, id int) (*Application, error) {
	return s.repository.GetApplication(ctx, id)
}

func (s *service) ListApplications(ctx context.Context) ([]*Application, error) {
	return s.repository.ListApplications(ctx)
}

func (s *service) ResetSecret(ctx context.Context, id int) (*Credentials, error) {
	app, err := s.repository.GetApplication(ctx, id)
	if err != nil {
		return nil, err
	}
	creds, hash, err := newCredentials(app.ClientID)
	if err != nil {
		return nil, err
	}
	app.ClientSecret = hash
	app.Updated = s.clock()
	if err := s.repository.UpdateApplication(ctx, app); err != nil {
		return nil, fmt.Errorf("failed to reset secret: %w", err)
	}
	slog.Info("Application secret reset", "application_id", app.ID)
	return creds, nil
}

func (s *service) AuthenticateClient(ctx context.Context, clientID, secret string) (*Application, error) {
	app, err := s.repository.GetApplicationByClientID(ctx, clientID)
	if err != nil {
		if errors.Is(err, ErrApplicationNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(app.ClientSecret), []byte(secret)) != nil {
		return nil, ErrInvalidCredentials
	}
	return app, nil
}

// newCredentials issues a random secret for clientID and returns it with its bcrypt hash.
func newCredentials(clientID string) (*Credentials, string, error) {
	buf := make([]byte, secretBytes)
	if _, err := rand.Read(buf); err != nil {
		return nil, "", fmt.Errorf("failed to generate secret: %w", err)
	}
	secret := hex.EncodeToString(buf)
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash secret: %w", err)
	}
	return &Credentials{ClientID: clientID, ClientSecret: secret}, string(hash), nil
}

func validateEndpoint(endpoint string) error {
	if endpoint == "" {
		return nil
	}
	u, err := url.Parse(endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return invalid("endpoint %q must be an http(s) URL", endpoint)
	}
	return nil
}
