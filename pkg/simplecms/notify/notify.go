// Package notify delivers publication events to registered applications as
// CloudEvents over HTTP.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	cehttp "github.com/cloudevents/sdk-go/v2/protocol/http"
	"github.com/google/uuid"

	"github.com/tendant/simple-cms/pkg/simplecms"
)

const (
	// DefaultSource is the CloudEvents source attribute of sent events.
	DefaultSource  = "simple-cms"
	typePrefix     = "com.simplecms.content."
	defaultTimeout = 10 * time.Second
)

// Sender is a simplecms.Notifier that posts every event to the matching
// endpoint of each application and records the outcome on the application.
type Sender struct {
	apps    simplecms.ApplicationStore
	client  cloudevents.Client
	source  string
	timeout time.Duration
	now     func() time.Time
}

// Option configures a Sender.
type Option func(*Sender)

// WithClient overrides the CloudEvents client.
func WithClient(client cloudevents.Client) Option {
	return func(s *Sender) { s.client = client }
}

// WithSource sets the CloudEvents source attribute.
func WithSource(source string) Option {
	return func(s *Sender) { s.source = source }
}

// WithTimeout bounds each delivery.
func WithTimeout(d time.Duration) Option {
	return func(s *Sender) { s.timeout = d }
}

// WithClock overrides the time source used for response dates.
func WithClock(now func() time.Time) Option {
	return func(s *Sender) { s.now = now }
}

// New creates a Sender reading applications from apps.
func New(apps simplecms.ApplicationStore, options ...Option) (*Sender, error) {
	if apps == nil {
		return nil, errors.New("application store is required")
	}
	s := &Sender{
		apps:    apps,
		source:  DefaultSource,
		timeout: defaultTimeout,
		now:     time.Now,
	}
	for _, option := range options {
		option(s)
	}
	if s.client == nil {
		client, err := cloudevents.NewClientHTTP()
		if err != nil {
			return nil, fmt.Errorf("failed to create cloudevents client: %w", err)
		}
		s.client = client
	}
	return s, nil
}

// EventType returns the CloudEvents type for a notification.
func EventType(event simplecms.EventType) string {
	return typePrefix + string(event)
}

// Notify sends rec to every application subscribed to event. Delivery
// failures are recorded on the application and returned joined.
func (s *Sender) Notify(ctx context.Context, event simplecms.EventType, rec *simplecms.APIRecord) error {
	apps, err := s.apps.ListApplications(ctx)
	if err != nil {
		return fmt.Errorf("failed to list applications: %w", err)
	}

	var errs []error
	for _, app := range apps {
		endpoint := app.Endpoint(event)
		if endpoint == "" {
			continue
		}
		resp := s.send(ctx, endpoint, event, rec)
		if resp.Error != "" {
			errs = append(errs, fmt.Errorf("application %d: %s", app.ID, resp.Error))
		}

		if err := s.apps.UpdateApplicationResponse(ctx, app.ID, event, resp); err != nil {
			errs = append(errs, fmt.Errorf("failed to record response for application %d: %w", app.ID, err))
		}
	}
	return errors.Join(errs...)
}

func (s *Sender) send(ctx context.Context, endpoint string, event simplecms.EventType, rec *simplecms.APIRecord) simplecms.NotificationResponse {
	resp := simplecms.NotificationResponse{ContentID: rec.ID, Date: s.now().UTC()}

	e := cloudevents.NewEvent()
	e.SetID(uuid.NewString())
	e.SetSource(s.source)
	e.SetType(EventType(event))
	e.SetSubject(rec.Type + "/" + rec.ID.String())
	e.SetTime(resp.Date)
	if err := e.SetData(cloudevents.ApplicationJSON, rec); err != nil {
		resp.Error = err.Error()
		return resp
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result := s.client.Send(cloudevents.ContextWithTarget(ctx, endpoint), e)
	var httpResult *cehttp.Result
	if cloudevents.ResultAs(result, &httpResult) {
		resp.Status = httpResult.StatusCode
	}
	if !cloudevents.IsACK(result) {
		resp.Error = result.Error()
		slog.Warn("Notification failed", "event", event, "endpoint", endpoint,
			"content_id", rec.ID, "status", resp.Status, "error", result)
		return resp
	}
	slog.Debug("Notification sent", "event", event, "endpoint", endpoint, "content_id", rec.ID, "status", resp.Status)
	return resp
}
