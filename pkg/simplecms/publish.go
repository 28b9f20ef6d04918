package simplecms

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/tendant/simple-cms/pkg/simplecms/contenttype"
)

// Workflow operations

// approveAttempts bounds how often Approve re-reads a revision that another
// approval changed underneath it.
const approveAttempts = 5

func (s *service) Approve(ctx context.Context, req ApproveRequest) (*Revision, error) {
	ct, err := s.types.Get(req.TypeID)
	if err != nil {
		return nil, err
	}
	for attempt := 1; ; attempt++ {
		rev, err := s.approve(ctx, ct, req)
		if errors.Is(err, ErrConflict) && attempt < approveAttempts {
			slog.Debug("Approval conflicted, retrying", "type", ct.ID, "content_id", req.ID,
				"revision", req.Revision, "attempt", attempt)
			continue
		}
		return rev, err
	}
}

// approve records one approval. The final approval publishes before the
// approval state is stored, so a failed publish leaves the revision
// approvable again. The store write only succeeds while the stored approval
// count still matches the one read here.
func (s *service) approve(ctx context.Context, ct contenttype.ContentType, req ApproveRequest) (*Revision, error) {
	rev, err := s.getRevision(ctx, ct.ID, req.ID, req.Revision)
	if err != nil {
		return nil, err
	}
	if rev.Publishable || rev.Approval <= 0 {
		return nil, &ContentError{TypeID: ct.ID, ID: rev.ID, Op: "approve", Err: ErrAlreadyApproved}
	}

	expected := rev.Approval
	now := s.clock()
	rev.Approval--
	rev.Audit = append(rev.Audit, AuditEntry{Action: "approve", Author: req.Author, Date: now})

	if rev.Approval == 0 {
		live, err := s.repository.GetLive(ctx, ct.ID, rev.ID)
		switch {
		case err == nil && live.Revision > rev.Revision:
			return nil, &ContentError{TypeID: ct.ID, ID: rev.ID, Op: "approve", Err: ErrNotPublishable}
		case err != nil && !isNotFound(err):
			return nil, err
		}
		rev.Publishable = true
		rev.Audit = append(rev.Audit, AuditEntry{Action: "publish", Author: req.Author, Date: now})

		if err := s.publish(ctx, ct, rev); err != nil {
			return nil, &ContentError{TypeID: ct.ID, ID: rev.ID, Op: "publish", Err: err}
		}
	}

	if err := s.repository.UpdateApproval(ctx, ct.ID, rev, expected); err != nil {
		return nil, &ContentError{TypeID: ct.ID, ID: rev.ID, Op: "approve", Err: err}
	}
	slog.Info("Content revision approved", "type", ct.ID, "content_id", rev.ID,
		"revision", rev.Revision, "remaining", rev.Approval)

	return s.resolve(ct, rev), nil
}

// publish moves a publishable revision to schedule when its sunrise lies in
// the future and to live otherwise.
func (s *service) publish(ctx context.Context, ct contenttype.ContentType, rev *Revision) error {
	rec := s.apiRecord(ct, rev)
	if rev.Sunrise != nil && rev.Sunrise.After(s.clock()) {
		if err := s.repository.UpsertSchedule(ctx, rec); err != nil {
			return fmt.Errorf("failed to schedule revision: %w", err)
		}
		slog.Info("Content revision scheduled", "type", ct.ID, "content_id", rev.ID,
			"revision", rev.Revision, "sunrise", rev.Sunrise)
		return nil
	}
	return s.goLive(ctx, rec)
}

func (s *service) goLive(ctx context.Context, rec *APIRecord) error {
	event := EventLive
	_, err := s.repository.GetLive(ctx, rec.Type, rec.ID)
	switch {
	case err == nil:
		event = EventUpdated
	case !isNotFound(err):
		return err
	}

	if err := s.repository.UpsertLive(ctx, rec); err != nil {
		return fmt.Errorf("failed to publish revision: %w", err)
	}
	slog.Info("Content live", "type", rec.Type, "content_id", rec.ID, "revision", rec.Revision, "event", event)
	s.notify(ctx, event, rec)
	return nil
}

func (s *service) notify(ctx context.Context, event EventType, rec *APIRecord) {
	if err := s.notifier.Notify(ctx, event, s.resolveRecord(rec)); err != nil {
		// Log error but don't fail the operation
		slog.Warn("Failed to notify applications", "event", event, "content_id", rec.ID, "error", err)
	}
}

// apiRecord builds the live/schedule projection of a revision.
func (s *service) apiRecord(ct contenttype.ContentType, rev *Revision) *APIRecord {
	key := recordKey(ct, rev)
	audit := make([]AuditEntry, len(rev.Audit))
	copy(audit, rev.Audit)
	return &APIRecord{
		ID:         rev.ID,
		Language:   rev.Language,
		Sunrise:    rev.Sunrise,
		Sunset:     rev.Sunset,
		Attributes: rev.Value.Clone(),
		Audit:      audit,
		Revision:   rev.Revision,
		Type:       ct.ID,
		TypeSlug:   ct.Slug(),
		Key:        key,
		KeySlug:    contenttype.Slug(key),
	}
}

// recordKey is the first text value of the identifier attribute, or the
// content id when there is none.
func recordKey(ct contenttype.ContentType, rev *Revision) string {
	if attr, ok := ct.Attribute(ct.Identifier); ok {
		for _, p := range attr.Inputs.Pairs() {
			v, ok := rev.Value[attr.ID][p.ID]
			if !ok {
				continue
			}
			if text, ok := v.Text(); ok && text != "" {
				return text
			}
		}
	}
	return rev.ID.String()
}

// RunSchedule promotes due scheduled revisions to live and removes live
// content whose sunset has passed.
func (s *service) RunSchedule(ctx context.Context) (*ScheduleResult, error) {
	now := s.clock()
	result := &ScheduleResult{}

	due, err := s.repository.ListDueSchedule(ctx, now)
	if err != nil {
		return result, fmt.Errorf("failed to list scheduled content: %w", err)
	}
	for _, rec := range due {
		live, err := s.repository.GetLive(ctx, rec.Type, rec.ID)
		if err != nil && !isNotFound(err) {
			return result, err
		}
		if err == nil && live.Revision > rec.Revision {
			slog.Info("Dropping scheduled revision superseded by live content",
				"type", rec.Type, "content_id", rec.ID, "revision", rec.Revision)
		} else {
			if err := s.goLive(ctx, rec); err != nil {
				return result, err
			}
			result.Published++
		}
		if err := s.repository.DeleteSchedule(ctx, rec.Type, rec.ID, rec.Revision); err != nil {
			return result, fmt.Errorf("failed to remove scheduled revision: %w", err)
		}
	}

	expired, err := s.repository.ListExpiredLive(ctx, now)
	if err != nil {
		return result, fmt.Errorf("failed to list expired content: %w", err)
	}
	for _, rec := range expired {
		if err := s.repository.DeleteLive(ctx, rec.Type, rec.ID); err != nil {
			return result, fmt.Errorf("failed to remove expired content: %w", err)
		}
		slog.Info("Content sunset", "type", rec.Type, "content_id", rec.ID, "revision", rec.Revision)
		s.notify(ctx, EventSunset, rec)
		result.Sunset++
	}

	return result, nil
}

// Delivery operations

func (s *service) Live(ctx context.Context, typeID string, id uuid.UUID) (*APIRecord, error) {
	ct, err := s.types.Get(typeID)
	if err != nil {
		return nil, err
	}
	rec, err := s.repository.GetLive(ctx, ct.ID, id)
	if err != nil {
		return nil, err
	}
	return s.resolveRecord(rec), nil
}

func (s *service) LiveByKey(ctx context.Context, typeID, keySlug string) (*APIRecord, error) {
	ct, err := s.types.Get(typeID)
	if err != nil {
		return nil, err
	}
	rec, err := s.repository.GetLiveByKey(ctx, ct.ID, keySlug)
	if err != nil {
		return nil, err
	}
	return s.resolveRecord(rec), nil
}

func (s *service) ListLive(ctx context.Context, typeID string) ([]*APIRecord, error) {
	ct, err := s.types.Get(typeID)
	if err != nil {
		return nil, err
	}
	recs, err := s.repository.ListLive(ctx, ct.ID)
	if err != nil {
		return nil, err
	}
	out := make([]*APIRecord, len(recs))
	for i, rec := range recs {
		out[i] = s.resolveRecord(rec)
	}
	return out, nil
}
