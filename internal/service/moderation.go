// Package service implements the moderation workflow: the composite
// operations that move a model between the upload, pending, approved and
// deleted states while keeping the file store, the model records and the
// owner's notifications consistent.
//
// Only the final persistence write of each operation is allowed to fail the
// request. File cleanup, notification appends and event publishing are
// compensating or informational steps: their failures are logged and
// swallowed so the caller still observes the authoritative outcome.
package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/iliyamo/model-marketplace/internal/queue"
	"github.com/iliyamo/model-marketplace/internal/repository"
)

// ModelStore is the slice of the model repository the workflow needs.
type ModelStore interface {
	Create(ctx context.Context, m *repository.Model) error
	GetWithCreator(ctx context.Context, id uint64) (repository.Model, error)
	Approve(ctx context.Context, id uint64) error
	Delete(ctx context.Context, id uint64) error
}

// NotificationStore appends moderation notifications to a user's record.
type NotificationStore interface {
	Append(ctx context.Context, userID uint64, message, modelTitle, kind string) error
}

// AssetStore removes stored files by reference.
type AssetStore interface {
	Delete(ref string) error
}

// EventPublisher emits moderation decisions to the message broker.
type EventPublisher interface {
	PublishModerationDecided(ctx context.Context, event queue.ModerationDecidedEvent) error
}

// Moderation ties the three stores together. Events is optional; a nil
// publisher disables event emission.
type Moderation struct {
	Models        ModelStore
	Notifications NotificationStore
	Assets        AssetStore
	Events        EventPublisher
}

func NewModeration(models ModelStore, notifications NotificationStore, assets AssetStore, events EventPublisher) *Moderation {
	return &Moderation{Models: models, Notifications: notifications, Assets: assets, Events: events}
}

// Submit records a freshly uploaded model as pending. The file behind
// m.FileURL is already on disk; if the record cannot be created the file is
// removed before returning so no orphan survives the failed upload.
func (s *Moderation) Submit(ctx context.Context, m *repository.Model) error {
	if err := s.Models.Create(ctx, m); err != nil {
		if cerr := s.Assets.Delete(m.FileURL); cerr != nil {
			log.Printf("moderation: cleanup of %s after failed submit: %v", m.FileURL, cerr)
		}
		return err
	}
	return nil
}

// Approve transitions a pending model to approved. The status flip is the
// authoritative outcome: once persisted, a failing notification or event
// publish never rolls it back. Approving an id that was already decided or
// deleted returns repository.ErrModelNotFound.
func (s *Moderation) Approve(ctx context.Context, id uint64) (repository.Model, error) {
	m, err := s.Models.GetWithCreator(ctx, id)
	if err != nil {
		return repository.Model{}, err
	}
	if err := s.Models.Approve(ctx, id); err != nil {
		return repository.Model{}, err
	}
	m.Status = repository.StatusApproved

	msg := fmt.Sprintf("Your model %q has been approved and is now listed in the marketplace.", m.Title)
	if err := s.Notifications.Append(ctx, m.Creator.ID, msg, m.Title, repository.KindApproval); err != nil {
		log.Printf("moderation: approval notification for model %d: %v", id, err)
	}
	s.publish(ctx, m, "approved", false)
	return m, nil
}

// RejectResult reports the outcome of a reject decision.
type RejectResult struct {
	DeletedID uint64
	// Warning is set when the model record could not be removed even
	// though the decision was carried out; the caller still sees success.
	Warning bool
}

// Reject removes a pending model together with its file. The file delete
// and the notification are best-effort; the record delete is the primary
// action, but a failure there still reports success with Warning set
// because the decision is irreversible once invoked. A second reject on
// the same id fails with repository.ErrModelNotFound at the load step.
func (s *Moderation) Reject(ctx context.Context, id uint64) (RejectResult, error) {
	m, err := s.Models.GetWithCreator(ctx, id)
	if err != nil {
		return RejectResult{}, err
	}

	if err := s.Assets.Delete(m.FileURL); err != nil {
		log.Printf("moderation: file cleanup for rejected model %d (%s): %v", id, m.FileURL, err)
	}

	msg := fmt.Sprintf("Your model %q was not approved and has been removed.", m.Title)
	if err := s.Notifications.Append(ctx, m.Creator.ID, msg, m.Title, repository.KindRejection); err != nil {
		log.Printf("moderation: rejection notification for model %d: %v", id, err)
	}

	res := RejectResult{DeletedID: m.ID}
	if err := s.Models.Delete(ctx, id); err != nil {
		log.Printf("moderation: record delete for rejected model %d: %v", id, err)
		res.Warning = true
	}
	s.publish(ctx, m, "rejected", res.Warning)
	return res, nil
}

// OwnerDelete removes a model on behalf of its creator. Callers other than
// the owner get repository.ErrForbidden and nothing is touched. The file
// delete is best-effort, consistent with the reject compensation policy;
// the record delete must succeed.
func (s *Moderation) OwnerDelete(ctx context.Context, id, callerID uint64) (uint64, error) {
	m, err := s.Models.GetWithCreator(ctx, id)
	if err != nil {
		return 0, err
	}
	if m.Creator.ID != callerID {
		return 0, repository.ErrForbidden
	}
	if err := s.Assets.Delete(m.FileURL); err != nil {
		log.Printf("moderation: file cleanup for deleted model %d (%s): %v", id, m.FileURL, err)
	}
	if err := s.Models.Delete(ctx, id); err != nil {
		return 0, err
	}
	return m.ID, nil
}

func (s *Moderation) publish(ctx context.Context, m repository.Model, decision string, warning bool) {
	if s.Events == nil {
		return
	}
	ev := queue.ModerationDecidedEvent{
		ModelID:         m.ID,
		Title:           m.Title,
		CreatorID:       m.Creator.ID,
		CreatorUsername: m.Creator.Username,
		Decision:        decision,
		Warning:         warning,
		DecidedAt:       time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.Events.PublishModerationDecided(ctx, ev); err != nil {
		log.Printf("moderation: publish %s event for model %d: %v", decision, m.ID, err)
	}
}
