// Package reconcile applies normalized webhook events to the call-record
// store. All coordination happens through the store's conflict-resolving
// writes; there is no in-process locking.
package reconcile

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/zulandar/switchboard/internal/event"
	"github.com/zulandar/switchboard/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Event kinds that drive call state transitions. Everything else is audit
// only.
const (
	KindRoomStarted  = "room_started"
	KindRoomFinished = "room_finished"
)

// fallbackRefPrefix is used when a room_started event carries neither a sid
// nor a name. The synthesized ref still yields a row, at the cost of being
// unmergeable with any later event for the same room.
const fallbackRefPrefix = "noref-"

// Reconciler owns all writes to the calls table.
type Reconciler struct {
	db *gorm.DB
}

// New creates a Reconciler on an initialized store handle.
func New(db *gorm.DB) *Reconciler {
	return &Reconciler{db: db}
}

// ResolveProject looks up an active project by slug. Unknown slug, inactive
// project, and lookup failure all return nil so the caller cannot leak which
// branch happened; lookup failures are additionally logged.
func (r *Reconciler) ResolveProject(slug string) *models.Project {
	var p models.Project
	err := r.db.Where("slug = ?", slug).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		log.Printf("reconcile: project lookup %q: %v", slug, err)
		return nil
	}
	if !p.IsActive {
		return nil
	}
	return &p
}

// Apply runs one normalized event through the call state machine.
// receivedAt seeds the synthesized ref for identity-less room_started
// events. A returned error means a store failure; callers log it and still
// answer the webhook with success so the sender does not retry forever
// against a down store.
func (r *Reconciler) Apply(orgID uint, ne event.NormalizedEvent, receivedAt time.Time) error {
	switch ne.Kind {
	case KindRoomStarted:
		return r.openCall(orgID, ne, receivedAt)
	case KindRoomFinished:
		return r.closeCall(orgID, ne)
	default:
		return nil
	}
}

// ExternalRef derives the idempotency key for a room_started event.
func ExternalRef(ne event.NormalizedEvent, receivedAt time.Time) string {
	if ne.RoomSID != "" {
		return ne.RoomSID
	}
	if ne.RoomName != "" {
		return ne.RoomName
	}
	return fmt.Sprintf("%s%d", fallbackRefPrefix, receivedAt.UnixMilli())
}

func (r *Reconciler) openCall(orgID uint, ne event.NormalizedEvent, receivedAt time.Time) error {
	call := models.Call{
		OrgID:       orgID,
		ExternalRef: ExternalRef(ne, receivedAt),
		StartedAt:   ne.OccurredAt,
		Tags:        "[]",
	}

	// Redelivery and finish-before-start both surface as a conflict on
	// (org_id, external_ref); the existing row wins, so a redelivered start
	// can never reset started_at or clear ended_at.
	result := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "org_id"}, {Name: "external_ref"}},
		DoNothing: true,
	}).Create(&call)
	if result.Error != nil {
		return fmt.Errorf("reconcile: open call %q: %w", call.ExternalRef, result.Error)
	}
	return nil
}

func (r *Reconciler) closeCall(orgID uint, ne event.NormalizedEvent) error {
	ref := ne.RoomSID
	if ref == "" {
		ref = ne.RoomName
	}
	if ref == "" {
		// No way to locate the target row.
		log.Printf("reconcile: room_finished without room identity (org %d), skipping", orgID)
		return nil
	}

	var call models.Call
	err := r.db.Where("org_id = ? AND external_ref = ?", orgID, ref).First(&call).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Out-of-order delivery: the finish arrived before (or without) its
		// start. Not an error.
		log.Printf("reconcile: room_finished for unknown call %q (org %d), skipping", ref, orgID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("reconcile: lookup call %q: %w", ref, err)
	}
	if !call.Open() {
		// Redelivered finish; the first close wins.
		return nil
	}

	ended := ne.OccurredAt
	secs := int(ended.Sub(call.StartedAt) / time.Second)
	if secs < 0 {
		secs = 0
	}
	updates := map[string]interface{}{
		"ended_at":         ended,
		"duration_seconds": secs,
	}
	if err := r.db.Model(&call).Updates(updates).Error; err != nil {
		return fmt.Errorf("reconcile: close call %q: %w", ref, err)
	}
	return nil
}
