// Package store is the record store client: the only component that talks to
// persistent storage for feedback records.
package store

import (
	"context"
	"time"

	"github.com/wilforlan/suncture-feedback-board/internal/models"
)

// Patch is a partial update. Only lifecycle fields can change after creation;
// there is no serial number field. IncrementRefix adds one to the stored
// refix_count, so the counter never depends on the caller's copy.
type Patch struct {
	Status         *models.Status
	IncrementRefix bool
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Status == nil && !p.IncrementRefix
}

// ListFilter narrows List. Zero values mean "no constraint".
type ListFilter struct {
	Status         *models.Status
	CreatedSince   *time.Time
	RequireCreator bool
	ParentSerial   *string
	Limit          int
}

// RecordStore persists feedback records. Every method may block and may fail;
// none of them retry.
type RecordStore interface {
	// Insert assigns an ID and persists the full record.
	Insert(ctx context.Context, record *models.FeedbackRecord) (string, error)
	// Update applies patch to the record with id. Unknown ids yield ErrRecordNotFound.
	Update(ctx context.Context, id string, patch Patch) error
	// List returns matching records ordered by created_at descending.
	List(ctx context.Context, filter ListFilter) ([]models.FeedbackRecord, error)
	// GetByID returns nil, nil when no record has the id.
	GetByID(ctx context.Context, id string) (*models.FeedbackRecord, error)
	// LatestSerial returns the serial of the most recently created record, nil when empty.
	LatestSerial(ctx context.Context) (*string, error)
}
