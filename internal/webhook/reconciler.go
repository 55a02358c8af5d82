package webhook

import (
	"context"

	"github.com/warelay/warelay/internal/domain"
	"gorm.io/gorm"
)

// Reconciler matches inbound status events to recorded outbound sends.
type Reconciler struct {
	db *gorm.DB
}

func NewReconciler(db *gorm.DB) *Reconciler {
	return &Reconciler{db: db}
}

// ApplyStatus overwrites the matching SendRecord's delivery state.
// Last-write-wins: duplicate or out-of-order events simply overwrite the
// prior status. A missing match is a no-op, not an error.
func (r *Reconciler) ApplyStatus(ctx context.Context, upd StatusUpdate) (bool, error) {
	if upd.MessageID == "" {
		return false, nil
	}
	res := r.db.WithContext(ctx).
		Model(&domain.SendRecord{}).
		Where("message_id = ?", upd.MessageID).
		Updates(map[string]interface{}{
			"status":           upd.Status,
			"status_timestamp": upd.Timestamp,
		})
	return res.RowsAffected > 0, res.Error
}
