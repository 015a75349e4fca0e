package admin

import (
	"github.com/miglee/miglee-backend/internal/intent"
)

// BulkUpdateResult is the partial-success summary for bulk operations: one
// failing item never aborts the batch.
type BulkUpdateResult struct {
	Success int      `json:"success"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors"`
}

type BulkUpdateIntentsRequest struct {
	IDs   []uint                     `json:"ids" binding:"required"`
	Input intent.UpdateIntentRequest `json:"input" binding:"required"`
}

type ChangeOwnerRequest struct {
	NewOwnerID uint `json:"new_owner_id" binding:"required"`
}
