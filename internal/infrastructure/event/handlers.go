package event

import (
	"context"

	"github.com/erp/procurement/internal/domain/procurement"
	"github.com/erp/procurement/internal/domain/shared"
	"go.uber.org/zap"
)

// RequisitionLifecycleLogger records requisition lifecycle transitions to the
// application log. It subscribes to all requisition event types and serves as
// the default projection until a downstream consumer exists.
type RequisitionLifecycleLogger struct {
	logger *zap.Logger
}

// NewRequisitionLifecycleLogger creates a new RequisitionLifecycleLogger
func NewRequisitionLifecycleLogger(logger *zap.Logger) *RequisitionLifecycleLogger {
	return &RequisitionLifecycleLogger{logger: logger}
}

// EventTypes returns the requisition lifecycle event types
func (h *RequisitionLifecycleLogger) EventTypes() []string {
	return []string{
		procurement.EventTypeRequisitionCreated,
		procurement.EventTypeRequisitionSubmitted,
		procurement.EventTypeRequisitionApprovalRecorded,
		procurement.EventTypeRequisitionRejected,
		procurement.EventTypeRequisitionCancelled,
		procurement.EventTypeRequisitionWorkflowFailed,
	}
}

// Handle logs the event
func (h *RequisitionLifecycleLogger) Handle(ctx context.Context, event shared.DomainEvent) error {
	h.logger.Info("requisition event",
		zap.String("event_type", event.EventType()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
	)
	return nil
}

// Ensure RequisitionLifecycleLogger implements EventHandler
var _ shared.EventHandler = (*RequisitionLifecycleLogger)(nil)
