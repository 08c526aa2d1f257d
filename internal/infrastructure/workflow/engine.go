package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	application "github.com/erp/procurement/internal/application/procurement"
	"github.com/erp/procurement/internal/domain/procurement"
	"github.com/erp/procurement/internal/infrastructure/config"
	"go.uber.org/zap"
)

// RestWorkflowEngine starts approval workflow instances over HTTP.
// Every failure mode maps to a Failed outcome; the caller's submission has
// already committed and must not be affected.
type RestWorkflowEngine struct {
	endpoint string
	client   *http.Client
	logger   *zap.Logger
}

// NewRestWorkflowEngine creates a new RestWorkflowEngine
func NewRestWorkflowEngine(cfg config.WorkflowConfig, logger *zap.Logger) *RestWorkflowEngine {
	return &RestWorkflowEngine{
		endpoint: cfg.Endpoint,
		client:   &http.Client{Timeout: cfg.Timeout},
		logger:   logger,
	}
}

type startWorkflowRequest struct {
	ProcessType       string `json:"process_type"`
	RequisitionID     string `json:"requisition_id"`
	RequisitionNumber string `json:"requisition_number"`
	DepartmentID      string `json:"department_id"`
	TotalAmount       string `json:"total_amount"`
	PendingApprovals  int    `json:"pending_approvals"`
}

type startWorkflowResponse struct {
	InstanceID string `json:"instance_id"`
}

// StartApprovalWorkflow posts a start request to the workflow engine
func (e *RestWorkflowEngine) StartApprovalWorkflow(ctx context.Context, requisition *procurement.Requisition) application.WorkflowStartResult {
	payload := startWorkflowRequest{
		ProcessType:       procurement.ProcessTypeRequisition,
		RequisitionID:     requisition.ID.String(),
		RequisitionNumber: requisition.RequisitionNumber,
		DepartmentID:      requisition.DepartmentID.String(),
		TotalAmount:       requisition.TotalAmount.String(),
		PendingApprovals:  len(requisition.PendingApprovals()),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return application.WorkflowStartResult{Outcome: application.WorkflowFailed, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint+"/workflows", bytes.NewReader(body))
	if err != nil {
		return application.WorkflowStartResult{Outcome: application.WorkflowFailed, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := e.client.Do(req)
	if err != nil {
		return application.WorkflowStartResult{Outcome: application.WorkflowFailed, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return application.WorkflowStartResult{
			Outcome: application.WorkflowFailed,
			Err:     fmt.Errorf("workflow engine returned status %d", resp.StatusCode),
		}
	}

	var decoded startWorkflowResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return application.WorkflowStartResult{Outcome: application.WorkflowFailed, Err: err}
	}

	e.logger.Debug("workflow instance started",
		zap.String("requisition_id", requisition.ID.String()),
		zap.String("instance_id", decoded.InstanceID),
		zap.Duration("elapsed", time.Since(start)))

	return application.WorkflowStartResult{
		Outcome:    application.WorkflowStarted,
		InstanceID: decoded.InstanceID,
	}
}

// NoopWorkflowEngine is used when no engine endpoint is configured.
// Every start attempt reports a skipped outcome.
type NoopWorkflowEngine struct{}

// NewNoopWorkflowEngine creates a new NoopWorkflowEngine
func NewNoopWorkflowEngine() *NoopWorkflowEngine {
	return &NoopWorkflowEngine{}
}

// StartApprovalWorkflow reports that no workflow was attempted
func (e *NoopWorkflowEngine) StartApprovalWorkflow(ctx context.Context, requisition *procurement.Requisition) application.WorkflowStartResult {
	return application.WorkflowStartResult{Outcome: application.WorkflowSkipped}
}

// NewFromConfig picks the engine implementation based on configuration
func NewFromConfig(cfg config.WorkflowConfig, logger *zap.Logger) application.WorkflowEngine {
	if cfg.Endpoint == "" {
		return NewNoopWorkflowEngine()
	}
	return NewRestWorkflowEngine(cfg, logger)
}

// Ensure both engines implement WorkflowEngine
var (
	_ application.WorkflowEngine = (*RestWorkflowEngine)(nil)
	_ application.WorkflowEngine = (*NoopWorkflowEngine)(nil)
)
