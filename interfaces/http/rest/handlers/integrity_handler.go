package handlers

import (
	"net/http"

	"notevault/application/integrity"
	"notevault/pkg/common"

	"go.uber.org/zap"
)

// IntegrityHandler handles integrity-related HTTP requests
type IntegrityHandler struct {
	auditor  *integrity.Auditor
	repairer *integrity.Repairer
	logger   *zap.Logger
}

// NewIntegrityHandler creates a new integrity handler
func NewIntegrityHandler(auditor *integrity.Auditor, repairer *integrity.Repairer, logger *zap.Logger) *IntegrityHandler {
	return &IntegrityHandler{
		auditor:  auditor,
		repairer: repairer,
		logger:   logger,
	}
}

// Audit handles GET /integrity
func (h *IntegrityHandler) Audit(w http.ResponseWriter, r *http.Request) {
	report := h.auditor.Audit(r.Context())

	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"checkedAt": report.CheckedAt,
		"healthy":   report.IsHealthy(),
		"issues":    report.Issues,
	})
}

// Repair handles POST /integrity/repair
func (h *IntegrityHandler) Repair(w http.ResponseWriter, r *http.Request) {
	result := h.repairer.Repair(r.Context())

	status := http.StatusOK
	if len(result.Errors) > 0 {
		status = http.StatusMultiStatus
	}
	common.RespondJSON(w, status, result)
}
