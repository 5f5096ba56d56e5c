package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/telemetry"
)

// DebugHandler exposes operational smoke-test routes. Mount behind
// admin auth only.
type DebugHandler struct {
	audit *telemetry.AuditEmitter
}

// NewDebugHandler builds a DebugHandler.
func NewDebugHandler(audit *telemetry.AuditEmitter) *DebugHandler {
	return &DebugHandler{audit: audit}
}

// AuditTest emits one synthetic audit record so operators can verify
// the audit pipeline end to end.
func (h *DebugHandler) AuditTest(c *gin.Context) {
	emitAudit(c, h.audit, "INFO", "audit_test", "audit pipeline check")
	c.JSON(http.StatusOK, gin.H{"status": "sent"})
}
