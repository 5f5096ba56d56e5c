package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/fanout"
	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/models"
	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/repositories"
)

// IntakeHandler receives client-intake submissions from the public
// landing form and notifies the handling advisor.
type IntakeHandler struct {
	intakes   repositories.IntakeRepository
	users     repositories.UserRepository
	publisher EventPublisher
}

// NewIntakeHandler builds an IntakeHandler.
func NewIntakeHandler(intakes repositories.IntakeRepository, users repositories.UserRepository, publisher EventPublisher) *IntakeHandler {
	return &IntakeHandler{intakes: intakes, users: users, publisher: publisher}
}

type intakeRequest struct {
	FullName    string `json:"full_name" binding:"required"`
	Email       string `json:"email" binding:"required"`
	Phone       string `json:"phone" binding:"required"`
	CountryCode string `json:"country_code"`
	Note        string `json:"note"`
}

// Create stores the intake record and pushes a notification onto the
// first available advisor's channel. Resubmitting the same email
// answers 409 without creating a second record.
func (h *IntakeHandler) Create(c *gin.Context) {
	var req intakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !strings.Contains(req.Email, "@") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid email"})
		return
	}

	intake, err := h.intakes.CreateChatUser(c.Request.Context(), models.ChatUser{
		FullName:    req.FullName,
		Email:       req.Email,
		Phone:       req.Phone,
		CountryCode: req.CountryCode,
	})
	if err != nil {
		if errors.Is(err, repositories.ErrIntakeDuplicate) {
			c.JSON(http.StatusConflict, gin.H{"error": "already registered"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register"})
		return
	}

	// Advisor notification is best-effort: the record matters more
	// than the ping.
	if advisorID := h.pickAdvisor(c); advisorID != 0 {
		h.publisher.Publish(c.Request.Context(), fanout.ClientIntake{
			Client:    intake,
			AdvisorID: advisorID,
			Note:      req.Note,
		})
	}

	c.JSON(http.StatusCreated, intake)
}

// pickAdvisor returns the first advisor able to receive the intake
// notification, or 0 when none exists.
func (h *IntakeHandler) pickAdvisor(c *gin.Context) int {
	advisors, err := h.users.ListAdvisors(c.Request.Context(), models.User{})
	if err != nil || len(advisors) == 0 {
		return 0
	}
	return advisors[0].ID
}
