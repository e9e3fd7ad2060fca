package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"aperture/api/internal/audit"
	"aperture/api/internal/ids"
	"aperture/api/internal/models"
)

type createBookingRequest struct {
	Email       string     `json:"email" binding:"required,email"`
	Name        string     `json:"name" binding:"required"`
	ServiceType string     `json:"serviceType" binding:"required"`
	Message     string     `json:"message"`
	PreferredAt *time.Time `json:"preferredAt"`
}

// CreateBooking records an inquiry from the public site. Scheduling and
// calendar logic live elsewhere; this only persists the request.
func (h HandlerSet) CreateBooking(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid booking payload")
		return
	}

	booking := models.Booking{
		ID:          ids.New(),
		Email:       req.Email,
		Name:        req.Name,
		ServiceType: req.ServiceType,
		Message:     req.Message,
		PreferredAt: req.PreferredAt,
		Status:      models.BookingStatusPending,
	}

	if err := h.bookings.Create(c.Request.Context(), booking); err != nil {
		h.log.Error().Err(err).Msg("create booking failed")
		fail(c, http.StatusInternalServerError, "could not create booking")
		return
	}

	h.recorder.Record(audit.Entry{
		Action:       "booking.create",
		ResourceType: "booking",
		ResourceID:   booking.ID,
		IP:           c.ClientIP(),
	})

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"id":      booking.ID,
	})
}
