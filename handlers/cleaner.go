package handlers

import (
	"net/http"

	"cleanly/models"
	"cleanly/services/penalty"
	"cleanly/utils"
	"cleanly/utils/apperr"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CleanerHandler serves cancellation penalties and account standing.
type CleanerHandler struct {
	Ledger penalty.PenaltyLedger
	Policy models.BookingPolicy
}

func NewCleanerHandler(ledger penalty.PenaltyLedger, policy models.BookingPolicy) *CleanerHandler {
	return &CleanerHandler{Ledger: ledger, Policy: policy}
}

type cancellationInput struct {
	AppointmentID   string `json:"appointmentId" binding:"required"`
	AppointmentDate string `json:"appointmentDate" binding:"required"`
	Acknowledged    bool   `json:"acknowledged"`
}

// PreviewCancellationHandler shows the penalty outcome of cancelling an
// assignment without recording anything.
func (h *CleanerHandler) PreviewCancellationHandler(c *gin.Context) {
	h.cancellation(c, false)
}

// CommitCancellationHandler records the cancellation. The cleaner must have
// acknowledged the previewed outcome.
func (h *CleanerHandler) CommitCancellationHandler(c *gin.Context) {
	h.cancellation(c, true)
}

func (h *CleanerHandler) cancellation(c *gin.Context, commit bool) {
	cleanerID, ok := h.cleanerParam(c)
	if !ok {
		return
	}
	var input cancellationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid input", err.Error())
		return
	}
	date, err := parseDate(input.AppointmentDate, h.Policy.Loc())
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid appointmentDate", err.Error())
		return
	}

	if !commit {
		out, err := h.Ledger.Preview(c.Request.Context(), cleanerID, input.AppointmentID, date)
		if err != nil {
			utils.JSONAppError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
		return
	}

	if !input.Acknowledged {
		utils.JSONAppError(c, apperr.New(apperr.KindInvalidInput, "the cancellation outcome must be acknowledged before it is committed"))
		return
	}
	out, err := h.Ledger.RecordIfQualifying(c.Request.Context(), cleanerID, input.AppointmentID, date)
	if err != nil {
		utils.JSONAppError(c, err)
		return
	}
	getLogger(c).Info("cleaner cancellation committed",
		zap.String("cleaner_id", cleanerID),
		zap.String("appointment_id", input.AppointmentID),
		zap.Bool("penalty_applied", out.PenaltyApplied),
		zap.Bool("account_frozen", out.AccountFrozen))
	c.JSON(http.StatusOK, out)
}

// StatusHandler returns the cleaner's derived account status.
func (h *CleanerHandler) StatusHandler(c *gin.Context) {
	cleanerID, ok := h.cleanerParam(c)
	if !ok {
		return
	}
	status, err := h.Ledger.AccountStatus(c.Request.Context(), cleanerID)
	if err != nil {
		utils.JSONAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// PenaltiesHandler lists the cleaner's penalty records, newest first.
func (h *CleanerHandler) PenaltiesHandler(c *gin.Context) {
	cleanerID, ok := h.cleanerParam(c)
	if !ok {
		return
	}
	records, err := h.Ledger.ListPenalties(c.Request.Context(), cleanerID)
	if err != nil {
		utils.JSONAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"penalties": records, "count": len(records)})
}

// cleanerParam returns :id when the actor is that cleaner or an admin.
func (h *CleanerHandler) cleanerParam(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if id != actorID(c) && !isAdmin(c) {
		utils.JSONAppError(c, apperr.ErrNotParticipant)
		return "", false
	}
	return id, true
}
