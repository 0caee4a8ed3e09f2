package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"cleanly/models"
	"cleanly/services/countdown"
	"cleanly/services/lifecycle"
	"cleanly/services/rebooking"
	"cleanly/utils"
	"cleanly/utils/apperr"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BookingRequestHandler serves the booking request lifecycle endpoints.
type BookingRequestHandler struct {
	Lifecycle lifecycle.LifecycleService
	Rebooking rebooking.RebookingCoordinator
	Clock     utils.Clock
	Policy    models.BookingPolicy
}

func NewBookingRequestHandler(lc lifecycle.LifecycleService, rb rebooking.RebookingCoordinator, clock utils.Clock, policy models.BookingPolicy) *BookingRequestHandler {
	return &BookingRequestHandler{Lifecycle: lc, Rebooking: rb, Clock: clock, Policy: policy}
}

type moneyInput struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

func (m *moneyInput) toModel() *models.Money {
	if m == nil {
		return nil
	}
	return &models.Money{Amount: m.Amount, Currency: m.Currency}
}

type proposeInput struct {
	AppointmentID  string            `json:"appointmentId" binding:"required"`
	CounterpartyID string            `json:"counterpartyId" binding:"required"`
	ProposedDate   string            `json:"proposedDate" binding:"required"`
	Price          *moneyInput       `json:"price"`
	TimeWindow     models.TimeWindow `json:"timeWindow"`
}

type declineInput struct {
	Reason         string   `json:"reason"`
	SuggestedDates []string `json:"suggestedDates"`
}

type rebookInput struct {
	NewDate       string            `json:"newDate" binding:"required"`
	NewPrice      *moneyInput       `json:"newPrice"`
	NewTimeWindow models.TimeWindow `json:"newTimeWindow"`
}

// bookingRequestResponse adds the live countdown to a pending request.
type bookingRequestResponse struct {
	*models.BookingRequest
	Countdown *countdown.Countdown `json:"countdown,omitempty"`
}

func (h *BookingRequestHandler) view(req *models.BookingRequest) bookingRequestResponse {
	resp := bookingRequestResponse{BookingRequest: req}
	if req.State == models.RequestPending {
		cd := countdown.Evaluate(req.ExpiresAt, h.Clock.Now())
		resp.Countdown = &cd
	}
	return resp
}

// ProposeHandler creates a booking request from the authenticated initiator.
func (h *BookingRequestHandler) ProposeHandler(c *gin.Context) {
	var input proposeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid input", err.Error())
		return
	}
	date, err := parseDate(input.ProposedDate, h.Policy.Loc())
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid proposedDate", err.Error())
		return
	}

	req, err := h.Lifecycle.Propose(c.Request.Context(), models.RequestDraft{
		AppointmentID:  input.AppointmentID,
		InitiatorID:    actorID(c),
		CounterpartyID: input.CounterpartyID,
		ProposedDate:   date,
		Price:          input.Price.toModel(),
		TimeWindow:     input.TimeWindow,
	})
	if err != nil {
		utils.JSONAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.view(req))
}

// GetHandler returns one request to either of its parties.
func (h *BookingRequestHandler) GetHandler(c *gin.Context) {
	req, ok := h.participantRequest(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.view(req))
}

// ListPendingHandler lists the actor's actionable requests. ?role=initiator
// lists the ones awaiting the other side instead.
func (h *BookingRequestHandler) ListPendingHandler(c *gin.Context) {
	reqs, err := h.Lifecycle.ListPending(c.Request.Context(), actorID(c), models.ActorRole(c.Query("role")))
	if err != nil {
		utils.JSONAppError(c, err)
		return
	}
	out := make([]bookingRequestResponse, 0, len(reqs))
	for i := range reqs {
		out = append(out, h.view(&reqs[i]))
	}
	c.JSON(http.StatusOK, gin.H{"requests": out, "count": len(out)})
}

// CountdownHandler returns a single countdown evaluation.
func (h *BookingRequestHandler) CountdownHandler(c *gin.Context) {
	req, ok := h.participantRequest(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"requestId":       req.ID,
		"state":           req.State,
		"refreshInterval": h.Policy.CountdownRefresh.String(),
		"countdown":       countdown.Evaluate(req.ExpiresAt, h.Clock.Now()),
	})
}

// CountdownStreamHandler streams countdown evaluations as server-sent events
// every refresh interval until the request expires or the client leaves.
func (h *BookingRequestHandler) CountdownStreamHandler(c *gin.Context) {
	req, ok := h.participantRequest(c)
	if !ok {
		return
	}
	if req.State != models.RequestPending {
		c.JSON(http.StatusOK, gin.H{"requestId": req.ID, "state": req.State, "countdown": countdown.Evaluate(req.ExpiresAt, h.Clock.Now())})
		return
	}

	updates := countdown.Watch(c.Request.Context(), h.Clock, req.ExpiresAt, h.Policy.CountdownRefresh)
	c.Stream(func(w io.Writer) bool {
		cd, open := <-updates
		if !open {
			return false
		}
		c.SSEvent("countdown", cd)
		return !cd.IsExpired
	})
}

// AcceptHandler accepts a request on behalf of its counterparty.
func (h *BookingRequestHandler) AcceptHandler(c *gin.Context) {
	req, err := h.Lifecycle.Accept(c.Request.Context(), c.Param("id"), actorID(c))
	if err != nil {
		if req != nil && errors.Is(err, apperr.ErrCollaboratorUnavailable) {
			// Accepted, but the appointment could not be activated yet.
			getLogger(c).Error("accepted without activation", zap.String("request_id", req.ID), zap.Error(err))
			c.JSON(http.StatusAccepted, gin.H{
				"request": h.view(req),
				"warning": apperr.UserMessage(err),
				"code":    string(apperr.KindCollaboratorUnavailable),
			})
			return
		}
		utils.JSONAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.view(req))
}

// DeclineHandler declines a request with an optional reason and dates.
func (h *BookingRequestHandler) DeclineHandler(c *gin.Context) {
	var input declineInput
	if err := c.ShouldBindJSON(&input); err != nil && !errors.Is(err, io.EOF) {
		utils.JSONError(c, http.StatusBadRequest, "Invalid input", err.Error())
		return
	}
	dates := make([]time.Time, 0, len(input.SuggestedDates))
	for _, s := range input.SuggestedDates {
		d, err := parseDate(s, h.Policy.Loc())
		if err != nil {
			utils.JSONAppError(c, apperr.Newf(apperr.KindInvalidSuggestedDates, "invalid suggested date %q", s))
			return
		}
		dates = append(dates, d)
	}

	req, err := h.Lifecycle.Decline(c.Request.Context(), c.Param("id"), actorID(c), lifecycle.DeclineInput{
		Reason:         input.Reason,
		SuggestedDates: dates,
	})
	if err != nil {
		utils.JSONAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.view(req))
}

// CancelHandler withdraws a pending request on behalf of its initiator.
func (h *BookingRequestHandler) CancelHandler(c *gin.Context) {
	req, err := h.Lifecycle.Cancel(c.Request.Context(), c.Param("id"), actorID(c))
	if err != nil {
		utils.JSONAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.view(req))
}

// RebookHandler proposes a successor to a declined or expired request.
func (h *BookingRequestHandler) RebookHandler(c *gin.Context) {
	var input rebookInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid input", err.Error())
		return
	}
	date, err := parseDate(input.NewDate, h.Policy.Loc())
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid newDate", err.Error())
		return
	}

	req, err := h.Rebooking.Rebook(c.Request.Context(), c.Param("id"), actorID(c), rebooking.RebookInput{
		NewDate:       date,
		NewPrice:      input.NewPrice.toModel(),
		NewTimeWindow: input.NewTimeWindow,
	})
	if err != nil {
		utils.JSONAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.view(req))
}

// ChainHandler returns the rebooking chain the request belongs to.
func (h *BookingRequestHandler) ChainHandler(c *gin.Context) {
	if _, ok := h.participantRequest(c); !ok {
		return
	}
	chain, err := h.Rebooking.Chain(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.JSONAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"chain": chain, "length": len(chain)})
}

// participantRequest loads :id and checks the actor is one of its parties.
// On failure it has already written the response.
func (h *BookingRequestHandler) participantRequest(c *gin.Context) (*models.BookingRequest, bool) {
	req, err := h.Lifecycle.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.JSONAppError(c, err)
		return nil, false
	}
	if !req.IsParticipant(actorID(c)) && !isAdmin(c) {
		utils.JSONAppError(c, apperr.ErrNotParticipant)
		return nil, false
	}
	return req, true
}
