package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	// Booking request endpoints
	ProposeRequestHandler         gin.HandlerFunc
	GetRequestHandler             gin.HandlerFunc
	ListPendingRequestsHandler    gin.HandlerFunc
	RequestCountdownHandler       gin.HandlerFunc
	RequestCountdownStreamHandler gin.HandlerFunc
	AcceptRequestHandler          gin.HandlerFunc
	DeclineRequestHandler         gin.HandlerFunc
	CancelRequestHandler          gin.HandlerFunc
	RebookRequestHandler          gin.HandlerFunc
	RequestChainHandler           gin.HandlerFunc

	// Cleaner endpoints
	PreviewCancellationHandler gin.HandlerFunc
	CommitCancellationHandler  gin.HandlerFunc
	CleanerStatusHandler       gin.HandlerFunc
	CleanerPenaltiesHandler    gin.HandlerFunc

	HealthHandler gin.HandlerFunc
}

// NewHandlerBundle wires the handler methods into a bundle.
func NewHandlerBundle(requests *BookingRequestHandler, cleaners *CleanerHandler) *HandlerBundle {
	return &HandlerBundle{
		ProposeRequestHandler:         requests.ProposeHandler,
		GetRequestHandler:             requests.GetHandler,
		ListPendingRequestsHandler:    requests.ListPendingHandler,
		RequestCountdownHandler:       requests.CountdownHandler,
		RequestCountdownStreamHandler: requests.CountdownStreamHandler,
		AcceptRequestHandler:          requests.AcceptHandler,
		DeclineRequestHandler:         requests.DeclineHandler,
		CancelRequestHandler:          requests.CancelHandler,
		RebookRequestHandler:          requests.RebookHandler,
		RequestChainHandler:           requests.ChainHandler,

		PreviewCancellationHandler: cleaners.PreviewCancellationHandler,
		CommitCancellationHandler:  cleaners.CommitCancellationHandler,
		CleanerStatusHandler:       cleaners.StatusHandler,
		CleanerPenaltiesHandler:    cleaners.PenaltiesHandler,

		HealthHandler: HealthHandler,
	}
}
