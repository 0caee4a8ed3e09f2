package models

import (
	"fmt"
	"time"
)

// RequestState is the lifecycle state of a booking request.
type RequestState string

const (
	RequestPending   RequestState = "pending"
	RequestAccepted  RequestState = "accepted"
	RequestDeclined  RequestState = "declined"
	RequestExpired   RequestState = "expired"
	RequestCancelled RequestState = "cancelled"
)

// IsTerminal reports whether no further transition can leave the state.
func (s RequestState) IsTerminal() bool {
	switch s {
	case RequestAccepted, RequestDeclined, RequestExpired, RequestCancelled:
		return true
	}
	return false
}

func (s RequestState) Valid() bool {
	return s == RequestPending || s.IsTerminal()
}

// MaxSuggestedDates is the number of alternative dates a decline may carry.
const MaxSuggestedDates = 3

// Money is an amount in minor units (e.g. cents).
type Money struct {
	Amount   int64  `bson:"amount" json:"amount"`
	Currency string `bson:"currency" json:"currency"`
}

// TimeWindow is the clock-time span of a cleaning on its date, "HH:MM" each.
type TimeWindow struct {
	Start string `bson:"start" json:"start"`
	End   string `bson:"end" json:"end"`
}

const clockLayout = "15:04"

func (w TimeWindow) Validate() error {
	start, err := time.Parse(clockLayout, w.Start)
	if err != nil {
		return fmt.Errorf("invalid start time %q", w.Start)
	}
	end, err := time.Parse(clockLayout, w.End)
	if err != nil {
		return fmt.Errorf("invalid end time %q", w.End)
	}
	if !end.After(start) {
		return fmt.Errorf("end time %s must be after start time %s", w.End, w.Start)
	}
	return nil
}

// BookingRequest is a proposal of an appointment awaiting the counterparty's
// response. It is created pending and resolved exactly once.
type BookingRequest struct {
	ID             string       `bson:"id" json:"id"`
	AppointmentID  string       `bson:"appointment_id" json:"appointmentId"`
	InitiatorID    string       `bson:"initiator_id" json:"initiatorId"`
	CounterpartyID string       `bson:"counterparty_id" json:"counterpartyId"`
	State          RequestState `bson:"state" json:"state"`

	ProposedDate time.Time  `bson:"proposed_date" json:"proposedDate"`
	Price        *Money     `bson:"price,omitempty" json:"price,omitempty"`
	TimeWindow   TimeWindow `bson:"time_window" json:"timeWindow"`

	CreatedAt  time.Time  `bson:"created_at" json:"createdAt"`
	ExpiresAt  time.Time  `bson:"expires_at" json:"expiresAt"`
	ResolvedAt *time.Time `bson:"resolved_at,omitempty" json:"resolvedAt,omitempty"`
	UpdatedAt  time.Time  `bson:"updated_at" json:"updatedAt"`

	DeclineReason             string      `bson:"decline_reason,omitempty" json:"declineReason,omitempty"`
	SuggestedAlternativeDates []time.Time `bson:"suggested_alternative_dates,omitempty" json:"suggestedAlternativeDates,omitempty"`

	RebookingAttempts int    `bson:"rebooking_attempts" json:"rebookingAttempts"`
	PreviousRequestID string `bson:"previous_request_id,omitempty" json:"previousRequestId,omitempty"`
}

// IsOverdue reports whether the request is still pending past its deadline.
func (r *BookingRequest) IsOverdue(now time.Time) bool {
	return r.State == RequestPending && !now.Before(r.ExpiresAt)
}

// IsParticipant reports whether actorID is either side of the request.
func (r *BookingRequest) IsParticipant(actorID string) bool {
	return actorID != "" && (actorID == r.InitiatorID || actorID == r.CounterpartyID)
}

// Clone returns a deep copy.
func (r *BookingRequest) Clone() *BookingRequest {
	if r == nil {
		return nil
	}
	c := *r
	if r.Price != nil {
		p := *r.Price
		c.Price = &p
	}
	if r.ResolvedAt != nil {
		t := *r.ResolvedAt
		c.ResolvedAt = &t
	}
	if r.SuggestedAlternativeDates != nil {
		c.SuggestedAlternativeDates = append([]time.Time(nil), r.SuggestedAlternativeDates...)
	}
	return &c
}

// RequestDraft is everything a proposal needs besides the identity and
// timestamps assigned at creation.
type RequestDraft struct {
	AppointmentID  string
	InitiatorID    string
	CounterpartyID string
	ProposedDate   time.Time
	Price          *Money
	TimeWindow     TimeWindow
}

// NewPendingRequest builds a fresh pending request. previous is nil for an
// original proposal and the superseded request for a rebooking.
func NewPendingRequest(id string, d RequestDraft, previous *BookingRequest, now time.Time, window time.Duration) *BookingRequest {
	r := &BookingRequest{
		ID:             id,
		AppointmentID:  d.AppointmentID,
		InitiatorID:    d.InitiatorID,
		CounterpartyID: d.CounterpartyID,
		State:          RequestPending,
		ProposedDate:   d.ProposedDate,
		Price:          d.Price,
		TimeWindow:     d.TimeWindow,
		CreatedAt:      now,
		ExpiresAt:      now.Add(window),
		UpdatedAt:      now,
	}
	if previous != nil {
		r.PreviousRequestID = previous.ID
		r.RebookingAttempts = previous.RebookingAttempts + 1
	}
	return r
}

// RequestTransition describes a single terminal transition out of pending.
type RequestTransition struct {
	To             RequestState
	At             time.Time
	DeclineReason  string
	SuggestedDates []time.Time
}

// Apply writes the transition onto r. Callers are responsible for having
// checked the guard.
func (t RequestTransition) Apply(r *BookingRequest) {
	at := t.At
	r.State = t.To
	r.ResolvedAt = &at
	r.UpdatedAt = at
	if t.To == RequestDeclined {
		r.DeclineReason = t.DeclineReason
		r.SuggestedAlternativeDates = append([]time.Time(nil), t.SuggestedDates...)
	}
}

// ActorRole selects which side of a request a listing is for.
type ActorRole string

const (
	RoleCounterparty ActorRole = "counterparty"
	RoleInitiator    ActorRole = "initiator"
)
