package models

import "time"

// EventType names a booking lifecycle event delivered to an actor.
type EventType string

const (
	EventRequestProposed  EventType = "booking_request.proposed"
	EventRequestAccepted  EventType = "booking_request.accepted"
	EventRequestDeclined  EventType = "booking_request.declined"
	EventRequestCancelled EventType = "booking_request.cancelled"
	EventRequestExpired   EventType = "booking_request.expired"
	EventRequestRebooked  EventType = "booking_request.rebooked"
	EventPenaltyRecorded  EventType = "cleaner.penalty_recorded"
	EventAccountFrozen    EventType = "cleaner.account_frozen"
)

// EventForState maps a terminal request state to its event.
func EventForState(s RequestState) EventType {
	switch s {
	case RequestAccepted:
		return EventRequestAccepted
	case RequestDeclined:
		return EventRequestDeclined
	case RequestCancelled:
		return EventRequestCancelled
	case RequestExpired:
		return EventRequestExpired
	}
	return EventRequestProposed
}

// NotifyPayload is the queued unit of notification work.
type NotifyPayload struct {
	ActorID   string            `json:"actorId"`
	Event     EventType         `json:"event"`
	Data      map[string]string `json:"data"`
	CreatedAt time.Time         `json:"createdAt"`
}
