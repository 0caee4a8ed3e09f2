package notification

import (
	"fmt"

	"cleanly/models"
)

// Render builds the push title and body for an event.
func Render(event models.EventType, data map[string]string) (string, string) {
	date := data["proposedDate"]
	switch event {
	case models.EventRequestProposed:
		return "New booking request", fmt.Sprintf("You have a new cleaning request for %s. Please respond within %s.", date, data["respondWithin"])
	case models.EventRequestAccepted:
		return "Booking accepted", fmt.Sprintf("Your booking request for %s was accepted.", date)
	case models.EventRequestDeclined:
		body := fmt.Sprintf("Your booking request for %s was declined.", date)
		if reason := data["declineReason"]; reason != "" {
			body += " Reason: " + reason + "."
		}
		return "Booking declined", body
	case models.EventRequestCancelled:
		return "Booking request withdrawn", fmt.Sprintf("The booking request for %s was withdrawn.", date)
	case models.EventRequestExpired:
		return "Booking request expired", fmt.Sprintf("The booking request for %s expired without a response.", date)
	case models.EventRequestRebooked:
		return "New date proposed", fmt.Sprintf("A new date, %s, has been proposed for your cleaning.", date)
	case models.EventPenaltyRecorded:
		return "Cancellation penalty", fmt.Sprintf("You cancelled %s day(s) before the appointment. You now have %s penalty(ies) in the last 3 months.",
			data["daysBeforeAppointment"], data["recentPenaltyCount"])
	case models.EventAccountFrozen:
		return "Account frozen", "Your account has been frozen after repeated late cancellations. Please contact support."
	}
	return "Booking update", "One of your bookings was updated."
}
