package handlers

import (
	"fmt"
	"time"

	"cleanly/middleware"

	"github.com/gin-gonic/gin"
)

func actorID(c *gin.Context) string {
	return c.GetString(middleware.ActorIDKey)
}

func isAdmin(c *gin.Context) bool {
	return c.GetString(middleware.ActorRoleKey) == middleware.RoleAdmin
}

// parseDate accepts a calendar date ("2006-01-02", read in loc) or a full
// RFC 3339 timestamp.
func parseDate(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected YYYY-MM-DD or RFC 3339, got %q", s)
	}
	return t, nil
}
