package events

import (
	"net/url"
	"os"
	"strconv"
	"time"

	"clubhive/apperr"
	"clubhive/models"
)

// Registration stays permissive on capacity unless explicitly enabled.
var enforceCapacity = os.Getenv("ENFORCE_CAPACITY") == "true"

func validateNewEvent(e *models.Event) error {
	if e.Title == "" {
		return apperr.Validation("title", "required")
	}
	if e.Date == "" {
		return apperr.Validation("date", "required")
	}
	if _, err := time.Parse(models.DateLayout, e.Date); err != nil {
		return apperr.Validation("date", "expected YYYY-MM-DD")
	}
	if e.Time == "" {
		return apperr.Validation("time", "required")
	}
	if _, err := time.Parse(models.TimeLayout, e.Time); err != nil {
		return apperr.Validation("time", "expected HH:MM")
	}
	if e.Location == "" {
		return apperr.Validation("location", "required")
	}
	if e.MaxAttend <= 0 {
		return apperr.Validation("maxAttend", "must be greater than 0")
	}
	return nil
}

// parsePagination reads page/limit query parameters. A limit of 0 means
// no limit was asked for and the caller gets the whole collection.
func parsePagination(q url.Values) (skip, limit int64) {
	if parsed, err := strconv.Atoi(q.Get("limit")); err == nil && parsed > 0 {
		limit = int64(parsed)
	}
	if limit == 0 {
		return 0, 0
	}
	page := int64(1)
	if parsed, err := strconv.Atoi(q.Get("page")); err == nil && parsed > 0 {
		page = int64(parsed)
	}
	return (page - 1) * limit, limit
}

// toggleParticipant flips login's membership in the list and reports whether
// the result is a join. The list keeps at most one entry per login.
func toggleParticipant(list []models.Participant, login string) ([]models.Participant, bool) {
	out := make([]models.Participant, 0, len(list)+1)
	found := false
	for _, p := range list {
		if p.Login == login {
			found = true
			continue
		}
		out = append(out, p)
	}
	if found {
		return out, false
	}
	return append(out, models.Participant{Login: login}), true
}

// findFeedback returns the caller's own feedback entry, if any.
func findFeedback(entries []models.FeedbackEntry, login string) (models.FeedbackEntry, bool) {
	for _, f := range entries {
		if f.Login == login {
			return f, true
		}
	}
	return models.FeedbackEntry{}, false
}
