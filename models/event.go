package models

import (
	"math"
	"time"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Participant is one registered user inside an event document. Rating and
// Feedback mirror the authoritative feedbacks entry for that login so older
// read paths keep working.
type Participant struct {
	Login    string  `json:"login" bson:"login"`
	Rating   float64 `json:"rating" bson:"rating"`
	Feedback string  `json:"feedback,omitempty" bson:"feedback,omitempty"`
}

// FeedbackEntry is the authoritative per-login feedback record, unique per
// login within an event (last write wins).
type FeedbackEntry struct {
	Login   string `json:"login" bson:"login"`
	Stars   int    `json:"stars" bson:"stars"`
	Comment string `json:"comment,omitempty" bson:"comment,omitempty"`
}

type Event struct {
	EventID      string          `json:"eventid" bson:"eventid"`
	Title        string          `json:"title" bson:"title"`
	Description  string          `json:"description" bson:"description"`
	Category     []string        `json:"category" bson:"category"`
	Club         string          `json:"club" bson:"club"`
	Date         string          `json:"date" bson:"date"`
	Time         string          `json:"time" bson:"time"`
	Location     string          `json:"location" bson:"location"`
	MaxAttend    int             `json:"maxAttend" bson:"max_attend"`
	Participants []Participant   `json:"participants" bson:"participants"`
	Feedbacks    []FeedbackEntry `json:"feedbacks" bson:"feedbacks"`
	CreatedBy    string          `json:"createdBy" bson:"created_by"`
	CreatedAt    time.Time       `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" bson:"updated_at"`

	// Version guards every read-modify-write of the participant and
	// feedback arrays. Bumped on each conditional write.
	Version int64 `json:"-" bson:"version"`

	// Computed at read time, never stored.
	ParticipantsCount int     `json:"participants_count" bson:"-"`
	IsParticipant     bool    `json:"is_participant" bson:"-"`
	Finished          bool    `json:"finished" bson:"-"`
	Rating            float64 `json:"rating" bson:"-"`
}

// StartsAt combines the calendar date and wall-clock time fields.
func (e *Event) StartsAt() (time.Time, error) {
	return time.ParseInLocation(DateLayout+" "+TimeLayout, e.Date+" "+e.Time, time.Local)
}

// HasParticipant reports whether login is registered.
func (e *Event) HasParticipant(login string) bool {
	for _, p := range e.Participants {
		if p.Login == login {
			return true
		}
	}
	return false
}

// AggregateRating is round(mean(stars), 1) over the feedback entries, 0
// when there are none.
func AggregateRating(entries []FeedbackEntry) float64 {
	if len(entries) == 0 {
		return 0
	}
	sum := 0
	for _, f := range entries {
		sum += f.Stars
	}
	mean := float64(sum) / float64(len(entries))
	return math.Round(mean*10) / 10
}

// Decorate fills the computed fields relative to the caller and clock.
// Stored copies of these fields are never trusted.
func (e *Event) Decorate(callerLogin string, now time.Time) {
	if e.Participants == nil {
		e.Participants = []Participant{}
	}
	if e.Feedbacks == nil {
		e.Feedbacks = []FeedbackEntry{}
	}
	e.ParticipantsCount = len(e.Participants)
	e.IsParticipant = e.HasParticipant(callerLogin)
	e.Rating = AggregateRating(e.Feedbacks)
	if at, err := e.StartsAt(); err == nil {
		e.Finished = at.Before(now)
	}
}
