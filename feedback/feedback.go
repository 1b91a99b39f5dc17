// Package feedback records per-participant ratings and keeps the event's
// aggregate rating derivable from one authoritative representation.
package feedback

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	"clubhive/apperr"
	"clubhive/db"
	"clubhive/events"
	"clubhive/middleware"
	"clubhive/models"
	"clubhive/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const maxCASRetries = 5

// Feedback on unfinished events is rejected unless explicitly disabled.
var requireFinished = os.Getenv("REQUIRE_FINISHED_FEEDBACK") != "false"

var rateLocks = events.NewKeyedMutex()

type rateInput struct {
	Stars   int    `json:"stars"`
	Comment string `json:"comment"`
}

// apply writes login's feedback into the authoritative entries list
// (last write wins, unique per login) and mirrors it onto the matching
// participant. Reports whether this is the login's first feedback.
func apply(event *models.Event, login string, stars int, comment string) bool {
	first := true
	replaced := false
	for i := range event.Feedbacks {
		if event.Feedbacks[i].Login == login {
			event.Feedbacks[i].Stars = stars
			event.Feedbacks[i].Comment = comment
			first = false
			replaced = true
			break
		}
	}
	if !replaced {
		event.Feedbacks = append(event.Feedbacks, models.FeedbackEntry{Login: login, Stars: stars, Comment: comment})
	}
	for i := range event.Participants {
		if event.Participants[i].Login == login {
			event.Participants[i].Rating = float64(stars)
			event.Participants[i].Feedback = comment
			break
		}
	}
	return first
}

// RateEvent handles POST /events/:id/rate.
func RateEvent(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	eventID := ps.ByName("eventid")
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		utils.RespondWithAppError(w, apperr.Unauthorized("missing token"))
		return
	}

	var input rateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondWithAppError(w, apperr.Validation("body", "invalid JSON"))
		return
	}
	if input.Stars < 1 || input.Stars > 5 {
		utils.RespondWithAppError(w, apperr.Validation("stars", "must be between 1 and 5"))
		return
	}

	key := eventID + "|" + claims.Login
	rateLocks.Lock(key)
	defer rateLocks.Unlock(key)

	rating, err := record(r.Context(), eventID, claims.Login, input.Stars, input.Comment)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"message": "feedback recorded",
		"rating":  rating,
	})
}

func record(ctx context.Context, eventID, login string, stars int, comment string) (float64, error) {
	for attempt := 0; attempt < maxCASRetries; attempt++ {
		sctx, cancel := db.Ctx(ctx)

		var event models.Event
		err := db.EventsCollection.FindOne(sctx, bson.M{"eventid": eventID}).Decode(&event)
		if errors.Is(err, mongo.ErrNoDocuments) {
			cancel()
			return 0, apperr.NotFound("event")
		}
		if err != nil {
			cancel()
			return 0, apperr.Storage("get event", err)
		}

		if !event.HasParticipant(login) {
			cancel()
			return 0, apperr.NotParticipant(login)
		}
		if requireFinished {
			if at, perr := event.StartsAt(); perr == nil && !at.Before(time.Now()) {
				cancel()
				return 0, apperr.InvalidState("event has not finished yet")
			}
		}

		first := apply(&event, login, stars, comment)

		res, err := db.EventsCollection.UpdateOne(sctx,
			bson.M{"eventid": eventID, "version": event.Version},
			bson.M{
				"$set": bson.M{
					"feedbacks":    event.Feedbacks,
					"participants": event.Participants,
					"updated_at":   time.Now().UTC(),
				},
				"$inc": bson.M{"version": 1},
			},
		)
		if err != nil {
			cancel()
			return 0, apperr.Storage("update feedback", err)
		}
		if res.MatchedCount == 0 {
			cancel()
			continue
		}

		if first {
			if _, err := db.UserCollection.UpdateOne(sctx,
				bson.M{"login": login},
				bson.M{"$inc": bson.M{"attendance": 1}},
			); err != nil {
				log.Printf("Attendance counter for %s failed: %v", login, err)
			}
		}
		cancel()

		return models.AggregateRating(event.Feedbacks), nil
	}
	return 0, apperr.Storage("rate", errors.New("too many concurrent updates"))
}
