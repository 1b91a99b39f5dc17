package events

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"clubhive/apperr"
	"clubhive/db"
	"clubhive/middleware"
	"clubhive/models"
	"clubhive/notify"
	"clubhive/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const maxCASRetries = 5

// regLocks serializes toggles per (event, login) so a burst of identical
// toggles lands as a clean odd/even sequence instead of a lost update.
var regLocks = NewKeyedMutex()

// registrationStore is the slice of the document store the toggle loop
// touches: a read, a version-guarded conditional write, and the user's
// lifetime join counter.
type registrationStore interface {
	fetch(ctx context.Context, eventID string) (*models.Event, error)
	swap(ctx context.Context, eventID string, version int64, list []models.Participant) (bool, error)
	bump(ctx context.Context, login string, joined bool) error
}

var regStore registrationStore = mongoRegistrationStore{}

type mongoRegistrationStore struct{}

func (mongoRegistrationStore) fetch(ctx context.Context, eventID string) (*models.Event, error) {
	sctx, cancel := db.Ctx(ctx)
	defer cancel()

	var event models.Event
	err := db.EventsCollection.FindOne(sctx, bson.M{"eventid": eventID}).Decode(&event)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound("event")
	}
	if err != nil {
		return nil, apperr.Storage("get event", err)
	}
	return &event, nil
}

func (mongoRegistrationStore) swap(ctx context.Context, eventID string, version int64, list []models.Participant) (bool, error) {
	sctx, cancel := db.Ctx(ctx)
	defer cancel()

	res, err := db.EventsCollection.UpdateOne(sctx,
		bson.M{"eventid": eventID, "version": version},
		bson.M{
			"$set": bson.M{"participants": list, "updated_at": time.Now().UTC()},
			"$inc": bson.M{"version": 1},
		},
	)
	if err != nil {
		return false, apperr.Storage("update participants", err)
	}
	return res.MatchedCount > 0, nil
}

// bump moves the user's lifetime join counter, flooring at zero on leave
// via the filter rather than a read-then-write.
func (mongoRegistrationStore) bump(ctx context.Context, login string, joined bool) error {
	sctx, cancel := db.Ctx(ctx)
	defer cancel()

	filter := bson.M{"login": login}
	delta := 1
	if !joined {
		filter["register"] = bson.M{"$gt": 0}
		delta = -1
	}
	_, err := db.UserCollection.UpdateOne(sctx, filter, bson.M{"$inc": bson.M{"register": delta}})
	return err
}

// RegisterToggle handles POST /events/:id/register. One call flips the
// caller between NotRegistered and Registered.
func RegisterToggle(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	eventID := ps.ByName("eventid")
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		utils.RespondWithAppError(w, apperr.Unauthorized("missing token"))
		return
	}

	key := eventID + "|" + claims.Login
	regLocks.Lock(key)
	defer regLocks.Unlock(key)

	joined, event, err := toggleRegistration(r.Context(), regStore, eventID, claims.Login)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}

	msg := "left"
	if joined {
		msg = "joined"
		// Best-effort heads-up to the organizer; never blocks the toggle.
		n := notify.NewNotification("registration", event.Title, claims.Login+" joined "+event.Title, eventID)
		if err := notify.Notify(context.Background(), []string{event.CreatedBy}, n); err != nil {
			log.Printf("Organizer notification for %s failed: %v", eventID, err)
		}
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"message":            msg,
		"participants_count": len(event.Participants),
	})
}

// toggleRegistration runs the read-modify-write with a version-guarded
// conditional write, retrying on conflict with concurrent writers of the
// same event document.
func toggleRegistration(ctx context.Context, store registrationStore, eventID, login string) (bool, *models.Event, error) {
	for attempt := 0; attempt < maxCASRetries; attempt++ {
		event, err := store.fetch(ctx, eventID)
		if err != nil {
			return false, nil, err
		}

		if at, perr := event.StartsAt(); perr == nil && at.Before(time.Now()) {
			return false, nil, apperr.InvalidState("event already finished")
		}

		newList, joined := toggleParticipant(event.Participants, login)
		if joined && enforceCapacity && len(newList) > event.MaxAttend {
			return false, nil, apperr.InvalidState("event is full")
		}

		ok, err := store.swap(ctx, eventID, event.Version, newList)
		if err != nil {
			return false, nil, err
		}
		if !ok {
			// Version moved underneath us; reread and retry.
			continue
		}

		if err := store.bump(ctx, login, joined); err != nil {
			log.Printf("Register counter adjust for %s failed: %v", login, err)
		}

		event.Participants = newList
		return joined, event, nil
	}
	return false, nil, apperr.Storage("register", errors.New("too many concurrent updates"))
}
