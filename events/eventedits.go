package events

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"clubhive/apperr"
	"clubhive/db"
	"clubhive/globals"
	"clubhive/middleware"
	"clubhive/models"
	"clubhive/mq"
	"clubhive/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// eventPatch distinguishes "field absent" from "field set to zero value".
// An omitted participants key must never clear existing registrations.
type eventPatch struct {
	Title        *string               `json:"title"`
	Description  *string               `json:"description"`
	Category     *[]string             `json:"category"`
	Date         *string               `json:"date"`
	Time         *string               `json:"time"`
	Location     *string               `json:"location"`
	MaxAttend    *int                  `json:"maxAttend"`
	Participants *[]models.Participant `json:"participants"`
}

// patchFields maps the supplied patch keys onto a $set document. Omitted
// fields are left untouched.
func patchFields(p *eventPatch) (bson.M, error) {
	set := bson.M{}
	if p.Title != nil {
		if *p.Title == "" {
			return nil, apperr.Validation("title", "must not be empty")
		}
		set["title"] = *p.Title
	}
	if p.Description != nil {
		set["description"] = *p.Description
	}
	if p.Category != nil {
		set["category"] = *p.Category
	}
	if p.Date != nil {
		if _, err := time.Parse(models.DateLayout, *p.Date); err != nil {
			return nil, apperr.Validation("date", "expected YYYY-MM-DD")
		}
		set["date"] = *p.Date
	}
	if p.Time != nil {
		if _, err := time.Parse(models.TimeLayout, *p.Time); err != nil {
			return nil, apperr.Validation("time", "expected HH:MM")
		}
		set["time"] = *p.Time
	}
	if p.Location != nil {
		if *p.Location == "" {
			return nil, apperr.Validation("location", "must not be empty")
		}
		set["location"] = *p.Location
	}
	if p.MaxAttend != nil {
		if *p.MaxAttend <= 0 {
			return nil, apperr.Validation("maxAttend", "must be greater than 0")
		}
		set["max_attend"] = *p.MaxAttend
	}
	if p.Participants != nil {
		uniq := map[string]bool{}
		for _, part := range *p.Participants {
			if uniq[part.Login] {
				return nil, apperr.Validation("participants", "duplicate login "+part.Login)
			}
			uniq[part.Login] = true
		}
		set["participants"] = *p.Participants
	}
	return set, nil
}

// EditEvent handles PUT /events/:id as a merge-patch: only the supplied
// fields change, everything else is preserved.
func EditEvent(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	eventID := ps.ByName("eventid")
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		utils.RespondWithAppError(w, apperr.Unauthorized("missing token"))
		return
	}

	var patch eventPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		utils.RespondWithAppError(w, apperr.Validation("body", "invalid JSON"))
		return
	}

	set, err := patchFields(&patch)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	if len(set) == 0 {
		utils.RespondWithAppError(w, apperr.Validation("body", "no fields to update"))
		return
	}

	ctx, cancel := db.Ctx(r.Context())
	defer cancel()

	var event models.Event
	err = db.EventsCollection.FindOne(ctx, bson.M{"eventid": eventID}).Decode(&event)
	if errors.Is(err, mongo.ErrNoDocuments) {
		utils.RespondWithAppError(w, apperr.NotFound("event"))
		return
	}
	if err != nil {
		utils.RespondWithAppError(w, apperr.Storage("get event", err))
		return
	}

	if !claims.CanManageClub(event.Club) {
		utils.RespondWithAppError(w, apperr.Forbidden("not a manager of "+event.Club))
		return
	}

	// Finished events stay editable for staff corrections only.
	if at, perr := event.StartsAt(); perr == nil && at.Before(time.Now()) && !claims.IsStaff() {
		utils.RespondWithAppError(w, apperr.Forbidden("finished events are staff-editable only"))
		return
	}

	set["updated_at"] = time.Now().UTC()
	update := bson.M{"$set": set, "$inc": bson.M{"version": 1}}

	res, err := db.EventsCollection.UpdateOne(ctx, bson.M{"eventid": eventID}, update)
	if err != nil {
		utils.RespondWithAppError(w, apperr.Storage("update event", err))
		return
	}
	if res.MatchedCount == 0 {
		utils.RespondWithAppError(w, apperr.NotFound("event"))
		return
	}

	var updated models.Event
	if err := db.EventsCollection.FindOne(ctx, bson.M{"eventid": eventID}).Decode(&updated); err != nil {
		utils.RespondWithAppError(w, apperr.Storage("reload event", err))
		return
	}

	go mq.Emit(globals.Ctx, "event-updated", mq.Dispatch{
		Type:    "event_updated",
		Title:   updated.Title,
		EventID: eventID,
	})

	updated.Decorate(claims.Login, time.Now())
	utils.RespondWithJSON(w, http.StatusOK, updated)
}

// DeleteEvent handles DELETE /events/:id. Hard delete; participants are not
// notified (matches the create/delete asymmetry of the product).
func DeleteEvent(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	eventID := ps.ByName("eventid")
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		utils.RespondWithAppError(w, apperr.Unauthorized("missing token"))
		return
	}

	ctx, cancel := db.Ctx(r.Context())
	defer cancel()

	var event models.Event
	err := db.EventsCollection.FindOne(ctx, bson.M{"eventid": eventID}).Decode(&event)
	if errors.Is(err, mongo.ErrNoDocuments) {
		utils.RespondWithAppError(w, apperr.NotFound("event"))
		return
	}
	if err != nil {
		utils.RespondWithAppError(w, apperr.Storage("get event", err))
		return
	}

	if !claims.CanManageClub(event.Club) {
		utils.RespondWithAppError(w, apperr.Forbidden("not a manager of "+event.Club))
		return
	}

	if _, err := db.EventsCollection.DeleteOne(ctx, bson.M{"eventid": eventID}); err != nil {
		utils.RespondWithAppError(w, apperr.Storage("delete event", err))
		return
	}

	go mq.Emit(globals.Ctx, "event-deleted", mq.Dispatch{
		Type:    "event_deleted",
		EventID: eventID,
	})

	w.WriteHeader(http.StatusNoContent)
}
