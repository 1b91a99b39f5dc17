package events

import (
	"errors"
	"net/http"
	"time"

	"clubhive/apperr"
	"clubhive/db"
	"clubhive/middleware"
	"clubhive/models"
	"clubhive/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GetEvents returns every event, newest first, with the computed counters
// and caller-relative is_participant. Optional page/limit pagination;
// without a limit the full list comes back.
func GetEvents(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	skip, limit := parsePagination(r.URL.Query())

	caller := ""
	if claims := middleware.ClaimsFromContext(r.Context()); claims != nil {
		caller = claims.Login
	}

	ctx, cancel := db.Ctx(r.Context())
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts = opts.SetSkip(skip).SetLimit(limit)
	}

	cursor, err := db.EventsCollection.Find(ctx, bson.M{}, opts)
	if err != nil {
		utils.RespondWithAppError(w, apperr.Storage("list events", err))
		return
	}
	defer cursor.Close(ctx)

	events := []models.Event{}
	if err = cursor.All(ctx, &events); err != nil {
		utils.RespondWithAppError(w, apperr.Storage("decode events", err))
		return
	}

	now := time.Now()
	for i := range events {
		events[i].Decorate(caller, now)
	}

	utils.RespondWithJSON(w, http.StatusOK, events)
}

// GetEvent returns a single event by id, 404 when absent.
func GetEvent(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("eventid")

	caller := ""
	if claims := middleware.ClaimsFromContext(r.Context()); claims != nil {
		caller = claims.Login
	}

	ctx, cancel := db.Ctx(r.Context())
	defer cancel()

	var event models.Event
	err := db.EventsCollection.FindOne(ctx, bson.M{"eventid": id}).Decode(&event)
	if errors.Is(err, mongo.ErrNoDocuments) {
		utils.RespondWithAppError(w, apperr.NotFound("event"))
		return
	}
	if err != nil {
		utils.RespondWithAppError(w, apperr.Storage("get event", err))
		return
	}

	event.Decorate(caller, time.Now())
	utils.RespondWithJSON(w, http.StatusOK, event)
}

// pastEvent carries the caller's own feedback alongside the event.
type pastEvent struct {
	models.Event
	MyStars    int    `json:"my_stars"`
	MyFeedback string `json:"my_feedback,omitempty"`
}

// GetPastEvents returns the caller's attended events strictly before today,
// newest first, each annotated with the caller's own rating and comment.
func GetPastEvents(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		utils.RespondWithAppError(w, apperr.Unauthorized("missing token"))
		return
	}

	today := time.Now().Format(models.DateLayout)

	ctx, cancel := db.Ctx(r.Context())
	defer cancel()

	cursor, err := db.EventsCollection.Find(ctx, bson.M{
		"date":               bson.M{"$lt": today},
		"participants.login": claims.Login,
	}, &options.FindOptions{
		Sort: bson.D{{Key: "date", Value: -1}},
	})
	if err != nil {
		utils.RespondWithAppError(w, apperr.Storage("list past events", err))
		return
	}
	defer cursor.Close(ctx)

	var events []models.Event
	if err = cursor.All(ctx, &events); err != nil {
		utils.RespondWithAppError(w, apperr.Storage("decode past events", err))
		return
	}

	now := time.Now()
	out := []pastEvent{}
	for i := range events {
		events[i].Decorate(claims.Login, now)
		pe := pastEvent{Event: events[i]}
		if f, ok := findFeedback(events[i].Feedbacks, claims.Login); ok {
			pe.MyStars = f.Stars
			pe.MyFeedback = f.Comment
		}
		out = append(out, pe)
	}

	utils.RespondWithJSON(w, http.StatusOK, out)
}
