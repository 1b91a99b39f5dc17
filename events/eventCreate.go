package events

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"clubhive/apperr"
	"clubhive/db"
	"clubhive/globals"
	"clubhive/middleware"
	"clubhive/models"
	"clubhive/mq"
	"clubhive/notify"
	"clubhive/utils"

	"github.com/julienschmidt/httprouter"
)

// CreateEvent handles POST /events. The caller must be staff or the manager
// of the owning club. On success every other user is notified.
func CreateEvent(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		utils.RespondWithAppError(w, apperr.Unauthorized("missing token"))
		return
	}

	var event models.Event
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		utils.RespondWithAppError(w, apperr.Validation("body", "invalid JSON"))
		return
	}

	if err := validateNewEvent(&event); err != nil {
		utils.RespondWithAppError(w, err)
		return
	}

	// Non-staff managers may only create events for their own club.
	if event.Club == "" && !claims.IsStaff() {
		event.Club = claims.ClubManager
	}
	if !claims.CanManageClub(event.Club) {
		utils.RespondWithAppError(w, apperr.Forbidden("not a manager of "+event.Club))
		return
	}

	event.EventID = utils.GenerateID(14)
	event.CreatedBy = claims.Login
	event.CreatedAt = time.Now().UTC()
	event.UpdatedAt = event.CreatedAt
	event.Participants = []models.Participant{}
	event.Feedbacks = []models.FeedbackEntry{}
	event.Version = 0
	if event.Category == nil {
		event.Category = []string{}
	}

	ctx, cancel := db.Ctx(r.Context())
	defer cancel()

	if _, err := db.EventsCollection.InsertOne(ctx, event); err != nil {
		utils.RespondWithAppError(w, apperr.Storage("insert event", err))
		return
	}

	// Secondary effect: fan-out must never fail the committed create.
	n := notify.NewNotification("new_event", event.Title, "A new event has been scheduled: "+event.Title, event.EventID)
	var warning string
	if err := notify.Broadcast(r.Context(), n, claims.Login); err != nil {
		log.Printf("Fan-out for event %s incomplete: %v", event.EventID, err)
		warning = err.Error()
	}

	go mq.Emit(globals.Ctx, "event-created", mq.Dispatch{
		Type:    "new_event",
		Title:   event.Title,
		EventID: event.EventID,
	})

	event.Decorate(claims.Login, time.Now())
	resp := utils.M{"event": event}
	if warning != "" {
		resp["warning"] = warning
	}
	utils.RespondWithJSON(w, http.StatusCreated, resp)
}
