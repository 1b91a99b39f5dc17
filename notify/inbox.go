package notify

import (
	"encoding/json"
	"errors"
	"net/http"

	"clubhive/apperr"
	"clubhive/db"
	"clubhive/middleware"
	"clubhive/models"
	"clubhive/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// GetNotifications returns the caller's inbox.
func GetNotifications(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		utils.RespondWithAppError(w, apperr.Unauthorized("missing token"))
		return
	}

	ctx, cancel := db.Ctx(r.Context())
	defer cancel()

	var user models.User
	err := db.UserCollection.FindOne(ctx, bson.M{"login": claims.Login}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		utils.RespondWithAppError(w, apperr.NotFound("user"))
		return
	}
	if err != nil {
		utils.RespondWithAppError(w, apperr.Storage("get notifications", err))
		return
	}

	if user.Notifications == nil {
		user.Notifications = []models.Notification{}
	}
	utils.RespondWithJSON(w, http.StatusOK, user.Notifications)
}

// MarkRead flips one notification to read.
func MarkRead(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		utils.RespondWithAppError(w, apperr.Unauthorized("missing token"))
		return
	}

	var input struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.ID == "" {
		utils.RespondWithAppError(w, apperr.Validation("id", "required"))
		return
	}

	ctx, cancel := db.Ctx(r.Context())
	defer cancel()

	res, err := db.UserCollection.UpdateOne(ctx,
		bson.M{"login": claims.Login, "notifications.id": input.ID},
		bson.M{"$set": bson.M{"notifications.$.read": true}},
	)
	if err != nil {
		utils.RespondWithAppError(w, apperr.Storage("mark read", err))
		return
	}
	if res.MatchedCount == 0 {
		utils.RespondWithAppError(w, apperr.NotFound("notification"))
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "marked read"})
}

// MarkAllRead flips every notification to read. Idempotent: running it again
// matches the same user and rewrites the same values.
func MarkAllRead(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		utils.RespondWithAppError(w, apperr.Unauthorized("missing token"))
		return
	}

	ctx, cancel := db.Ctx(r.Context())
	defer cancel()

	_, err := db.UserCollection.UpdateOne(ctx,
		bson.M{"login": claims.Login},
		bson.M{"$set": bson.M{"notifications.$[].read": true}},
	)
	if err != nil {
		utils.RespondWithAppError(w, apperr.Storage("mark all read", err))
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "all marked read"})
}
