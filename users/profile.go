package users

import (
	"encoding/json"
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
)

// GetProfile handles GET /users: the caller's own profile plus an unread
// notification count.
func GetProfile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
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
		utils.RespondWithAppError(w, apperr.Storage("get user", err))
		return
	}

	unread := 0
	for _, n := range user.Notifications {
		if !n.Read {
			unread++
		}
	}
	if user.Interests == nil {
		user.Interests = []string{}
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"user":   user,
		"unread": unread,
	})
}

// ToggleInterest handles POST /users/interests: set-membership toggle on the
// caller's interest topics.
func ToggleInterest(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		utils.RespondWithAppError(w, apperr.Unauthorized("missing token"))
		return
	}

	var input struct {
		Topic string `json:"topic"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.Topic == "" {
		utils.RespondWithAppError(w, apperr.Validation("topic", "required"))
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
		utils.RespondWithAppError(w, apperr.Storage("get user", err))
		return
	}

	var update bson.M
	added := true
	if utils.Contains(user.Interests, input.Topic) {
		update = bson.M{"$pull": bson.M{"interests": input.Topic}}
		added = false
	} else {
		update = bson.M{"$addToSet": bson.M{"interests": input.Topic}}
	}
	update["$set"] = bson.M{"updated_at": time.Now().UTC()}

	if _, err := db.UserCollection.UpdateOne(ctx, bson.M{"login": claims.Login}, update); err != nil {
		utils.RespondWithAppError(w, apperr.Storage("toggle interest", err))
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"topic": input.Topic, "added": added})
}
