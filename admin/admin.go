// Package admin covers the club-manager lifecycle: staff assign and revoke
// a user's single club, and read per-club dashboard data.
package admin

import (
	"context"
	"encoding/json"
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
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ensureClub lazily creates the club document on first access.
func ensureClub(ctx context.Context, name string) error {
	_, err := db.ClubsCollection.UpdateOne(ctx,
		bson.M{"name": name},
		bson.M{"$setOnInsert": bson.M{"name": name, "managers": []string{}, "created_at": time.Now().UTC()}},
		options.Update().SetUpsert(true),
	)
	return err
}

// AddClubManager handles POST /admin/addClubManager. A user manages at most
// one club; assigning a second overwrites the first.
func AddClubManager(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input struct {
		Login string `json:"login"`
		Club  string `json:"club"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.Login == "" || input.Club == "" {
		utils.RespondWithAppError(w, apperr.Validation("login/club", "required"))
		return
	}

	ctx, cancel := db.Ctx(r.Context())
	defer cancel()

	var user models.User
	err := db.UserCollection.FindOne(ctx, bson.M{"login": input.Login}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		utils.RespondWithAppError(w, apperr.NotFound("user"))
		return
	}
	if err != nil {
		utils.RespondWithAppError(w, apperr.Storage("get user", err))
		return
	}

	// Overwrite semantics: detach from the previous club first.
	if prev := user.ClubManager; prev != "" && prev != models.ClubManagerNone && prev != input.Club {
		if _, err := db.ClubsCollection.UpdateOne(ctx,
			bson.M{"name": prev},
			bson.M{"$pull": bson.M{"managers": input.Login}},
		); err != nil {
			utils.RespondWithAppError(w, apperr.Storage("detach previous club", err))
			return
		}
	}

	if err := ensureClub(ctx, input.Club); err != nil {
		utils.RespondWithAppError(w, apperr.Storage("ensure club", err))
		return
	}
	if _, err := db.ClubsCollection.UpdateOne(ctx,
		bson.M{"name": input.Club},
		bson.M{"$addToSet": bson.M{"managers": input.Login}},
	); err != nil {
		utils.RespondWithAppError(w, apperr.Storage("attach club", err))
		return
	}
	if _, err := db.UserCollection.UpdateOne(ctx,
		bson.M{"login": input.Login},
		bson.M{"$set": bson.M{"club_manager": input.Club, "updated_at": time.Now().UTC()}},
	); err != nil {
		utils.RespondWithAppError(w, apperr.Storage("assign manager", err))
		return
	}

	n := notify.NewNotification("club_manager", input.Club, "You are now a manager of "+input.Club, "")
	if err := notify.Notify(context.Background(), []string{input.Login}, n); err != nil {
		log.Printf("Manager notification for %s failed: %v", input.Login, err)
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"login": input.Login, "club": input.Club})
}

// RemoveClubManager handles POST /admin/removeClubManager.
func RemoveClubManager(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input struct {
		Login string `json:"login"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.Login == "" {
		utils.RespondWithAppError(w, apperr.Validation("login", "required"))
		return
	}

	ctx, cancel := db.Ctx(r.Context())
	defer cancel()

	var user models.User
	err := db.UserCollection.FindOne(ctx, bson.M{"login": input.Login}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		utils.RespondWithAppError(w, apperr.NotFound("user"))
		return
	}
	if err != nil {
		utils.RespondWithAppError(w, apperr.Storage("get user", err))
		return
	}

	if club := user.ClubManager; club != "" && club != models.ClubManagerNone {
		if _, err := db.ClubsCollection.UpdateOne(ctx,
			bson.M{"name": club},
			bson.M{"$pull": bson.M{"managers": input.Login}},
		); err != nil {
			utils.RespondWithAppError(w, apperr.Storage("detach club", err))
			return
		}
	}

	if _, err := db.UserCollection.UpdateOne(ctx,
		bson.M{"login": input.Login},
		bson.M{"$set": bson.M{"club_manager": models.ClubManagerNone, "updated_at": time.Now().UTC()}},
	); err != nil {
		utils.RespondWithAppError(w, apperr.Storage("revoke manager", err))
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"login": input.Login, "club": models.ClubManagerNone})
}

// GetClubInfo handles POST /admin/getClubInfo: the club document (lazily
// created), its manager logins, and its events.
func GetClubInfo(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input struct {
		Club string `json:"club"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.Club == "" {
		utils.RespondWithAppError(w, apperr.Validation("club", "required"))
		return
	}

	ctx, cancel := db.Ctx(r.Context())
	defer cancel()

	if err := ensureClub(ctx, input.Club); err != nil {
		utils.RespondWithAppError(w, apperr.Storage("ensure club", err))
		return
	}

	var club models.Club
	if err := db.ClubsCollection.FindOne(ctx, bson.M{"name": input.Club}).Decode(&club); err != nil {
		utils.RespondWithAppError(w, apperr.Storage("get club", err))
		return
	}

	cursor, err := db.EventsCollection.Find(ctx, bson.M{"club": input.Club},
		options.Find().SetSort(bson.D{{Key: "date", Value: -1}}))
	if err != nil {
		utils.RespondWithAppError(w, apperr.Storage("list club events", err))
		return
	}
	defer cursor.Close(ctx)

	events := []models.Event{}
	if err := cursor.All(ctx, &events); err != nil {
		utils.RespondWithAppError(w, apperr.Storage("decode club events", err))
		return
	}

	caller := ""
	if claims := middleware.ClaimsFromContext(r.Context()); claims != nil {
		caller = claims.Login
	}
	now := time.Now()
	for i := range events {
		events[i].Decorate(caller, now)
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"club":   club,
		"events": events,
	})
}
