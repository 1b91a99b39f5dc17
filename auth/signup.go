package auth

import (
	"encoding/json"
	"net/http"
	"time"

	"clubhive/apperr"
	"clubhive/db"
	"clubhive/models"
	"clubhive/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// Signup handles POST /auth/register: provisions a user document with the
// default student role and empty inbox/interest sets.
func Signup(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input struct {
		Login    string `json:"login"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondWithAppError(w, apperr.Validation("body", "invalid JSON"))
		return
	}
	if input.Login == "" || input.Email == "" || input.Password == "" {
		utils.RespondWithAppError(w, apperr.Validation("login/email/password", "required"))
		return
	}

	ctx, cancel := db.Ctx(r.Context())
	defer cancel()

	err := db.UserCollection.FindOne(ctx, bson.M{"login": input.Login}).Err()
	if err == nil {
		utils.RespondWithAppError(w, apperr.Validation("login", "already taken"))
		return
	}
	if err != mongo.ErrNoDocuments {
		utils.RespondWithAppError(w, apperr.Storage("check login", err))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.RespondWithAppError(w, apperr.Storage("hash password", err))
		return
	}

	now := time.Now().UTC()
	user := models.User{
		Login:         input.Login,
		Email:         input.Email,
		Name:          input.Name,
		PasswordHash:  string(hash),
		Role:          models.RoleStudent,
		ClubManager:   models.ClubManagerNone,
		Notifications: []models.Notification{},
		Interests:     []string{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if _, err := db.UserCollection.InsertOne(ctx, user); err != nil {
		utils.RespondWithAppError(w, apperr.Storage("insert user", err))
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"login": user.Login})
}
