package auth

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"clubhive/apperr"
	"clubhive/db"
	"clubhive/middleware"
	"clubhive/models"
	"clubhive/rdx"
	"clubhive/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// Login handles POST /auth/login: verifies the password and issues a signed
// credential carrying the (login, role, clubManager) triple.
func Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input struct {
		Login    string `json:"login"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondWithAppError(w, apperr.Validation("body", "invalid JSON"))
		return
	}
	if input.Login == "" || input.Password == "" {
		utils.RespondWithAppError(w, apperr.Validation("login/password", "required"))
		return
	}

	ctx, cancel := db.Ctx(r.Context())
	defer cancel()

	var user models.User
	err := db.UserCollection.FindOne(ctx, bson.M{"login": input.Login}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		utils.RespondWithAppError(w, apperr.Unauthorized("invalid login or password"))
		return
	}
	if err != nil {
		utils.RespondWithAppError(w, apperr.Storage("find user", err))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		utils.RespondWithAppError(w, apperr.Unauthorized("invalid login or password"))
		return
	}

	token, err := middleware.IssueToken(user.Login, user.Role, user.ClubManager, middleware.TokenTTL)
	if err != nil {
		utils.RespondWithAppError(w, apperr.Storage("sign token", err))
		return
	}

	if err := rdx.RdxSet("auth:token:"+user.Login, token, middleware.TokenTTL); err != nil {
		log.Printf("Redis token storage failed: %v", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		HttpOnly: true,
	})
	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"token": token,
		"login": user.Login,
		"role":  user.Role,
	})
}

// Logout handles POST /auth/logout: invalidates the server-side session and
// clears the cookie.
func Logout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		utils.RespondWithAppError(w, apperr.Unauthorized("missing token"))
		return
	}

	if err := rdx.RdxDel("auth:token:" + claims.Login); err != nil {
		log.Printf("Failed to invalidate session for %s: %v", claims.Login, err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Logged out successfully"})
}

// RefreshToken handles POST /auth/token/refresh: reissues a credential for a
// still-valid session without waiting for the renewal window.
func RefreshToken(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		utils.RespondWithAppError(w, apperr.Unauthorized("missing token"))
		return
	}

	token, err := middleware.IssueToken(claims.Login, claims.Role, claims.ClubManager, middleware.TokenTTL)
	if err != nil {
		utils.RespondWithAppError(w, apperr.Storage("sign token", err))
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"token": token})
}
