package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"clubhive/apperr"
	"clubhive/globals"
	"clubhive/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/julienschmidt/httprouter"
)

const (
	TokenTTL      = 2 * time.Hour
	RefreshWindow = 15 * time.Minute

	tokenCookie = "token"
)

// JWT claims
type Claims struct {
	Login       string `json:"login"`
	Role        string `json:"role"`
	ClubManager string `json:"clubManager"`
	jwt.RegisteredClaims
}

// IsStaff reports unrestricted mutation rights.
func (c *Claims) IsStaff() bool { return c.Role == "staff" }

// IsAdmin reports staff or any club-manager assignment.
func (c *Claims) IsAdmin() bool {
	return c.IsStaff() || (c.ClubManager != "" && c.ClubManager != "none")
}

// CanManageClub is the single capability predicate gating club-scoped
// mutations: staff always, otherwise only the matching club's manager.
func (c *Claims) CanManageClub(club string) bool {
	if c.IsStaff() {
		return true
	}
	return c.ClubManager != "" && c.ClubManager != "none" && c.ClubManager == club
}

// IssueToken signs a credential for the given identity triple.
func IssueToken(login, role, clubManager string, ttl time.Duration) (string, error) {
	claims := &Claims{
		Login:       login,
		Role:        role,
		ClubManager: clubManager,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   login,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(globals.JwtSecret)
}

// ExtractToken pulls the credential from the request, preferring
// cookie over bearer header over query parameter.
func ExtractToken(r *http.Request) string {
	if c, err := r.Cookie(tokenCookie); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return h[7:]
	}
	return r.URL.Query().Get(tokenCookie)
}

func parseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return globals.JwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, apperr.Unauthorized("invalid token")
	}
	return claims, nil
}

// NeedsRefresh reports whether a valid credential is close enough to expiry
// that a fresh one should ride back on the response.
func NeedsRefresh(claims *Claims, now time.Time) bool {
	if claims.ExpiresAt == nil {
		return false
	}
	return claims.ExpiresAt.Time.Sub(now) < RefreshWindow
}

func Authenticate(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		tokenString := ExtractToken(r)
		if tokenString == "" {
			utils.RespondWithAppError(w, apperr.Unauthorized("missing token"))
			return
		}

		claims, err := parseToken(tokenString)
		if err != nil {
			utils.RespondWithAppError(w, err)
			return
		}

		// Sliding renewal: reissue when the credential is near expiry.
		if NeedsRefresh(claims, time.Now()) {
			if fresh, err := IssueToken(claims.Login, claims.Role, claims.ClubManager, TokenTTL); err == nil {
				w.Header().Set("X-Refreshed-Token", fresh)
				http.SetCookie(w, &http.Cookie{
					Name:     tokenCookie,
					Value:    fresh,
					Path:     "/",
					HttpOnly: true,
				})
			}
		}

		ctx := context.WithValue(r.Context(), globals.LoginKey, claims.Login)
		ctx = context.WithValue(ctx, globals.RoleKey, claims.Role)
		ctx = context.WithValue(ctx, globals.ClubManagerKey, claims.ClubManager)
		next(w, r.WithContext(ctx), ps)
	}
}

// RequireAdmin gates mutating routes: staff or any club manager may pass.
// Club-scoped ownership is checked by the handler against the target event.
func RequireAdmin(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		claims := ClaimsFromContext(r.Context())
		if claims == nil {
			utils.RespondWithAppError(w, apperr.Unauthorized("missing token"))
			return
		}
		if !claims.IsAdmin() {
			utils.RespondWithAppError(w, apperr.Forbidden("staff or club manager required"))
			return
		}
		next(w, r, ps)
	}
}

// RequireStaff gates club-manager administration to staff only.
func RequireStaff(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		claims := ClaimsFromContext(r.Context())
		if claims == nil {
			utils.RespondWithAppError(w, apperr.Unauthorized("missing token"))
			return
		}
		if !claims.IsStaff() {
			utils.RespondWithAppError(w, apperr.Forbidden("staff required"))
			return
		}
		next(w, r, ps)
	}
}

// ClaimsFromContext rebuilds the identity triple stored by Authenticate.
func ClaimsFromContext(ctx context.Context) *Claims {
	login, ok := ctx.Value(globals.LoginKey).(string)
	if !ok || login == "" {
		return nil
	}
	role, _ := ctx.Value(globals.RoleKey).(string)
	clubManager, _ := ctx.Value(globals.ClubManagerKey).(string)
	return &Claims{Login: login, Role: role, ClubManager: clubManager}
}

// ValidateJWT verifies a raw credential string (websocket/query flows).
func ValidateJWT(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, apperr.Unauthorized("missing token")
	}
	return parseToken(tokenString)
}
