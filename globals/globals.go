package globals

import (
	"context"
	"os"
)

var JwtSecret = jwtSecretFromEnv()

func jwtSecretFromEnv() []byte {
	if s := os.Getenv("JWT_SECRET"); s != "" {
		return []byte(s)
	}
	return []byte("dev_secret_change_me")
}

// Context keys
type ContextKey string

const LoginKey ContextKey = "login"
const RoleKey ContextKey = "role"
const ClubManagerKey ContextKey = "clubManager"

var Ctx = context.Background()
