package models

import "time"

// Role values. ClubManagerNone marks a user who manages no club.
const (
	RoleStudent = "student"
	RoleStaff   = "staff"

	ClubManagerNone = "none"
)

type Notification struct {
	ID        string    `json:"id" bson:"id"`
	Type      string    `json:"type" bson:"type"`
	Title     string    `json:"title" bson:"title"`
	Message   string    `json:"message" bson:"message"`
	EventID   string    `json:"eventid,omitempty" bson:"eventid,omitempty"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	Read      bool      `json:"read" bson:"read"`
}

type User struct {
	Login         string         `json:"login" bson:"login"`
	Email         string         `json:"email" bson:"email"`
	Name          string         `json:"name,omitempty" bson:"name,omitempty"`
	FirstName     string         `json:"first_name,omitempty" bson:"first_name,omitempty"`
	LastName      string         `json:"last_name,omitempty" bson:"last_name,omitempty"`
	Avatar        string         `json:"avatar" bson:"avatar"`
	PasswordHash  string         `json:"-" bson:"password_hash"`
	Role          string         `json:"role" bson:"role"`
	ClubManager   string         `json:"clubManager" bson:"club_manager"`
	Register      int            `json:"register" bson:"register"`
	Attendance    int            `json:"attendance" bson:"attendance"`
	Notifications []Notification `json:"notifications" bson:"notifications"`
	Interests     []string       `json:"interests" bson:"interests"`
	CreatedAt     time.Time      `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at" bson:"updated_at"`
}

// IsStaff reports unrestricted mutation rights.
func (u *User) IsStaff() bool { return u.Role == RoleStaff }

// ManagesClub reports whether the user is the manager of club.
func (u *User) ManagesClub(club string) bool {
	return u.ClubManager != "" && u.ClubManager != ClubManagerNone && u.ClubManager == club
}

type Club struct {
	Name      string    `json:"name" bson:"name"`
	Managers  []string  `json:"managers" bson:"managers"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}
