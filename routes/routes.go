package routes

import (
	"net/http"

	"clubhive/admin"
	"clubhive/auth"
	"clubhive/events"
	"clubhive/feedback"
	"clubhive/middleware"
	"clubhive/notify"
	"clubhive/ratelim"
	"clubhive/users"

	"github.com/julienschmidt/httprouter"
)

func AddAuthRoutes(router *httprouter.Router) {
	router.POST("/api/auth/register", ratelim.RateLimit(auth.Signup))
	router.POST("/api/auth/login", ratelim.RateLimit(auth.Login))
	router.POST("/api/auth/logout", middleware.Authenticate(auth.Logout))
	router.POST("/api/auth/token/refresh", ratelim.RateLimit(middleware.Authenticate(auth.RefreshToken)))
}

func AddEventsRoutes(router *httprouter.Router) {
	router.GET("/api/events", middleware.Authenticate(events.GetEvents))
	// httprouter cannot mix the static "past" segment with the :eventid
	// wildcard, so one route dispatches both.
	router.GET("/api/events/:eventid", middleware.Authenticate(
		func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			if ps.ByName("eventid") == "past" {
				events.GetPastEvents(w, r, ps)
				return
			}
			events.GetEvent(w, r, ps)
		}))
	router.POST("/api/events", middleware.Authenticate(middleware.RequireAdmin(events.CreateEvent)))
	router.PUT("/api/events/:eventid", middleware.Authenticate(middleware.RequireAdmin(events.EditEvent)))
	router.DELETE("/api/events/:eventid", middleware.Authenticate(middleware.RequireAdmin(events.DeleteEvent)))
	router.POST("/api/events/:eventid/register", ratelim.RateLimit(middleware.Authenticate(events.RegisterToggle)))
	router.POST("/api/events/:eventid/rate", middleware.Authenticate(feedback.RateEvent))
}

func AddUserRoutes(router *httprouter.Router) {
	router.GET("/api/users", middleware.Authenticate(users.GetProfile))
	router.POST("/api/users/interests", middleware.Authenticate(users.ToggleInterest))
	router.GET("/api/users/notifications", middleware.Authenticate(notify.GetNotifications))
	router.POST("/api/users/notification/read", middleware.Authenticate(notify.MarkRead))
	router.POST("/api/users/notification/readAll", middleware.Authenticate(notify.MarkAllRead))
}

func AddAdminRoutes(router *httprouter.Router) {
	router.POST("/api/admin/addClubManager", middleware.Authenticate(middleware.RequireStaff(admin.AddClubManager)))
	router.POST("/api/admin/removeClubManager", middleware.Authenticate(middleware.RequireStaff(admin.RemoveClubManager)))
	router.POST("/api/admin/getClubInfo", middleware.Authenticate(middleware.RequireStaff(admin.GetClubInfo)))
}
