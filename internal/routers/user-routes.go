package routers

import (
	"github.com/go-chi/chi/v5"
	"github.com/tipurk/neechat/internal/handlers"
	user_handler "github.com/tipurk/neechat/internal/handlers/user-handler"
	"github.com/tipurk/neechat/internal/middleware"
)

func UserRouter(r chi.Router, deps Deps) {
	userHandler := user_handler.NewUserHandler(deps.State, deps.Tracker)

	r.Post("/api/v1/users", handlers.WrapHandler(userHandler.Register))
	r.Post("/api/v1/users/login", handlers.WrapHandler(userHandler.Login))

	r.Group(func(protected chi.Router) {
		protected.Use(middleware.JWTAuth(deps.State.JwtSecret.Public))
		protected.Get("/api/v1/users", handlers.WrapHandler(userHandler.ListUsers))
		protected.Get("/api/v1/users/me", handlers.WrapHandler(userHandler.GetProfile))
		protected.Put("/api/v1/users/me", handlers.WrapHandler(userHandler.UpdateProfile))
		protected.Get("/api/v1/users/{userId}/online", handlers.WrapHandler(userHandler.OnlineStatus))
	})
}
