// Package router sets up all HTTP routes and middleware chains for the
// SpruceUp server. It organizes routes into public and admin groups
// with appropriate middleware stacks.
package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"spruceup/internal/handlers"
	"spruceup/internal/middleware"
	"spruceup/internal/session"
)

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(sessionStore *session.Store, admin *handlers.Admin, auth *handlers.Auth, public *handlers.Public) chi.Router {
	r := chi.NewRouter()

	// Global middleware — applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.LoadSession(sessionStore))

	// Health check — no auth, no CSRF.
	r.Get("/health", healthHandler)

	// Rate limiters for the abuse-prone endpoints.
	loginLimiter := middleware.NewRateLimiter(10, time.Minute)
	contactLimiter := middleware.NewRateLimiter(5, time.Minute)

	// Public JSON API.
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Visitor)

		r.Get("/home", public.Home)
		r.Get("/posts", public.Feed)
		r.Get("/feed", public.Feed)
		r.Get("/feed/{slugs}", public.Feed)
		r.Get("/posts/{id}", public.GetPost)
		r.Get("/categories", public.ListCategories)
		r.Get("/reading", public.Reading)
		r.Post("/reading", public.MarkRead)

		r.Post("/functions/views", public.AddView)
		r.With(contactLimiter.Middleware).Post("/functions/send-email", public.SendEmail)
		r.With(contactLimiter.Middleware).Post("/newsletter", public.Subscribe)
	})

	// Admin API — requires authentication and CSRF protection.
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.CSRF)

		// Auth endpoints — accessible without a session.
		r.With(loginLimiter.Middleware).Post("/login", auth.Login)
		r.Post("/logout", auth.Logout)

		// 2FA — requires auth but NOT completed 2FA.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Post("/2fa/setup", auth.TwoFASetup)
			r.Post("/2fa/confirm", auth.TwoFAConfirm)
			r.Post("/2fa/verify", auth.TwoFAVerify)
		})

		// Authenticated + 2FA-verified admin area.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Use(middleware.Require2FA)

			r.Get("/dashboard", admin.Dashboard)

			r.Route("/posts", func(r chi.Router) {
				r.Post("/", admin.CreatePost)
				r.Put("/{id}", admin.UpdatePost)
				r.Delete("/{id}", admin.DeletePost)
			})

			r.Route("/categories", func(r chi.Router) {
				r.Post("/", admin.CreateCategory)
				r.Put("/{id}", admin.UpdateCategory)
				r.Delete("/{id}", admin.DeleteCategory)
			})

			r.Post("/images", admin.UploadImage)

			r.Get("/slider", admin.GetSlider)
			r.Put("/slider", admin.SetSlider)
			r.Get("/menu", admin.GetMenu)
			r.Put("/menu", admin.SetMenu)

			// Counter repair — admin only.
			r.With(middleware.RequireAdmin).Post("/reconcile", admin.Reconcile)
		})
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
