package main

import (
	"log"
	"net/http"
	"os"

	"green-roots/internal/db"
	"green-roots/internal/handlers"
	"green-roots/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; real deployments set the variables directly.
	_ = godotenv.Load()

	database, err := db.New()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	sessionSecret := os.Getenv("SESSION_SECRET")
	if sessionSecret == "" {
		sessionSecret = "default-secret-key-change-in-production"
	}

	store := sessions.NewCookieStore([]byte(sessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		Secure:   false,
		SameSite: http.SameSiteLaxMode,
	}

	h := handlers.New(database, store)

	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir("static"))))

	r.Get("/", h.Home)
	r.Get("/register", h.RegisterPage)
	r.Post("/register", h.RegisterSubmit)
	r.Get("/login", h.LoginPage)
	r.Post("/login", h.LoginSubmit)
	r.Get("/logout", h.Logout)

	r.Get("/leaderboard", h.LeaderboardPage)
	r.Get("/events", h.EventsPage)

	r.Get("/api/leaderboard", h.APILeaderboard)
	r.Get("/api/sites", h.APISites)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(store))
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir("uploads"))))
		r.Get("/submit", h.SubmitPage)
		r.Post("/submit", h.SubmitTree)
		r.Get("/submissions", h.MySubmissions)
		r.Get("/rewards", h.RewardsPage)
		r.Post("/rewards/redeem", h.RedeemSubmit)
		r.Post("/events/rsvp", h.RSVPSubmit)
		r.Get("/feedback", h.FeedbackPage)
		r.Post("/feedback", h.FeedbackSubmit)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(store, "validator", "admin"))
		r.Get("/review", h.ReviewQueue)
		r.Post("/review/{id}", h.ReviewSubmit)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(store, "admin"))
		r.Get("/admin/sites", h.SitesPage)
		r.Post("/admin/sites", h.SiteSubmit)
		r.Post("/admin/events", h.EventSubmit)
		r.Get("/admin/feedback", h.FeedbackList)
		r.Post("/admin/promote", h.PromoteValidator)
	})

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = "0.0.0.0:5000"
	}

	log.Printf("Server starting on http://%s", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
