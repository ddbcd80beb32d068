package server

import (
	"context"
	"log"
	"net/http"
	"runtime/debug"

	"github.com/gorilla/mux"

	"newsbrief/internal/application"
	"newsbrief/internal/transport/middleware"
)

// NewRouter builds the HTTP routing tree for a wired application. The
// /api subtree sits behind Bearer auth; the health endpoint does not.
func NewRouter(app *application.Application) http.Handler {
	r := mux.NewRouter()

	r.Handle("/health", app.HealthHandler).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.Auth(app.Config.AdminAuthToken))

	api.Handle("/process", app.ProcessHandler).Methods("POST")

	api.HandleFunc("/articles", app.ArticlesHandler.List).Methods("GET")
	api.HandleFunc("/articles/{slug}", app.ArticlesHandler.Get).Methods("GET")
	api.HandleFunc("/articles/{slug}/visibility", app.ArticlesHandler.SetVisibility).Methods("POST")
	api.HandleFunc("/articles/{slug}", app.ArticlesHandler.Delete).Methods("DELETE")

	api.HandleFunc("/categories", app.CategoriesHandler.List).Methods("GET")
	api.HandleFunc("/categories/suggest", app.CategoriesHandler.Suggest).Methods("POST")
	api.HandleFunc("/categories/merge", app.CategoriesHandler.Merge).Methods("POST")

	api.Handle("/stats", app.StatsHandler).Methods("GET")

	return r
}

// CreateHandler creates the main HTTP handler for the application
func CreateHandler(ctx context.Context) (http.Handler, func(), error) {
	app, err := application.New(ctx)
	if err != nil {
		log.Printf("Error creating application: %v\nStack:\n%s", err, debug.Stack())
		return nil, nil, err
	}

	cleanup := func() {
		app.Close()
	}

	return NewRouter(app), cleanup, nil
}

// HandleRequest handles a single HTTP request (for Cloud Functions)
func HandleRequest(w http.ResponseWriter, r *http.Request) {
	handler, cleanup, err := CreateHandler(r.Context())
	if err != nil {
		log.Printf("Failed to create handler: %v\nStack:\n%s", err, debug.Stack())
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	defer cleanup()

	handler.ServeHTTP(w, r)
}
