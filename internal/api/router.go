/**
 * @description
 * The small HTTP surface the hosting platform needs: a health endpoint it can
 * probe, which doubles as the target of the bot's own keep-alive self-ping.
 */
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates the health-check router.
func NewRouter() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Matu Channel bot is alive"))
	})

	return r
}
