package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/itsDongki/quicknotes/internal/devserver/deps"
	"github.com/itsDongki/quicknotes/internal/devserver/handlers"
)

func init() { Register(registerHealthz) }

func registerHealthz(r chi.Router, d deps.Deps) {
	r.Get("/healthz", handlers.Healthz(d))
}
