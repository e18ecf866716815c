package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/itsDongki/quicknotes/internal/devserver/deps"
	"github.com/itsDongki/quicknotes/internal/devserver/handlers"
)

func init() { Register(registerAuth) }

func registerAuth(r chi.Router, d deps.Deps) {
	r.Post("/auth/v1/token", handlers.Token(d))
}
