package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/itsDongki/quicknotes/internal/devserver/deps"
	"github.com/itsDongki/quicknotes/internal/devserver/handlers"
	"github.com/itsDongki/quicknotes/internal/devserver/mw"
)

func init() { Register(registerNotes) }

func registerNotes(r chi.Router, d deps.Deps) {
	r.Route("/rest/v1/notes", func(r chi.Router) {
		r.Use(mw.Auth(d.JWTSecret, d.Logger))
		r.Get("/", handlers.ListNotes(d))
		r.Post("/", handlers.CreateNote(d))
		r.Patch("/", handlers.UpdateNotes(d))
		r.Delete("/", handlers.DeleteNotes(d))
	})
}
