package api

import (
	"github.com/mvillarin/campus-lostfound/app/categories"
	"github.com/mvillarin/campus-lostfound/app/claims"
	"github.com/mvillarin/campus-lostfound/app/database"
	"github.com/mvillarin/campus-lostfound/app/matching"
	"github.com/mvillarin/campus-lostfound/app/notification"
	"github.com/mvillarin/campus-lostfound/app/realtime"
	"github.com/mvillarin/campus-lostfound/app/uploads"
)

type Handler struct {
	users    *database.UserRepository
	items    *database.ItemRepository
	engine   *matching.Engine
	fanout   *notification.Fanout
	workflow *claims.Workflow
	hub      *realtime.Hub
	store    *uploads.Store
	registry *categories.Registry
}

func NewHandler(users *database.UserRepository, items *database.ItemRepository,
	engine *matching.Engine, fanout *notification.Fanout, workflow *claims.Workflow,
	hub *realtime.Hub, store *uploads.Store, registry *categories.Registry) *Handler {
	return &Handler{
		users:    users,
		items:    items,
		engine:   engine,
		fanout:   fanout,
		workflow: workflow,
		hub:      hub,
		store:    store,
		registry: registry,
	}
}
