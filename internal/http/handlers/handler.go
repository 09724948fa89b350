package handlers

import (
	"spades_server/internal/persist"
	"spades_server/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Handler struct {
	DB    *pgxpool.Pool
	Store *persist.Store
	Hub   *ws.Hub
}

func NewHandler(db *pgxpool.Pool, store *persist.Store, hub *ws.Hub) *Handler {
	return &Handler{
		DB:    db,
		Store: store,
		Hub:   hub,
	}
}

// getUserID pulls the authenticated user id set by the JWT middleware.
func getUserID(c *gin.Context) (int64, bool) {
	uidVal, ok := c.Get("user_id")
	if !ok {
		return 0, false
	}
	switch v := uidVal.(type) {
	case int64:
		return v, true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}
