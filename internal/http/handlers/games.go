package handlers

import (
	"net/http"
	"os"

	"spades_server/internal/domain"

	"github.com/gin-gonic/gin"
)

type CreateGameRequest struct {
	Settings domain.Settings `json:"settings"`
}

// CreateGame validates the requested rule set and inserts the game. The
// caller joins over the websocket afterwards with the returned id.
func (h *Handler) CreateGame(c *gin.Context) {
	if _, ok := getUserID(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req CreateGameRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}
	settings, err := normalizeSettings(req.Settings)
	if err != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": err})
		return
	}

	g, createErr := h.Hub.CreateGame(c.Request.Context(), settings)
	if createErr != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create game"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"game": g})
}

// normalizeSettings fills defaults and rejects impossible rule combinations.
func normalizeSettings(s domain.Settings) (domain.Settings, string) {
	switch s.Mode {
	case "":
		s.Mode = domain.ModePartners
	case domain.ModePartners, domain.ModeSolo:
	default:
		return s, "unknown game mode"
	}

	switch s.BidType {
	case "":
		s.BidType = domain.BidRegular
	case domain.BidRegular, domain.BidWhiz, domain.BidMirror:
		if s.GimmickType != "" {
			return s, "gimmick_type requires bid_type GIMMICK"
		}
	case domain.BidGimmick:
		switch s.GimmickType {
		case domain.GimmickSuicide:
			if s.Mode != domain.ModePartners {
				return s, "suicide requires partners mode"
			}
		case domain.GimmickBid4OrNil, domain.GimmickBid3,
			domain.GimmickBidHearts, domain.GimmickCrazyAces:
		default:
			return s, "unknown gimmick_type"
		}
	default:
		return s, "unknown bid_type"
	}

	// Mirror fixes every bid, so nil settings have no effect; whiz allows
	// nil only through its own rule.
	if s.BidType == domain.BidMirror && (s.AllowNil || s.AllowBlindNil) {
		return s, "mirror games cannot allow nil"
	}
	if s.AllowBlindNil && !s.AllowNil {
		return s, "blind nil requires nil"
	}

	if s.MaxPoints == 0 {
		s.MaxPoints = 500
	}
	if s.MinPoints == 0 {
		s.MinPoints = -200
	}
	if s.MinPoints >= s.MaxPoints {
		return s, "min_points must be below max_points"
	}
	if s.MaxRounds < 0 {
		return s, "max_rounds cannot be negative"
	}
	return s, ""
}

// GetGame returns the durable view of a game: the row, its seats, and the
// per-round score lines.
func (h *Handler) GetGame(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	g, err := h.Store.Games.GetByID(ctx, id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "game not found"})
		return
	}
	seats, err := h.Store.Games.GetSeats(ctx, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load seats"})
		return
	}

	rounds, err := h.Store.Rounds.GetByGame(ctx, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load rounds"})
		return
	}
	type roundSummary struct {
		Number int                `json:"number"`
		Scores []domain.SideScore `json:"scores,omitempty"`
	}
	summaries := make([]roundSummary, 0, len(rounds))
	for _, round := range rounds {
		score, err := h.Store.Rounds.GetScores(ctx, round.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load scores"})
			return
		}
		summaries = append(summaries, roundSummary{Number: round.Number, Scores: score.Sides})
	}

	c.JSON(http.StatusOK, gin.H{
		"game":   g,
		"seats":  seats,
		"rounds": summaries,
	})
}

// DeleteGame force-removes a game and its dependent rows. Guarded by the
// admin token; meant for operators unsticking a broken table.
func (h *Handler) DeleteGame(c *gin.Context) {
	adminToken := os.Getenv("ADMIN_TOKEN")
	if adminToken == "" || c.GetHeader("X-Admin-Token") != adminToken {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	id := c.Param("id")
	ctx := c.Request.Context()
	botIDs, err := h.Store.Games.BotSeatUserIDs(ctx, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to inspect game"})
		return
	}
	if err := h.Store.Games.ForceDelete(ctx, id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete game"})
		return
	}
	if err := h.Store.Users.DeleteBots(ctx, botIDs); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "game deleted, bot cleanup failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": id, "bots_removed": len(botIDs)})
}
