package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/websocket"

	"spades_server/internal/db"
	"spades_server/internal/domain"
	"spades_server/internal/repository"
	"spades_server/internal/service"
	wsapi "spades_server/internal/ws"
)

// Connects one human client to a fresh game, fills the other seats with
// bots and watches the table run until the first card is played. Needs a
// server already listening on APP_PORT.
func main() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL not set")
	}
	if os.Getenv("JWT_SECRET") == "" {
		log.Fatal("JWT_SECRET not set")
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	pool := db.Connect(dsn)
	defer pool.Close()

	ur := repository.NewUserRepository(pool)
	ctx := context.Background()

	u, err := ur.GetByUsername(ctx, "smoke")
	if err != nil {
		u = &domain.User{Username: "smoke"}
		if err := ur.Create(ctx, u); err != nil {
			log.Fatalf("create user: %v", err)
		}
	}

	service.InitJWT()
	token, err := service.GenerateJWT(u.ID)
	if err != nil {
		log.Fatalf("gen token: %v", err)
	}

	// create a game over the REST API
	body := bytes.NewBufferString(`{"settings":{"mode":"PARTNERS","bid_type":"REGULAR","allow_nil":true}}`)
	req, err := http.NewRequest(http.MethodPost,
		fmt.Sprintf("http://127.0.0.1:%s/api/v1/games", port), body)
	if err != nil {
		log.Fatal(err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("create game: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		log.Fatalf("create game: status %d", resp.StatusCode)
	}
	var created struct {
		Game domain.Game `json:"game"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		log.Fatalf("decode game: %v", err)
	}
	log.Printf("game created id=%s", created.Game.ID)

	// use 127.0.0.1 to prefer IPv4 (avoid resolving to [::1])
	wsURL := fmt.Sprintf("ws://127.0.0.1:%s/ws?token=%s&game_id=%s", port, token, created.Game.ID)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		log.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"add_bot","payload":{}}`)); err != nil {
		log.Fatalf("write add_bot: %v", err)
	}

	// act on our turns until a trick completes or we give up
	deadline := time.Now().Add(20 * time.Second)
	for time.Now().Before(deadline) {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			continue
		}
		var m struct {
			Type    string                `json:"type"`
			Payload wsapi.GameUpdatePayload `json:"payload"`
		}
		if err := json.Unmarshal(msg, &m); err != nil {
			continue
		}
		log.Printf("got: %s", m.Type)
		if m.Type == "trick_complete" {
			log.Println("smoke test finished: table is playing")
			return
		}
		if m.Type != "game_update" || m.Payload.CurrentSeat != m.Payload.YourSeat {
			continue
		}
		switch m.Payload.Phase {
		case domain.PhaseBidding:
			send(conn, `{"type":"bid","payload":{"value":3}}`)
		case domain.PhasePlaying:
			if len(m.Payload.LegalPlays) == 0 {
				continue
			}
			card := m.Payload.LegalPlays[0]
			send(conn, fmt.Sprintf(`{"type":"play","payload":{"suit":%q,"rank":%q}}`, card.Suit, card.Rank))
		}
	}
	log.Fatal("smoke test timed out waiting for play")
}

func send(conn *websocket.Conn, raw string) {
	if err := conn.WriteMessage(websocket.TextMessage, []byte(raw)); err != nil {
		log.Fatalf("write: %v", err)
	}
}
