package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"spades_server/internal/db"
	"spades_server/internal/persist"
	"spades_server/internal/repository"
	"spades_server/internal/service"
)

// Operator tool for removing broken games. With -scan it reports dangling
// child rows left behind by interrupted cleanups; with -id it force-deletes
// one game and its bot accounts; with -sweep it runs the same pass the
// server runs on its timer, against the configured max age.
func main() {
	scan := flag.Bool("scan", false, "report dangling child rows and exit")
	gameID := flag.String("id", "", "game id to force-delete")
	sweep := flag.Bool("sweep", false, "delete all stuck games older than -max-age")
	maxAge := flag.Duration("max-age", 24*time.Hour, "idle age for -sweep")
	flag.Parse()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL not set")
	}

	pool := db.Connect(dsn)
	defer pool.Close()

	store := persist.NewStore(
		repository.NewGameRepository(pool),
		repository.NewRoundRepository(pool),
		repository.NewTrickRepository(pool),
		repository.NewUserRepository(pool),
	)
	ctx := context.Background()

	switch {
	case *scan:
		counts, err := store.Games.ScanOrphans(ctx)
		if err != nil {
			log.Fatalf("scan: %v", err)
		}
		log.Printf("dangling rows: trick_cards=%d tricks=%d bids=%d round_scores=%d rounds=%d game_seats=%d (total %d)\n",
			counts.TrickCards, counts.Tricks, counts.Bids, counts.RoundScores,
			counts.Rounds, counts.Seats, counts.Total())
	case *gameID != "":
		botIDs, err := store.Games.BotSeatUserIDs(ctx, *gameID)
		if err != nil {
			log.Fatalf("inspect game: %v", err)
		}
		if err := store.Games.ForceDelete(ctx, *gameID); err != nil {
			log.Fatalf("delete game: %v", err)
		}
		if err := store.Users.DeleteBots(ctx, botIDs); err != nil {
			log.Fatalf("game deleted, bot cleanup failed: %v", err)
		}
		log.Printf("deleted game %s (%d bot accounts removed)\n", *gameID, len(botIDs))
	case *sweep:
		cleanup := service.NewCleanupService(store, *maxAge, time.Hour)
		n := cleanup.SweepOnce(ctx)
		log.Printf("swept %d stuck games\n", n)
	default:
		flag.Usage()
		os.Exit(2)
	}
}
