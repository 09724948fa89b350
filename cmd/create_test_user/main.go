package main

import (
	"context"
	"flag"
	"log"
	"os"

	"spades_server/internal/db"
	"spades_server/internal/domain"
	"spades_server/internal/repository"
	"spades_server/internal/service"
)

func main() {
	username := flag.String("username", "testuser", "username to create or reuse")
	flag.Parse()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL not set")
	}

	pool := db.Connect(dsn)
	defer pool.Close()

	repo := repository.NewUserRepository(pool)
	ctx := context.Background()

	u, err := repo.GetByUsername(ctx, *username)
	if err == nil {
		log.Printf("user already exists id=%d\n", u.ID)
	} else {
		u = &domain.User{Username: *username}
		if err := repo.Create(ctx, u); err != nil {
			log.Fatalf("create user failed: %v", err)
		}
		log.Printf("user created id=%d\n", u.ID)
	}

	// verify read
	u2, err := repo.GetByID(ctx, u.ID)
	if err != nil {
		log.Fatalf("get by id failed: %v", err)
	}
	log.Printf("fetched user id=%d username=%s created_at=%v\n", u2.ID, u2.Username, u2.CreatedAt)

	// initialize JWT and print token
	service.InitJWT()
	token, err := service.GenerateJWT(u2.ID)
	if err != nil {
		log.Fatalf("failed to generate token: %v", err)
	}
	log.Printf("token=%s\n", token)
}
