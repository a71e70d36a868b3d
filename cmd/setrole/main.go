// Package main provides a CLI tool for setting a character's admin role.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/cory-johannsen/textworld/internal/config"
	"github.com/cory-johannsen/textworld/internal/game/character"
	"github.com/cory-johannsen/textworld/internal/worldstore/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	characterID := flag.String("character", "", "target character id (required)")
	role := flag.String("role", "", "role to assign: player, editor, or admin (required)")
	flag.Parse()

	if *characterID == "" || *role == "" {
		flag.Usage()
		os.Exit(1)
	}

	if !character.ValidRole(*role) {
		log.Fatalf("invalid role %q: must be one of player, editor, admin", *role)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("connecting to database: %v", err)
	}
	defer pool.Close()

	repo := postgres.NewCharacterRepository(pool.DB())

	c, err := repo.Get(ctx, *characterID)
	if err != nil {
		log.Fatalf("looking up character %q: %v", *characterID, err)
	}

	previous := c.Role
	c.Role = *role
	if err := repo.Save(ctx, c); err != nil {
		log.Fatalf("setting role: %v", err)
	}

	elapsed := time.Since(start)
	fmt.Fprintf(os.Stdout, "set role for %s (%s): %s -> %s [%s]\n",
		c.Name, c.ID, previous, *role, elapsed)
}
