package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"dispatch-nav-service/internal/adapters/sessions"
	"dispatch-nav-service/internal/platform/db"
)

// navtool is the operational CLI for the session store:
//
//	navtool init           create the nav_sessions schema
//	navtool list           print stored sessions
//	navtool clear <id>     reset navigation state for one session
//	navtool delete <id>    remove a session entirely
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if strings.TrimSpace(databaseURL) == "" {
		log.Fatal("DATABASE_URL is required")
	}

	if len(os.Args) < 2 {
		log.Fatal("usage: navtool <init|list|clear|delete> [id]")
	}

	pg, err := db.Open(databaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer pg.Close()

	store := sessions.NewPostgresStore(pg)
	ctx := context.Background()

	switch os.Args[1] {
	case "init":
		log.Println("Initializing session schema...")
		if err := sessions.InitSchema(pg); err != nil {
			log.Fatalf("schema initialization failed: %v", err)
		}
		log.Println("Schema ready.")

	case "list":
		records, err := store.List(ctx)
		if err != nil {
			log.Fatalf("list sessions failed: %v", err)
		}
		for _, rec := range records {
			fmt.Printf(
				"id=%s active=%t leg=%d point=%d completed=%d waypoints=%d\n",
				rec.ID, rec.NavigationActive, rec.CurrentLegIndex,
				rec.CurrentPointIndex, len(rec.CompletedWaypoints), len(rec.Waypoints),
			)
		}

	case "clear":
		if len(os.Args) < 3 {
			log.Fatal("usage: navtool clear <id>")
		}
		if err := store.ClearNavigation(ctx, os.Args[2]); err != nil {
			log.Fatalf("clear navigation failed: %v", err)
		}
		log.Println("Navigation state cleared.")

	case "delete":
		if len(os.Args) < 3 {
			log.Fatal("usage: navtool delete <id>")
		}
		if err := store.Delete(ctx, os.Args[2]); err != nil {
			log.Fatalf("delete session failed: %v", err)
		}
		log.Println("Session deleted.")

	default:
		log.Fatalf("unknown command %q", os.Args[1])
	}
}
