package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"dispatch-nav-service/internal/adapters/cache"
	"dispatch-nav-service/internal/adapters/osrm"
	"dispatch-nav-service/internal/adapters/sessions"
	"dispatch-nav-service/internal/api"
	"dispatch-nav-service/internal/config"
	"dispatch-nav-service/internal/platform/db"
	"dispatch-nav-service/internal/ports"
	"dispatch-nav-service/internal/services"
)

// main is the application composition root.
// It wires concrete adapters (OSRM, Redis, Postgres) behind ports and starts
// the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	port := config.Get("PORT", "8080")
	osrmURL := config.Get("OSRM_URL", "https://router.project-osrm.org")
	osrmFallback := os.Getenv("OSRM_FALLBACK_URL")
	navConfigPath := config.Get("NAV_CONFIG", "config.toml")

	navCfg, err := config.LoadNavConfig(navConfigPath)
	if err != nil {
		log.Fatal(err)
	}

	endpoints := []string{osrmURL}
	if strings.TrimSpace(osrmFallback) != "" {
		endpoints = append(endpoints, osrmFallback)
	}
	provider, err := osrm.NewClient(endpoints)
	if err != nil {
		log.Fatal(err)
	}

	// Redis shares fetched routes across instances; without it the cache is
	// process-local.
	var routeCache ports.RouteCache
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		client := redis.NewClient(&redis.Options{Addr: addr})
		if err := client.Ping(context.Background()).Err(); err != nil {
			log.Fatalf("redis ping failed: %v", err)
		}
		routeCache = cache.NewRedisRouteCache(client)
		log.Printf("route cache: redis addr=%s", addr)
	} else {
		routeCache = cache.NewMemoryRouteCache()
		log.Println("route cache: in-memory (REDIS_ADDR not set)")
	}

	// Postgres persists sessions across restarts; without it trips do not
	// survive a process restart.
	var sessionStore ports.SessionStore
	if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
		pg, err := db.Open(databaseURL)
		if err != nil {
			log.Fatal(err)
		}
		defer pg.Close()

		if err := sessions.InitSchema(pg); err != nil {
			log.Fatal(err)
		}
		sessionStore = sessions.NewPostgresStore(pg)
		log.Println("session store: postgres")
	} else {
		sessionStore = sessions.NewMemoryStore()
		log.Println("session store: in-memory (DATABASE_URL not set)")
	}

	navigator := services.NewNavigator(navCfg, provider, routeCache, sessionStore)
	if err := navigator.Resume(context.Background()); err != nil {
		log.Printf("session resume failed: %v", err)
	}

	router := api.NewRouter(navigator)

	// Write timeout leaves room for a cold-cache reroute (external API latency).
	log.Printf("Server listening addr=:%s", port)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	log.Fatal(srv.ListenAndServe())
}
