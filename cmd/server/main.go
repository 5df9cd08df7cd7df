package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"anoa.com/classhub/internal/bootstrap"
	"anoa.com/classhub/internal/config"
	"anoa.com/classhub/internal/modules/note/search"
	"anoa.com/classhub/internal/server"
	"anoa.com/classhub/pkg/database"
	"anoa.com/classhub/pkg/storage"
	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(cfg.DSN(), cfg.DBDebug)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := bootstrap.Prepare(context.Background(), db, cfg); err != nil {
		log.Fatalf("%v", err)
	}

	redisClient := database.ConnectRedis(cfg.RedisURL)

	fileStorage, err := storage.NewCloudinaryStorage(cfg.CloudinaryURL)
	if err != nil {
		log.Fatalf("failed to initialize cloudinary storage: %v", err)
	}

	srv, err := server.NewServer(cfg, server.Deps{
		DB:          db,
		RedisClient: redisClient,
		FileStorage: fileStorage,
		Indexer:     newIndexer(cfg),
	})
	if err != nil {
		log.Fatalf("failed to build server: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-stop
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	log.Printf("listening on :%s", cfg.Port)
	if err := srv.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server exited with error: %v", err)
	}

	if redisClient != nil {
		_ = redisClient.Close()
	}
	log.Println("server stopped")
}

// newIndexer returns nil when no search host is configured; note search then uses the database.
func newIndexer(cfg *config.Config) search.Indexer {
	host := cfg.MeiliSearchHost
	if host == "" {
		log.Println("MEILISEARCH_HOST is not set, note search falls back to the database")
		return nil
	}
	if !strings.HasPrefix(host, "http") {
		host = "http://" + host + ":7700"
	}

	client := meilisearch.New(host, meilisearch.WithAPIKey(cfg.MeiliMasterKey))
	return search.NewMeiliSearchService(client)
}
