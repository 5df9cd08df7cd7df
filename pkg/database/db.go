package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"anoa.com/classhub/internal/entity"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the postgres connection described by dsn.
func Connect(dsn string, debug bool) (*gorm.DB, error) {
	gormCfg := &gorm.Config{}
	if debug {
		gormCfg.Logger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(postgres.Open(dsn), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	return db, nil
}

// Migrate creates or updates every table of the schema.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.User{},
		&entity.ClassRoom{},
		&entity.ClassPost{},
		&entity.Message{},
		&entity.ClassChatMessage{},
		&entity.Poll{},
		&entity.PollOption{},
		&entity.PollVote{},
		&entity.Tag{},
		&entity.Note{},
		&entity.NoteHistory{},
		&entity.NoteAttachment{},
		&entity.Comment{},
		&entity.Reaction{},
	)
}

// ConnectRedis returns nil when url is empty or the server does not answer, in which case
// callers fall back to in-process broadcasting and disable rate limiting.
func ConnectRedis(url string) *redis.Client {
	if url == "" {
		log.Println("REDIS_URL is not set, using in-memory broadcaster")
		return nil
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		log.Printf("invalid REDIS_URL: %v", err)
		return nil
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("failed to connect to redis: %v", err)
		_ = client.Close()
		return nil
	}

	log.Println("connected to redis")
	return client
}
