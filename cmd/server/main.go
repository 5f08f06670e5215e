package main // Entry point package

import (
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pong-social/internal/config"
	"github.com/iliyamo/pong-social/internal/database"
	"github.com/iliyamo/pong-social/internal/gateway"
	"github.com/iliyamo/pong-social/internal/handler"
	"github.com/iliyamo/pong-social/internal/notification"
	"github.com/iliyamo/pong-social/internal/oauth"
	"github.com/iliyamo/pong-social/internal/presence"
	"github.com/iliyamo/pong-social/internal/queue"
	"github.com/iliyamo/pong-social/internal/repository"
	"github.com/iliyamo/pong-social/internal/router"
	queue_publisher "github.com/iliyamo/pong-social/internal/service"
	"github.com/iliyamo/pong-social/internal/session"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments set the environment
	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("mysql: %v", err)
	}

	// Redis holds the presence registry and session records shared by all
	// replicas; without it the service cannot coordinate, so failing to
	// connect is fatal.
	rdb, err := config.NewRedisClient()
	if err != nil {
		log.Fatalf("redis: %v", err)
	}

	sessions := session.New(rdb, time.Duration(cfg.SessionTTLHours)*time.Hour)
	pstore := presence.New(rdb)

	users := repository.NewUserRepo(db)
	relations := repository.NewRelationRepo(db)
	channels := repository.NewChannelRepo(db)
	provider := oauth.New(cfg)

	// Each process gets a fresh replica id; it only namespaces the
	// gateway.events traffic, so it does not need to survive restarts.
	replicaID := uuid.NewString()
	gw := gateway.New(replicaID, sessions, pstore, queue_publisher.PublishGatewayEvent)
	gw.AttachFeed(notification.NewFeed(gw, relations, channels))

	// Consume eviction/delivery commands published by the other replicas.
	go func() {
		if err := queue.StartGatewayConsumer(replicaID, gw); err != nil {
			log.Printf("gateway consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	a := handler.NewAuthHandler(cfg, users, sessions, provider)
	router.RegisterRoutes(e)
	router.RegisterAuth(e, a, sessions)
	router.RegisterGateway(e, gw)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
