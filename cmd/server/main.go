package main

import (
	"errors"
	"fmt"
	"log"
	"net"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/model-marketplace/internal/config"
	"github.com/iliyamo/model-marketplace/internal/database"
	"github.com/iliyamo/model-marketplace/internal/handler"
	"github.com/iliyamo/model-marketplace/internal/queue"
	"github.com/iliyamo/model-marketplace/internal/repository"
	"github.com/iliyamo/model-marketplace/internal/router"
	"github.com/iliyamo/model-marketplace/internal/service"
	"github.com/iliyamo/model-marketplace/internal/storage"
)

func main() {
	_ = godotenv.Load() // .env is optional outside dev
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting and catalog cache disabled")
	}

	users := repository.NewUserRepo(db)
	models := repository.NewModelRepo(db)
	notifications := repository.NewNotificationRepo(db)
	assets := storage.New(cfg.UploadDir, cfg.MaxUploadMB*1024*1024)

	var events service.EventPublisher
	if cfg.RabbitURL != "" {
		events = service.NewPublisher(cfg.RabbitURL)
		go queue.StartModerationConsumer(cfg.RabbitURL)
	}
	moderation := service.NewModeration(models, notifications, assets, events)

	e := echo.New()
	e.Use(echomw.CORS())
	router.Register(e, cfg, rdb, users, router.Handlers{
		Auth:          handler.NewAuthHandler(cfg, users),
		Upload:        handler.NewUploadHandler(assets, moderation),
		Models:        handler.NewModelHandler(models, moderation),
		Notifications: handler.NewNotificationHandler(notifications),
	})

	// Walk forward from the configured port when it is already bound.
	port := cfg.Port
	for {
		ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
		if err != nil {
			if errors.Is(err, syscall.EADDRINUSE) {
				log.Printf("port %d is busy, trying %d", port, port+1)
				port++
				continue
			}
			log.Fatal(err)
		}
		e.Listener = ln
		log.Printf("listening on :%d (env=%s)", port, cfg.Env)
		log.Fatal(e.Start(""))
	}
}
