package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"qrdrop/internal/config"
	"qrdrop/internal/middleware"
	"qrdrop/internal/modules/expire"
	"qrdrop/internal/modules/realtime"
	"qrdrop/internal/modules/session"
	"qrdrop/internal/modules/upload"
	"qrdrop/internal/pkg/blob"
)

const staticBase = "/static/uploads"

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	store, err := blob.NewDiskStore(cfg.UploadDir, staticBase)
	if err != nil {
		log.Fatal(err)
	}

	registry := session.NewRegistry(cfg.SessionTTL)
	hub := realtime.NewHub()
	scheduler := expire.NewScheduler(store, registry)

	// When a session is destroyed its pending timers are pointless and any
	// remaining blobs must go with it.
	registry.OnDestroy(func(s session.Session) {
		for _, f := range s.Files {
			scheduler.Cancel(s.ID, f.StorageHandle)
			if err := store.Delete(f.StorageHandle); err != nil {
				log.Printf("session destroy: failed to delete blob %s: %v", f.StorageHandle, err)
			}
		}
	})

	stopSweep := registry.StartSweeper(cfg.SweepInterval)
	defer close(stopSweep)

	uploadService := upload.NewService(registry, store, hub, scheduler, upload.Limits{
		MaxFileSize: cfg.MaxFileSize,
		MaxFiles:    cfg.MaxFilesPerBatch,
	}, cfg.FileTTL)

	sessionHandler := session.NewHandler(registry, cfg.PublicBaseURL)
	uploadHandler := upload.NewHandler(uploadService)
	wsHandler := realtime.NewHandler(hub)

	r := gin.Default()
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorLogger())

	// Uploaded content is public by handle; handles are unguessable uuids.
	r.Static(staticBase, cfg.UploadDir)
	r.GET("/ws", wsHandler.HandleWebSocket)

	v1 := r.Group("/api/v1")
	{
		session.RegisterRoutes(v1, sessionHandler)
		upload.RegisterRoutes(v1, uploadHandler)
	}

	log.Printf("qrdrop listening on :%s (base url %s)", cfg.Port, cfg.PublicBaseURL)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
