package main

import (
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"qrdrop/internal/config"
)

// Sessions are memory-resident and die with the process, but their blobs live
// on disk. Run this before starting the server to reclaim files left behind
// by a previous run.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	entries, err := os.ReadDir(cfg.UploadDir)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("purge: %s does not exist, nothing to do", cfg.UploadDir)
			return
		}
		log.Fatalf("purge: failed to read %s: %v", cfg.UploadDir, err)
	}

	removed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(cfg.UploadDir, e.Name())
		if err := os.Remove(path); err != nil {
			log.Printf("purge: failed to remove %s: %v", path, err)
			continue
		}
		removed++
	}

	log.Printf("purge completed: removed %d orphaned blobs from %s", removed, cfg.UploadDir)
}
