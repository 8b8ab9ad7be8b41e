package main

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"time"

	"cahier/internal/services"

	"github.com/fsnotify/fsnotify"
)

const watchDebounce = 2 * time.Second

// watchLessonsDir runs a sync pass shortly after slide decks appear in dir.
// Bursts of events (a copy emits create plus several writes) collapse into
// one pass.
func watchLessonsDir(ctx context.Context, dir string, lessons *services.LessonService) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Printf("⚠️  Failed to create lessons directory %s: %v", dir, err)
		return
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("⚠️  Failed to create file watcher: %v", err)
		return
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		log.Printf("⚠️  Failed to watch directory %s: %v", dir, err)
		return
	}

	log.Printf("👁️  Watching %s for new lessons", dir)

	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
				continue
			}
			if !lessons.AcceptsSource(filepath.Base(event.Name)) {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(watchDebounce, func() {
				log.Printf("🔄 Detected changes in %s, syncing registry...", dir)
				if changed, err := lessons.SyncRegistry(); err == nil && changed {
					log.Printf("✅ New lessons registered from %s", dir)
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Printf("⚠️  File watcher error: %v", err)
		}
	}
}
