package cleanup

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/jimsandwick99/videocall/internal/signal"
)

// Scheduler periodically removes aged temp files and sweeps signaling
// rooms that have sat empty past their TTL.
type Scheduler struct {
	tempDir         string
	intervalMinutes int
	maxAgeHours     int
	hub             *signal.Hub
	roomTTL         time.Duration
	stopChan        chan struct{}
}

// NewScheduler creates a cleanup scheduler.
func NewScheduler(tempDir string, intervalMinutes, maxAgeHours int, hub *signal.Hub, roomTTL time.Duration) *Scheduler {
	return &Scheduler{
		tempDir:         tempDir,
		intervalMinutes: intervalMinutes,
		maxAgeHours:     maxAgeHours,
		hub:             hub,
		roomTTL:         roomTTL,
		stopChan:        make(chan struct{}),
	}
}

// Start begins the cleanup loop.
func (s *Scheduler) Start() {
	log.Println("Running initial temp file cleanup...")
	s.cleanOldFiles()

	ticker := time.NewTicker(time.Duration(s.intervalMinutes) * time.Minute)

	go func() {
		for {
			select {
			case <-ticker.C:
				s.cleanOldFiles()
				if removed := s.hub.SweepEmptyRooms(s.roomTTL); removed > 0 {
					log.Printf("Swept %d empty rooms", removed)
				}
			case <-s.stopChan:
				ticker.Stop()
				return
			}
		}
	}()

	log.Printf("Cleanup scheduler started (interval: %dm, max file age: %dh, room TTL: %s)",
		s.intervalMinutes, s.maxAgeHours, s.roomTTL)
}

// Stop stops the cleanup scheduler.
func (s *Scheduler) Stop() {
	close(s.stopChan)
	log.Println("Cleanup scheduler stopped")
}

// cleanOldFiles removes files older than maxAgeHours from the temp dir.
func (s *Scheduler) cleanOldFiles() {
	now := time.Now()
	maxAge := time.Duration(s.maxAgeHours) * time.Hour

	var deletedCount int
	var deletedSize int64

	err := filepath.Walk(s.tempDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip files we can't access
		}
		if info.IsDir() {
			return nil
		}

		age := now.Sub(info.ModTime())
		if age > maxAge {
			size := info.Size()
			if err := os.Remove(path); err != nil {
				log.Printf("Failed to delete old file %s: %v", path, err)
			} else {
				deletedCount++
				deletedSize += size
			}
		}
		return nil
	})
	if err != nil {
		log.Printf("Error during cleanup: %v", err)
	}

	if deletedCount > 0 {
		log.Printf("Cleanup complete: %d files deleted, %.2fMB freed",
			deletedCount, float64(deletedSize)/(1024*1024))
	}
}

// EnsureTempDirExists creates the temp directory if it doesn't exist.
func EnsureTempDirExists(tempDir string) error {
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return err
	}
	log.Printf("Temp directory ready: %s", tempDir)
	return nil
}
