package queue

import (
	"context"
	"fmt"
	"log"
	"runtime/debug"
	"sync"
	"time"

	"github.com/jimsandwick99/videocall/internal/diarize"
	"github.com/jimsandwick99/videocall/internal/storage"
	"github.com/jimsandwick99/videocall/internal/transcription"
	"github.com/jimsandwick99/videocall/internal/types"
)

// WorkerPool runs room transcription pipelines in the background. The
// HTTP layer never awaits a job; completion is discovered by polling the
// transcript endpoint.
type WorkerPool struct {
	jobQueue         chan *Job
	workerCount      int
	engine           *transcription.Engine
	silenceThreshold float64
	localStorage     *storage.LocalStorage
	driveClient      *storage.DriveClient
	db               *storage.MetadataDB
}

// NewWorkerPool creates a worker pool. driveClient and db may be nil.
func NewWorkerPool(
	workerCount int,
	engine *transcription.Engine,
	silenceThreshold float64,
	localStorage *storage.LocalStorage,
	driveClient *storage.DriveClient,
	db *storage.MetadataDB,
) *WorkerPool {
	return &WorkerPool{
		jobQueue:         make(chan *Job, 100),
		workerCount:      workerCount,
		engine:           engine,
		silenceThreshold: silenceThreshold,
		localStorage:     localStorage,
		driveClient:      driveClient,
		db:               db,
	}
}

// Start launches the workers.
func (wp *WorkerPool) Start() {
	log.Printf("Starting worker pool with %d workers", wp.workerCount)
	for i := 0; i < wp.workerCount; i++ {
		go wp.worker(i)
	}
}

// EnqueueJob adds a job to the queue.
func (wp *WorkerPool) EnqueueJob(job *Job) {
	job.Status = types.StatusQueued
	job.CreatedAt = time.Now()
	wp.jobQueue <- job
	log.Printf("Transcription job enqueued for room %s (%d artifacts)", job.RoomID, len(job.Artifacts))
}

// worker processes jobs from the queue. A panic in one job must never
// terminate the process.
func (wp *WorkerPool) worker(id int) {
	log.Printf("Worker %d started", id)

	for job := range wp.jobQueue {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("Worker %d: PANIC processing room %s: %v\n%s",
						id, job.RoomID, r, string(debug.Stack()))
					job.Status = types.StatusFailed
					job.Error = fmt.Errorf("worker panic: %v", r)
				}
			}()
			wp.processJob(id, job)
		}()
	}
}

// processJob runs one room's full pipeline: transcribe every artifact
// (failures isolated per artifact), merge, optionally diarize, render.
func (wp *WorkerPool) processJob(workerID int, job *Job) {
	log.Printf("Worker %d: Transcribing room %s", workerID, job.RoomID)
	job.Status = types.StatusProcessing
	ctx := context.Background()

	// Fan out per artifact; results land at their artifact's index so the
	// merge tie-break sees the original artifact order.
	results := make([]*types.TranscriptionResult, len(job.Artifacts))
	var wg sync.WaitGroup
	for i, artifact := range job.Artifacts {
		wg.Add(1)
		go func(i int, artifact types.Artifact) {
			defer wg.Done()
			results[i] = wp.engine.Transcribe(ctx, artifact)
		}(i, artifact)
	}
	wg.Wait()

	merged := transcription.Merge(results)

	diarizer := wp.pickDiarizer(job.Artifacts)
	diarizer.AssignSpeakers(merged)
	_, applied := diarizer.(diarize.Silence)

	tr := &types.MergedTranscript{
		RoomID:             job.RoomID,
		ArtifactCount:      len(job.Artifacts),
		Results:            results,
		Segments:           merged,
		DiarizationApplied: applied,
		DiarizationMethod:  diarizer.Method(),
		GeneratedAt:        time.Now(),
		TimingNote:         types.TimingNote,
	}

	txtPath, jsonPath, err := wp.localStorage.SaveTranscript(tr)
	if err != nil {
		log.Printf("Worker %d: failed to save transcript for room %s: %v", workerID, job.RoomID, err)
		job.Status = types.StatusFailed
		job.Error = err
		return
	}

	var driveURL string
	if wp.driveClient != nil {
		for attempt := 1; attempt <= 3; attempt++ {
			driveURL, err = wp.driveClient.Upload(job.RoomID, txtPath)
			if err == nil {
				break
			}
			log.Printf("Worker %d: Google Drive upload attempt %d/3 failed: %v", workerID, attempt, err)
			if attempt < 3 {
				time.Sleep(time.Duration(attempt*attempt) * time.Second)
			}
		}
		if err != nil {
			log.Printf("Worker %d: WARNING - Google Drive upload failed after 3 attempts, transcript is local only", workerID)
		}
	}

	if wp.db != nil {
		if err := wp.db.SaveTranscript(job.RoomID, job.SessionID, len(job.Artifacts),
			maxDuration(results), tr.DiarizationMethod, txtPath, jsonPath, driveURL); err != nil {
			log.Printf("Worker %d: database save failed: %v", workerID, err)
		}
	}

	job.Status = types.StatusCompleted
	log.Printf("Worker %d: room %s transcript ready (%d segments, diarization: %s)",
		workerID, job.RoomID, len(merged), tr.DiarizationMethod)
}

// pickDiarizer returns the silence-gap fallback only when some artifact's
// speaker came from the ordinal last resort; labels derived from
// participants or track names are kept as-is.
func (wp *WorkerPool) pickDiarizer(artifacts []types.Artifact) diarize.Diarizer {
	for _, a := range artifacts {
		if a.Resolution == types.ResolvedByOrdinal {
			return diarize.Silence{Threshold: wp.silenceThreshold}
		}
	}
	return diarize.Noop{}
}

func maxDuration(results []*types.TranscriptionResult) float64 {
	var max float64
	for _, r := range results {
		if r != nil && r.Duration > max {
			max = r.Duration
		}
	}
	return max
}
