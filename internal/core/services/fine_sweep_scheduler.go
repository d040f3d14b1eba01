package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"openshelf/internal/config"

	"github.com/robfig/cron/v3"
)

// FineSweepScheduler runs the overdue fine sweep on a cron schedule
type FineSweepScheduler struct {
	fineService *FineService
	cfg         *config.Config

	cron      *cron.Cron
	entryID   cron.EntryID
	mu        sync.RWMutex
	isRunning bool
	isSweep   bool
}

// NewFineSweepScheduler creates a new scheduler instance
func NewFineSweepScheduler(fineService *FineService, cfg *config.Config) *FineSweepScheduler {
	return &FineSweepScheduler{
		fineService: fineService,
		cfg:         cfg,
		cron:        cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start begins the scheduler
func (s *FineSweepScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	schedule := s.cfg.Loan.SweepSchedule

	entryID, err := s.cron.AddFunc(schedule, func() {
		s.runSweep()
	})
	if err != nil {
		return fmt.Errorf("failed to schedule fine sweep: %w", err)
	}
	s.entryID = entryID

	s.cron.Start()
	s.isRunning = true

	log.Printf("✅ Fine sweep scheduler started with schedule '%s'", schedule)
	return nil
}

// Stop gracefully stops the scheduler, waiting for a running sweep
func (s *FineSweepScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	log.Printf("Fine sweep scheduler stopped")
}

// RunNow triggers an immediate sweep
func (s *FineSweepScheduler) RunNow() {
	go s.runSweep()
}

// IsRunning returns whether the scheduler is active
func (s *FineSweepScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRunTime returns when the next sweep will occur
func (s *FineSweepScheduler) NextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

// runSweep performs the actual sweep, skipping overlapping runs
func (s *FineSweepScheduler) runSweep() {
	s.mu.Lock()
	if s.isSweep {
		s.mu.Unlock()
		log.Printf("Fine sweep: skipped (already running)")
		return
	}
	s.isSweep = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isSweep = false
		s.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	start := time.Now()
	out, err := s.fineService.SweepOverdueFines(ctx, start)
	if err != nil {
		log.Printf("⚠️ Fine sweep failed: %v", err)
		return
	}

	log.Printf("Fine sweep finished in %v: %d records, %d new, %d updated",
		time.Since(start).Round(time.Millisecond), out.Processed, out.NewFines, out.UpdatedFines)
}
