package worker

import (
	"context"
	"log"
	"sync"
	"time"
)

// ExpiryReminder sends the reminders for trades that are about to expire
type ExpiryReminder interface {
	RemindExpiring(ctx context.Context) (int, error)
}

// ExpiryWorker periodically reminds authors of trade posts that are
// about to expire
type ExpiryWorker struct {
	reminder ExpiryReminder
	interval time.Duration
	stopChan chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewExpiryWorker creates a new expiry reminder worker
func NewExpiryWorker(reminder ExpiryReminder, interval time.Duration) *ExpiryWorker {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &ExpiryWorker{
		reminder: reminder,
		interval: interval,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs the reminder loop until Stop is called. The first check runs
// immediately.
func (w *ExpiryWorker) Start() {
	defer close(w.done)
	log.Printf("[ExpiryWorker] Started with interval: %v", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.check()
	for {
		select {
		case <-ticker.C:
			w.check()
		case <-w.stopChan:
			log.Println("[ExpiryWorker] Stopped")
			return
		}
	}
}

// Stop ends the loop and waits for a running check to finish
func (w *ExpiryWorker) Stop() {
	w.stopOnce.Do(func() { close(w.stopChan) })
	<-w.done
}

func (w *ExpiryWorker) check() {
	ctx, cancel := context.WithTimeout(context.Background(), w.interval)
	defer cancel()

	sent, err := w.reminder.RemindExpiring(ctx)
	if err != nil {
		log.Printf("[ExpiryWorker] Failed to send reminders: %v", err)
	}
	if sent > 0 {
		log.Printf("[ExpiryWorker] Sent %d expiry reminders", sent)
	}
}
