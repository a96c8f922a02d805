package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"finboard/internal/log"
)

// ResyncProcessorConfig holds configuration for the periodic resync loop.
type ResyncProcessorConfig struct {
	// Interval is how often every book is synchronized (default: 1h)
	Interval time.Duration
}

func DefaultResyncProcessorConfig() ResyncProcessorConfig {
	return ResyncProcessorConfig{Interval: time.Hour}
}

// ResyncProcessor synchronizes all books on startup and then on every tick,
// so occurrences falling due while the host runs get posted.
type ResyncProcessor struct {
	books  Books
	config ResyncProcessorConfig

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewResyncProcessor(books Books, config ResyncProcessorConfig) *ResyncProcessor {
	if config.Interval <= 0 {
		config.Interval = DefaultResyncProcessorConfig().Interval
	}
	return &ResyncProcessor{books: books, config: config}
}

// Start begins the loop. Returns an error if already running.
func (p *ResyncProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("resync processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	slog.InfoContext(ctx, "Resync processor started",
		log.FieldComponent, log.ComponentWorker, "interval", p.config.Interval)
	return nil
}

// Stop signals the loop and waits for it to finish or ctx to expire.
func (p *ResyncProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Resync processor stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Resync processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
	return nil
}

func (p *ResyncProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Run blocks until ctx is done, resyncing on every tick. It is the errgroup
// form of Start/Stop.
func (p *ResyncProcessor) Run(ctx context.Context) error {
	if err := p.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return p.Stop(stopCtx)
}

func (p *ResyncProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	p.resync(ctx)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.resync(ctx)
		}
	}
}

func (p *ResyncProcessor) resync(ctx context.Context) {
	posted, err := p.books.SyncAll(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Resync pass failed",
			log.FieldComponent, log.ComponentWorker, log.FieldError, err)
	}
	for book, n := range posted {
		if n > 0 {
			slog.InfoContext(ctx, "Posted recurring transactions",
				log.FieldComponent, log.ComponentWorker, log.FieldBook, book, log.FieldPosted, n)
		}
	}
}
