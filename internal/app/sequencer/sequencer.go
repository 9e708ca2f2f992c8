// Package sequencer drives one poem run on the client side: it asks for
// line 0 right away, paces the remaining lines with a delay, and marks
// the run finished once the poem is complete.
package sequencer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/PabloGalante/symbiotic-sonnet/internal/domain"
	"github.com/PabloGalante/symbiotic-sonnet/internal/observability"
	"github.com/PabloGalante/symbiotic-sonnet/internal/platform/clock"
)

const (
	DefaultLineDelay   = 7 * time.Second
	DefaultFinishDelay = 4 * time.Second
)

var ErrClosed = errors.New("sequencer closed")

type FetchRequest struct {
	Theme      domain.Theme
	LineNumber int
	History    []string
	APIKey     string
}

// LineFetcher obtains one line record from the generation service.
type LineFetcher interface {
	FetchLine(ctx context.Context, req FetchRequest) (domain.LineRecord, error)
}

// Observer receives a copy of the session after every change. It may run
// on a fetch goroutine and must not call Close.
type Observer func(domain.Session)

type Options struct {
	LineDelay     time.Duration
	FinishDelay   time.Duration
	RequireAPIKey bool
	Observer      Observer
	Clock         clock.Clock
}

type Sequencer struct {
	fetcher LineFetcher
	clock   clock.Clock
	opts    Options

	mu      sync.Mutex
	session domain.Session
	epoch   uint64
	timer   clock.Timer
	cancel  context.CancelFunc // cancels the run's in-flight fetch
	closed  bool

	// seq stamps every snapshot under mu; notify skips any snapshot older
	// than the last one delivered, so observers never step backwards.
	seq       uint64
	notifyMu  sync.Mutex
	delivered uint64
	wg        sync.WaitGroup
}

func New(fetcher LineFetcher, opts Options) *Sequencer {
	if opts.LineDelay <= 0 {
		opts.LineDelay = DefaultLineDelay
	}
	if opts.FinishDelay <= 0 {
		opts.FinishDelay = DefaultFinishDelay
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	return &Sequencer{
		fetcher: fetcher,
		clock:   opts.Clock,
		opts:    opts,
		session: domain.Session{State: domain.StateInput},
	}
}

// Snapshot returns a deep copy of the current session.
func (s *Sequencer) Snapshot() domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.Clone()
}

// Start begins a new run for theme, abandoning whatever was in progress.
func (s *Sequencer) Start(theme, apiKey string) error {
	theme = strings.TrimSpace(theme)
	apiKey = strings.TrimSpace(apiKey)
	if theme == "" {
		return domain.InvalidInput("theme", "must not be empty")
	}
	if s.opts.RequireAPIKey && apiKey == "" {
		return domain.InvalidInput("apiKey", "is required")
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.abandonLocked()
	s.session = domain.Session{
		State:  domain.StateGenerating,
		Theme:  domain.Theme(theme),
		APIKey: apiKey,
	}
	seq, snap := s.snapshotLocked()
	s.fetchLocked()
	s.mu.Unlock()

	s.notify(seq, snap)
	return nil
}

// Reset abandons the current run and returns to input.
func (s *Sequencer) Reset() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.abandonLocked()
	s.session = domain.Session{State: domain.StateInput}
	seq, snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(seq, snap)
}

// Close stops the pending timer, cancels any in-flight fetch and waits
// for it to return. Results that arrive afterwards are dropped.
func (s *Sequencer) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.abandonLocked()
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *Sequencer) abandonLocked() {
	s.epoch++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// fetchLocked issues the request for the next line. At most one fetch
// is outstanding because the next one is only scheduled from a result.
func (s *Sequencer) fetchLocked() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	epoch := s.epoch
	req := FetchRequest{
		Theme:      s.session.Theme,
		LineNumber: len(s.session.Lines),
		History:    s.session.History(),
		APIKey:     s.session.APIKey,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()

		rec, err := s.fetcher.FetchLine(ctx, req)
		s.onResult(epoch, req.LineNumber, rec, err)
	}()
}

func (s *Sequencer) onResult(epoch uint64, lineNumber int, rec domain.LineRecord, err error) {
	s.mu.Lock()
	if s.closed || epoch != s.epoch || s.session.State != domain.StateGenerating {
		s.mu.Unlock()
		return
	}
	s.cancel = nil

	if err != nil {
		observability.Logger().Warn("line fetch failed, returning to input",
			zap.Int("line_number", lineNumber),
			zap.Error(err),
		)
		s.session.State = domain.StateInput
		s.session.Lines = nil
		seq, snap := s.snapshotLocked()
		s.mu.Unlock()

		s.notify(seq, snap)
		return
	}

	s.session.Lines = append(s.session.Lines, rec.Clone())
	if len(s.session.Lines) >= domain.PoemLength {
		s.timer = s.clock.AfterFunc(s.opts.FinishDelay, func() { s.finish(epoch) })
	} else {
		s.timer = s.clock.AfterFunc(s.opts.LineDelay, func() { s.tick(epoch) })
	}
	seq, snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(seq, snap)
}

func (s *Sequencer) tick(epoch uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.session.Lines)
	if s.closed || epoch != s.epoch || s.session.State != domain.StateGenerating {
		return
	}
	if n < 1 || n >= domain.PoemLength {
		return
	}
	s.timer = nil
	s.fetchLocked()
}

func (s *Sequencer) finish(epoch uint64) {
	s.mu.Lock()
	if s.closed || epoch != s.epoch || s.session.State != domain.StateGenerating {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.session.State = domain.StateFinished
	seq, snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(seq, snap)
}

func (s *Sequencer) snapshotLocked() (uint64, domain.Session) {
	s.seq++
	return s.seq, s.session.Clone()
}

func (s *Sequencer) notify(seq uint64, snap domain.Session) {
	if s.opts.Observer == nil {
		return
	}
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	if seq <= s.delivered {
		return
	}
	s.delivered = seq
	s.opts.Observer(snap)
}
