package app

import (
	"context"
	"time"

	"github.com/sudomakes/oneway/internal/lock"
	"github.com/sudomakes/oneway/internal/progress"
	intsync "github.com/sudomakes/oneway/internal/sync"
	"go.uber.org/zap"
)

const (
	// History sync blobs arrive in bursts after connecting; a pass waits for
	// a quiet gap before listing chats.
	settleQuiet  = 3 * time.Second
	settleMax    = 45 * time.Second
	fetchTimeout = 30 * time.Second

	syncLockName = "sync"
)

// passRunner is the part of *intsync.Engine the Syncer drives.
type passRunner interface {
	Run(ctx context.Context, rep progress.Reporter) (*intsync.Result, error)
}

// Syncer runs sync passes while holding the sync lock, so two oneway
// processes never write the archive at the same time.
type Syncer struct {
	engine  passRunner
	lockDir string
	logger  *zap.Logger
}

// NewSyncer creates a syncer whose lock file lives in lockDir.
func NewSyncer(engine passRunner, lockDir string, logger *zap.Logger) *Syncer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Syncer{engine: engine, lockDir: lockDir, logger: logger}
}

// Run performs one blocking pass. It returns *lock.HeldError without
// reporting anything if another process is syncing.
func (s *Syncer) Run(ctx context.Context, rep progress.Reporter) (*intsync.Result, error) {
	lk, err := lock.Acquire(s.lockDir, syncLockName)
	if err != nil {
		return nil, err
	}
	defer s.release(lk)
	return s.engine.Run(ctx, rep)
}

// Start takes the lock and runs a pass in the background. The lock is
// released when the pass finishes.
func (s *Syncer) Start(ctx context.Context, rep progress.Reporter) (*intsync.Pass, error) {
	lk, err := lock.Acquire(s.lockDir, syncLockName)
	if err != nil {
		return nil, err
	}
	return intsync.Go(func() (*intsync.Result, error) {
		defer s.release(lk)
		return s.engine.Run(ctx, rep)
	}), nil
}

func (s *Syncer) release(lk *lock.Lock) {
	if err := lk.Release(); err != nil {
		s.logger.Warn("error releasing sync lock", zap.Error(err))
	}
}
