// Package sync reconciles a remote chat source against the local store in
// bounded, repeatable passes.
package sync

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sudomakes/oneway/internal/progress"
	"github.com/sudomakes/oneway/internal/store"
	"go.uber.org/zap"
)

const (
	DefaultWindowDays = 30
	DefaultPageSize   = 100
)

var (
	// ErrListChats wraps a failure to enumerate chats, which aborts a pass.
	ErrListChats = errors.New("list chats")
	// ErrPassInProgress is returned when a pass is started while another one
	// on the same engine is still running.
	ErrPassInProgress = errors.New("sync pass already in progress")
)

// Options tunes a pass. Zero values take the defaults.
type Options struct {
	WindowDays   int
	PageSize     int
	FetchTimeout time.Duration // per chat; 0 means none
	Now          func() time.Time
}

func (o Options) withDefaults() Options {
	if o.WindowDays <= 0 {
		o.WindowDays = DefaultWindowDays
	}
	if o.PageSize <= 0 {
		o.PageSize = DefaultPageSize
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Result summarizes a finished pass.
type Result struct {
	ChatCount    int   // named chats visited; each has its row upserted
	MessageCount int   // messages newly inserted
	SkippedChats int   // chats without a usable name
	FailedChats  int   // chats whose page fetch or insert failed
	Cutoff       int64 // epoch seconds
	Incremental  bool  // cutoff came from stored history, not the window
}

// Engine runs sync passes. It is the only writer to the store while a pass
// is active.
type Engine struct {
	db      *store.DB
	src     Source
	logger  *zap.Logger
	opts    Options
	running atomic.Bool
}

// NewEngine creates a new sync engine.
func NewEngine(db *store.DB, src Source, logger *zap.Logger, opts Options) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		db:     db,
		src:    src,
		logger: logger,
		opts:   opts.withDefaults(),
	}
}

// Cutoff returns the timestamp below which fetched messages are discarded:
// the newest stored message if it is inside the window, otherwise the start
// of the window.
func (e *Engine) Cutoff() (cutoff int64, incremental bool, err error) {
	window := e.opts.Now().Add(-time.Duration(e.opts.WindowDays) * 24 * time.Hour).Unix()
	latest, ok, err := e.db.LatestMessageTimestamp()
	if err != nil {
		return 0, false, fmt.Errorf("latest message timestamp: %w", err)
	}
	if ok && latest > window {
		return latest, true, nil
	}
	return window, false, nil
}

// Run performs one pass and blocks until it finishes. rep receives zero or
// more Syncing updates followed by exactly one Done or Error.
func (e *Engine) Run(ctx context.Context, rep progress.Reporter) (*Result, error) {
	if !e.running.CompareAndSwap(false, true) {
		return nil, ErrPassInProgress
	}
	defer e.running.Store(false)

	passID := uuid.NewString()
	log := e.logger.With(zap.String("pass_id", passID))
	rep = progress.NewMachine(progress.Safe(rep, log))

	fail := func(err error) (*Result, error) {
		log.Error("sync pass failed", zap.Error(err))
		rep.Report(progress.Update{Phase: progress.Error, ErrorMessage: err.Error()})
		return nil, err
	}

	started := time.Now()
	rep.Report(progress.Update{Phase: progress.Syncing})

	chats, err := e.src.ListChats(ctx)
	if err != nil {
		return fail(fmt.Errorf("%w: %w", ErrListChats, err))
	}

	cutoff, incremental, err := e.Cutoff()
	if err != nil {
		return fail(err)
	}
	log.Info("sync pass started",
		zap.Int("chats", len(chats)),
		zap.Int64("cutoff", cutoff),
		zap.Bool("incremental", incremental))

	res := &Result{Cutoff: cutoff, Incremental: incremental}
	total := len(chats)

	for i, rc := range chats {
		if err := ctx.Err(); err != nil {
			return fail(fmt.Errorf("sync canceled after %d of %d chats: %w", i, total, err))
		}

		name := rc.Name
		if name == "" {
			name = rc.ID
		}
		if name == "" {
			res.SkippedChats++
			continue
		}

		update := progress.Update{
			Phase:         progress.Syncing,
			CurrentChat:   i + 1,
			TotalChats:    total,
			MessagesSoFar: res.MessageCount,
			ChatName:      progress.DisplayName(name, progress.NameWidth),
		}
		rep.Report(update)

		n, err := e.syncChat(ctx, rc, name, cutoff)
		if err != nil {
			res.FailedChats++
			log.Warn("chat sync failed", zap.String("chat_id", rc.ID), zap.Error(err))
		}
		res.ChatCount++
		res.MessageCount += n

		update.MessagesSoFar = res.MessageCount
		rep.Report(update)
	}

	log.Info("sync pass done",
		zap.Int("chats", res.ChatCount),
		zap.Int("messages", res.MessageCount),
		zap.Int("skipped", res.SkippedChats),
		zap.Int("failed", res.FailedChats),
		zap.Duration("took", time.Since(started)))

	rep.Report(progress.Update{
		Phase:         progress.Done,
		CurrentChat:   total,
		TotalChats:    total,
		MessagesSoFar: res.MessageCount,
	})
	return res, nil
}

// syncChat upserts the chat row and ingests its recent messages. The chat
// row is written even when the fetch fails.
func (e *Engine) syncChat(ctx context.Context, rc RemoteChat, name string, cutoff int64) (int, error) {
	if err := e.db.UpsertChat(&store.Chat{
		ID:              rc.ID,
		Name:            name,
		IsGroup:         rc.IsGroup,
		LastMessageTime: rc.LastActivity,
	}); err != nil {
		return 0, fmt.Errorf("upsert chat: %w", err)
	}

	remote, err := e.fetch(ctx, rc)
	if err != nil {
		return 0, fmt.Errorf("fetch messages: %w", err)
	}

	msgs := make([]*store.Message, 0, len(remote))
	for _, m := range remote {
		if m.Timestamp < cutoff {
			continue
		}
		chatID := m.SenderID
		if chatID == "" {
			chatID = rc.ID
		}
		msgs = append(msgs, &store.Message{
			ID:        m.ID,
			ChatID:    chatID,
			ChatName:  name,
			Body:      m.Body,
			Timestamp: m.Timestamp,
			FromMe:    m.FromMe,
			IsGroup:   rc.IsGroup,
		})
	}
	if len(msgs) == 0 {
		return 0, nil
	}

	n, err := e.db.InsertMessages(msgs)
	if err != nil {
		return 0, fmt.Errorf("insert messages: %w", err)
	}
	return n, nil
}

// fetch calls the source with the per-chat timeout and turns a panic in the
// source into an error.
func (e *Engine) fetch(ctx context.Context, rc RemoteChat) (msgs []RemoteMessage, err error) {
	if e.opts.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.FetchTimeout)
		defer cancel()
	}
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("source panicked: %v", p)
		}
	}()
	return e.src.FetchRecentMessages(ctx, rc, e.opts.PageSize)
}
