// Package cmd holds oneway's cobra commands.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/sudomakes/oneway/internal/app"
	"github.com/sudomakes/oneway/internal/bus"
	"github.com/sudomakes/oneway/internal/config"
	"github.com/sudomakes/oneway/internal/query"
	"github.com/sudomakes/oneway/internal/send"
	"github.com/sudomakes/oneway/internal/status"
	"github.com/sudomakes/oneway/internal/store"
	"github.com/sudomakes/oneway/internal/wa"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

const (
	connectTimeout = 60 * time.Second
	stopTimeout    = 10 * time.Second
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "oneway",
	Short: "Send one-way WhatsApp messages from the terminal",
	Long: `oneway sends messages through your WhatsApp account and keeps a local,
searchable archive of the last few weeks of your chats.

Run without a command to link your phone (first run only), sync recent
history and open the terminal interface.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runTUI,
}

// ExecuteContext runs the root command with the given context, enabling
// graceful shutdown when the context is canceled.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: first of ./oneway.toml, ~/.oneway/oneway.toml, ~/.config/oneway/oneway.toml)")
	addTUIFlags(rootCmd)
}

// coreDeps is what archive-only commands use.
type coreDeps struct {
	fx.In

	Config *config.Config
	Logger *zap.Logger
	Store  *store.DB
	Query  *query.Service
}

// sessionDeps is what commands talking to WhatsApp use.
type sessionDeps struct {
	fx.In

	Config  *config.Config
	Logger  *zap.Logger
	Bus     *bus.Bus
	Machine *status.Machine
	Adapter *wa.Adapter
	Query   *query.Service
	Sender  *send.Sender
	Syncer  *app.Syncer
}

// startApp builds and starts the fx graph, filling targets. withSession adds
// the WhatsApp session module. The returned func stops the graph.
func startApp(ctx context.Context, console, withSession bool, targets ...any) (func(), error) {
	opts := []fx.Option{
		app.Core(app.Params{ConfigPath: cfgFile, Console: console}),
		fx.WithLogger(func(l *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: l.Named("fx")}
		}),
		fx.Populate(targets...),
	}
	if withSession {
		opts = append(opts, app.Session())
	}

	a := fx.New(opts...)
	if err := a.Start(ctx); err != nil {
		return nil, err
	}
	return func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		defer cancel()
		_ = a.Stop(stopCtx)
	}, nil
}

// connect pairs the device if needed, drawing QR codes to w, then waits
// for the session to come online.
func connect(ctx context.Context, adapter *wa.Adapter, w io.Writer) error {
	if !adapter.IsLoggedIn() {
		fmt.Fprintln(w, titleStyle.Render("Link oneway to WhatsApp"))
		if err := adapter.Login(ctx, w); err != nil {
			if errors.Is(err, wa.ErrQRExpired) {
				return fmt.Errorf("QR code expired, run oneway again to retry: %w", err)
			}
			return err
		}
		fmt.Fprintln(w, okStyle.Render("Linked."))
	}

	waitCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := adapter.WaitConnected(waitCtx); err != nil {
		return fmt.Errorf("connect to WhatsApp: %w", err)
	}
	return nil
}
