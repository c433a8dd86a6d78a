// Package tui is the terminal interface: a chat list, a composer for one-way
// messages and archive search, with a status bar fed by sync and session
// events.
package tui

import (
	"context"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/sudomakes/oneway/internal/bus"
	"github.com/sudomakes/oneway/internal/progress"
	"github.com/sudomakes/oneway/internal/status"
	"github.com/sudomakes/oneway/internal/store"
	"github.com/sudomakes/oneway/internal/tui/keys"
	"github.com/sudomakes/oneway/internal/tui/model"
	"github.com/sudomakes/oneway/internal/tui/ui"
	"github.com/sudomakes/oneway/internal/tui/views"
	"go.uber.org/zap"
)

const (
	defaultChatLimit = 500
	sendTimeout      = 30 * time.Second
	tickInterval     = time.Second
)

// Options configures the TUI.
type Options struct {
	Suffix      string // shown in the composer; the sender applies it
	ChatLimit   int
	SearchLimit int
	Session     SessionState // optional; seeds the status bar before the first event
}

// SessionState reports the current session state.
type SessionState interface {
	Current() status.State
}

// App is the main TUI application shell.
type App struct {
	app       *tview.Application
	pages     *ui.Pages
	theme     *ui.Theme
	vm        *model.ViewModel
	bus       *bus.Bus
	registry  *keys.Registry
	statusBar *views.StatusBar
	chatList  *views.ChatList
	composer  *views.Composer
	searchV   *views.SearchView
	opts      Options
	logger    *zap.Logger
	ctx       context.Context
	cancel    context.CancelFunc

	syncCh, sessionCh <-chan bus.Event
	unsubscribe       []func()
}

// NewApp creates the TUI over the query layer and sender. Status updates are
// read from b.
func NewApp(q model.Queries, s model.Sender, b *bus.Bus, opts Options, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.ChatLimit <= 0 {
		opts.ChatLimit = defaultChatLimit
	}
	theme := ui.DefaultTheme()

	a := &App{
		app:       tview.NewApplication(),
		pages:     ui.NewPages(),
		theme:     theme,
		vm:        model.NewViewModel(q, s),
		bus:       b,
		registry:  keys.NewRegistry(),
		statusBar: views.NewStatusBar(theme),
		chatList:  views.NewChatList(theme),
		composer:  views.NewComposer(theme, opts.Suffix),
		searchV:   views.NewSearchView(theme),
		opts:      opts,
		logger:    logger.Named("tui"),
	}

	// Subscribe before Run so a pass started alongside the UI is seen from
	// its first update.
	if b != nil {
		var unsubSync, unsubSession func()
		a.syncCh, unsubSync = b.Subscribe("sync.", 64)
		a.sessionCh, unsubSession = b.Subscribe("session.", 16)
		a.unsubscribe = []func(){unsubSync, unsubSession}
	}

	a.setupBindings()
	a.setupCallbacks()
	a.setupLayout()
	return a
}

func (a *App) setupBindings() {
	a.registry.AddPage(ui.PageChats, &keys.Action{
		Key: tcell.KeyRune, Rune: '/',
		Description: "/:filter", Visible: true,
		Handler: func() { a.app.SetFocus(a.chatList.Filter()) },
	})
	a.registry.AddPage(ui.PageChats, &keys.Action{
		Key: tcell.KeyRune, Rune: 'r',
		Description: "r:reload", Visible: true,
		Handler: func() { a.reloadChats(a.chatList.Filter().GetText()) },
	})
	a.registry.AddPage(ui.PageCompose, &keys.Action{
		Key: tcell.KeyRune, Rune: 'i',
		Description: "i:write", Visible: true,
		Handler: func() { a.app.SetFocus(a.composer.Input()) },
	})
	a.registry.AddPage(ui.PageCompose, &keys.Action{
		Key: tcell.KeyRune, Rune: 'f',
		Description: "f:find in chat", Visible: true,
		Handler: func() {
			if chat, _ := a.vm.Active(); chat != nil {
				a.showSearch(chat.Name)
			}
		},
	})
	a.registry.AddGlobal(&keys.Action{
		Key: tcell.KeyRune, Rune: 's',
		Description: "s:search", Visible: true,
		Handler: func() { a.showSearch("") },
	})
	a.registry.AddGlobal(&keys.Action{
		Key: tcell.KeyRune, Rune: 'q',
		Description: "q:quit", Visible: true,
		Handler: a.Stop,
	})
}

func (a *App) setupCallbacks() {
	a.chatList.SetOnSelect(func(chat store.Chat) {
		go a.openChat(func() (bool, error) { return true, a.vm.OpenChat(chat) })
	})
	a.chatList.SetOnFilter(func(text string) {
		a.reloadChats(text)
	})

	a.composer.SetOnSend(func(text string) {
		a.composer.SetSending(true)
		go func() {
			ctx, cancel := context.WithTimeout(a.ctx, sendTimeout)
			defer cancel()
			res, err := a.vm.SendToActive(ctx, text)
			if err != nil {
				a.logger.Warn("send failed", zap.Error(err))
				a.vm.Flash.Err("send failed: " + err.Error())
			} else {
				a.vm.Flash.Info("sent to " + res.Recipient.ChatID)
			}
			a.app.QueueUpdateDraw(func() {
				a.composer.SetSending(false)
				if err == nil {
					a.composer.Clear()
				}
				a.renderCompose()
				a.renderStatus()
			})
		}()
	})

	a.searchV.SetOnQuery(func(q, chatName string) {
		go func() {
			if err := a.vm.Search(q, chatName, a.opts.SearchLimit); err != nil {
				a.vm.Flash.Err("search failed: " + err.Error())
				a.app.QueueUpdateDraw(a.renderStatus)
				return
			}
			results, q := a.vm.GetResults()
			a.app.QueueUpdateDraw(func() {
				a.searchV.Update(results, q)
				if len(results) > 0 {
					a.app.SetFocus(a.searchV.Results())
				}
			})
		}()
	})
	a.searchV.SetOnOpen(func(m store.Message) {
		go a.openChat(func() (bool, error) { return a.vm.OpenChatByName(m.ChatName) })
	})
}

func (a *App) setupLayout() {
	a.pages.AddPage(ui.PageChats, a.chatList, true, false)
	a.pages.AddPage(ui.PageCompose, a.composer, true, false)
	a.pages.AddPage(ui.PageSearch, a.searchV, true, false)
	a.pages.SetOnChange(func(string) { a.renderStatus() })
	a.pages.Reset(ui.PageChats)

	root := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.statusBar, 1, 0, false)
	a.app.SetRoot(root, true)
	a.app.SetFocus(a.chatList.Table())

	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		page := a.pages.Current()

		if event.Key() == tcell.KeyEscape {
			a.back(page)
			return nil
		}

		// Text inputs own every other key.
		if _, ok := a.app.GetFocus().(*tview.InputField); ok {
			return event
		}

		if a.registry.HandleEvent(page, event) {
			return nil
		}
		return event
	})
}

// back leaves the focused input first, then pops the page stack.
func (a *App) back(page string) {
	switch {
	case a.app.GetFocus() == a.chatList.Filter():
		a.app.SetFocus(a.chatList.Table())
	case page == ui.PageCompose && a.app.GetFocus() == a.composer.Input():
		a.app.SetFocus(a.composer.Info())
	case page == ui.PageSearch && a.app.GetFocus() == a.searchV.Results():
		a.app.SetFocus(a.searchV.Input())
	case a.pages.Back():
		a.focusPage(a.pages.Current())
	}
}

func (a *App) focusPage(page string) {
	switch page {
	case ui.PageChats:
		a.app.SetFocus(a.chatList.Table())
	case ui.PageCompose:
		a.app.SetFocus(a.composer.Input())
	case ui.PageSearch:
		a.app.SetFocus(a.searchV.Input())
	}
}

func (a *App) showSearch(chatName string) {
	a.searchV.SetScope(chatName)
	a.pages.Push(ui.PageSearch)
	a.focusPage(ui.PageSearch)
}

// openChat runs open off the UI goroutine, then shows the composer.
func (a *App) openChat(open func() (bool, error)) {
	ok, err := open()
	if err != nil {
		a.vm.Flash.Err("open chat: " + err.Error())
	} else if !ok {
		a.vm.Flash.Warn("chat is no longer in the archive")
	}
	a.app.QueueUpdateDraw(func() {
		if err == nil && ok {
			a.renderCompose()
			a.pages.Push(ui.PageCompose)
			a.focusPage(ui.PageCompose)
		}
		a.renderStatus()
	})
}

func (a *App) reloadChats(filter string) {
	go func() {
		if err := a.vm.LoadChats(filter, a.opts.ChatLimit); err != nil {
			a.vm.Flash.Err("load chats: " + err.Error())
		}
		chats := a.vm.GetChats()
		a.app.QueueUpdateDraw(func() {
			a.chatList.Update(chats)
			a.renderStatus()
		})
	}()
}

func (a *App) renderCompose() {
	chat, last := a.vm.Active()
	a.composer.Update(chat, last)
}

func (a *App) renderStatus() {
	session, prog, stats := a.vm.Status()
	a.statusBar.Update(views.StatusLine{
		Session:  session,
		Progress: prog,
		Stats:    stats,
		Hints:    a.registry.Hints(a.pages.Current()),
		Flash:    a.vm.Flash.Get(),
	})
}

// watch feeds sync and session events into the view model until ctx ends.
// A finished pass reloads the chat list so new chats show up.
func (a *App) watch(ctx context.Context) {
	defer func() {
		for _, unsub := range a.unsubscribe {
			unsub()
		}
	}()

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-a.syncCh:
			if !ok {
				return
			}
			a.vm.Apply(evt)
			if evt.Kind == progress.KindSyncDone {
				a.reloadChats(a.currentFilter())
			}
		case evt, ok := <-a.sessionCh:
			if !ok {
				return
			}
			a.vm.Apply(evt)
		case <-a.vm.RefreshCh():
			a.app.QueueUpdateDraw(a.renderStatus)
		case <-ticker.C:
			a.app.QueueUpdateDraw(a.renderStatus)
		}
	}
}

func (a *App) currentFilter() string {
	done := make(chan string, 1)
	a.app.QueueUpdate(func() { done <- a.chatList.Filter().GetText() })
	select {
	case f := <-done:
		return f
	case <-a.ctx.Done():
		return ""
	}
}

// Run shows the TUI until the user quits or ctx is canceled.
func (a *App) Run(ctx context.Context) error {
	a.ctx, a.cancel = context.WithCancel(ctx)
	defer a.cancel()

	if a.bus != nil {
		go a.watch(a.ctx)
	}
	go func() {
		<-a.ctx.Done()
		a.app.Stop()
	}()

	if a.opts.Session != nil {
		a.vm.Apply(bus.Event{Kind: status.KindChanged, Payload: status.Change{To: a.opts.Session.Current()}})
	}
	a.reloadChats("")
	a.renderStatus()
	a.logger.Info("tui started")
	err := a.app.Run()
	a.logger.Info("tui stopped")
	return err
}

// Stop gracefully shuts down the TUI.
func (a *App) Stop() {
	if a.cancel != nil {
		a.cancel()
	}
	a.app.Stop()
}
