// Package app wires the QuickNotes terminal client: config, logger, remote
// client, session, access layer, list controller and the command loop.
package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/itsDongki/quicknotes/internal/config"
	"github.com/itsDongki/quicknotes/internal/controller"
	"github.com/itsDongki/quicknotes/internal/health"
	"github.com/itsDongki/quicknotes/internal/logger"
	"github.com/itsDongki/quicknotes/internal/model"
	"github.com/itsDongki/quicknotes/internal/notes"
	"github.com/itsDongki/quicknotes/internal/remote"
	"github.com/itsDongki/quicknotes/internal/session"
	"github.com/itsDongki/quicknotes/internal/version"
)

type App struct {
	cfg    *config.Config
	logger logger.Logger
	client *remote.Client
	svc    *notes.Service
	cache  *session.Cache
	sess   session.Session
	ctrl   *controller.Controller
	poller *health.Poller

	in  io.Reader
	out io.Writer

	updates chan controller.Snapshot
}

// New builds the client with explicit construction order; nothing lives in
// package-level state.
func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	client, err := remote.New(remote.Options{
		BaseURL: cfg.RemoteURL,
		APIKey:  cfg.APIKey,
		Timeout: cfg.HTTPTimeout,
	})
	if err != nil {
		return nil, err
	}

	cache, err := session.NewCache(cfg.TokenFile)
	if err != nil {
		return nil, err
	}

	return &App{
		cfg:     cfg,
		logger:  loggerClient,
		client:  client,
		svc:     notes.NewService(client),
		cache:   cache,
		in:      os.Stdin,
		out:     os.Stdout,
		updates: make(chan controller.Snapshot, 16),
	}, nil
}

// Run signs in, starts the controller and health poller, then serves the
// command loop until quit or EOF.
func (a *App) Run() error {
	defer func() { _ = a.logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(a.out, "QuickNotes %s (%s)\n", version.Version, a.cfg.RemoteURL)

	scanner := bufio.NewScanner(a.in)
	scanner.Buffer(make([]byte, 64*1024), 64*1024)

	if err := a.signIn(ctx, scanner); err != nil {
		return err
	}

	ctrl, err := controller.New(a.svc, controller.Options{
		Owner:    a.sess.Owner,
		PageSize: a.cfg.PageSize,
		Debounce: a.cfg.DebounceWindow,
		Logger:   a.logger,
		OnChange: a.publish,
	})
	if err != nil {
		return err
	}
	a.ctrl = ctrl
	a.ctrl.Start(ctx)
	defer a.ctrl.Stop()

	a.poller = health.NewPoller(a.client, a.logger, a.cfg.HealthInterval)
	a.poller.Start(ctx)
	defer a.poller.Stop()

	// Initial page.
	a.render(a.awaitFetch(a.cfg.HTTPTimeout))

	for {
		fmt.Fprint(a.out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(a.out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		if quit := a.dispatch(ctx, line); quit {
			return nil
		}
	}
}

// signIn restores a cached session or prompts for credentials.
func (a *App) signIn(ctx context.Context, scanner *bufio.Scanner) error {
	if sess, err := a.cache.Load(); err == nil {
		a.sess = sess
		a.client.SetToken(sess.Token)
		fmt.Fprintf(a.out, "signed in as %s (cached session)\n", sess.Username)
		return nil
	}

	for {
		fmt.Fprint(a.out, "username: ")
		if !scanner.Scan() {
			return errors.New("sign-in aborted")
		}
		username := strings.TrimSpace(scanner.Text())

		fmt.Fprint(a.out, "password: ")
		if !scanner.Scan() {
			return errors.New("sign-in aborted")
		}
		password := scanner.Text()

		sess, err := session.SignIn(ctx, a.client, username, password)
		if err != nil {
			fmt.Fprintf(a.out, "sign-in failed: %v\n", err)
			continue
		}

		a.sess = sess
		a.client.SetToken(sess.Token)
		if err := a.cache.Save(sess); err != nil {
			a.logger.Warnf("failed to cache session: %v", err)
		}
		fmt.Fprintf(a.out, "signed in as %s\n", username)
		return nil
	}
}

// publish forwards controller snapshots to the command loop. The channel is
// buffered; the loop drains to the newest before rendering.
func (a *App) publish(snap controller.Snapshot) {
	select {
	case a.updates <- snap:
	default:
		// Drop one stale update rather than block the controller loop.
		select {
		case <-a.updates:
		default:
		}
		select {
		case a.updates <- snap:
		default:
		}
	}
}

// awaitFetch waits until a fetch begun within the deadline completes, then
// returns the resulting snapshot. When no fetch starts (e.g. the debounce
// guard suppressed it), the current snapshot is returned.
func (a *App) awaitFetch(deadline time.Duration) controller.Snapshot {
	timeout := time.After(deadline + a.cfg.HTTPTimeout)
	started := false
	for {
		select {
		case snap := <-a.updates:
			if snap.Loading {
				started = true
				continue
			}
			if started {
				return snap
			}
		case <-timeout:
			return a.ctrl.Snapshot()
		}
	}
}

func (a *App) dispatch(ctx context.Context, line string) (quit bool) {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "quit", "exit", "q":
		return true
	case "help", "h":
		a.printHelp()
	case "list", "ls":
		a.ctrl.Refresh()
		a.render(a.awaitFetch(time.Second))
	case "search", "s":
		term := strings.TrimSpace(strings.TrimPrefix(line, cmd))
		a.ctrl.SetSearch(term)
		a.render(a.awaitFetch(a.cfg.DebounceWindow + 200*time.Millisecond))
	case "sort":
		a.cmdSort(args)
	case "page", "p":
		a.cmdPage(args)
	case "next", "n":
		a.gotoPage(a.ctrl.Snapshot().Page + 1)
	case "prev":
		a.gotoPage(a.ctrl.Snapshot().Page - 1)
	case "new":
		a.cmdNew(ctx, strings.TrimSpace(strings.TrimPrefix(line, cmd)))
	case "view", "v":
		a.cmdView(ctx, args)
	case "edit":
		a.cmdEdit(ctx, args)
	case "rm", "del":
		a.cmdDelete(ctx, args)
	case "status":
		a.cmdStatus()
	case "logout":
		if err := a.cache.Clear(); err != nil {
			fmt.Fprintf(a.out, "logout failed: %v\n", err)
			return false
		}
		fmt.Fprintln(a.out, "session cleared; restart to sign in again")
		return true
	default:
		fmt.Fprintf(a.out, "unknown command %q (try: help)\n", cmd)
	}
	return false
}

func (a *App) cmdSort(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(a.out, "usage: sort created|updated")
		return
	}
	var field model.SortField
	switch args[0] {
	case "created":
		field = model.SortByCreatedAt
	case "updated":
		field = model.SortByUpdatedAt
	default:
		fmt.Fprintln(a.out, "usage: sort created|updated")
		return
	}
	a.ctrl.ToggleSort(field)
	a.render(a.awaitFetch(time.Second))
}

func (a *App) cmdPage(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(a.out, "usage: page N")
		return
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Fprintln(a.out, "usage: page N")
		return
	}
	a.gotoPage(n)
}

// gotoPage range-checks before asking the controller; out-of-range pages are
// the caller's mistake, not the controller's problem.
func (a *App) gotoPage(n int) {
	snap := a.ctrl.Snapshot()
	last := snap.TotalPages()
	if last == 0 {
		last = 1
	}
	if n < 1 || n > last {
		fmt.Fprintf(a.out, "page %d out of range (1-%d)\n", n, last)
		return
	}
	a.ctrl.SetPage(n)
	a.render(a.awaitFetch(time.Second))
}

func (a *App) cmdNew(ctx context.Context, rest string) {
	parts := strings.Split(rest, "|")
	if rest == "" || len(parts) < 1 || strings.TrimSpace(parts[0]) == "" {
		fmt.Fprintln(a.out, "usage: new <title> | <content> | <color>")
		return
	}
	draft := model.Draft{Title: strings.TrimSpace(parts[0])}
	if len(parts) > 1 {
		draft.Content = strings.TrimSpace(parts[1])
	}
	if len(parts) > 2 {
		color, err := model.ParseColor(strings.TrimSpace(parts[2]))
		if err != nil {
			fmt.Fprintln(a.out, err)
			return
		}
		draft.Color = color
	}

	note, err := a.ctrl.Create(ctx, draft)
	if err != nil {
		fmt.Fprintf(a.out, "create failed: %v\n", err)
		return
	}
	fmt.Fprintf(a.out, "created %s\n", shortID(note.ID))
	a.render(a.awaitFetch(time.Second))
}

func (a *App) cmdView(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(a.out, "usage: view <id>")
		return
	}
	id, ok := a.resolveID(args[0])
	if !ok {
		return
	}

	note, found, err := a.svc.GetByID(ctx, id, a.sess.Owner)
	if err != nil {
		fmt.Fprintf(a.out, "fetch failed: %v\n", err)
		return
	}
	if !found {
		fmt.Fprintln(a.out, "note not found")
		return
	}

	fmt.Fprintf(a.out, "id:      %s\n", note.ID)
	fmt.Fprintf(a.out, "title:   %s\n", note.Title)
	fmt.Fprintf(a.out, "color:   %s\n", note.Color)
	fmt.Fprintf(a.out, "created: %s\n", note.CreatedAt.Local().Format(time.RFC822))
	fmt.Fprintf(a.out, "updated: %s\n", note.UpdatedAt.Local().Format(time.RFC822))
	fmt.Fprintln(a.out, note.Content)
}

func (a *App) cmdEdit(ctx context.Context, args []string) {
	if len(args) < 3 {
		fmt.Fprintln(a.out, "usage: edit <id> title|content|color <value>")
		return
	}
	id, ok := a.resolveID(args[0])
	if !ok {
		return
	}
	value := strings.Join(args[2:], " ")

	var patch model.Patch
	switch args[1] {
	case "title":
		patch.Title = &value
	case "content":
		patch.Content = &value
	case "color":
		color, err := model.ParseColor(value)
		if err != nil {
			fmt.Fprintln(a.out, err)
			return
		}
		patch.Color = &color
	default:
		fmt.Fprintln(a.out, "usage: edit <id> title|content|color <value>")
		return
	}

	note, err := a.ctrl.Update(ctx, id, patch)
	if err != nil {
		fmt.Fprintf(a.out, "update failed: %v\n", err)
		return
	}
	fmt.Fprintf(a.out, "updated %s\n", shortID(note.ID))
	a.render(a.awaitFetch(time.Second))
}

func (a *App) cmdDelete(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(a.out, "usage: rm <id>")
		return
	}
	id, ok := a.resolveID(args[0])
	if !ok {
		return
	}
	if err := a.ctrl.Delete(ctx, id); err != nil {
		fmt.Fprintf(a.out, "delete failed: %v\n", err)
		return
	}
	fmt.Fprintf(a.out, "deleted %s\n", shortID(id))
	a.render(a.awaitFetch(time.Second))
}

func (a *App) cmdStatus() {
	st := a.poller.Status()
	if st.CheckedAt.IsZero() {
		fmt.Fprintln(a.out, "connection: unknown (no probe yet)")
	} else if st.Connected {
		fmt.Fprintf(a.out, "connection: ok (%s, checked %s ago)\n",
			st.Latency.Round(time.Millisecond), time.Since(st.CheckedAt).Round(time.Second))
	} else {
		fmt.Fprintf(a.out, "connection: DOWN (%s)\n", st.LastError)
	}
	fmt.Fprintf(a.out, "user: %s (session expires %s)\n",
		a.sess.Username, a.sess.ExpiresAt.Local().Format(time.RFC822))
}

// resolveID accepts a full id or a unique prefix of an id on the current
// page.
func (a *App) resolveID(arg string) (string, bool) {
	var match string
	for _, n := range a.ctrl.Snapshot().Items {
		if n.ID == arg {
			return arg, true
		}
		if strings.HasPrefix(n.ID, arg) {
			if match != "" {
				fmt.Fprintf(a.out, "ambiguous id prefix %q\n", arg)
				return "", false
			}
			match = n.ID
		}
	}
	if match == "" {
		// Not on the current page; pass through as-is and let the service
		// answer.
		return arg, true
	}
	return match, true
}

func (a *App) render(snap controller.Snapshot) {
	if snap.Err != "" {
		fmt.Fprintf(a.out, "error: %s\n", snap.Err)
	}
	if snap.Total == 0 {
		if snap.Search != "" {
			fmt.Fprintf(a.out, "no notes match %q\n", snap.Search)
		} else {
			fmt.Fprintln(a.out, "no notes yet (try: new <title> | <content>)")
		}
		return
	}

	for _, n := range snap.Items {
		title := n.Title
		if len(title) > 40 {
			title = title[:37] + "..."
		}
		fmt.Fprintf(a.out, "%s  %-7s %-40s %s\n",
			shortID(n.ID), n.Color, title, n.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}

	line := fmt.Sprintf("page %d/%d, %d note(s), sort %s %s",
		snap.Page, snap.TotalPages(), snap.Total, snap.SortField, snap.SortOrder)
	if snap.Search != "" {
		line += fmt.Sprintf(", search %q", snap.Search)
	}
	fmt.Fprintln(a.out, line)
}

func (a *App) printHelp() {
	fmt.Fprint(a.out, `commands:
  list              refetch and show the current page
  search <text>     filter by title/content (empty to clear)
  sort created      sort by creation time (repeat to flip direction)
  sort updated      sort by update time (repeat to flip direction)
  page N | next | prev
  new <title> | <content> | <color>
  view <id>         show a full note
  edit <id> title|content|color <value>
  rm <id>           delete a note
  status            connection and session info
  logout            clear the cached session and exit
  quit
`)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
