package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/idilsaglam/todo/internal/config"
	"github.com/idilsaglam/todo/internal/model"
	"github.com/idilsaglam/todo/internal/store"
	"github.com/idilsaglam/todo/internal/tui"
	"github.com/idilsaglam/todo/internal/ui"
)

// Options tune behavior from root flags. Empty values keep what the
// config file says.
type Options struct {
	Group       bool // plain list grouped by pending/done
	ConfigPath  string
	Backend     string
	URL         string
	Project     string
	Credentials string
	Collection  string
	Theme       string
	LogFile     string
	Addr        string
}

// Run dispatches subcommands and returns an exit code (0 ok, 1 error, 2 usage).
func Run(args []string, opt Options) int {
	if len(args) == 0 {
		PrintHelp()
		return 2
	}
	cmd, a := args[0], args[1:]
	if cmd == "help" || cmd == "-h" || cmd == "--help" {
		PrintHelp()
		return 0
	}

	cfg, err := loadConfig(opt)
	if err != nil {
		ui.Fail("config: " + err.Error())
		return 2
	}
	if err := ui.SetTheme(cfg.Theme); err != nil {
		ui.Fail(err.Error())
		return 2
	}
	ctx := context.Background()

	switch cmd {
	case "ls":
		fs := flag.NewFlagSet("ls", flag.ContinueOnError)
		fs.SetOutput(ui.Stderr())
		plain := fs.Bool("plain", false, "print the list instead of opening the interactive view")
		if err := fs.Parse(a); err != nil {
			return 2
		}
		return withBackend(ctx, cfg, func(b *backend) int {
			if *plain {
				return doList(ctx, b.store, opt)
			}
			return doInteractive(ctx, cfg, b)
		})

	case "add":
		if len(a) == 0 {
			ui.Fail("usage: todo add <title...>")
			return 2
		}
		title := strings.Join(a, " ")
		if _, ok := model.NormalizeTitle(title); !ok {
			ui.Fail("add: empty title")
			return 2
		}
		return withBackend(ctx, cfg, func(b *backend) int { return doAdd(ctx, b.store, title) })

	case "done":
		if len(a) != 1 {
			ui.Fail("usage: todo done <index>")
			return 2
		}
		n, err := strconv.Atoi(a[0])
		if err != nil {
			ui.Fail("done: not a number: " + a[0])
			return 2
		}
		return withBackend(ctx, cfg, func(b *backend) int { return doToggle(ctx, b.store, n) })

	case "edit":
		if len(a) < 2 {
			ui.Fail("usage: todo edit <index> <title...>")
			return 2
		}
		n, err := strconv.Atoi(a[0])
		if err != nil {
			ui.Fail("edit: not a number: " + a[0])
			return 2
		}
		title := strings.Join(a[1:], " ")
		return withBackend(ctx, cfg, func(b *backend) int { return doEdit(ctx, b.store, n, title) })

	case "rm":
		if len(a) != 1 {
			ui.Fail("usage: todo rm <index>")
			return 2
		}
		n, err := strconv.Atoi(a[0])
		if err != nil {
			ui.Fail("rm: not a number: " + a[0])
			return 2
		}
		return withBackend(ctx, cfg, func(b *backend) int { return doRemove(ctx, b.store, n) })

	case "serve":
		return doServe(cfg)
	}

	ui.Fail("unknown subcommand: " + cmd)
	fmt.Fprintln(ui.Stderr())
	PrintHelp()
	return 2
}

func PrintHelp() {
	fmt.Fprintf(ui.Stdout(), `todo - a tiny realtime / REST todo client

Usage:
  todo [flags] <subcommand> [args]

Subcommands:
  ls [-plain]               Open the interactive list (or print it)
  add <title...>            Add a new item (title can be multiple words)
  done <index>              Toggle completed for item at 1-based index
  edit <index> <title...>   Rename item at 1-based index
  rm <index>                Remove item at 1-based index
  serve                     Run the local REST backend

Backends (-backend or config "backend"):
  firestore   Cloud Firestore collection, live updates
  rest        REST endpoint, re-fetch after each change
  rest-live   REST endpoint, live updates over websocket

Examples:
  todo add "Buy milk"
  todo ls
  todo -backend firestore -project my-project ls
  todo done 2
  todo rm 3
`)
}

func loadConfig(opt Options) (*config.Config, error) {
	path := opt.ConfigPath
	if path == "" {
		p, err := config.Path()
		if err != nil {
			return nil, err
		}
		path = p
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	override(&cfg.Backend, opt.Backend)
	override(&cfg.REST.URL, opt.URL)
	override(&cfg.Firestore.ProjectID, opt.Project)
	override(&cfg.Firestore.CredentialsFile, opt.Credentials)
	override(&cfg.Firestore.Collection, opt.Collection)
	override(&cfg.Theme, opt.Theme)
	override(&cfg.LogFile, opt.LogFile)
	override(&cfg.Server.Addr, opt.Addr)
	return cfg, cfg.Validate()
}

func withBackend(ctx context.Context, cfg *config.Config, fn func(*backend) int) int {
	b, err := openBackend(ctx, cfg)
	if err != nil {
		ui.Fail(cfg.Backend + ": " + err.Error())
		return 1
	}
	defer b.Close()
	return fn(b)
}

// -------------- subcommand impls ----------------

func doInteractive(ctx context.Context, cfg *config.Config, b *backend) int {
	logger, closeLog, err := newLogger(cfg.LogFile)
	if err != nil {
		ui.Fail("log: " + err.Error())
		return 1
	}
	defer closeLog()

	timeout, err := cfg.RESTTimeout()
	if err != nil {
		ui.Fail("config: " + err.Error())
		return 2
	}
	err = tui.Run(ctx, tui.Backend{Store: b.store, Fetcher: b.store, Feed: b.feed},
		tui.WithLogger(logger),
		tui.WithTimeout(timeout),
	)
	if err != nil {
		ui.Fail("tui: " + err.Error())
		return 1
	}
	return 0
}

func doList(ctx context.Context, st store.Store, opt Options) int {
	items, err := st.FetchAll(ctx)
	if err != nil {
		ui.Fail("load: " + err.Error())
		return 1
	}

	// Header + progress
	t := ui.Current()
	d, p := model.Stats(items)
	header := fmt.Sprintf("%s  %s %d  %s %d  %s %d",
		ui.C(t.Title, "Todos"),
		ui.C(t.Success, t.SymDone), d,
		ui.C(t.Pending, t.SymPending), p,
		ui.C(t.Accent, "Total"), len(items),
	)

	var lines []string
	lines = append(lines, header)
	lines = append(lines, ui.C(t.Muted, ui.ProgressBar(d, d+p, 28)))
	lines = append(lines, "")

	if opt.Group {
		lines = append(lines, groupLines(items)...)
	} else {
		lines = append(lines, flatLines(items)...)
	}
	lines = append(lines, "")
	lines = append(lines, ui.C(t.Muted, "Tip: add with `todo add \"Buy milk\"`"))
	ui.Panel(lines)
	return 0
}

func doAdd(ctx context.Context, st store.Store, title string) int {
	if _, err := st.Add(ctx, title); err != nil {
		if errors.Is(err, store.ErrEmptyTitle) {
			ui.Fail("add: empty title")
			return 2
		}
		ui.Fail("add: " + err.Error())
		return 1
	}
	ui.OK("added")
	return 0
}

func doToggle(ctx context.Context, st store.Store, userIndex int) int {
	it, code := pick(ctx, st, userIndex)
	if code != 0 {
		return code
	}
	if _, err := st.Update(ctx, it.ID, model.CompletedPatch(!it.Completed)); err != nil {
		ui.Fail("done: " + err.Error())
		return 1
	}
	ui.OK("toggled")
	return 0
}

func doEdit(ctx context.Context, st store.Store, userIndex int, title string) int {
	it, code := pick(ctx, st, userIndex)
	if code != 0 {
		return code
	}
	if _, err := st.Update(ctx, it.ID, model.TitlePatch(title)); err != nil {
		if errors.Is(err, store.ErrNoChange) {
			ui.Fail("edit: empty title, nothing changed")
			return 2
		}
		ui.Fail("edit: " + err.Error())
		return 1
	}
	ui.OK("renamed")
	return 0
}

func doRemove(ctx context.Context, st store.Store, userIndex int) int {
	it, code := pick(ctx, st, userIndex)
	if code != 0 {
		return code
	}
	if err := st.Remove(ctx, it.ID); err != nil {
		ui.Fail("rm: " + err.Error())
		return 1
	}
	ui.OK("removed")
	return 0
}

// pick resolves a 1-based index against the list in display order.
func pick(ctx context.Context, st store.Store, userIndex int) (model.Item, int) {
	items, err := st.FetchAll(ctx)
	if err != nil {
		ui.Fail("load: " + err.Error())
		return model.Item{}, 1
	}
	if userIndex < 1 || userIndex > len(items) {
		ui.Fail(fmt.Sprintf("index out of range: have %d, got %d", len(items), userIndex))
		ui.Hint("run `todo ls -plain` to see valid indexes")
		return model.Item{}, 2
	}
	return items[userIndex-1], 0
}

// -------------- rendering helpers --------------

func flatLines(items []model.Item) []string {
	t := ui.Current()
	if len(items) == 0 {
		return []string{ui.C(t.Muted, "No todos yet")}
	}
	out := make([]string, 0, len(items))
	for i, it := range items {
		idx := fmt.Sprintf("%2d.", i+1)
		title := ui.Truncate(it.Title, 80)
		if it.Completed {
			title = ui.C(t.Muted, title)
		}
		out = append(out, fmt.Sprintf("%s %s %s", ui.Dim(idx), ui.Checkbox(it.Completed), title))
	}
	return out
}

// groupLines keeps the display indexes of the flat list so they can be
// passed to done / edit / rm.
func groupLines(items []model.Item) []string {
	t := ui.Current()
	flat := flatLines(items)
	if len(items) == 0 {
		return flat
	}
	var pend, done []string
	for i, it := range items {
		if it.Completed {
			done = append(done, flat[i])
		} else {
			pend = append(pend, flat[i])
		}
	}
	section := func(name string, rows []string) []string {
		lines := []string{ui.C(t.Accent, name)}
		if len(rows) == 0 {
			return append(lines, ui.C(t.Muted, "(none)"))
		}
		return append(lines, rows...)
	}
	lines := section("Pending", pend)
	lines = append(lines, "")
	return append(lines, section("Done", done)...)
}
