// Package tui is the interactive client: a Bubble Tea model that binds
// keys to store calls and renders the list.
package tui

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/idilsaglam/todo/internal/model"
	"github.com/idilsaglam/todo/internal/store"
)

// Alert texts, one per failing action.
const (
	msgAddFailed    = "Failed to add the todo."
	msgUpdateFailed = "Failed to update the todo."
	msgToggleFailed = "Failed to change the completed state."
	msgDeleteFailed = "Failed to delete the todo."
	msgLoadFailed   = "Failed to load the todo list."
)

// Backend wires the model to a store. With Feed set the model runs the
// push variant: it never re-fetches and trusts the next snapshot. Without
// it, Fetcher is required and every mutation is followed by a re-fetch.
type Backend struct {
	Store   store.Mutator
	Fetcher store.Fetcher
	Feed    store.Subscriber
}

func (b Backend) push() bool { return b.Feed != nil }

type focus int

const (
	focusList focus = iota
	focusAdd
)

// state is everything the view depends on besides the input widgets.
type state struct {
	items         []model.Item
	cursor        int
	focus         focus
	editingID     string // non-empty while a row is in Editing
	pendingDelete string // pull variant: row awaiting y/n
	alert         string // blocking notification
	loading       bool
	push          bool
}

type (
	snapshotMsg struct{ snap store.Snapshot }
	fetchedMsg  struct {
		items []model.Item
		err   error
	}
	addedMsg struct {
		item model.Item
		err  error
	}
	updatedMsg struct {
		id     string
		action string
		revert *bool // pull variant toggle: the value before the optimistic flip
		err    error
	}
	removedMsg struct {
		id  string
		err error
	}
)

type Model struct {
	backend Backend
	st      state
	add     textinput.Model
	edit    textinput.Model
	keys    keyMap
	help    help.Model
	log     *slog.Logger
	timeout time.Duration
	width   int
}

type Option func(*Model)

func WithLogger(l *slog.Logger) Option {
	return func(m *Model) {
		if l != nil {
			m.log = l
		}
	}
}

// WithCursorMode sets the cursor mode of both inputs.
func WithCursorMode(mode cursor.Mode) Option {
	return func(m *Model) {
		_ = m.add.Cursor.SetMode(mode)
		_ = m.edit.Cursor.SetMode(mode)
	}
}

func WithTimeout(d time.Duration) Option {
	return func(m *Model) {
		if d > 0 {
			m.timeout = d
		}
	}
}

func New(b Backend, opts ...Option) Model {
	add := textinput.New()
	add.Prompt = "> "
	add.Placeholder = "What needs to be done?"
	add.CharLimit = 200

	edit := textinput.New()
	edit.Prompt = ""
	edit.Placeholder = "Edit item title..."
	edit.CharLimit = 200

	keys := newKeyMap()
	keys.Reload.SetEnabled(!b.push())

	m := Model{
		backend: b,
		st:      state{loading: true, push: b.push()},
		add:     add,
		edit:    edit,
		keys:    keys,
		help:    help.New(),
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		timeout: 15 * time.Second,
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Init loads the list in the pull variant. The push variant waits for the
// first snapshot delivered by Run.
func (m Model) Init() tea.Cmd {
	if m.st.push {
		return nil
	}
	return m.fetch()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case snapshotMsg:
		m.st.loading = false
		if msg.snap.Err != nil {
			return m.fail(msgLoadFailed, msg.snap.Err), nil
		}
		items := append([]model.Item(nil), msg.snap.Items...)
		model.SortNewestFirst(items)
		m.setItems(items)
		return m, nil

	case fetchedMsg:
		m.st.loading = false
		if msg.err != nil {
			return m.fail(msgLoadFailed, msg.err), nil
		}
		m.setItems(msg.items)
		return m, nil

	case addedMsg:
		if msg.err != nil {
			return m.fail(msgAddFailed, msg.err), m.resync()
		}
		m.log.Info("added", "id", msg.item.ID)
		return m, m.resync()

	case updatedMsg:
		if errors.Is(msg.err, store.ErrNoChange) {
			return m, nil
		}
		if msg.err != nil {
			if msg.revert != nil {
				m.setCompleted(msg.id, *msg.revert)
			}
			return m.fail(msg.action, msg.err), m.resync()
		}
		m.log.Info("updated", "id", msg.id)
		return m, m.resync()

	case removedMsg:
		if msg.err != nil {
			return m.fail(msgDeleteFailed, msg.err), m.resync()
		}
		m.log.Info("removed", "id", msg.id)
		return m, m.resync()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	// cursor blinks and friends go to whichever input has focus
	var cmd tea.Cmd
	switch {
	case m.st.editingID != "":
		m.edit, cmd = m.edit.Update(msg)
	case m.st.focus == focusAdd:
		m.add, cmd = m.add.Update(msg)
	}
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Abort) {
		return m, tea.Quit
	}

	// the alert blocks everything until dismissed
	if m.st.alert != "" {
		if key.Matches(msg, m.keys.Dismiss) {
			m.st.alert = ""
		}
		return m, nil
	}

	if m.st.pendingDelete != "" {
		id := m.st.pendingDelete
		switch {
		case key.Matches(msg, m.keys.Confirm):
			m.st.pendingDelete = ""
			return m, m.remove(id)
		case key.Matches(msg, m.keys.Deny):
			m.st.pendingDelete = ""
		}
		return m, nil
	}

	if m.st.editingID != "" {
		switch {
		case key.Matches(msg, m.keys.Save):
			return m.commitEdit()
		case key.Matches(msg, m.keys.Cancel):
			return m.stopEditing(), nil
		}
		var cmd tea.Cmd
		m.edit, cmd = m.edit.Update(msg)
		return m, cmd
	}

	if m.st.focus == focusAdd {
		switch {
		case key.Matches(msg, m.keys.Submit):
			return m.submitAdd()
		case key.Matches(msg, m.keys.Leave):
			m.st.focus = focusList
			m.add.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.add, cmd = m.add.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		if m.st.cursor > 0 {
			m.st.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.st.cursor < len(m.st.items)-1 {
			m.st.cursor++
		}
	case key.Matches(msg, m.keys.Add):
		m.st.focus = focusAdd
		return m, m.add.Focus()
	case key.Matches(msg, m.keys.Toggle):
		return m.toggle()
	case key.Matches(msg, m.keys.Edit):
		return m.startEditing()
	case key.Matches(msg, m.keys.Delete):
		return m.requestDelete()
	case key.Matches(msg, m.keys.Reload):
		m.st.loading = true
		return m, m.fetch()
	}
	return m, nil
}

func (m Model) submitAdd() (tea.Model, tea.Cmd) {
	title, ok := model.NormalizeTitle(m.add.Value())
	if !ok {
		// nothing to add; keep the input focused
		return m, nil
	}
	m.add.SetValue("")
	return m, m.addItem(title)
}

func (m Model) toggle() (tea.Model, tea.Cmd) {
	it, ok := m.selected()
	if !ok {
		return m, nil
	}
	done := !it.Completed
	if m.st.push {
		return m, m.update(it.ID, model.CompletedPatch(done), msgToggleFailed, nil)
	}
	prev := it.Completed
	m.setCompleted(it.ID, done)
	return m, m.update(it.ID, model.CompletedPatch(done), msgToggleFailed, &prev)
}

// Viewing -> Editing
func (m Model) startEditing() (tea.Model, tea.Cmd) {
	it, ok := m.selected()
	if !ok {
		return m, nil
	}
	m.st.editingID = it.ID
	m.edit.SetValue(it.Title)
	m.edit.CursorEnd()
	return m, m.edit.Focus()
}

// Editing -> Viewing. A blank title counts as cancel.
func (m Model) commitEdit() (tea.Model, tea.Cmd) {
	id := m.st.editingID
	title, ok := model.NormalizeTitle(m.edit.Value())
	m = m.stopEditing()
	if !ok {
		return m, nil
	}
	return m, m.update(id, model.TitlePatch(title), msgUpdateFailed, nil)
}

func (m Model) stopEditing() Model {
	m.st.editingID = ""
	m.edit.Blur()
	m.edit.SetValue("")
	return m
}

func (m Model) requestDelete() (tea.Model, tea.Cmd) {
	it, ok := m.selected()
	if !ok {
		return m, nil
	}
	if m.st.push {
		return m, m.remove(it.ID)
	}
	m.st.pendingDelete = it.ID
	return m, nil
}

func (m Model) selected() (model.Item, bool) {
	if m.st.cursor < 0 || m.st.cursor >= len(m.st.items) {
		return model.Item{}, false
	}
	return m.st.items[m.st.cursor], true
}

// setItems replaces the whole list, keeping the cursor on the same item
// when it survives, and leaves Editing / pending delete for rows that
// vanished.
func (m *Model) setItems(items []model.Item) {
	current, hadCurrent := m.selected()
	m.st.items = items

	if hadCurrent {
		if i := model.IndexOf(items, current.ID); i >= 0 {
			m.st.cursor = i
		}
	}
	if m.st.cursor >= len(items) {
		m.st.cursor = len(items) - 1
	}
	if m.st.cursor < 0 {
		m.st.cursor = 0
	}

	if m.st.editingID != "" && model.IndexOf(items, m.st.editingID) < 0 {
		*m = m.stopEditing()
	}
	if m.st.pendingDelete != "" && model.IndexOf(items, m.st.pendingDelete) < 0 {
		m.st.pendingDelete = ""
	}
}

func (m *Model) setCompleted(id string, done bool) {
	i := model.IndexOf(m.st.items, id)
	if i < 0 {
		return
	}
	items := append([]model.Item(nil), m.st.items...)
	items[i].Completed = done
	m.st.items = items
}

// fail logs err and raises the alert. An alert already on screen wins;
// follow-up failures (like the resync after a failed write) are only logged.
func (m Model) fail(action string, err error) Model {
	m.log.Error(action, "err", err)
	if m.st.alert == "" {
		m.st.alert = action + "\n" + err.Error()
	}
	return m
}

// resync re-fetches in the pull variant. The push variant relies on the
// next snapshot.
func (m Model) resync() tea.Cmd {
	if m.st.push {
		return nil
	}
	return m.fetch()
}

func (m Model) fetch() tea.Cmd {
	f, timeout := m.backend.Fetcher, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		items, err := f.FetchAll(ctx)
		return fetchedMsg{items: items, err: err}
	}
}

func (m Model) addItem(title string) tea.Cmd {
	s, timeout := m.backend.Store, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		it, err := s.Add(ctx, title)
		return addedMsg{item: it, err: err}
	}
}

func (m Model) update(id string, p model.Patch, action string, revert *bool) tea.Cmd {
	s, timeout := m.backend.Store, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		_, err := s.Update(ctx, id, p)
		return updatedMsg{id: id, action: action, revert: revert, err: err}
	}
}

func (m Model) remove(id string) tea.Cmd {
	s, timeout := m.backend.Store, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return removedMsg{id: id, err: s.Remove(ctx, id)}
	}
}
