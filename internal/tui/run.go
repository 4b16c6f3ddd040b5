package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/idilsaglam/todo/internal/store"
)

// Run starts the interactive client and blocks until the user quits. In
// the push variant it owns the subscription: snapshots are forwarded to
// the program as messages and the subscription is torn down on exit.
func Run(ctx context.Context, b Backend, opts ...Option) error {
	if b.Store == nil {
		return fmt.Errorf("tui: no store configured")
	}
	if !b.push() && b.Fetcher == nil {
		return fmt.Errorf("tui: pull variant needs a fetcher")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := New(b, opts...)
	// One pending snapshot at most; a newer one replaces it.
	snapshots := make(chan store.Snapshot, 1)
	if b.push() {
		unsubscribe, err := b.Feed.Subscribe(ctx, func(s store.Snapshot) {
			for ctx.Err() == nil {
				select {
				case snapshots <- s:
					return
				default:
				}
				select {
				case <-snapshots:
				default:
				}
			}
		})
		if err != nil {
			m.st.loading = false
			m = m.fail(msgLoadFailed, err)
		} else {
			defer unsubscribe()
		}
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	go func() {
		for {
			select {
			case s := <-snapshots:
				p.Send(snapshotMsg{snap: s})
			case <-ctx.Done():
				return
			}
		}
	}()

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}
