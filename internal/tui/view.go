package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"github.com/idilsaglam/todo/internal/model"
)

// widgets are the already-rendered input and help lines; render stays a
// plain function of state plus these strings.
type widgets struct {
	add  string
	edit string
	help string
}

func (m Model) View() string {
	w := widgets{add: m.add.View(), edit: m.edit.View()}
	switch {
	case m.st.alert != "":
		w.help = m.help.ShortHelpView([]key.Binding{m.keys.Dismiss})
	case m.st.pendingDelete != "":
		w.help = m.help.ShortHelpView([]key.Binding{m.keys.Confirm, m.keys.Deny})
	case m.st.editingID != "":
		w.help = m.help.ShortHelpView([]key.Binding{m.keys.Save, m.keys.Cancel})
	case m.st.focus == focusAdd:
		w.help = m.help.ShortHelpView([]key.Binding{m.keys.Submit, m.keys.Leave})
	default:
		w.help = m.help.ShortHelpView(m.keys.listHelp())
	}
	return render(m.st, w)
}

// render rebuilds the whole frame on every call.
func render(st state, w widgets) string {
	var b strings.Builder

	done, pending := model.Stats(st.items)
	fmt.Fprintf(&b, "%s   %s %d  %s %d  %s %d\n\n",
		titleStyle.Render("Todos"),
		successStyle.Render("✔"), done,
		pendingStyle.Render("•"), pending,
		accentStyle.Render("Total"), len(st.items),
	)

	if st.focus == focusAdd {
		b.WriteString(w.add)
	} else {
		b.WriteString(mutedStyle.Render("> press a to add a todo"))
	}
	b.WriteString("\n\n")

	switch {
	case len(st.items) == 0 && st.loading:
		b.WriteString(mutedStyle.Render("Loading…"))
		b.WriteString("\n")
	case len(st.items) == 0:
		b.WriteString(mutedStyle.Render("No todos yet"))
		b.WriteString("\n")
	default:
		for i, it := range st.items {
			b.WriteString(renderRow(it, i == st.cursor && st.focus == focusList, st.editingID == it.ID, w.edit))
			b.WriteString("\n")
		}
	}

	switch {
	case st.alert != "":
		b.WriteString("\n")
		b.WriteString(alertStyle.Render(errorStyle.Render("✖ ") + st.alert))
		b.WriteString("\n")
	case st.pendingDelete != "":
		title := st.pendingDelete
		if i := model.IndexOf(st.items, st.pendingDelete); i >= 0 {
			title = st.items[i].Title
		}
		b.WriteString("\n")
		b.WriteString(confirmStyle.Render(fmt.Sprintf("Delete %q? (y/n)", title)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(w.help)
	return frameStyle.Render(b.String())
}

func renderRow(it model.Item, selected, editing bool, editView string) string {
	prefix := "  "
	if selected {
		prefix = selectedStyle.Render("> ")
	}
	box := mutedStyle.Render(boxUnchecked)
	if it.Completed {
		box = successStyle.Render(boxChecked)
	}
	if editing {
		return fmt.Sprintf("%s%s %s  %s", prefix, box, editView, mutedStyle.Render("enter save · esc cancel"))
	}
	text := it.Title
	if it.Completed {
		text = doneStyle.Render(text)
	}
	return fmt.Sprintf("%s%s %s", prefix, box, text)
}
