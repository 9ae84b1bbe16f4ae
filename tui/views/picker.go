package views

import (
	"slices"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"kiraye/services"
	"kiraye/tui/styles"
)

type option struct {
	ID   int
	Name string
}

// picker chooses one option by typing part of its name. Typing narrows the
// matches, left/right steps through them and the highlighted match is the
// choice. ID 0 means nothing chosen.
type picker struct {
	input    textinput.Model
	options  []option
	cursor   int
	disabled bool
	empty    string
}

func newPicker(placeholder, empty string) picker {
	in := textinput.New()
	in.Placeholder = placeholder
	in.Prompt = ""
	in.CharLimit = 40
	return picker{input: in, empty: empty}
}

func (p *picker) SetOptions(opts []option) {
	p.options = opts
	p.cursor = 0
}

// Select highlights id and clears the typed text.
func (p *picker) Select(id int) {
	p.input.SetValue("")
	p.cursor = 0
	if id == 0 {
		return
	}
	if i := slices.IndexFunc(p.matches(), func(o option) bool { return o.ID == id }); i >= 0 {
		p.cursor = i + 1
	}
}

// Selected is the highlighted option. Position 0 is the "none" entry.
func (p *picker) Selected() option {
	m := p.matches()
	if p.cursor == 0 || p.cursor > len(m) {
		return option{}
	}
	return m[p.cursor-1]
}

func (p *picker) matches() []option {
	q := p.input.Value()
	if q == "" {
		return p.options
	}
	var out []option
	for _, o := range p.options {
		if services.MatchName(o.Name, q) {
			out = append(out, o)
		}
	}
	return out
}

func (p *picker) Focus() tea.Cmd {
	return p.input.Focus()
}

func (p *picker) Blur() {
	p.input.Blur()
}

// Update handles a key and reports whether the selection moved.
func (p *picker) Update(msg tea.KeyMsg) (bool, tea.Cmd) {
	if p.disabled {
		return false, nil
	}
	before := p.Selected().ID
	n := len(p.matches())

	switch msg.String() {
	case "right":
		p.cursor = (p.cursor + 1) % (n + 1)
	case "left":
		p.cursor = (p.cursor + n) % (n + 1)
	default:
		var cmd tea.Cmd
		p.input, cmd = p.input.Update(msg)
		p.cursor = 0
		if p.input.Value() != "" && len(p.matches()) > 0 {
			p.cursor = 1
		}
		return p.Selected().ID != before, cmd
	}
	return p.Selected().ID != before, nil
}

func (p picker) View() string {
	if p.disabled {
		return styles.Muted.Render(p.empty)
	}
	label := styles.Muted.Render("any")
	if o := p.Selected(); o.ID != 0 {
		label = styles.Value.Render(o.Name)
	}
	if p.input.Focused() {
		return label + "  " + p.input.View() + styles.Muted.Render("  ←/→")
	}
	return label
}
