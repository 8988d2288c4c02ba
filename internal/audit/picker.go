package audit

import (
	"fmt"
	"sort"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	pickerTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Padding(1, 0, 1, 2)

	pickerItemStyle = lipgloss.NewStyle().
			Padding(0, 0, 0, 4)

	pickerSelectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")).
				Bold(true).
				Padding(0, 0, 0, 2)

	pickerHintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Padding(1, 0, 0, 2)
)

// ThemeOption is one entry of the theme picker. An empty Name selects every
// review.
type ThemeOption struct {
	Name      string
	Reviews   int // reviews where the theme is labeled or predicted
	Attention int // of those, reviews where it was missed or novel
}

func (o ThemeOption) label() string {
	if o.Name == "" {
		return fmt.Sprintf("All reviews (%d, %d need attention)", o.Reviews, o.Attention)
	}
	return fmt.Sprintf("%s (%d, %d need attention)", o.Name, o.Reviews, o.Attention)
}

// ThemeOptions lists "All reviews" followed by every theme that appears in a
// ground truth or a prediction, most disputed first.
func ThemeOptions(rows []Row) []ThemeOption {
	all := ThemeOption{Reviews: len(rows)}
	byName := make(map[string]*ThemeOption)
	for _, r := range rows {
		if r.NeedsAttention() {
			all.Attention++
		}
		for name := range mentioned(r) {
			opt, ok := byName[name]
			if !ok {
				opt = &ThemeOption{Name: name}
				byName[name] = opt
			}
			opt.Reviews++
			if disputed(r, name) {
				opt.Attention++
			}
		}
	}

	themes := make([]ThemeOption, 0, len(byName))
	for _, opt := range byName {
		themes = append(themes, *opt)
	}
	sort.Slice(themes, func(i, j int) bool {
		if themes[i].Attention != themes[j].Attention {
			return themes[i].Attention > themes[j].Attention
		}
		return themes[i].Name < themes[j].Name
	})
	return append([]ThemeOption{all}, themes...)
}

// FilterByTheme keeps the rows where theme is labeled or predicted. An empty
// theme keeps every row.
func FilterByTheme(rows []Row, theme string) []Row {
	if theme == "" {
		return rows
	}
	var out []Row
	for _, r := range rows {
		if r.GroundTruth.Has(theme) || r.Predicted.Has(theme) {
			out = append(out, r)
		}
	}
	return out
}

func mentioned(r Row) map[string]struct{} {
	names := make(map[string]struct{}, len(r.GroundTruth)+len(r.Predicted))
	for n := range r.GroundTruth {
		names[n] = struct{}{}
	}
	for n := range r.Predicted {
		names[n] = struct{}{}
	}
	return names
}

func disputed(r Row, theme string) bool {
	return r.GroundTruth.Has(theme) != r.Predicted.Has(theme)
}

type pickerModel struct {
	options []ThemeOption
	cursor  int
	chosen  int // -1 = no choice yet, -2 = quit
}

func (m pickerModel) Init() tea.Cmd {
	return nil
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.chosen = -2
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.options)-1 {
				m.cursor++
			}
		case "enter":
			m.chosen = m.cursor
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m pickerModel) View() string {
	s := pickerTitleStyle.Render("Theme Audit: select a theme")
	s += "\n"

	for i, o := range m.options {
		if i == m.cursor {
			s += pickerSelectedStyle.Render("> "+o.label()) + "\n"
		} else {
			s += pickerItemStyle.Render(o.label()) + "\n"
		}
	}

	s += pickerHintStyle.Render("↑/↓/j/k navigate  enter select  q quit")
	return s
}

// RunThemePicker shows an interactive theme selector.
// Returns the index of the chosen option, or -1 if the user quit.
func RunThemePicker(options []ThemeOption) (int, error) {
	m := pickerModel{
		options: options,
		chosen:  -1,
	}

	p := tea.NewProgram(m)
	result, err := p.Run()
	if err != nil {
		return -1, err
	}

	final := result.(pickerModel)
	if final.chosen < 0 {
		return -1, nil
	}
	return final.chosen, nil
}
