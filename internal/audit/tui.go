package audit

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/themecat/internal/evaluator"
)

// Lines per review item in the list view (excerpt + counts + blank separator).
const reviewItemHeight = 3

type viewState int

const (
	viewList viewState = iota
	viewDetail
)

var (
	activeBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("39")) // bright blue

	inactiveBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("240")) // dim gray

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1)

	activeHeaderStyle = headerStyle.
				Foreground(lipgloss.Color("39"))

	inactiveHeaderStyle = headerStyle.
				Foreground(lipgloss.Color("240"))

	statusBarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236"))

	itemTitleStyle = lipgloss.NewStyle().
			Bold(true)

	itemSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245"))

	selectedItemTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")). // bright white
				Background(lipgloss.Color("24"))  // dark blue bg

	selectedItemSubtitleStyle = lipgloss.NewStyle().
					Foreground(lipgloss.Color("252")).
					Background(lipgloss.Color("24"))

	detailLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Width(14)

	detailValueStyle = lipgloss.NewStyle()

	detailTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				MarginBottom(1)

	dividerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Italic(true)

	bodyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	identifiedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))  // green
	novelStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("214")) // orange
	missedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")) // red
)

// Row is one evaluated review shown in the audit view.
type Row struct {
	Index int // position in the evaluated batch, 0-based
	evaluator.ReviewEvaluation
}

// NeedsAttention reports whether the prediction disagrees with the ground
// truth or no theme was extracted at all.
func (r Row) NeedsAttention() bool {
	return len(r.Metrics.Missed) > 0 || len(r.Metrics.Novel) > 0 || r.Result.IsEmpty()
}

// RowsFrom numbers the reviews of an evaluation.
func RowsFrom(ev evaluator.Evaluation) []Row {
	rows := make([]Row, len(ev.Reviews))
	for i, r := range ev.Reviews {
		rows[i] = Row{Index: i, ReviewEvaluation: r}
	}
	return rows
}

// Split returns all rows and the subset needing attention.
func Split(rows []Row) (all, attention []Row) {
	for _, r := range rows {
		if r.NeedsAttention() {
			attention = append(attention, r)
		}
	}
	return rows, attention
}

type auditModel struct {
	title         string
	allRows       []Row
	attentionRows []Row
	leftViewport  viewport.Model
	rightViewport viewport.Model
	activePane    int // 0=left, 1=right
	leftCursor    int
	rightCursor   int
	width         int
	height        int
	ready         bool

	// Detail view state
	view           viewState
	detailRow      Row
	detailViewport viewport.Model
	showRawGT      bool

	wantQuit bool
}

func (m auditModel) Init() tea.Cmd {
	return nil
}

func (m auditModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		if m.view == viewDetail {
			m.detailViewport.Width = m.width - 4
			m.detailViewport.Height = m.height - 4
			m.detailViewport.SetContent(m.renderDetail())
		}
		return m, nil

	case tea.KeyMsg:
		if m.view == viewDetail {
			return m.updateDetailView(msg)
		}
		return m.updateListView(msg)
	}

	return m, nil
}

func (m auditModel) updateListView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.wantQuit = true
		return m, tea.Quit
	case "esc", "b":
		m.wantQuit = false
		return m, tea.Quit
	case "tab", "left", "right":
		m.activePane = 1 - m.activePane
		m.recalcContent()
		return m, nil
	case "up", "k":
		m.moveCursor(-1)
		m.recalcContent()
		m.ensureCursorVisible()
		return m, nil
	case "down", "j":
		m.moveCursor(1)
		m.recalcContent()
		m.ensureCursorVisible()
		return m, nil
	case "enter":
		return m.openDetailView()
	}

	// Forward other keys (pgup/pgdn/home/end) to the active viewport.
	var cmd tea.Cmd
	if m.activePane == 0 {
		m.leftViewport, cmd = m.leftViewport.Update(msg)
	} else {
		m.rightViewport, cmd = m.rightViewport.Update(msg)
	}
	return m, cmd
}

func (m auditModel) updateDetailView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.wantQuit = true
		return m, tea.Quit
	case "esc", "backspace":
		m.view = viewList
		return m, nil
	case "g":
		m.showRawGT = !m.showRawGT
		m.detailViewport.SetContent(m.renderDetail())
		return m, nil
	}

	var cmd tea.Cmd
	m.detailViewport, cmd = m.detailViewport.Update(msg)
	return m, cmd
}

func (m *auditModel) moveCursor(delta int) {
	if m.activePane == 0 {
		m.leftCursor = clamp(m.leftCursor+delta, 0, max(len(m.allRows)-1, 0))
	} else {
		m.rightCursor = clamp(m.rightCursor+delta, 0, max(len(m.attentionRows)-1, 0))
	}
}

func (m *auditModel) ensureCursorVisible() {
	var vp *viewport.Model
	var cursor int
	if m.activePane == 0 {
		vp = &m.leftViewport
		cursor = m.leftCursor
	} else {
		vp = &m.rightViewport
		cursor = m.rightCursor
	}

	cursorTop := cursor * reviewItemHeight
	cursorBottom := cursorTop + reviewItemHeight - 1

	if cursorTop < vp.YOffset {
		vp.SetYOffset(cursorTop)
	} else if cursorBottom >= vp.YOffset+vp.Height {
		vp.SetYOffset(cursorBottom - vp.Height + 1)
	}
}

func (m auditModel) openDetailView() (tea.Model, tea.Cmd) {
	rows := m.activeRows()
	if len(rows) == 0 {
		return m, nil
	}

	m.view = viewDetail
	m.detailRow = rows[m.activeCursor()]
	m.showRawGT = false
	m.detailViewport = viewport.New(m.width-4, m.height-4)
	m.detailViewport.SetContent(m.renderDetail())
	return m, nil
}

func (m *auditModel) recalcLayout() {
	// 2 border chars per pane + 1 gap between panes.
	paneWidth := max((m.width-5)/2, 20)

	// Header (1 line) + border top/bottom (2) + status bar (1) = 4 lines overhead.
	paneHeight := max(m.height-4, 5)

	if !m.ready {
		m.leftViewport = viewport.New(paneWidth, paneHeight)
		m.rightViewport = viewport.New(paneWidth, paneHeight)
		m.ready = true
	} else {
		m.leftViewport.Width = paneWidth
		m.leftViewport.Height = paneHeight
		m.rightViewport.Width = paneWidth
		m.rightViewport.Height = paneHeight
	}

	m.recalcContent()
}

func (m *auditModel) recalcContent() {
	width := m.leftViewport.Width
	m.leftViewport.SetContent(renderRows(m.allRows, m.leftCursor, m.activePane == 0, width))
	m.rightViewport.SetContent(renderRows(m.attentionRows, m.rightCursor, m.activePane == 1, width))
}

func (m auditModel) activeRows() []Row {
	if m.activePane == 0 {
		return m.allRows
	}
	return m.attentionRows
}

func (m auditModel) activeCursor() int {
	if m.activePane == 0 {
		return m.leftCursor
	}
	return m.rightCursor
}

func (m auditModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	if m.view == viewDetail {
		return m.viewDetail()
	}

	return m.viewList()
}

func (m auditModel) viewList() string {
	paneWidth := m.leftViewport.Width

	leftHeader := fmt.Sprintf(" All Reviews (%d)", len(m.allRows))
	rightHeader := fmt.Sprintf(" Needs Attention (%d)", len(m.attentionRows))

	var leftHeaderRendered, rightHeaderRendered string
	var leftBorder, rightBorder lipgloss.Style

	if m.activePane == 0 {
		leftHeaderRendered = activeHeaderStyle.Render(leftHeader)
		rightHeaderRendered = inactiveHeaderStyle.Render(rightHeader)
		leftBorder = activeBorderStyle.Width(paneWidth)
		rightBorder = inactiveBorderStyle.Width(paneWidth)
	} else {
		leftHeaderRendered = inactiveHeaderStyle.Render(leftHeader)
		rightHeaderRendered = activeHeaderStyle.Render(rightHeader)
		leftBorder = inactiveBorderStyle.Width(paneWidth)
		rightBorder = activeBorderStyle.Width(paneWidth)
	}

	leftPane := leftBorder.Render(m.leftViewport.View())
	rightPane := rightBorder.Render(m.rightViewport.View())

	headerRow := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(paneWidth+2).Render(leftHeaderRendered),
		" ",
		lipgloss.NewStyle().Width(paneWidth+2).Render(rightHeaderRendered),
	)

	panes := lipgloss.JoinHorizontal(lipgloss.Top, leftPane, " ", rightPane)

	statusText := fmt.Sprintf(" %s | %d reviews | %d need attention    ←/→/Tab switch  ↑/↓ cursor  Enter detail  Esc back  q quit",
		m.title, len(m.allRows), len(m.attentionRows))
	statusBar := statusBarStyle.Width(m.width).Render(statusText)

	return headerRow + "\n" + panes + "\n" + statusBar
}

func (m auditModel) viewDetail() string {
	title := detailTitleStyle.Render(fmt.Sprintf("Review #%d", m.detailRow.Index+1))

	border := activeBorderStyle.Width(m.width - 2)
	content := border.Render(m.detailViewport.View())

	statusBar := statusBarStyle.Width(m.width).Render(" g raw ground truth  esc/backspace back  ↑/↓ scroll  q quit")

	return title + "\n" + content + "\n" + statusBar
}

func (m auditModel) renderDetail() string {
	r := m.detailRow
	var b strings.Builder

	wrapWidth := max(m.width-8, 20)
	divider := func(label string) string {
		fill := strings.Repeat("─", max(wrapWidth-len(label), 3))
		return dividerStyle.Render(label + fill)
	}
	addField := func(label, value string) {
		b.WriteString(detailLabelStyle.Render(label))
		b.WriteString(detailValueStyle.Render(value))
		b.WriteByte('\n')
	}

	b.WriteString(divider("── Review ") + "\n\n")
	b.WriteString(bodyStyle.Render(wordWrap(r.Record.Text, wrapWidth)) + "\n\n")

	b.WriteString(divider("── Predicted Themes ") + "\n\n")
	if r.Result.IsEmpty() {
		b.WriteString(hintStyle.Render("  no themes extracted") + "\n")
	}
	for _, t := range r.Result.Themes {
		line := "  • " + t.Theme
		if t.Description != "" {
			line += ": " + t.Description
		}
		b.WriteString(detailValueStyle.Render(wordWrap(line, wrapWidth)) + "\n")
	}
	b.WriteByte('\n')

	b.WriteString(divider("── Ground Truth ") + "\n\n")
	addField("Themes", joinOrNone(r.GroundTruth.Sorted()))
	if m.showRawGT {
		addField("Raw", r.Record.GroundTruth)
	}
	b.WriteByte('\n')

	addField("Identified", identifiedStyle.Render(joinOrNone(r.Metrics.Identified)))
	addField("Novel", novelStyle.Render(joinOrNone(r.Metrics.Novel)))
	addField("Missed", missedStyle.Render(joinOrNone(r.Metrics.Missed)))

	return b.String()
}

func renderRows(rows []Row, cursor int, isActive bool, width int) string {
	if len(rows) == 0 {
		return "  (no reviews)"
	}

	excerptWidth := max(width-4, 10)

	var b strings.Builder
	for i, r := range rows {
		isSelected := isActive && i == cursor

		titleSt := itemTitleStyle
		subtitleSt := itemSubtitleStyle
		prefix := "  "
		if isSelected {
			titleSt = selectedItemTitleStyle
			subtitleSt = selectedItemSubtitleStyle
			prefix = "> "
		}

		b.WriteString(prefix)
		b.WriteString(titleSt.Render(fmt.Sprintf("#%d %s", r.Index+1, excerpt(r.Record.Text, excerptWidth))))
		b.WriteByte('\n')

		b.WriteString(prefix)
		b.WriteString(subtitleSt.Render(fmt.Sprintf("✓ %d  + %d  − %d · %d predicted",
			r.Metrics.IdentifiedCount, r.Metrics.NovelCount, len(r.Metrics.Missed), r.Metrics.TotalPredicted)))
		b.WriteByte('\n')

		if i < len(rows)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func excerpt(text string, width int) string {
	text = strings.Join(strings.Fields(text), " ")
	r := []rune(text)
	if len(r) <= width {
		return text
	}
	return string(r[:width-1]) + "…"
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return strings.Join(items, ", ")
}

func wordWrap(text string, width int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if len(line)+1+len(w) <= width {
			line += " " + w
		} else {
			lines = append(lines, line)
			line = w
		}
	}
	lines = append(lines, line)
	return strings.Join(lines, "\n")
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// RunAuditTUI launches the interactive split-pane audit TUI over rows.
// Returns wantQuit=true if the user pressed q/ctrl+c, false if they pressed
// esc to return to the theme picker.
func RunAuditTUI(title string, rows []Row) (bool, error) {
	all, attention := Split(rows)
	m := auditModel{
		title:         title,
		allRows:       all,
		attentionRows: attention,
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	result, err := p.Run()
	if err != nil {
		return false, err
	}
	final := result.(auditModel)
	return final.wantQuit, nil
}
