package tui

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"bibsent/internal/domain"
	"bibsent/internal/vectorstore"
)

// LibraryPort is the TUI-facing subset of the pipeline service.
type LibraryPort interface {
	Documents() []*domain.Document
	Summary(title string) []string
	Similar(title string, k int) ([]vectorstore.Result, error)
}

const similarCount = 5

// Model is the Bubble Tea model for the document browser.
type Model struct {
	service  LibraryPort
	docs     []*domain.Document
	filtered []*domain.Document
	input    textinput.Model
	viewport viewport.Model
	status   string
	cursor   int
	ready    bool
}

// New creates a new TUI model instance.
func New(service LibraryPort) Model {
	ti := textinput.New()
	ti.Prompt = "filter> "
	ti.Placeholder = "Type to filter titles, ↑/↓ to browse"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	docs := service.Documents()
	m := Model{service: service, docs: docs, input: ti, viewport: vp}
	m.applyFilter()
	return m
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, bh := docBoxStyle.GetFrameSize()
		_, fh := filterBoxStyle.GetFrameSize()
		reserved := 2 + fh + 1 // header, status, filter box, spacer
		vh := msg.Height - reserved - bh
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh)
		m.viewport.SetContent(m.renderCurrent())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		switch msg.String() {
		case "down":
			if len(m.filtered) > 0 {
				m.cursor = (m.cursor + 1) % len(m.filtered)
				m.refresh()
			}
			return m, nil
		case "up":
			if len(m.filtered) > 0 {
				m.cursor = (m.cursor - 1 + len(m.filtered)) % len(m.filtered)
				m.refresh()
			}
			return m, nil
		case "pgdown":
			m.viewport.HalfViewDown()
			return m, nil
		case "pgup":
			m.viewport.HalfViewUp()
			return m, nil
		}
	}
	var cmd tea.Cmd
	before := m.input.Value()
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		m.applyFilter()
	}
	return m, cmd
}

func (m *Model) applyFilter() {
	q := strings.ToLower(strings.TrimSpace(m.input.Value()))
	var filtered []*domain.Document
	for _, d := range m.docs {
		if q == "" || strings.Contains(strings.ToLower(d.Title), q) {
			filtered = append(filtered, d)
		}
	}
	m.filtered = filtered
	m.cursor = 0
	m.refresh()
}

func (m *Model) refresh() {
	switch {
	case len(m.docs) == 0:
		m.status = "No documents loaded. Run serialize first."
	case len(m.filtered) == 0:
		m.status = fmt.Sprintf("No titles match %q", m.input.Value())
	default:
		m.status = fmt.Sprintf("Document %d/%d", m.cursor+1, len(m.filtered))
	}
	m.viewport.SetContent(m.renderCurrent())
	m.viewport.GotoTop()
}

// View renders the TUI layout and the selected document.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("bibsent: %d documents", len(m.docs)))
	body := docBoxStyle.Render(m.viewport.View())
	input := filterBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	return header + "\n" + body + "\n" + input + "\n" + status
}

func (m Model) renderCurrent() string {
	if len(m.filtered) == 0 {
		return "Nothing to show."
	}
	d := m.filtered[m.cursor]
	var b strings.Builder
	b.WriteString(titleStyle.Render(d.Title))
	b.WriteString("\n")
	var meta []string
	if d.Entry.Year != "" {
		meta = append(meta, d.Entry.Year)
	}
	if d.File != "" {
		meta = append(meta, d.File)
	}
	if d.IsValid {
		meta = append(meta, fmt.Sprintf("%d/%d valid sentences", len(d.Sentences), len(d.RawSentences)))
	} else {
		meta = append(meta, invalidStyle.Render("invalid"))
	}
	b.WriteString(dimStyle.Render(strings.Join(meta, " · ")))
	b.WriteString("\n\n")
	if !d.IsValid {
		return b.String()
	}

	if summary := m.service.Summary(d.Title); len(summary) > 0 {
		b.WriteString(sectionStyle.Render("Summary"))
		b.WriteString("\n")
		b.WriteString(highlightTerms(strings.Join(summary, " "), m.input.Value()))
		b.WriteString("\n\n")
	}

	b.WriteString(sectionStyle.Render("Similar"))
	b.WriteString("\n")
	if similar, err := m.service.Similar(d.Title, similarCount); err != nil {
		b.WriteString(dimStyle.Render(err.Error()))
	} else {
		for _, r := range similar {
			fmt.Fprintf(&b, "%.3f  %s\n", r.Score, r.Title)
		}
	}
	b.WriteString("\n\n")

	b.WriteString(sectionStyle.Render("Sentences"))
	b.WriteString("\n")
	for i, s := range d.Sentences {
		fmt.Fprintf(&b, "%3d  %s\n", i+1, s.Text)
	}
	return b.String()
}

var (
	docBoxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	filterBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	titleStyle     = lipgloss.NewStyle().Bold(true)
	sectionStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	invalidStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	unicodeWordRe  = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
)

// highlightTerms emphasizes the words of text that occur in query.
func highlightTerms(text, query string) string {
	terms := toTokenSet(query)
	if len(terms) == 0 {
		return text
	}
	return unicodeWordRe.ReplaceAllStringFunc(text, func(w string) string {
		if _, ok := terms[strings.ToLower(w)]; ok {
			return highlightStyle.Render(w)
		}
		return w
	})
}

func toTokenSet(s string) map[string]struct{} {
	tokens := unicodeWordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}
