// Package tui is an interactive terminal front end for asking questions
// about uploaded PDFs.
package tui

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"pdfqa/internal/service"
)

// uploadPrefix marks an input line as a file to upload rather than a question.
const uploadPrefix = "/upload "

// Port is the TUI-facing subset of the service.
type Port interface {
	Ask(ctx context.Context, question string, maxResults int) (service.AskResult, error)
	UploadFile(ctx context.Context, path string) (service.UploadResult, error)
}

type answerMsg struct {
	question string
	result   service.AskResult
	err      error
}

type uploadMsg struct {
	path   string
	result service.UploadResult
	err    error
}

// Model is the Bubble Tea model for the TUI application.
type Model struct {
	ctx        context.Context
	service    Port
	maxResults int
	input      textinput.Model
	viewport   viewport.Model
	result     *service.AskResult
	summary    string
	status     string
	cursor     int
	busy       bool
	ready      bool
	lastQuery  string
}

// New creates a new TUI model instance. summary is shown under the header.
func New(ctx context.Context, svc Port, maxResults int, summary string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question, or /upload <file.pdf>"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		ctx:        ctx,
		service:    svc,
		maxResults: maxResults,
		input:      ti,
		viewport:   vp,
		summary:    summary,
		status:     "Ready. Type a question and press Enter.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and completion events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header + summary, status, spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderCurrent())
		return m, nil
	case answerMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			m.result = nil
		} else {
			res := msg.result
			m.result = &res
			m.cursor = 0
			m.lastQuery = msg.question
			m.status = fmt.Sprintf("Answer for %q (%d sources)", msg.question, len(res.Sources))
		}
		m.viewport.SetContent(m.renderCurrent())
		return m, nil
	case uploadMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Upload failed: " + msg.err.Error()
		} else {
			m.status = fmt.Sprintf("Uploaded %s: %d pages, %d chunks",
				msg.result.Filename, msg.result.PagesProcessed, msg.result.ChunksCount)
		}
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			line := strings.TrimSpace(m.input.Value())
			if line == "" || m.busy {
				return m, nil
			}
			m.input.SetValue("")
			m.busy = true
			if path, ok := strings.CutPrefix(line, uploadPrefix); ok {
				path = strings.TrimSpace(path)
				m.status = "Uploading " + path + "..."
				return m, m.upload(path)
			}
			m.status = "Thinking..."
			return m, m.ask(line)
		case "down":
			if n := m.sourceCount(); n > 0 {
				m.cursor = (m.cursor + 1) % n
				m.viewport.SetContent(m.renderCurrent())
				return m, nil
			}
		case "up":
			if n := m.sourceCount(); n > 0 {
				m.cursor = (m.cursor - 1 + n) % n
				m.viewport.SetContent(m.renderCurrent())
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) ask(question string) tea.Cmd {
	ctx, svc, k := m.ctx, m.service, m.maxResults
	return func() tea.Msg {
		res, err := svc.Ask(ctx, question, k)
		return answerMsg{question: question, result: res, err: err}
	}
}

func (m Model) upload(path string) tea.Cmd {
	ctx, svc := m.ctx, m.service
	return func() tea.Msg {
		res, err := svc.UploadFile(ctx, path)
		return uploadMsg{path: path, result: res, err: err}
	}
}

func (m Model) sourceCount() int {
	if m.result == nil {
		return 0
	}
	return len(m.result.Sources)
}

// View renders the TUI layout and current answer.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("PDF Q&A")
	summary := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.summary)
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	results := resultBoxStyle.Render(m.viewport.View())
	return header + "\n" + summary + "\n" + results + "\n" + input + "\n" + status
}

func (m Model) renderCurrent() string {
	if m.result == nil {
		return "No answer yet."
	}
	var b strings.Builder
	b.WriteString(answerStyle.Render(m.result.Answer))
	if len(m.result.Sources) == 0 {
		return b.String()
	}
	s := m.result.Sources[m.cursor]
	fmt.Fprintf(&b, "\n\nSource %d/%d  %s p.%d  score=%.4f\n\n",
		m.cursor+1, len(m.result.Sources), s.Filename, s.PageNumber, s.SimilarityScore)
	b.WriteString(highlightBestSentence(s.Content, m.lastQuery))
	return b.String()
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	answerStyle    = lipgloss.NewStyle().Bold(true)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	unicodeWordRe  = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
	sentenceRe     = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)
)

func highlightBestSentence(text, query string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	sentences := sentenceRe.FindAllString(text, -1)
	if len(sentences) == 0 {
		sentences = []string{strings.TrimSpace(text)}
	}
	qTokens := toTokenSet(query)
	if len(qTokens) == 0 {
		return strings.Join(trimAll(sentences), " ")
	}
	bestIdx := 0
	bestScore := -1
	for i, s := range sentences {
		score := tokenOverlapScore(qTokens, s)
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	sentences = trimAll(sentences)
	sentences[bestIdx] = highlightStyle.Render(sentences[bestIdx])
	return strings.Join(sentences, " ")
}

func trimAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = strings.TrimSpace(s)
	}
	return out
}

func toTokenSet(s string) map[string]struct{} {
	tokens := unicodeWordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

func tokenOverlapScore(queryTokens map[string]struct{}, sentence string) int {
	score := 0
	tokens := unicodeWordRe.FindAllString(strings.ToLower(sentence), -1)
	seen := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := queryTokens[t]; ok {
			score++
		}
	}
	return score
}
