package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfqa/internal/answer"
	"pdfqa/internal/service"
)

type fakePort struct {
	asked    []string
	k        int
	uploaded []string
	askErr   error
}

func (f *fakePort) Ask(_ context.Context, q string, k int) (service.AskResult, error) {
	f.asked = append(f.asked, q)
	f.k = k
	if f.askErr != nil {
		return service.AskResult{}, f.askErr
	}
	return service.AskResult{
		Answer: "Thirty days.",
		Query:  q,
		Sources: []answer.Source{
			{Content: "Intro text. The invoice is payable within thirty days.", PageNumber: 2, Filename: "inv.pdf", SimilarityScore: 0.91, ChunkID: "d_page_2_chunk_0"},
			{Content: "Penguins live in the south.", PageNumber: 5, Filename: "inv.pdf", SimilarityScore: 0.12, ChunkID: "d_page_5_chunk_0"},
		},
	}, nil
}

func (f *fakePort) UploadFile(_ context.Context, path string) (service.UploadResult, error) {
	f.uploaded = append(f.uploaded, path)
	return service.UploadResult{Filename: "inv.pdf", PagesProcessed: 3, ChunksCount: 7}, nil
}

func submit(t *testing.T, m Model, line string) Model {
	t.Helper()
	m.input.SetValue(line)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	next, _ = next.(Model).Update(cmd())
	return next.(Model)
}

func sized(m Model) Model {
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return next.(Model)
}

func TestModel_AskShowsAnswerAndSources(t *testing.T) {
	port := &fakePort{}
	m := sized(New(context.Background(), port, 4, "2 documents"))

	m = submit(t, m, "  When is the invoice payable? ")
	assert.Equal(t, []string{"When is the invoice payable?"}, port.asked)
	assert.Equal(t, 4, port.k)
	assert.Contains(t, m.status, "2 sources")
	assert.Empty(t, m.input.Value())

	view := m.renderCurrent()
	assert.Contains(t, view, "Thirty days.")
	assert.Contains(t, view, "Source 1/2")
	assert.Contains(t, view, "p.2")

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(Model)
	assert.Contains(t, m.renderCurrent(), "Source 2/2")
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(Model)
	assert.Contains(t, m.renderCurrent(), "Source 1/2")
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m = next.(Model)
	assert.Contains(t, m.renderCurrent(), "Source 2/2")

	assert.Contains(t, m.View(), "PDF Q&A")
}

func TestModel_AskError(t *testing.T) {
	port := &fakePort{askErr: errors.New("rate limit exceeded")}
	m := sized(New(context.Background(), port, 5, ""))
	m = submit(t, m, "anything")
	assert.Equal(t, "Error: rate limit exceeded", m.status)
	assert.Equal(t, "No answer yet.", m.renderCurrent())
}

func TestModel_Upload(t *testing.T) {
	port := &fakePort{}
	m := New(context.Background(), port, 5, "")
	m = submit(t, m, "/upload  ./docs/inv.pdf")
	assert.Equal(t, []string{"./docs/inv.pdf"}, port.uploaded)
	assert.Empty(t, port.asked)
	assert.Equal(t, "Uploaded inv.pdf: 3 pages, 7 chunks", m.status)
}

func TestModel_EmptyEnterDoesNothing(t *testing.T) {
	m := New(context.Background(), &fakePort{}, 5, "")
	m.input.SetValue("   ")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
}

func TestModel_ViewBeforeSize(t *testing.T) {
	assert.Equal(t, "Loading...", New(context.Background(), &fakePort{}, 5, "").View())
}

func TestHighlightBestSentence(t *testing.T) {
	text := "Cats sleep a lot. The invoice is payable in thirty days. Dogs bark."
	out := highlightBestSentence(text, "invoice payable")
	assert.Contains(t, out, "The invoice is payable in thirty days.")
	assert.Contains(t, out, "Cats sleep a lot.")
	assert.Equal(t, "", highlightBestSentence("", "x"))
	assert.Equal(t, "One. Two.", highlightBestSentence("One.  Two.", ""))
}

func TestToTokenSet_Apostrophes(t *testing.T) {
	set := toTokenSet("Don’t stop, it's fine")
	for _, w := range []string{"don’t", "stop", "it's", "fine"} {
		_, ok := set[w]
		assert.True(t, ok, w)
	}
	assert.Equal(t, 2, tokenOverlapScore(set, strings.ToUpper("stop it's")))
}
