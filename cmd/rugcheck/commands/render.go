package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/54b3r/rugcheck-go/internal/checker"
	"github.com/54b3r/rugcheck-go/internal/corpus"
	"github.com/54b3r/rugcheck-go/internal/history"
)

// sourcePreview caps how much of a source chunk is printed.
const sourcePreview = 160

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	answerStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
)

// renderResult writes an answered check. Sources are printed only when
// showSources is set.
func renderResult(w io.Writer, res *checker.Result, showSources bool) {
	fmt.Fprintln(w, answerStyle.Render(strings.TrimSpace(res.Answer.Text)))
	fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf(
		"mode=%s profiles=%d index=%d sources=%d dropped=%d  profiles:%s index:%s answer:%s",
		res.Mode, res.Profiles, res.IndexSize, len(res.Answer.Sources), res.Answer.Dropped,
		res.Timings.Profiles.Round(1e6), res.Timings.Index.Round(1e6), res.Timings.Answer.Round(1e6),
	)))
	if !showSources {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, titleStyle.Render("Sources"))
	for i, h := range res.Answer.Sources {
		fmt.Fprintf(w, "%d. %s %s#%d  score=%.3f\n", i+1, h.Chunk.Origin, h.Chunk.Source, h.Chunk.Position, h.Score)
		fmt.Fprintln(w, dimStyle.Render("   "+preview(h.Chunk.Text)))
	}
}

// renderCorpus writes per-document stats and load warnings.
func renderCorpus(w io.Writer, c *corpus.ReferenceCorpus) {
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Reference corpus: %d chunks", c.Len())))
	for _, s := range c.Stats() {
		fmt.Fprintf(w, "  %-32s %8d bytes %5d chunks\n", s.Source, s.Bytes, s.Chunks)
	}
	for _, err := range c.Warnings() {
		fmt.Fprintln(w, warnStyle.Render("  warning: ")+err.Error())
	}
}

// renderHistory writes history entries, newest first.
func renderHistory(w io.Writer, entries []history.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, dimStyle.Render("no checks recorded"))
		return
	}
	for _, e := range entries {
		addr := e.TokenAddress
		if addr == "" {
			addr = "-"
		}
		fmt.Fprintf(w, "%s  %s  %s  %s\n",
			titleStyle.Render(fmt.Sprintf("#%d", e.ID)),
			e.CreatedAt.Format("2006-01-02 15:04:05"),
			addr,
			dimStyle.Render(fmt.Sprintf("(%s, %d sources, %s)", e.Mode, e.Sources, e.Duration)),
		)
		fmt.Fprintf(w, "  Q: %s\n", preview(e.Question))
		fmt.Fprintf(w, "  A: %s\n", preview(e.Answer))
	}
}

// preview flattens s to one line and truncates it.
func preview(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > sourcePreview {
		return string(r[:sourcePreview]) + "..."
	}
	return s
}
