// Package ui prints human-readable progress for the mapforge commands to
// stderr. Output is styled with lipgloss; color is dropped automatically when
// the writer is not a terminal.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/papapumpkin/mapforge/internal/ledger"
	"github.com/papapumpkin/mapforge/internal/migration"
	"github.com/papapumpkin/mapforge/internal/session"
	"github.com/papapumpkin/mapforge/internal/version"
)

// Status icons.
const (
	iconDone    = "✓"
	iconFailed  = "✗"
	iconPending = "·"
	iconArrow   = "→"
)

// Printer writes styled status lines.
type Printer struct {
	w   io.Writer
	now func() time.Time

	title  lipgloss.Style
	ok     lipgloss.Style
	warn   lipgloss.Style
	fail   lipgloss.Style
	muted  lipgloss.Style
	accent lipgloss.Style
}

// New returns a Printer writing to stderr.
func New() *Printer {
	return NewWriter(os.Stderr)
}

// NewWriter returns a Printer writing to w.
func NewWriter(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		w:      w,
		now:    time.Now,
		title:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("#00BFFF")),
		ok:     r.NewStyle().Foreground(lipgloss.Color("#00E676")),
		warn:   r.NewStyle().Foreground(lipgloss.Color("#FFD700")),
		fail:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF5252")),
		muted:  r.NewStyle().Foreground(lipgloss.Color("#8C8C8C")),
		accent: r.NewStyle().Foreground(lipgloss.Color("#5B8DEF")),
	}
}

// Error prints an error line.
func (p *Printer) Error(msg string) {
	fmt.Fprintf(p.w, "%s %s\n", p.fail.Render("error:"), msg)
}

// Info prints a de-emphasized line.
func (p *Printer) Info(msg string) {
	fmt.Fprintln(p.w, p.muted.Render(msg))
}

// ProjectOpened summarizes the manifest of a freshly opened project.
func (p *Printer) ProjectOpened(home string, vf migration.VersionFile) {
	fmt.Fprintf(p.w, "%s %s\n", p.title.Render("project"), home)
	fmt.Fprintf(p.w, "  project version: %s\n", vf.ProjectVersion)
	fmt.Fprintf(p.w, "  editor version:  %s\n", vf.EditorVersion)
	fmt.Fprintf(p.w, "  migrations:      %d\n", len(vf.MapMigrations))
}

// Plan prints the migrations opening a map would run.
func (p *Printer) Plan(res session.Result) {
	header := fmt.Sprintf("%s %s %s %s", res.Key, res.From, iconArrow, res.To)
	if res.Created {
		header += p.muted.Render(" (new map)")
	}
	fmt.Fprintln(p.w, p.title.Render("plan")+" "+header)
	if res.UpToDate() {
		fmt.Fprintf(p.w, "  %s\n", p.ok.Render("up to date"))
		return
	}
	for i, label := range res.Applied {
		fmt.Fprintf(p.w, "  %s %d. %s\n", p.muted.Render(iconPending), i+1, label)
	}
}

// MigrationApplied reports the outcome of a single migration. It matches
// the signature of a migration service observer.
func (p *Printer) MigrationApplied(d migration.Descriptor, err error) {
	if err != nil {
		fmt.Fprintf(p.w, "  %s %s %s\n", p.fail.Render(iconFailed), d.Label(), p.fail.Render(err.Error()))
		return
	}
	fmt.Fprintf(p.w, "  %s %s %s\n", p.ok.Render(iconDone), d.Label(),
		p.muted.Render("("+d.UpdateTo.String()+")"))
}

// MapResult reports the outcome of opening or migrating one map.
func (p *Printer) MapResult(res session.Result, err error) {
	switch {
	case err != nil:
		fmt.Fprintf(p.w, "%s %s %s\n", p.fail.Render(iconFailed), res.Key, p.fail.Render(err.Error()))
	case res.UpToDate():
		fmt.Fprintf(p.w, "%s %s %s\n", p.ok.Render(iconDone), res.Key, p.muted.Render("up to date at "+res.To))
	default:
		fmt.Fprintf(p.w, "%s %s %s %s %s %s\n", p.ok.Render(iconDone), res.Key,
			res.From, iconArrow, res.To, p.muted.Render(plural(len(res.Applied), "migration")))
	}
}

// Compatibility prints the result of a version check.
func (p *Printer) Compatibility(actual, expected string, c version.Compatibility) {
	line := fmt.Sprintf("%s against %s: %s", actual, expected, c)
	if c == version.Compatible {
		fmt.Fprintf(p.w, "%s %s\n", p.ok.Render(iconDone), line)
		return
	}
	fmt.Fprintf(p.w, "%s %s\n", p.warn.Render(iconFailed), line)
	fmt.Fprintf(p.w, "  %s\n", p.muted.Render(version.Reason(c, expected)))
}

// ManifestChanged reports a manifest change picked up while watching.
func (p *Printer) ManifestChanged(path string, reloaded bool) {
	how := "applied in place"
	if reloaded {
		how = "map reloaded"
	}
	fmt.Fprintf(p.w, "%s %s %s\n", p.accent.Render("manifest"), path, p.muted.Render("("+how+")"))
}

// Runs prints ledger entries, newest first as given.
func (p *Printer) Runs(runs []ledger.Run) {
	if len(runs) == 0 {
		p.Info("no recorded runs")
		return
	}
	now := p.now()
	for _, r := range runs {
		icon := p.ok.Render(iconDone)
		switch r.Status {
		case ledger.StatusFailed:
			icon = p.fail.Render(iconFailed)
		case ledger.StatusUpToDate:
			icon = p.muted.Render(iconPending)
		}
		when := humanize.RelTime(r.CreatedAt, now, "ago", "from now")
		fmt.Fprintf(p.w, "%s %-24s %s %s %s  %s\n", icon, r.MapKey, r.From, iconArrow, r.To, p.muted.Render(when))
		if len(r.Migrations) > 0 {
			fmt.Fprintf(p.w, "    %s\n", p.muted.Render(strings.Join(r.Migrations, ", ")))
		}
		if r.Error != "" {
			fmt.Fprintf(p.w, "    %s\n", p.fail.Render(r.Error))
		}
	}
}

func plural(n int, noun string) string {
	if n == 1 {
		return "(1 " + noun + ")"
	}
	return fmt.Sprintf("(%d %ss)", n, noun)
}
