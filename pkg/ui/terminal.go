package ui

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Logo is printed in verbose mode
const Logo = `
  _        __      _       _
 (_) __ _ / _| ___| |_ ___| |__
 | |/ _' | |_ / _ \ __/ __| '_ \
 | | (_| |  _|  __/ || (__| | | |
 |_|\__, |_|  \___|\__\___|_| |_|
    |___/   post & DASH fetcher
`

// Printer writes styled output for humans. Quiet printers only show errors.
type Printer struct {
	mu    sync.Mutex
	out   io.Writer
	quiet bool
	style styles
}

// NewPrinter creates a Printer writing to w
func NewPrinter(w io.Writer, quiet bool) *Printer {
	return &Printer{
		out:   w,
		quiet: quiet,
		style: newStyles(lipgloss.NewRenderer(w)),
	}
}

// Stdout returns a Printer on os.Stdout
func Stdout(quiet bool) *Printer {
	return NewPrinter(os.Stdout, quiet)
}

// Quiet reports whether only errors are printed
func (p *Printer) Quiet() bool {
	return p.quiet
}

func (p *Printer) println(always bool, s string) {
	if p.quiet && !always {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, s)
}

// Logo prints the banner
func (p *Printer) Logo() {
	p.println(false, p.style.logo.Render(Logo))
}

// Info prints a label and its value
func (p *Printer) Info(label, value string) {
	p.println(false, p.style.label.Render(label+":")+" "+p.style.value.Render(value))
}

// Success prints msg in green
func (p *Printer) Success(msg string) {
	p.println(false, p.style.success.Render(msg))
}

// Warning prints msg in orange
func (p *Printer) Warning(msg string) {
	p.println(false, p.style.warning.Render(msg))
}

// Error prints msg and err in red, even when quiet
func (p *Printer) Error(msg string, err error) {
	if err != nil {
		msg += ": " + err.Error()
	}
	p.println(true, p.style.err.Render(msg))
}

// Highlight prints msg in magenta
func (p *Printer) Highlight(msg string) {
	p.println(false, p.style.highlight.Render(msg))
}

// Plain prints msg unstyled
func (p *Printer) Plain(msg string) {
	p.println(false, msg)
}
