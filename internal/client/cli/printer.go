package cli

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// Printer writes user-facing output. It is safe for concurrent use: session
// notices and poller updates arrive from background goroutines.
type Printer struct {
	mu        sync.Mutex
	out       io.Writer
	useColors bool
}

func NewPrinter(out io.Writer, useColors bool) *Printer {
	return &Printer{out: out, useColors: useColors}
}

// ResolveColors enables colors for a terminal unless NO_COLOR is set or
// TERM is dumb.
func ResolveColors(f *os.File) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

func (p *Printer) print(attr color.Attribute, plainPrefix, format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.useColors {
		fmt.Fprintf(p.out, plainPrefix+format+"\n", args...)
		return
	}
	c := color.New(attr)
	c.EnableColor()
	c.Fprintf(p.out, format+"\n", args...)
}

// Write makes the Printer usable as the prompt writer for input helpers.
func (p *Printer) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.out.Write(b)
}

// Println writes an uncoloured line.
func (p *Printer) Println(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, format+"\n", args...)
}

// Prompt writes text without a trailing newline.
func (p *Printer) Prompt(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprint(p.out, text)
}

func (p *Printer) Info(format string, args ...any) {
	p.print(color.FgCyan, "", format, args...)
}

func (p *Printer) Success(format string, args ...any) {
	p.print(color.FgGreen, "[OK] ", format, args...)
}

func (p *Printer) Warning(format string, args ...any) {
	p.print(color.FgYellow, "[WARN] ", format, args...)
}

func (p *Printer) Error(format string, args ...any) {
	p.print(color.FgRed, "[ERROR] ", format, args...)
}
