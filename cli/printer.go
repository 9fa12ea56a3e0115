package cli

import (
	"fmt"
	"io"
	"os"
)

// Printer is where user-visible output goes, which is STDERR unless redirected.
// Errors and usage shown because of an error go to a separate diagnostic writer, so command output can be piped on its own.
type Printer struct {
	out  io.Writer
	diag io.Writer
}

func NewPrinter() *Printer {
	return &Printer{out: os.Stderr, diag: os.Stderr}
}

// Redirect sends both regular and diagnostic output to writer.
func (p *Printer) Redirect(writer io.Writer) {
	p.out = writer
	p.diag = writer
}

// RedirectDiagnostics sends only diagnostic output to writer, leaving regular output where it was.
func (p *Printer) RedirectDiagnostics(writer io.Writer) {
	p.diag = writer
}

// Writer exposes the regular output for APIs that need an [io.Writer].
func (p *Printer) Writer() io.Writer {
	return p.out
}

func (p *Printer) Print(msg ...any) {
	_, _ = fmt.Fprint(p.out, msg...)
}

func (p *Printer) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(p.out, format, args...)
}

func (p *Printer) Println(msg ...any) {
	_, _ = fmt.Fprintln(p.out, msg...)
}

// Errorln writes a line of diagnostic output.
func (p *Printer) Errorln(msg ...any) {
	_, _ = fmt.Fprintln(p.diag, msg...)
}

func (p *Printer) errorPrint(msg string) {
	_, _ = fmt.Fprint(p.diag, msg)
}
