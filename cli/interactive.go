package cli

import (
	"bufio"
	"context"
	"io"
	"os"
	"slices"
	"strings"

	"golang.org/x/term"
)

const (
	UseCommand  = "$use"  // This is used in interactive mode to indicate that a namespace should be pushed to the namespace stack.
	BackCommand = "$back" // This is used in interactive mode to indicate that the last element on the namespace stack should be popped.
)

var (
	InteractiveFlag         = "-i"                  // InteractiveFlag specifies the flag that the user should pass to trigger [Registry.RespondInteractive].
	InteractiveQuitCommands = []string{"quit", "x"} // InteractiveQuitCommands is a slice of strings that should escape from interactive mode.
)

// RespondInteractive will run an interactive shell over the [Registry] if the [InteractiveFlag] is the first argument.
// Each line read from input is executed in-process, so state held by command receivers lives for the whole session.
// Returns false if interactive mode was not requested by the user.
//
// This loop may be interrupted with one of the [InteractiveQuitCommands], or by closing the input.
func (r *Registry) RespondInteractive(ctx context.Context, args []string, input io.Reader) bool {
	if len(args) == 0 || args[0] != InteractiveFlag {
		return false
	}
	if err := r.interactiveLoop(ctx, input); err != nil {
		r.Printer().Errorln("Error running command interactively:", err)
	}
	return true
}

func isTerminal(input io.Reader) bool {
	f, ok := input.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

func (r *Registry) interactiveLoop(ctx context.Context, input io.Reader) error {
	var (
		nsStack []string
		prompt  = isTerminal(input)
		scanner = bufio.NewScanner(input)
		p       = r.Printer()
	)
	current := func() string {
		if len(nsStack) == 0 {
			return ""
		}
		return nsStack[len(nsStack)-1]
	}
	if prompt {
		p.Printf(`Running '%s' interactively. Enter %s to exit.
Use the %s command with a namespace to push it to the namespace stack, and %s to pop and return.
`, r.name, strings.Join(InteractiveQuitCommands, " or "), UseCommand, BackCommand)
	}
	for {
		if prompt {
			if ns := current(); len(ns) > 0 {
				p.Printf("%s %s> ", r.name, ns)
			} else {
				p.Printf("%s> ", r.name)
			}
		}
		if !scanner.Scan() {
			return scanner.Err()
		}
		segments := strings.Fields(scanner.Text())
		if len(segments) == 0 {
			continue
		}
		if slices.Contains(InteractiveQuitCommands, strings.ToLower(segments[0])) {
			return nil
		}
		switch segments[0] {
		case UseCommand:
			if len(segments) < 2 {
				p.Println("Missing namespace for", UseCommand)
				continue
			}
			ns := segments[1]
			if len(current()) > 0 {
				ns = current() + NamespaceSeparator + ns
			}
			p.Printf("Using '%s'\n", ns)
			nsStack = append(nsStack, ns)
			continue
		case BackCommand:
			if len(nsStack) == 0 {
				p.Println("Already at root namespace")
				continue
			}
			nsStack = nsStack[:len(nsStack)-1]
			continue
		case InteractiveFlag:
			p.Println("Cannot run interactively twice")
			continue
		}
		if ns := current(); len(ns) > 0 {
			if _, ok := r.Lookup(segments[0]); !ok {
				segments[0] = ns + NamespaceSeparator + segments[0]
			}
		}
		r.Run(ctx, segments)
	}
}
