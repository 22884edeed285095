package cli

import (
	"bufio"
	"context"
	"strings"
)

// execIface is the command surface the REPL drives. App satisfies it; tests
// can provide a lightweight stub.
type execIface interface {
	prompt() string
	promptWriter
	// exec runs one command and reports whether the REPL should stop.
	exec(ctx context.Context, cmd string, args []string) (quit bool)
}

type promptWriter interface {
	writePrompt(text string)
}

// runREPL reads commands line by line and dispatches them to a. It stops on
// EOF, on a read error, when exec asks to quit, or when ctx is done.
func runREPL(ctx context.Context, a execIface, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		a.writePrompt(a.prompt())

		line, err := readLine(reader)
		if err != nil {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		if a.exec(ctx, strings.ToLower(parts[0]), parts[1:]) {
			return
		}
	}
}
