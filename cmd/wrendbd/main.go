// Command wrendbd is a REPL server: it reads semicolon-terminated
// statements from stdin, executes each against the database directory
// named on the command line, and prints the coordinator's formatted
// response to stdout.
package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/wrendb/wrendb/coordinator"
)

const (
	blockSize      = 400
	bufferPoolSize = 8
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: wrendbd <db-directory>")
		os.Exit(1)
	}
	dbDirectory := os.Args[1]

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	coord, err := coordinator.New(dbDirectory, blockSize, bufferPoolSize, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "wrendbd: %v\n", err)
		os.Exit(1)
	}

	session := coordinator.NewSession()
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var pending strings.Builder
	for scanner.Scan() {
		pending.WriteString(scanner.Text())
		pending.WriteString(" ")
		drainStatements(coord, session, &pending)
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "wrendbd: %v\n", err)
		os.Exit(1)
	}
}

// drainStatements pulls every complete, semicolon-terminated statement out
// of pending and executes it, leaving any trailing partial statement in
// pending for the next line.
func drainStatements(coord *coordinator.Coordinator, session *coordinator.Session, pending *strings.Builder) {
	for {
		text := pending.String()
		idx := strings.IndexByte(text, ';')
		if idx < 0 {
			return
		}
		stmt := strings.TrimSpace(text[:idx])
		pending.Reset()
		pending.WriteString(text[idx+1:])
		if stmt == "" {
			continue
		}
		result, err := coord.Execute(session, stmt)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}
		fmt.Println(result)
	}
}
