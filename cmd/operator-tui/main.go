// operator-tui is a terminal client for the gateway. It subscribes to the
// operator WebSocket endpoint, renders the live fleet in a table, and
// lets the operator issue commands from an input line.
package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"
)

func main() {
	url := flag.String("url", "ws://localhost:8082/ws", "Gateway operator WebSocket URL")
	flag.Parse()

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "operator-tui requires a terminal")
		os.Exit(1)
	}

	client, err := dial(*url)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connecting to gateway: %v\n", err)
		os.Exit(1)
	}
	defer client.close()

	p := tea.NewProgram(newModel(client), tea.WithAltScreen())
	client.pump(p)

	if _, err := p.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
