// Package cli is an interactive console over a transport.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/peterh/liner"
	"github.com/pkg/errors"

	"github.com/johnny-morrice/pathtransport/api"
	"github.com/johnny-morrice/pathtransport/internal/tree"
	"github.com/johnny-morrice/pathtransport/log"
)

var ErrQuit = errors.New("quit")

type TerminalOptions struct {
	Transport api.Transport
	Output    io.Writer
	// ListSettle is how long ls waits for another id before printing.
	ListSettle time.Duration
	// History is optional.  Prompt history is read from it on start and written
	// back on exit.
	History io.ReadWriteSeeker
}

type Console struct {
	TerminalOptions
}

func MakeConsole(options TerminalOptions) *Console {
	if options.Output == nil {
		options.Output = os.Stdout
	}

	if options.ListSettle == 0 {
		options.ListSettle = __LIST_SETTLE
	}

	return &Console{TerminalOptions: options}
}

func RunTerminalConsole(options TerminalOptions) error {
	console := MakeConsole(options)

	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(complete)

	if options.History != nil {
		_, err := line.ReadHistory(options.History)

		if err != nil {
			log.Warn("Failed to read console history: %v", err)
		}

		defer saveHistory(line, options.History)
	}

	for {
		text, err := line.Prompt("> ")

		if err == liner.ErrPromptAborted || err == io.EOF {
			return nil
		}

		if err != nil {
			return err
		}

		if strings.TrimSpace(text) == "" {
			continue
		}

		line.AppendHistory(text)

		err = console.Exec(text)

		if err == ErrQuit {
			return nil
		}

		if err != nil {
			fmt.Fprintf(console.Output, "Error: %v\n", err)
		}
	}
}

func saveHistory(line *liner.State, history io.ReadWriteSeeker) {
	_, err := history.Seek(0, io.SeekStart)

	if err == nil {
		_, err = line.WriteHistory(history)
	}

	if err != nil {
		log.Warn("Failed to write console history: %v", err)
	}
}

// Exec runs one console command.
func (console *Console) Exec(text string) error {
	command, rest := splitWord(text)

	switch command {
	case "get":
		return console.get(rest)
	case "put":
		return console.put(rest)
	case "rm":
		return console.remove(rest)
	case "ls":
		return console.list()
	case "help":
		console.help()
		return nil
	case "quit", "exit":
		return ErrQuit
	default:
		return errors.Errorf("unknown command '%s', try help", command)
	}
}

func (console *Console) get(args string) error {
	id, rest := splitWord(args)
	band, _ := splitWord(rest)

	result, err := console.Transport.Get(id, band)

	if err != nil {
		return err
	}

	record := <-result

	table := &monospaceTable{}
	table.addColumn("Key", "Value")

	keys := make([]string, 0, len(record.Value))
	for key := range record.Value {
		keys = append(keys, key)
	}

	tree.SortKeys(keys)

	for _, key := range keys {
		table.addRow(key, printValue(record.Value[key]))
	}

	return console.printTable(table)
}

func (console *Console) put(args string) error {
	id, rest := splitWord(args)
	band, text := splitWord(rest)

	value := api.Value{}
	err := json.Unmarshal([]byte(text), &value)

	if err != nil {
		return errors.Wrap(err, "put expects ID BAND JSON")
	}

	return console.Transport.Update(id, band, value)
}

func (console *Console) remove(args string) error {
	id, rest := splitWord(args)
	band, _ := splitWord(rest)

	return console.Transport.Remove(id, band)
}

// list prints the ids seen before the stream goes quiet.
func (console *Console) list() error {
	items := make(chan api.ListItem, __LIST_BUFFER_SIZE)
	done := make(chan struct{})
	defer close(done)

	sub, err := console.Transport.List(func(item api.ListItem) {
		select {
		case items <- item:
		case <-done:
		}
	})

	if err != nil {
		return err
	}

	defer sub.Close()

	table := &monospaceTable{}
	table.addColumn("ID")

	for {
		select {
		case item := <-items:
			table.addRow(item.ID)
		case <-time.After(console.ListSettle):
			log.Debug("ls settled after %d ids", table.countRows())
			return console.printTable(table)
		}
	}
}

func (console *Console) help() {
	fmt.Fprint(console.Output, __HELP_TEXT)
}

func (console *Console) printTable(table *monospaceTable) error {
	err := table.fprint(console.Output)

	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(console.Output)
	return err
}

// PrintRecord prints an update as a table row.
func PrintRecord(w io.Writer, record api.Record) error {
	table := &monospaceTable{}
	table.addColumn("ID", "Band", "Value")

	value := printValue(record.Value)
	if record.Deep {
		value = "(changed below band)"
	}

	table.addRow(record.ID, record.Band, value)

	err := table.fprint(w)

	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w)
	return err
}

func printValue(value interface{}) string {
	bs, err := json.Marshal(value)

	if err != nil {
		return fmt.Sprintf("%v", value)
	}

	return string(bs)
}

// splitWord returns the first word of text and the remainder.
func splitWord(text string) (string, string) {
	text = strings.TrimSpace(text)
	end := strings.IndexAny(text, " \t")

	if end < 0 {
		return text, ""
	}

	return text[:end], strings.TrimSpace(text[end:])
}

func complete(line string) []string {
	completions := []string{}

	for _, command := range __COMMANDS {
		if strings.HasPrefix(command, line) {
			completions = append(completions, command)
		}
	}

	return completions
}

var __COMMANDS = []string{"get", "put", "rm", "ls", "help", "quit"}

const __HELP_TEXT = `get ID BAND         print a band
put ID BAND JSON    replace a band
rm ID [BAND]        remove a band or a whole thing
ls                  list things
quit                leave
`

const __LIST_SETTLE = 200 * time.Millisecond
const __LIST_BUFFER_SIZE = 64
