package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
)

type command struct {
	name, desc string
	main       func(args []string)
}

var commands = make(map[string]*command)
var order []string
var pad int

// DefaultCommand runs when the first argument is a flag, so
// "hc11corn -rom fw.s19" means "hc11corn run -rom fw.s19".
const DefaultCommand = "run"

func Register(name, desc string, main func(args []string)) {
	if len(name) > pad {
		pad = len(name)
	}
	commands[name] = &command{name, desc, main}
	order = append(order, name)
}

// lookup finds a command by name or by a prefix only it has.
func lookup(name string) (*command, error) {
	if c, ok := commands[name]; ok {
		return c, nil
	}
	var found []string
	for _, n := range order {
		if strings.HasPrefix(n, name) {
			found = append(found, n)
		}
	}
	switch len(found) {
	case 0:
		return nil, errors.Errorf("Command '%s' not found.", name)
	case 1:
		return commands[found[0]], nil
	}
	return nil, errors.Errorf("Command '%s' is ambiguous: %s", name, strings.Join(found, ", "))
}

func usage(w io.Writer, prog string) {
	fmt.Fprintln(w, "Commands:")
	fstr := fmt.Sprintf("%%-%ds | %%s\n", pad)
	for _, name := range order {
		cmd := commands[name]
		fmt.Fprintf(w, fstr, cmd.name, cmd.desc)
	}
	fmt.Fprintf(w, "\nExample: %s run -rom firmware.s19 -ram 2000:2000 -etrace\n\n", prog)
}

// launch runs the command named by args[1]. It returns false after
// printing usage to w when there is nothing to run.
func launch(args []string, w io.Writer) bool {
	if len(args) < 2 {
		usage(w, args[0])
		return false
	}
	name, rest := args[1], args[2:]
	if strings.HasPrefix(name, "-") && commands[DefaultCommand] != nil {
		name, rest = DefaultCommand, args[1:]
	}
	cmd, err := lookup(name)
	if err != nil {
		fmt.Fprintf(w, "%s\n\n", err)
		usage(w, args[0])
		return false
	}
	cmd.main(append([]string{args[0] + " " + cmd.name}, rest...))
	return true
}

func Main() {
	if !launch(os.Args, os.Stderr) {
		os.Exit(1)
	}
}
