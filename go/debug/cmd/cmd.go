package cmd

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/lunixbochs/argjoy"
	"github.com/mattn/go-shellwords"
	"github.com/pkg/errors"
)

type Command struct {
	Name string
	Desc string
	// Usage lists the arguments, for help
	Usage string
	Run   interface{}
}

var Commands = make(map[string]*Command)

func cmd(c *Command) *Command {
	fn := reflect.ValueOf(c.Run)
	if !fn.IsValid() || fn.Kind() != reflect.Func {
		panic(fmt.Sprintf("Command.Run must be a func: got (%T) %#v\n", c.Run, c.Run))
	}
	Commands[c.Name] = c
	return c
}

var aj = argjoy.NewArgjoy()

func init() {
	aj.Register(numCodec)
}

// ParseNum reads $hex, 0x hex, or decimal.
func ParseNum(s string) (uint64, error) {
	var n uint64
	var err error
	if strings.HasPrefix(s, "$") {
		n, err = strconv.ParseUint(s[1:], 16, 64)
	} else {
		n, err = strconv.ParseUint(s, 0, 64)
	}
	if err != nil {
		return 0, errors.Errorf("bad number %q", s)
	}
	return n, nil
}

// numCodec turns command line words into numeric parameters.
func numCodec(arg interface{}, vals []interface{}) error {
	s, ok := vals[0].(string)
	if !ok {
		return argjoy.NoMatch
	}
	switch v := arg.(type) {
	case *string:
		*v = s
		return nil
	case *float64:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return errors.Errorf("bad number %q", s)
		}
		*v = f
		return nil
	}
	n, err := ParseNum(s)
	if err != nil {
		return err
	}
	switch v := arg.(type) {
	case *uint64:
		*v = n
	case *int:
		*v = int(n)
	case *uint16:
		if n > 0xffff {
			return errors.Errorf("%s does not fit in 16 bits", s)
		}
		*v = uint16(n)
	default:
		return argjoy.NoMatch
	}
	return nil
}

// Run executes one command line. Command errors are printed, not
// returned; the error return is for a broken connection.
func Run(c *Context, line string) error {
	args, err := shellwords.Parse(line)
	if err != nil {
		c.Printf("parse error: %v\n", err)
		return nil
	}
	if len(args) == 0 {
		return nil
	}
	name, args := args[0], args[1:]
	cmd, ok := Commands[name]
	if !ok {
		_, err := c.Printf("command not found.\n")
		return err
	}
	vals := make([]interface{}, 0, len(args)+1)
	vals = append(vals, c)
	for _, a := range args {
		vals = append(vals, a)
	}
	out, err := aj.Call(cmd.Run, vals...)
	if err != nil {
		c.Printf("error: %v\n", err)
		if cmd.Usage != "" {
			c.Printf("usage: %s %s\n", cmd.Name, cmd.Usage)
		}
	}
	if len(out) > 0 {
		if err, ok := out[0].(error); ok && err != nil {
			c.Printf("error: %v\n", err)
		}
	}
	return nil
}

var HelpCmd = cmd(&Command{
	Name: "help",
	Desc: "List commands.",
	Run: func(c *Context) error {
		names := make([]string, 0, len(Commands))
		for name := range Commands {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			cmd := Commands[name]
			c.Printf("  %-24s %s\n", strings.TrimSpace(name+" "+cmd.Usage), cmd.Desc)
		}
		return nil
	},
})
