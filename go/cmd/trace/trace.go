package trace

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/lunixbochs/hc11corn/go/arch"
	"github.com/lunixbochs/hc11corn/go/cmd"
	"github.com/lunixbochs/hc11corn/go/models"
	"github.com/lunixbochs/hc11corn/go/models/trace"
)

func PrintJson(tf *trace.TraceReader, w io.Writer) error {
	out, err := json.Marshal(&tf.Header)
	if err != nil {
		return errors.Wrap(err, "error printing header")
	}
	fmt.Fprintf(w, "%s\n", out)
	for {
		op, err := tf.Next()
		if err == io.EOF {
			break
		} else if err != nil {
			return errors.Wrap(err, "error reading next trace operation")
		}
		out, err := json.Marshal(op)
		if err != nil {
			return errors.WithStack(err)
		}
		fmt.Fprintf(w, "%s\n", out)
	}
	return nil
}

// PrintPretty renders a saved trace the way -etrace -mtrace -rtrace
// -itrace would have live.
func PrintPretty(tf *trace.TraceReader, w io.Writer) error {
	a, err := arch.GetArch(tf.Header.Arch)
	if err != nil {
		return err
	}
	p := trace.NewPrinter(w, a, &models.TraceConfig{Ins: true, Mem: true, Reg: true, Intr: true})
	for {
		op, err := tf.Next()
		if err == io.EOF {
			break
		} else if err != nil {
			return errors.Wrap(err, "error reading next trace operation")
		}
		p.Feed(op)
	}
	return nil
}

func Main(args []string) {
	fs := flag.NewFlagSet("args", flag.ExitOnError)
	jsonFlag := fs.Bool("json", false, "output trace as line-delimited JSON objects")
	prettyFlag := fs.Bool("pretty", false, "output trace as human-readable console text")
	drcovFlag := fs.String("drcov", "", "output instruction coverage to drcov file")
	fs.Usage = func() {
		fmt.Printf("Usage: %s [options] <tracefile>\n", args[0])
		fs.PrintDefaults()
	}

	fs.Parse(args[1:])
	if fs.NArg() == 0 || !(*jsonFlag || *prettyFlag || *drcovFlag != "") {
		fs.Usage()
		os.Exit(1)
	}
	args = fs.Args()

	f, err := os.Open(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open: %s %v\n", args[0], err)
		os.Exit(1)
	}
	tf, err := trace.NewReader(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening trace file: %v\n", err)
		os.Exit(1)
	}
	defer tf.Close()
	if *jsonFlag {
		err = PrintJson(tf, os.Stdout)
	} else if *prettyFlag {
		err = PrintPretty(tf, os.Stdout)
	} else {
		var out *os.File
		if out, err = os.Create(*drcovFlag); err == nil {
			err = WriteDrcov(tf, out)
			out.Close()
		}
	}
	if err != nil {
		cmd.PrintError(err)
		os.Exit(1)
	}
}

func init() { cmd.Register("trace", "manipulate a saved trace file", Main) }
