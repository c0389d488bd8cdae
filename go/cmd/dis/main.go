package dis

import (
	"flag"
	"fmt"
	"os"

	"github.com/lunixbochs/hc11corn/go/arch/hc11"
	"github.com/lunixbochs/hc11corn/go/cmd"
	"github.com/lunixbochs/hc11corn/go/loader"
	"github.com/lunixbochs/hc11corn/go/models"
)

// Dump disassembles every segment of img, one block per segment.
func Dump(img loader.Image, bytes bool) error {
	for _, seg := range img.Segments() {
		out, err := models.Disas(seg.Data, seg.Addr, hc11.Arch, bytes)
		if err != nil {
			return err
		}
		fmt.Printf("; %s $%04x-$%04x\n%s\n\n", img.Name(), seg.Addr, seg.Addr+uint64(len(seg.Data)), out)
	}
	if entry, ok := img.Entry(); ok {
		fmt.Printf("; entry $%04x\n", entry)
	}
	return nil
}

func Main(args []string) {
	fs := flag.NewFlagSet("dis", flag.ExitOnError)
	bytes := fs.Bool("bytes", false, "show instruction bytes")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <image[@addr]>\n", args[0])
		fs.PrintDefaults()
	}
	fs.Parse(args[1:])
	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(1)
	}
	spec, err := loader.ParseROM(fs.Arg(0))
	if err != nil {
		cmd.PrintError(err)
		os.Exit(1)
	}
	img, err := spec.Load()
	if err != nil {
		cmd.PrintError(err)
		os.Exit(1)
	}
	defer img.Close()
	if err := Dump(img, *bytes); err != nil {
		cmd.PrintError(err)
		os.Exit(1)
	}
}

func init() { cmd.Register("dis", "disassemble a ROM image", Main) }
