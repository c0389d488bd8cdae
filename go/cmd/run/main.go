package run

import (
	"os"

	"github.com/lunixbochs/hc11corn/go/cmd"
)

func Main(args []string) {
	os.Exit(cmd.NewHC11Cmd().Run(args))
}

func init() { cmd.Register("run", "run firmware on one or more cores", Main) }
