package main

import (
	"github.com/lunixbochs/hc11corn/go/cmd"

	_ "github.com/lunixbochs/hc11corn/go/cmd/dis"
	_ "github.com/lunixbochs/hc11corn/go/cmd/run"
	_ "github.com/lunixbochs/hc11corn/go/cmd/trace"
)

func main() { cmd.Main() }
