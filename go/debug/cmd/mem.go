package cmd

import (
	"encoding/hex"
	"strings"

	"github.com/pkg/errors"

	"github.com/lunixbochs/hc11corn/go/models"
	"github.com/lunixbochs/hc11corn/go/models/cpu"
)

var MapsCmd = cmd(&Command{
	Name: "maps",
	Desc: "Display memory mappings.",
	Run: func(c *Context) error {
		for _, m := range c.M.Mem().Mappings() {
			c.Printf("  %v\n", m.String())
		}
		return nil
	},
})

// parseProt reads a maps style "rwx" string, with - or nothing for a
// missing permission.
func parseProt(s string) (int, error) {
	prot := 0
	for _, c := range s {
		switch c {
		case 'r':
			prot |= cpu.PROT_READ
		case 'w':
			prot |= cpu.PROT_WRITE
		case 'x':
			prot |= cpu.PROT_EXEC
		case '-':
		default:
			return 0, errors.Errorf("bad protection %q", s)
		}
	}
	return prot, nil
}

var ProtCmd = cmd(&Command{
	Name:  "prot",
	Desc:  "Change protection of mapped memory.",
	Usage: "addr size rwx",
	Run: func(c *Context, addr, size uint64, perms string) error {
		prot, err := parseProt(perms)
		if err != nil {
			return err
		}
		return c.M.Mem().MemProt(addr, size, prot)
	},
})

var UnmapCmd = cmd(&Command{
	Name:  "unmap",
	Desc:  "Remove memory from the bus.",
	Usage: "addr size",
	Run: func(c *Context, addr, size uint64) error {
		return c.M.Mem().MemUnmap(addr, size)
	},
})

var MemCmd = cmd(&Command{
	Name:  "mem",
	Desc:  "Dump memory as the selected cpu sees it.",
	Usage: "addr size",
	Run: func(c *Context, addr, size uint64) error {
		mem, err := c.M.Core().MemRead(addr, size)
		if err != nil {
			return err
		}
		for _, line := range models.HexDump(addr, mem, c.M.Arch().Bits) {
			c.Printf("  %s\n", line)
		}
		return nil
	},
})

var WriteCmd = cmd(&Command{
	Name:  "write",
	Desc:  "Write hex bytes to memory.",
	Usage: "addr hex",
	Run: func(c *Context, addr uint64, data string) error {
		p, err := hex.DecodeString(strings.Replace(data, " ", "", -1))
		if err != nil {
			return errors.Wrap(err, "bad hex")
		}
		return c.M.Core().MemWrite(addr, p)
	},
})

var DisCmd = cmd(&Command{
	Name:  "dis",
	Desc:  "Disassemble memory.",
	Usage: "addr size",
	Run: func(c *Context, addr, size uint64) error {
		mem, err := c.M.Core().MemRead(addr, size)
		if err != nil {
			return err
		}
		dis, err := models.Disas(mem, addr, c.M.Arch(), c.M.Config().DisBytes)
		if err != nil {
			return err
		}
		c.Printf("%s\n", dis)
		return nil
	},
})
