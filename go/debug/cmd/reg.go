package cmd

import (
	"regexp"
	"strings"
)

var strEqNumRe = regexp.MustCompile(`^([a-zA-Z]+)=(\$[0-9a-fA-F]+|(0x|0b)?[0-9a-fA-F]+)$`)

var RegCmd = cmd(&Command{
	Name:  "reg",
	Desc:  "Read/write registers of the selected cpu.",
	Usage: "[name[=val]...]",
	Run: func(c *Context, args ...string) error {
		core := c.M.Core()
		arch := c.M.Arch()
		if len(args) == 0 {
			regs, err := arch.RegDump(core)
			if err != nil {
				return err
			}
			for _, reg := range regs {
				c.Printf("%s $%04x\n", reg.Name, reg.Val)
			}
			return nil
		}
		for _, v := range args {
			reg := v
			var value uint64
			match := strEqNumRe.FindStringSubmatch(v)
			if len(match) > 0 {
				reg = match[1]
				var err error
				if value, err = ParseNum(match[2]); err != nil {
					c.Printf("error parsing %s value: %v\n", reg, err)
					continue
				}
			}
			enum, ok := arch.RegLookup(reg)
			if !ok {
				if strings.Contains(reg, "=") {
					c.Printf("invalid assignment: %s\n", reg)
				} else {
					c.Printf("reg %s not found\n", reg)
				}
				continue
			}
			if len(match) > 0 {
				if err := core.RegWrite(enum, value); err != nil {
					c.Printf("%s: %v\n", v, err)
				}
			} else {
				val, _ := core.RegRead(enum)
				c.Printf("%s $%04x\n", reg, val)
			}
		}
		return nil
	},
})
