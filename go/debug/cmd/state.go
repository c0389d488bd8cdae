package cmd

import (
	"io/ioutil"

	"github.com/pkg/errors"

	"github.com/lunixbochs/hc11corn/go/models"
)

var SaveCmd = cmd(&Command{
	Name:  "save",
	Desc:  "Save machine state to a file.",
	Usage: "file",
	Run: func(c *Context, path string) error {
		p, err := models.Save(c.M)
		if err != nil {
			return err
		}
		if err := ioutil.WriteFile(path, p, 0644); err != nil {
			return errors.WithStack(err)
		}
		c.Printf("saved %d bytes at %s\n", len(p), c.M.Sched().Now())
		return nil
	},
})

var LoadCmd = cmd(&Command{
	Name:  "load",
	Desc:  "Load machine state from a file.",
	Usage: "file",
	Run: func(c *Context, path string) error {
		p, err := ioutil.ReadFile(path)
		if err != nil {
			return errors.WithStack(err)
		}
		if err := models.Load(c.M, p); err != nil {
			return err
		}
		c.Status(c.M.Core())
		return nil
	},
})
