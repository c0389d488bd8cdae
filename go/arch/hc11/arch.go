package hc11

import (
	"github.com/lunixbochs/hc11corn/go/cpu/hc11"
	"github.com/lunixbochs/hc11corn/go/models"
)

var Arch = func() *models.Arch {
	a := models.NewArch("hc11", 16, 16, hc11.PC, hc11.SP, hc11.RegNames)
	a.DefaultRegs = []string{"a", "b", "ix", "iy", "sp", "pc", "ccr"}
	a.RegWidths = map[int]int{hc11.A: 8, hc11.B: 8, hc11.CCR: 8}
	a.FlagNames = map[int]string{hc11.CCR: hc11.CCR_NAMES}
	a.Dis = &hc11.Dis{}
	return a
}()
