package arch

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/lunixbochs/hc11corn/go/arch/hc11"
	"github.com/lunixbochs/hc11corn/go/models"
)

var archMap = map[string]*models.Arch{
	"hc11": hc11.Arch,
}

func GetArch(name string) (*models.Arch, error) {
	a, ok := archMap[name]
	if !ok {
		return nil, errors.Errorf("Arch '%s' not found.", name)
	}
	return a, nil
}

func Names() []string {
	var out []string
	for name := range archMap {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
