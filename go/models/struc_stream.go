package models

import (
	"io"

	"github.com/lunixbochs/struc"
)

// StrucStream packs a sequence of structs to or from one stream.
type StrucStream struct {
	Stream  io.ReadWriter
	Options *struc.Options
}

func (s *StrucStream) Pack(vals ...interface{}) error {
	for _, v := range vals {
		if err := struc.PackWithOptions(s.Stream, v, s.Options); err != nil {
			return err
		}
	}
	return nil
}

func (s *StrucStream) Unpack(vals ...interface{}) error {
	for _, v := range vals {
		if err := struc.UnpackWithOptions(s.Stream, v, s.Options); err != nil {
			return err
		}
	}
	return nil
}
