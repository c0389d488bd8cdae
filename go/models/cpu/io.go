package cpu

type PortReader func(port int) uint8
type PortWriter func(port int, val uint8)

// IOSpace is a cpu's port address space. Ports without a reader read back 0
// and writes to ports without a writer are dropped.
type IOSpace struct {
	readers map[int]PortReader
	writers map[int]PortWriter
}

func NewIOSpace() *IOSpace {
	return &IOSpace{
		readers: make(map[int]PortReader),
		writers: make(map[int]PortWriter),
	}
}

// Install replaces the handlers for port. Either may be nil.
func (s *IOSpace) Install(port int, r PortReader, w PortWriter) {
	if r != nil {
		s.readers[port] = r
	} else {
		delete(s.readers, port)
	}
	if w != nil {
		s.writers[port] = w
	} else {
		delete(s.writers, port)
	}
}

func (s *IOSpace) Read(port int) uint8 {
	if r, ok := s.readers[port]; ok {
		return r(port)
	}
	return 0
}

func (s *IOSpace) Write(port int, val uint8) {
	if w, ok := s.writers[port]; ok {
		w(port, val)
	}
}
