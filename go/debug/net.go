package debug

import (
	"net"

	"github.com/sirupsen/logrus"
)

// Accept waits for one debugger client.
func Accept(log logrus.FieldLogger, host, port string) (net.Conn, error) {
	addr := net.JoinHostPort(host, port)
	log.WithField("addr", addr).Info("waiting for debugger connection")
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	defer ln.Close()
	return ln.Accept()
}
