package debug

import (
	"io"
	"net"
	"os"

	"github.com/lunixbochs/readline"
	"github.com/pkg/errors"
)

// like go io.Copy(), but returns a channel to notify you upon completion
func copyNotify(dst io.Writer, src io.Reader) chan int {
	ret := make(chan int)
	go func() {
		io.Copy(dst, src)
		ret <- 1
	}()
	return ret
}

// RunClient attaches the terminal to a debugger listening on addr.
func RunClient(addr string) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return errors.Wrap(err, "error connecting to debug server")
	}
	defer conn.Close()
	state, err := readline.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		return errors.Wrap(err, "error placing stdin into raw mode")
	}
	defer readline.Restore(int(os.Stdin.Fd()), state)
	remoteEOF := copyNotify(os.Stdout, conn)
	localEOF := copyNotify(conn, os.Stdin)
	select {
	case <-remoteEOF:
		return nil
	case <-localEOF:
		return nil
	}
}
