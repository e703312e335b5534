package transport

import (
	"errors"
	"syscall"
	"time"

	"github.com/pebbe/zmq4"
)

var ErrPollExpired = errors.New("receive poll expired")

// Conn is one request-reply socket. Recv returns ErrPollExpired when no
// reply arrived within timeout; a negative timeout blocks.
type Conn interface {
	Send(payload []byte) error
	Recv(timeout time.Duration) ([]byte, error)
	Close() error
}

// Dialer opens a Conn to endpoint.
type Dialer func(endpoint string) (Conn, error)

type zmqConn struct {
	socket *zmq4.Socket
	poller *zmq4.Poller
}

// DialZMQ connects a REQ socket to endpoint with linger disabled, so that a
// socket abandoned after a timeout does not hold pending requests.
func DialZMQ(endpoint string) (Conn, error) {
	socket, err := zmq4.NewSocket(zmq4.REQ)
	if err != nil {
		return nil, err
	}
	if err := socket.SetLinger(0); err != nil {
		_ = socket.Close()
		return nil, err
	}
	if err := socket.Connect(endpoint); err != nil {
		_ = socket.Close()
		return nil, err
	}
	poller := zmq4.NewPoller()
	poller.Add(socket, zmq4.POLLIN)
	return &zmqConn{socket: socket, poller: poller}, nil
}

func (c *zmqConn) Send(payload []byte) error {
	_, err := c.socket.SendBytes(payload, 0)
	return err
}

func (c *zmqConn) Recv(timeout time.Duration) ([]byte, error) {
	if timeout < 0 {
		timeout = -1
	}
	if err := PollReady(c.poller.Poll(timeout)); err != nil {
		return nil, err
	}
	return c.socket.RecvBytes(0)
}

// PollReady maps a Poller.Poll result to nil when a socket is readable and
// to ErrPollExpired when the slice passed without one. A poll interrupted by
// a signal (EINTR) counts as expired; the caller's context decides whether
// to stop.
func PollReady(polled []zmq4.Polled, err error) error {
	if err != nil {
		if Interrupted(err) {
			return ErrPollExpired
		}
		return err
	}
	if len(polled) == 0 {
		return ErrPollExpired
	}
	return nil
}

// Interrupted reports whether err is a zmq call cut short by a signal.
func Interrupted(err error) bool {
	return err != nil && zmq4.AsErrno(err) == zmq4.Errno(syscall.EINTR)
}

func (c *zmqConn) Close() error {
	return c.socket.Close()
}
