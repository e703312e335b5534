package transport

import (
	"errors"
	"fmt"
	"syscall"
	"testing"

	"github.com/pebbe/zmq4"
	"github.com/stretchr/testify/assert"
)

func TestPollReady(t *testing.T) {
	ready := []zmq4.Polled{{Events: zmq4.POLLIN}}

	assert.NoError(t, PollReady(ready, nil))
	assert.ErrorIs(t, PollReady(nil, nil), ErrPollExpired, "empty slice")
	assert.ErrorIs(t, PollReady(nil, zmq4.Errno(syscall.EINTR)), ErrPollExpired, "signal during poll")

	failure := zmq4.Errno(syscall.EBADF)
	err := PollReady(nil, failure)
	assert.ErrorIs(t, err, failure)
	assert.NotErrorIs(t, err, ErrPollExpired)
}

func TestInterrupted(t *testing.T) {
	assert.True(t, Interrupted(zmq4.Errno(syscall.EINTR)))
	assert.False(t, Interrupted(zmq4.Errno(syscall.EAGAIN)))
	assert.False(t, Interrupted(errors.New("interrupted")))
	assert.False(t, Interrupted(fmt.Errorf("wrapped: %w", errors.New("x"))))
	assert.False(t, Interrupted(nil))
}
