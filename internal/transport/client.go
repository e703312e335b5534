// Package transport implements the request side of the strictly alternating
// request-reply channel to the capture server.
package transport

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"imagepack-viewer/internal/logger"
)

const (
	DefaultToken        = "imageRequest"
	defaultPollInterval = 100 * time.Millisecond
)

var (
	ErrTransport        = errors.New("transport failure")
	ErrTimeout          = errors.New("transport timeout")
	ErrProtocolSequence = errors.New("request-reply sequence violated")
	ErrClosed           = errors.New("transport client closed")
)

type Config struct {
	Endpoint string
	Token    string
	// Timeout bounds a single receive. Zero waits forever.
	Timeout time.Duration
}

// Client owns one request-reply connection. It is not safe for concurrent
// use; the channel only allows one outstanding request anyway.
type Client struct {
	cfg          Config
	dial         Dialer
	log          *logger.Logger
	pollInterval time.Duration

	conn       Conn
	awaiting   bool
	closed     bool
	reconnects atomic.Int64
}

type Option func(*Client)

func WithDialer(dial Dialer) Option {
	return func(c *Client) { c.dial = dial }
}

func WithLogger(log *logger.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithPollInterval sets how often a blocked receive checks its context.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// Dial connects to cfg.Endpoint. The connection is reused for every request
// until Close.
func Dial(cfg Config, opts ...Option) (*Client, error) {
	if cfg.Token == "" {
		cfg.Token = DefaultToken
	}
	c := &Client{
		cfg:          cfg,
		dial:         DialZMQ,
		log:          logger.Nop(),
		pollInterval: defaultPollInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	conn, err := c.dial(cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: connect %s: %v", ErrTransport, cfg.Endpoint, err)
	}
	c.conn = conn
	return c, nil
}

func (c *Client) Endpoint() string { return c.cfg.Endpoint }

// Reconnects reports how many times the socket was recreated. It may be
// called from any goroutine.
func (c *Client) Reconnects() int { return int(c.reconnects.Load()) }

// RequestImagePack sends the request token and waits for the reply payload.
func (c *Client) RequestImagePack(ctx context.Context) ([]byte, error) {
	if err := c.Send([]byte(c.cfg.Token)); err != nil {
		return nil, err
	}
	return c.Recv(ctx)
}

// Send transmits one request. A second Send before the reply is received
// fails with ErrProtocolSequence.
func (c *Client) Send(payload []byte) error {
	if c.closed {
		return fmt.Errorf("%w: %w", ErrTransport, ErrClosed)
	}
	if c.awaiting {
		return fmt.Errorf("%w: send while a reply is outstanding", ErrProtocolSequence)
	}
	if c.conn == nil {
		if err := c.Reconnect(); err != nil {
			return err
		}
	}
	if err := c.conn.Send(payload); err != nil {
		c.reset("send failed")
		return fmt.Errorf("%w: send to %s: %v", ErrTransport, c.cfg.Endpoint, err)
	}
	c.awaiting = true
	return nil
}

// Recv waits for the reply to the last Send. Without a preceding Send it
// fails with ErrProtocolSequence. On timeout or cancellation the socket is
// recreated so the next Send starts a fresh exchange.
func (c *Client) Recv(ctx context.Context) ([]byte, error) {
	if c.closed {
		return nil, fmt.Errorf("%w: %w", ErrTransport, ErrClosed)
	}
	if !c.awaiting {
		return nil, fmt.Errorf("%w: receive without a pending request", ErrProtocolSequence)
	}

	var deadline time.Time
	if c.cfg.Timeout > 0 {
		deadline = time.Now().Add(c.cfg.Timeout)
	}
	for {
		if err := ctx.Err(); err != nil {
			c.reset("receive cancelled")
			return nil, err
		}
		slice := c.pollInterval
		if !deadline.IsZero() {
			remaining := time.Until(deadline)
			if remaining <= 0 {
				c.reset("receive timed out")
				return nil, fmt.Errorf("%w: no reply from %s within %s", ErrTimeout, c.cfg.Endpoint, c.cfg.Timeout)
			}
			if remaining < slice {
				slice = remaining
			}
		}

		payload, err := c.conn.Recv(slice)
		if errors.Is(err, ErrPollExpired) {
			continue
		}
		if err != nil {
			c.reset("receive failed")
			return nil, fmt.Errorf("%w: receive from %s: %v", ErrTransport, c.cfg.Endpoint, err)
		}
		c.awaiting = false
		return payload, nil
	}
}

// Reconnect drops the current socket and dials a new one.
func (c *Client) Reconnect() error {
	if c.closed {
		return fmt.Errorf("%w: %w", ErrTransport, ErrClosed)
	}
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	c.awaiting = false
	conn, err := c.dial(c.cfg.Endpoint)
	if err != nil {
		return fmt.Errorf("%w: reconnect %s: %v", ErrTransport, c.cfg.Endpoint, err)
	}
	c.conn = conn
	c.reconnects.Add(1)
	return nil
}

func (c *Client) reset(reason string) {
	c.log.Warn().Str("endpoint", c.cfg.Endpoint).Str("reason", reason).Msg("resetting request socket")
	if err := c.Reconnect(); err != nil {
		c.log.Error().Err(err).Msg("reconnect failed")
	}
}

// Close releases the socket. It is safe to call more than once.
func (c *Client) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.awaiting = false
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}
