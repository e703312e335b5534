package simulator

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/pebbe/zmq4"

	"imagepack-viewer/internal/imagepack"
	"imagepack-viewer/internal/logger"
	"imagepack-viewer/internal/transport"
	"imagepack-viewer/internal/types"
)

type Options struct {
	Width  int
	Height int
	Token  string
	Seed   int64
	Log    *logger.Logger
}

// Generator renders a synthetic stereo pair: a gaussian spot orbiting the
// image centre, shifted horizontally in the right view, with shot noise.
type Generator struct {
	width  int
	height int
	rng    *rand.Rand
}

func NewGenerator(width, height int, seed int64) *Generator {
	if width < 1 {
		width = 320
	}
	if height < 1 {
		height = 240
	}
	return &Generator{width: width, height: height, rng: rand.New(rand.NewSource(seed))}
}

// Generate returns the pack for frame seq.
func (g *Generator) Generate(seq uint64) types.ImagePack {
	phase := float64(seq) * 0.1
	cx := float64(g.width)/2 + float64(g.width)/4*math.Cos(phase)
	cy := float64(g.height)/2 + float64(g.height)/4*math.Sin(phase)
	disparity := float64(g.width) / 16
	return types.ImagePack{
		g.render(cx, cy),
		g.render(cx-disparity, cy),
	}
}

func (g *Generator) render(cx, cy float64) types.ImageRecord {
	pix := make([]byte, g.width*g.height)
	sigma2 := float64(g.width*g.height) / 40
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			dx := float64(x) - cx
			dy := float64(y) - cy
			base := 20 + 220*math.Exp(-(dx*dx+dy*dy)/sigma2)
			val := base + g.rng.NormFloat64()*math.Sqrt(base)
			if val < 0 {
				val = 0
			}
			if val > 255 {
				val = 255
			}
			pix[y*g.width+x] = byte(val)
		}
	}
	return types.ImageRecord{Width: uint32(g.width), Height: uint32(g.height), Pix: pix}
}

// Server answers image requests on a REP socket.
type Server struct {
	socket *zmq4.Socket
	poller *zmq4.Poller
	gen    *Generator
	token  string
	log    *logger.Logger
	served atomic.Uint64
}

// Listen binds a REP socket on endpoint, e.g. "tcp://*:5555".
func Listen(endpoint string, opts Options) (*Server, error) {
	socket, err := zmq4.NewSocket(zmq4.REP)
	if err != nil {
		return nil, err
	}
	if err := socket.SetLinger(0); err != nil {
		_ = socket.Close()
		return nil, err
	}
	if err := socket.Bind(endpoint); err != nil {
		_ = socket.Close()
		return nil, err
	}
	if opts.Token == "" {
		opts.Token = "imageRequest"
	}
	if opts.Log == nil {
		opts.Log = logger.Nop()
	}
	poller := zmq4.NewPoller()
	poller.Add(socket, zmq4.POLLIN)
	return &Server{
		socket: socket,
		poller: poller,
		gen:    NewGenerator(opts.Width, opts.Height, opts.Seed),
		token:  opts.Token,
		log:    opts.Log,
	}, nil
}

// Serve replies until ctx is done, then closes the socket. Requests other
// than the token get an empty pack so the REP socket stays in step.
func (s *Server) Serve(ctx context.Context) error {
	defer s.socket.Close()
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		err := transport.PollReady(s.poller.Poll(100 * time.Millisecond))
		if errors.Is(err, transport.ErrPollExpired) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		msg, err := s.socket.RecvBytes(0)
		if err != nil {
			s.log.Warn().Err(err).Msg("simulator recv error")
			continue
		}

		var reply []byte
		if string(msg) == s.token {
			reply = imagepack.Encode(s.gen.Generate(s.served.Add(1)))
		} else {
			s.log.Warn().Str("request", string(msg)).Msg("simulator ignoring unknown request")
		}
		if _, err := s.socket.SendBytes(reply, 0); err != nil {
			s.log.Warn().Err(err).Msg("simulator send error")
		}
	}
}

func (s *Server) Served() uint64 { return s.served.Load() }
