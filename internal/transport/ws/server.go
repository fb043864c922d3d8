package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"gridarena.ai/internal/protocol"
	"gridarena.ai/internal/sim/world"
)

var (
	// ErrAgentTimeout means the remote agent did not answer SENSORS in time.
	ErrAgentTimeout = errors.New("agent timed out")
	ErrNotConnected = errors.New("agent not connected")
)

// Seat is an agent slot reserved at world construction that a remote
// client claims by name in its HELLO.
type Seat struct {
	Agent string
	Color string
	Kind  string
}

// Recorder receives connection counters; *metrics.Sim satisfies it.
type Recorder interface {
	ConnOpened()
	ConnClosed()
	Rejected(reason string)
}

type Config struct {
	Mode  string
	World protocol.WorldParams
	Seats []Seat

	// CommandTimeout bounds how long NextCommand waits for a reply.
	CommandTimeout time.Duration
	// MessagesPerSecond and Burst limit inbound frames per connection.
	MessagesPerSecond float64
	Burst             int

	Logger  *log.Logger
	Metrics Recorder
}

type Server struct {
	cfg Config
	log *log.Logger

	upgrader websocket.Upgrader

	mu      sync.Mutex
	seats   map[string]*seatState
	joined  chan struct{}
	allIn   bool
	summary *world.Summary
}

type seatState struct {
	Seat
	c *client
}

type client struct {
	agent string
	codec protocol.Codec
	out   chan frame
	cmds  chan protocol.CommandMsg
	done  chan struct{}
	once  sync.Once
}

type frame struct {
	binary bool
	data   []byte
}

func (c *client) close() { c.once.Do(func() { close(c.done) }) }

func NewServer(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard, "", 0)
	}
	if cfg.CommandTimeout <= 0 {
		cfg.CommandTimeout = 5 * time.Second
	}
	if cfg.MessagesPerSecond <= 0 {
		cfg.MessagesPerSecond = 20
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 10
	}
	s := &Server{
		cfg:    cfg,
		log:    cfg.Logger,
		seats:  map[string]*seatState{},
		joined: make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
	for _, st := range cfg.Seats {
		s.seats[st.Agent] = &seatState{Seat: st}
	}
	if len(s.seats) == 0 {
		s.allIn = true
		close(s.joined)
	}
	return s
}

// WaitForSeats blocks until every seat has a connected client.
func (s *Server) WaitForSeats(ctx context.Context) error {
	select {
	case <-s.joined:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Connected lists agents that currently hold their seat.
func (s *Server) Connected() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, st := range s.cfg.Seats {
		if s.seats[st.Agent].c != nil {
			out = append(out, st.Agent)
		}
	}
	return out
}

// NextCommand implements world.CommandProvider: it pushes the snapshot to
// the remote agent and waits for a COMMAND stamped with the same tick.
func (s *Server) NextCommand(ctx context.Context, agent string, sensors protocol.Sensors) (protocol.Command, error) {
	s.mu.Lock()
	st, ok := s.seats[agent]
	var c *client
	if ok {
		c = st.c
	}
	s.mu.Unlock()
	if c == nil {
		return protocol.Command{}, fmt.Errorf("%w: %s", ErrNotConnected, agent)
	}

	msg := protocol.SensorsMsg{
		Type:            protocol.TypeSensors,
		ProtocolVersion: protocol.Version,
		Tick:            sensors.Tick,
		Sensors:         sensors,
	}
	if err := s.send(c, msg); err != nil {
		return protocol.Command{}, err
	}

	timer := time.NewTimer(s.cfg.CommandTimeout)
	defer timer.Stop()
	for {
		select {
		case m := <-c.cmds:
			if m.Tick != sensors.Tick {
				e := protocol.NewError(protocol.ErrStale, fmt.Sprintf("expected tick %d", sensors.Tick))
				e.Tick = m.Tick
				_ = s.send(c, e)
				continue
			}
			return m.Command, nil
		case <-timer.C:
			return protocol.Command{}, fmt.Errorf("%w: %s after %s", ErrAgentTimeout, agent, s.cfg.CommandTimeout)
		case <-c.done:
			return protocol.Command{}, fmt.Errorf("%w: %s disconnected", ErrNotConnected, agent)
		case <-ctx.Done():
			return protocol.Command{}, ctx.Err()
		}
	}
}

// Finish implements world.Finisher and broadcasts END to every client.
func (s *Server) Finish(sum world.Summary) {
	s.mu.Lock()
	s.summary = &sum
	var clients []*client
	for _, st := range s.seats {
		if st.c != nil {
			clients = append(clients, st.c)
		}
	}
	s.mu.Unlock()
	end := sum.EndMsg()
	for _, c := range clients {
		_ = s.send(c, end)
	}
}

func (s *Server) send(c *client, v any) error {
	b, err := c.codec.Marshal(v)
	if err != nil {
		return err
	}
	select {
	case c.out <- frame{binary: c.codec.Binary(), data: b}:
		return nil
	case <-c.done:
		return fmt.Errorf("%w: %s disconnected", ErrNotConnected, c.agent)
	default:
		return fmt.Errorf("%s: outbound queue full", c.agent)
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		c := s.handshake(conn)
		if c == nil {
			s.reject("handshake")
			return
		}
		if s.cfg.Metrics != nil {
			s.cfg.Metrics.ConnOpened()
			defer s.cfg.Metrics.ConnClosed()
		}
		s.log.Printf("agent %s connected codec=%s", c.agent, c.codec.Name())
		defer s.release(c)

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-c.done:
					return
				case f := <-c.out:
					typ := websocket.TextMessage
					if f.binary {
						typ = websocket.BinaryMessage
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(typ, f.data); err != nil {
						c.close()
						return
					}
				}
			}
		}()

		lim := rate.NewLimiter(rate.Limit(s.cfg.MessagesPerSecond), s.cfg.Burst)

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, raw, err := conn.ReadMessage()
			if err != nil {
				break
			}
			if !lim.Allow() {
				s.reject("rate_limit")
				_ = s.send(c, protocol.NewError(protocol.ErrRateLimit, "slow down"))
				continue
			}
			m, code, err := decodeCommand(c.codec, raw)
			if err != nil {
				s.reject("schema")
				_ = s.send(c, protocol.NewError(code, err.Error()))
				continue
			}
			select {
			case c.cmds <- m:
			default:
				_ = s.send(c, protocol.NewError(protocol.ErrConflict, "command already pending"))
			}
		}
		c.close()
	}
}

// decodeCommand returns the error code to report when the frame is rejected.
func decodeCommand(codec protocol.Codec, raw []byte) (protocol.CommandMsg, string, error) {
	var m protocol.CommandMsg
	if !codec.Binary() {
		base, err := protocol.DecodeBase(raw)
		if err != nil {
			return m, protocol.ErrProtoBadRequest, err
		}
		if base.Type != protocol.TypeCommand {
			return m, protocol.ErrProtoBadRequest, fmt.Errorf("unexpected %q", base.Type)
		}
		if err := protocol.ValidateCommandJSON(raw); err != nil {
			return m, protocol.ErrBadRequest, err
		}
		if err := json.Unmarshal(raw, &m); err != nil {
			return m, protocol.ErrBadRequest, err
		}
	} else {
		if err := codec.Unmarshal(raw, &m); err != nil {
			return m, protocol.ErrProtoBadRequest, err
		}
		if m.Type != protocol.TypeCommand {
			return m, protocol.ErrProtoBadRequest, fmt.Errorf("unexpected %q", m.Type)
		}
		if err := protocol.ValidateCommand(m); err != nil {
			return m, protocol.ErrBadRequest, err
		}
	}
	if m.ProtocolVersion != protocol.Version {
		return m, protocol.ErrProtoBadRequest, fmt.Errorf("bad protocol_version %q", m.ProtocolVersion)
	}
	return m, "", nil
}

func (s *Server) handshake(conn *websocket.Conn) *client {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"), time.Now().Add(time.Second))
		return nil
	}
	if err := protocol.ValidateHelloJSON(msg); err != nil {
		_ = writeJSON(conn, protocol.NewError(protocol.ErrProtoBadRequest, err.Error()))
		return nil
	}
	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return nil
	}
	if hello.ProtocolVersion != protocol.Version {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"), time.Now().Add(time.Second))
		return nil
	}
	codec, err := protocol.CodecFor(hello.Codec)
	if err != nil {
		_ = writeJSON(conn, protocol.NewError(protocol.ErrBadCodec, err.Error()))
		return nil
	}

	c := &client{
		agent: hello.AgentName,
		codec: codec,
		out:   make(chan frame, 16),
		cmds:  make(chan protocol.CommandMsg, 4),
		done:  make(chan struct{}),
	}
	st, code := s.claim(c)
	if code != "" {
		s.reject("seat")
		_ = writeJSON(conn, protocol.NewError(code, hello.AgentName))
		return nil
	}

	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		Agent:           st.Agent,
		Color:           st.Color,
		Kind:            st.Kind,
		Mode:            s.cfg.Mode,
		Codec:           codec.Name(),
		World:           s.cfg.World,
	}
	if err := writeJSON(conn, welcome); err != nil {
		s.release(c)
		return nil
	}
	return c
}

// claim returns a protocol error code when the seat cannot be taken.
func (s *Server) claim(c *client) (Seat, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.seats[c.agent]
	if !ok {
		return Seat{}, protocol.ErrUnknownAgent
	}
	if st.c != nil {
		return Seat{}, protocol.ErrSeatTaken
	}
	st.c = c
	if !s.allIn {
		all := true
		for _, x := range s.seats {
			if x.c == nil {
				all = false
				break
			}
		}
		if all {
			s.allIn = true
			close(s.joined)
		}
	}
	return st.Seat, ""
}

func (s *Server) release(c *client) {
	c.close()
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.seats[c.agent]; ok && st.c == c {
		st.c = nil
		s.log.Printf("agent %s disconnected", c.agent)
	}
}

func (s *Server) reject(reason string) {
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.Rejected(reason)
	}
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
