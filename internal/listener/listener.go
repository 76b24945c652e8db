// Package listener owns the per-port sockets of the sensor.
//
// Each Handle binds one TCP port, runs its own accept loop, turns every
// accepted connection into a model.ConnectionAttempt, hands it to a Sink and
// closes the connection without reading or writing a byte.
package listener

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/user/honeyport/internal/metrics"
	"github.com/user/honeyport/internal/model"
	"github.com/user/honeyport/internal/util"
)

// DefaultAddress is the wildcard IPv4 address the sensor binds to.
const DefaultAddress = "0.0.0.0"

// acceptRetryDelay is the pause after a temporary accept error.
const acceptRetryDelay = 50 * time.Millisecond

// Sink receives connection attempts. The notifier satisfies it.
type Sink interface {
	ConnectionAttempt(model.ConnectionAttempt)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(model.ConnectionAttempt)

// ConnectionAttempt calls f(a).
func (f SinkFunc) ConnectionAttempt(a model.ConnectionAttempt) { f(a) }

// Options configures Start.
type Options struct {
	Address string
	Sink    Sink
	Now     func() time.Time
}

// Handle is a bound socket together with its accept loop.
type Handle struct {
	port int
	ln   net.Listener
	sink Sink
	now  func() time.Time

	attempts  atomic.Int64
	closed    atomic.Bool
	closeOnce sync.Once
	done      chan struct{}
}

// Start binds address:port and starts accepting. Port 0 binds an ephemeral
// port; Handle.Port reports the one actually bound.
func Start(port int, opts Options) (*Handle, error) {
	if opts.Sink == nil {
		return nil, errors.New("listener: nil sink")
	}
	if opts.Address == "" {
		opts.Address = DefaultAddress
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	lc := net.ListenConfig{Control: socketControl}
	addr := net.JoinHostPort(opts.Address, strconv.Itoa(port))

	ln, err := lc.Listen(context.Background(), "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	if tcpAddr, ok := ln.Addr().(*net.TCPAddr); ok {
		port = tcpAddr.Port
	}

	h := &Handle{
		port: port,
		ln:   ln,
		sink: opts.Sink,
		now:  opts.Now,
		done: make(chan struct{}),
	}

	go h.acceptLoop()

	return h, nil
}

// Port returns the bound port.
func (h *Handle) Port() int {
	return h.port
}

// Addr returns the bound address.
func (h *Handle) Addr() net.Addr {
	return h.ln.Addr()
}

// Attempts returns how many connections this handle has accepted.
func (h *Handle) Attempts() int64 {
	return h.attempts.Load()
}

// Done is closed when the accept loop has exited.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Active reports whether the accept loop is still running.
func (h *Handle) Active() bool {
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

// Close closes the socket, which ends the accept loop. It is idempotent.
func (h *Handle) Close() error {
	var err error
	h.closeOnce.Do(func() {
		h.closed.Store(true)
		err = h.ln.Close()
	})
	return err
}

func (h *Handle) acceptLoop() {
	defer close(h.done)

	for {
		conn, err := h.ln.Accept()
		if err != nil {
			if h.closed.Load() || errors.Is(err, net.ErrClosed) {
				util.Debug("Listener on port %d closed", h.port)
				return
			}
			if isTemporary(err) {
				util.Warn("Temporary accept error on port %d: %v", h.port, err)
				time.Sleep(acceptRetryDelay)
				continue
			}
			util.Error("Accept loop on port %d stopped: %v", h.port, err)
			return
		}

		h.handle(conn)
	}
}

func (h *Handle) handle(conn net.Conn) {
	defer conn.Close()

	attempt := model.NewConnectionAttempt(h.now(), remoteIP(conn.RemoteAddr()), h.port)

	h.attempts.Add(1)
	metrics.ObserveAttempt(h.port)
	h.sink.ConnectionAttempt(attempt)

	util.Info("Connection attempt detected: %s:%d", attempt.SourceIP, attempt.TargetPort)
}

func remoteIP(addr net.Addr) string {
	if addr == nil {
		return ""
	}
	if tcp, ok := addr.(*net.TCPAddr); ok {
		return tcp.IP.String()
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}
