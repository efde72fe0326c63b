// Package httpreq sends a raw request over TCP and waits for the peer to
// close, the one blocking network primitive the controller uses for
// special stations.
package httpreq

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"strconv"
	"time"
)

// Result is the outcome of Send. The numeric values match the codes the
// controller reports to its management interface.
type Result int

const (
	Success     Result = 0
	NotReceived Result = -1
	ConnectErr  Result = -2
	Timeout     Result = -3
	EmptyReturn Result = -4
)

func (r Result) String() string {
	switch r {
	case Success:
		return "success"
	case NotReceived:
		return "not_received"
	case ConnectErr:
		return "connect_error"
	case Timeout:
		return "timeout"
	case EmptyReturn:
		return "empty_return"
	}
	return fmt.Sprintf("result(%d)", int(r))
}

var (
	ErrNotReceived = errors.New("httpreq: request not sent")
	ErrConnect     = errors.New("httpreq: connect failed")
	ErrTimeout     = errors.New("httpreq: timed out")
	ErrEmptyReturn = errors.New("httpreq: empty response")
)

// Err converts the result to an error, nil on success.
func (r Result) Err() error {
	switch r {
	case Success:
		return nil
	case NotReceived:
		return ErrNotReceived
	case ConnectErr:
		return ErrConnect
	case Timeout:
		return ErrTimeout
	case EmptyReturn:
		return ErrEmptyReturn
	}
	return fmt.Errorf("httpreq: %s", r)
}

// Defaults.
const (
	ConnectTries   = 3
	RetryDelay     = 500 * time.Millisecond
	BufferSize     = 8192
	DefaultTimeout = 30 * time.Second
	DefaultPort    = 80
)

// Target is a peer to connect to.
type Target struct {
	Host string
	Port uint16
}

// FromIPv4 builds a target from a resolved address.
func FromIPv4(ip [4]byte, port uint16) Target {
	return Target{Host: net.IPv4(ip[0], ip[1], ip[2], ip[3]).String(), Port: port}
}

// ParseHostPort parses "host:port"; a missing port means DefaultPort.
func ParseHostPort(s string) (Target, error) {
	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		var aerr *net.AddrError
		if errors.As(err, &aerr) && aerr.Err == "missing port in address" {
			if s == "" {
				return Target{}, fmt.Errorf("httpreq: empty host")
			}
			return Target{Host: s, Port: DefaultPort}, nil
		}
		return Target{}, fmt.Errorf("httpreq: %w", err)
	}
	if host == "" {
		return Target{}, fmt.Errorf("httpreq: empty host in %q", s)
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return Target{}, fmt.Errorf("httpreq: bad port %q", portStr)
	}
	return Target{Host: host, Port: uint16(port)}, nil
}

// Addr returns the dialable "host:port" form.
func (t Target) Addr() string {
	return net.JoinHostPort(t.Host, strconv.Itoa(int(t.Port)))
}

func (t Target) String() string {
	return t.Addr()
}

// Client sends blocking requests. The zero value is not usable; use
// NewClient.
type Client struct {
	// Dial opens a connection, bounded by timeout.
	Dial func(network, addr string, timeout time.Duration) (net.Conn, error)

	// Sleep waits between connect attempts.
	Sleep func(time.Duration)

	Tries      int
	RetryDelay time.Duration
}

// NewClient returns a client with the default retry policy.
func NewClient() *Client {
	return &Client{
		Dial:       net.DialTimeout,
		Sleep:      time.Sleep,
		Tries:      ConnectTries,
		RetryDelay: RetryDelay,
	}
}

// Send connects to t, writes payload and reads until the peer closes the
// connection or timeout elapses. A non-empty response is handed to
// callback (which may be nil) before Success is returned. A zero timeout
// means DefaultTimeout.
func (c *Client) Send(t Target, payload []byte, callback func([]byte), timeout time.Duration) Result {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	var conn net.Conn
	var err error
	for try := 1; try <= c.Tries; try++ {
		conn, err = c.Dial("tcp", t.Addr(), timeout)
		if err == nil {
			break
		}
		log.Printf("httpreq: connect %s attempt %d/%d: %v", t, try, c.Tries, err)
		if try < c.Tries {
			c.Sleep(c.RetryDelay)
		}
	}
	if err != nil {
		return ConnectErr
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		return NotReceived
	}
	if _, err := conn.Write(payload); err != nil {
		log.Printf("httpreq: write %s: %v", t, err)
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return Timeout
		}
		return NotReceived
	}

	buf := make([]byte, BufferSize)
	n := 0
	for n < len(buf) {
		m, err := conn.Read(buf[n:])
		n += m
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return Timeout
		}
		if err != nil {
			log.Printf("httpreq: read %s: %v", t, err)
			break
		}
	}

	if n == 0 {
		return EmptyReturn
	}
	if callback != nil {
		callback(buf[:n])
	}
	return Success
}
