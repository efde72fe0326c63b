package httpreq

import (
	"bufio"
	"errors"
	"net"
	"strings"
	"testing"
	"time"
)

// serve accepts one connection, reads the request head and runs handle.
func serve(t *testing.T, handle func(c net.Conn, req string)) (Target, <-chan string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	got := make(chan string, 1)
	go func() {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		defer c.Close()
		r := bufio.NewReader(c)
		var sb strings.Builder
		for {
			line, err := r.ReadString('\n')
			sb.WriteString(line)
			if err != nil || line == "\r\n" {
				break
			}
		}
		got <- sb.String()
		handle(c, sb.String())
	}()

	tgt, err := ParseHostPort(ln.Addr().String())
	if err != nil {
		t.Fatalf("ParseHostPort: %v", err)
	}
	return tgt, got
}

func TestSendSuccess(t *testing.T) {
	tgt, got := serve(t, func(c net.Conn, _ string) {
		c.Write([]byte("HTTP/1.0 200 OK\r\n\r\n{\"result\":1}"))
	})

	var resp string
	req := "GET /cm?pw=x&sid=1&en=1&t=64800 HTTP/1.0\r\nHOST: 127.0.0.1\r\n\r\n"
	res := NewClient().Send(tgt, []byte(req), func(b []byte) { resp = string(b) }, time.Second)
	if res != Success {
		t.Fatalf("got %v, want success", res)
	}
	if r := <-got; r != req {
		t.Errorf("request: got %q, want %q", r, req)
	}
	if !strings.HasSuffix(resp, `{"result":1}`) {
		t.Errorf("response: got %q", resp)
	}
}

func TestSendEmptyReturn(t *testing.T) {
	tgt, _ := serve(t, func(net.Conn, string) {})

	called := false
	res := NewClient().Send(tgt, []byte("GET / HTTP/1.0\r\n\r\n"), func([]byte) { called = true }, time.Second)
	if res != EmptyReturn {
		t.Errorf("got %v, want empty_return", res)
	}
	if called {
		t.Error("callback must not run for an empty response")
	}
	if !errors.Is(res.Err(), ErrEmptyReturn) {
		t.Errorf("Err: got %v", res.Err())
	}
}

func TestSendTimeout(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	tgt, _ := serve(t, func(c net.Conn, _ string) {
		c.Write([]byte("partial"))
		<-release
	})

	res := NewClient().Send(tgt, []byte("GET / HTTP/1.0\r\n\r\n"), nil, 100*time.Millisecond)
	if res != Timeout {
		t.Errorf("got %v, want timeout", res)
	}
}

func TestSendConnectRetries(t *testing.T) {
	dials := 0
	var sleeps []time.Duration
	c := NewClient()
	c.Dial = func(network, addr string, _ time.Duration) (net.Conn, error) {
		dials++
		if addr != "10.0.0.9:8080" {
			t.Errorf("addr: got %q", addr)
		}
		return nil, errors.New("connection refused")
	}
	c.Sleep = func(d time.Duration) { sleeps = append(sleeps, d) }

	res := c.Send(FromIPv4([4]byte{10, 0, 0, 9}, 8080), []byte("x"), nil, time.Second)
	if res != ConnectErr {
		t.Errorf("got %v, want connect_error", res)
	}
	if dials != ConnectTries {
		t.Errorf("dials: got %d, want %d", dials, ConnectTries)
	}
	if len(sleeps) != ConnectTries-1 {
		t.Errorf("sleeps: got %d, want %d", len(sleeps), ConnectTries-1)
	}
	for _, d := range sleeps {
		if d != RetryDelay {
			t.Errorf("sleep: got %v, want %v", d, RetryDelay)
		}
	}
}

func TestSendConnectsOnRetry(t *testing.T) {
	tgt, _ := serve(t, func(c net.Conn, _ string) { c.Write([]byte("ok")) })

	dials := 0
	c := NewClient()
	c.Sleep = func(time.Duration) {}
	c.Dial = func(network, addr string, timeout time.Duration) (net.Conn, error) {
		dials++
		if dials == 1 {
			return nil, errors.New("no route")
		}
		return net.DialTimeout(network, addr, timeout)
	}
	if res := c.Send(tgt, []byte("GET / HTTP/1.0\r\n\r\n"), nil, time.Second); res != Success {
		t.Errorf("got %v, want success", res)
	}
	if dials != 2 {
		t.Errorf("dials: got %d, want 2", dials)
	}
}

func TestParseHostPort(t *testing.T) {
	tests := []struct {
		in   string
		want Target
		err  bool
	}{
		{"example.com:8080", Target{"example.com", 8080}, false},
		{"example.com", Target{"example.com", 80}, false},
		{"192.168.1.4:80", Target{"192.168.1.4", 80}, false},
		{"host:99999", Target{}, true},
		{":80", Target{}, true},
		{"", Target{}, true},
	}
	for _, tt := range tests {
		got, err := ParseHostPort(tt.in)
		if (err != nil) != tt.err {
			t.Errorf("ParseHostPort(%q): err = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseHostPort(%q): got %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestResultCodes(t *testing.T) {
	if Success != 0 || NotReceived != -1 || ConnectErr != -2 || Timeout != -3 || EmptyReturn != -4 {
		t.Error("result codes changed")
	}
	if Success.Err() != nil {
		t.Error("success should have no error")
	}
	if Timeout.String() != "timeout" {
		t.Errorf("got %q", Timeout.String())
	}
}
