package dispatch

import (
	"time"

	"github.com/sweeney/sprinkler/internal/httpreq"
)

// Sent is one request captured by FakeRequester.
type Sent struct {
	Target  httpreq.Target
	Payload string
	Timeout time.Duration
}

// FakeRequester records requests and answers with a fixed result.
type FakeRequester struct {
	Result httpreq.Result
	Sent   []Sent
}

func (f *FakeRequester) Send(t httpreq.Target, payload []byte, callback func([]byte), timeout time.Duration) httpreq.Result {
	f.Sent = append(f.Sent, Sent{Target: t, Payload: string(payload), Timeout: timeout})
	if f.Result == httpreq.Success && callback != nil {
		callback([]byte("{\"result\":1}"))
	}
	return f.Result
}

// Transmission is one code captured by FakeRF.
type Transmission struct {
	Code   uint32
	Timing uint16
}

// FakeRF records RF transmissions.
type FakeRF struct {
	Sent []Transmission
}

func (f *FakeRF) Transmit(code uint32, timing uint16) error {
	f.Sent = append(f.Sent, Transmission{Code: code, Timing: timing})
	return nil
}
