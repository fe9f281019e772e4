// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gwcore

package control

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/vpcfabric/gwcore/pkg/gwerr"
	"github.com/vpcfabric/gwcore/pkg/lock"
)

// FrrFrame is one length-prefixed FRR-agent wire frame: a little-endian
// u64 length, a little-endian i64 request/response genid, and a UTF-8
// payload.
type FrrFrame struct {
	GenID   int64
	Payload []byte
}

// WriteFrrFrame writes f to w in the wire format
// [u64 length][i64 genid][bytes data], where length counts the genid and
// payload together.
func WriteFrrFrame(w io.Writer, f FrrFrame) error {
	body := make([]byte, 8+len(f.Payload))
	binary.LittleEndian.PutUint64(body[:8], uint64(f.GenID))
	copy(body[8:], f.Payload)

	var lenBuf [8]byte
	binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(body)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return gwerr.Internal("write frr frame length", err)
	}
	if _, err := w.Write(body); err != nil {
		return gwerr.Internal("write frr frame body", err)
	}
	return nil
}

// ReadFrrFrame reads one frame from r.
func ReadFrrFrame(r io.Reader) (FrrFrame, error) {
	var lenBuf [8]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return FrrFrame{}, gwerr.Internal("read frr frame length", err)
	}
	length := binary.LittleEndian.Uint64(lenBuf[:])
	if length < 8 {
		return FrrFrame{}, gwerr.Internal("frr frame shorter than genid", nil)
	}
	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return FrrFrame{}, gwerr.Internal("read frr frame body", err)
	}
	genid := int64(binary.LittleEndian.Uint64(body[:8]))
	return FrrFrame{GenID: genid, Payload: body[8:]}, nil
}

// frrOk is the FRR-agent's success response body; any other body is a
// human-readable error string.
const frrOk = "Ok"

// FrrResponse is a decoded FRR-agent reply body.
type FrrResponse struct {
	OK    bool
	Error string
}

func decodeFrrResponse(payload []byte) FrrResponse {
	s := string(payload)
	if s == frrOk {
		return FrrResponse{OK: true}
	}
	return FrrResponse{OK: false, Error: s}
}

// FrrClient issues requests over an FRR-agent connection and demultiplexes
// responses onto a pending table keyed by genid.
type FrrClient struct {
	w   io.Writer
	r   *bufio.Reader
	log *logrus.Entry

	mu      lock.Mutex
	nextGen int64
	pending map[int64]chan FrrResponse
}

// NewFrrClient wraps an already-connected FRR-agent stream. log may be nil,
// in which case dispatch events are discarded.
func NewFrrClient(rw io.ReadWriter, log *logrus.Entry) *FrrClient {
	if log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		log = logrus.NewEntry(discard)
	}
	return &FrrClient{
		w:       rw,
		r:       bufio.NewReader(rw),
		log:     log.WithField("component", "frr-client"),
		pending: map[int64]chan FrrResponse{},
	}
}

// Request sends payload as a new frame and returns a channel that receives
// the matching response once ServeResponses reads it.
func (c *FrrClient) Request(payload []byte) (int64, <-chan FrrResponse, error) {
	c.mu.Lock()
	c.nextGen++
	genid := c.nextGen
	ch := make(chan FrrResponse, 1)
	c.pending[genid] = ch
	c.mu.Unlock()

	if err := WriteFrrFrame(c.w, FrrFrame{GenID: genid, Payload: payload}); err != nil {
		c.mu.Lock()
		delete(c.pending, genid)
		c.mu.Unlock()
		return 0, nil, err
	}
	return genid, ch, nil
}

// ServeResponses reads frames from the connection until it errors,
// dispatching each to the pending request channel matching its genid. An
// unexpected genid (no pending request, or a genid reused after its
// caller gave up) is logged as a warning and dropped.
func (c *FrrClient) ServeResponses() error {
	for {
		frame, err := ReadFrrFrame(c.r)
		if err != nil {
			c.log.WithError(err).Warn("frr-agent connection closed")
			return err
		}
		resp := decodeFrrResponse(frame.Payload)

		c.mu.Lock()
		ch, ok := c.pending[frame.GenID]
		if ok {
			delete(c.pending, frame.GenID)
		}
		c.mu.Unlock()

		if !ok {
			c.log.WithField("genid", frame.GenID).Warn("response for unknown or expired request")
			continue
		}
		if !resp.OK {
			c.log.WithField("genid", frame.GenID).WithField("error", resp.Error).Debug("frr-agent returned an error response")
		}
		ch <- resp
	}
}

// Close fails every still-pending request with NoSuchConfig, for callers
// shutting down the connection.
func (c *FrrClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for genid, ch := range c.pending {
		ch <- FrrResponse{OK: false, Error: gwerr.NoSuchConfig(genid).Error()}
		delete(c.pending, genid)
	}
}
