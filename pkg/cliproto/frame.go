// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gwcore

package cliproto

import (
	"encoding/binary"
	"io"

	"github.com/fxamacker/cbor/v2"

	"github.com/vpcfabric/gwcore/pkg/gwerr"
)

// lengthPrefixSize is the width of the frame's length field: a
// little-endian u64.
const lengthPrefixSize = 8

// EncodeFrame CBOR-encodes v and prepends its little-endian u64 length,
// producing one complete wire frame. Used directly by the datagram
// transport, where a frame is exactly one packet.
func EncodeFrame(v any) ([]byte, error) {
	payload, err := cbor.Marshal(v)
	if err != nil {
		return nil, gwerr.Internal("cliproto: marshal", err)
	}
	frame := make([]byte, lengthPrefixSize+len(payload))
	binary.LittleEndian.PutUint64(frame[:lengthPrefixSize], uint64(len(payload)))
	copy(frame[lengthPrefixSize:], payload)
	return frame, nil
}

// DecodeFrame parses one complete wire frame (as produced by EncodeFrame
// or received whole off a datagram socket) into v.
func DecodeFrame(frame []byte, v any) error {
	if len(frame) < lengthPrefixSize {
		return gwerr.Internal("cliproto: frame shorter than length prefix", nil)
	}
	length := binary.LittleEndian.Uint64(frame[:lengthPrefixSize])
	if uint64(len(frame)-lengthPrefixSize) != length {
		return gwerr.Internal("cliproto: frame length mismatch", nil)
	}
	if err := cbor.Unmarshal(frame[lengthPrefixSize:], v); err != nil {
		return gwerr.Internal("cliproto: unmarshal", err)
	}
	return nil
}

// WriteFrame writes one CBOR-encoded value to w as
// [u64 little-endian length][payload]. Safe on any io.Writer, including a
// byte stream where length and payload may be written and read in
// separate calls (unlike a datagram socket, where EncodeFrame/DecodeFrame
// must be used against one whole packet).
func WriteFrame(w io.Writer, v any) error {
	frame, err := EncodeFrame(v)
	if err != nil {
		return err
	}
	if _, err := w.Write(frame); err != nil {
		return gwerr.Internal("cliproto: write frame", err)
	}
	return nil
}

// ReadFrame reads one length-prefixed CBOR frame from a byte stream and
// decodes it into v (a pointer).
func ReadFrame(r io.Reader, v any) error {
	var lenBuf [lengthPrefixSize]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return gwerr.Internal("cliproto: read frame length", err)
	}
	length := binary.LittleEndian.Uint64(lenBuf[:])
	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return gwerr.Internal("cliproto: read frame payload", err)
	}
	if err := cbor.Unmarshal(payload, v); err != nil {
		return gwerr.Internal("cliproto: unmarshal", err)
	}
	return nil
}

// WriteRequest frames and writes a CliRequest.
func WriteRequest(w io.Writer, req CliRequest) error { return WriteFrame(w, req) }

// ReadRequest reads and decodes one framed CliRequest from a byte stream.
func ReadRequest(r io.Reader) (CliRequest, error) {
	var req CliRequest
	err := ReadFrame(r, &req)
	return req, err
}

// WriteResponse frames and writes a CliResponse.
func WriteResponse(w io.Writer, resp CliResponse) error { return WriteFrame(w, resp) }

// ReadResponse reads and decodes one framed CliResponse from a byte
// stream. A response body that fails to decode is the client's cue to
// report a failed deserialization and close its side of the socket (Call
// wraps it as "failed to deserialize response: ..."); this just returns
// the underlying error.
func ReadResponse(r io.Reader) (CliResponse, error) {
	var resp CliResponse
	err := ReadFrame(r, &resp)
	return resp, err
}
