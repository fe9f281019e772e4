// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gwcore

package cliproto

import (
	"fmt"
	"net"

	"github.com/vpcfabric/gwcore/pkg/gwerr"
)

// maxDatagram bounds one CliRequest/CliResponse frame. CLI payloads are
// short structured values, never bulk data, so this comfortably covers
// the largest legal frame with room to spare.
const maxDatagram = 64 * 1024

// Handler answers one decoded CliRequest.
type Handler func(req CliRequest) CliResponse

// Server listens on a Unix datagram socket (SOCK_DGRAM) and answers each
// request with handler's result. Since unixgram is connectionless, one
// frame in is one frame out: no per-client accept loop, just
// read-decode-dispatch-encode-reply keyed off the sender's return address.
type Server struct {
	conn    *net.UnixConn
	handler Handler
	done    chan struct{}
}

// Listen binds a Unix datagram socket at path and returns a Server ready
// to Serve. Callers must remove any stale socket file at path themselves
// before calling Listen.
func Listen(path string, handler Handler) (*Server, error) {
	addr, err := net.ResolveUnixAddr("unixgram", path)
	if err != nil {
		return nil, gwerr.Internal("cliproto: resolve socket path", err)
	}
	conn, err := net.ListenUnixgram("unixgram", addr)
	if err != nil {
		return nil, gwerr.Internal("cliproto: listen unixgram socket", err)
	}
	return &Server{conn: conn, handler: handler, done: make(chan struct{})}, nil
}

// Serve reads and answers datagrams until Close is called.
func (s *Server) Serve() error {
	buf := make([]byte, maxDatagram)
	for {
		n, addr, err := s.conn.ReadFromUnix(buf)
		if err != nil {
			select {
			case <-s.done:
				return nil
			default:
				return gwerr.Internal("cliproto: read datagram", err)
			}
		}
		s.respond(buf[:n], addr)
	}
}

func (s *Server) respond(frame []byte, addr *net.UnixAddr) {
	var req CliRequest
	if err := DecodeFrame(frame, &req); err != nil {
		resp := ResponseErr(CliRequest{}, CliError{Kind: ErrInternal, Detail: fmt.Sprintf("decode request: %v", err)})
		s.send(resp, addr)
		return
	}
	s.send(s.handler(req), addr)
}

func (s *Server) send(resp CliResponse, addr *net.UnixAddr) {
	out, err := EncodeFrame(resp)
	if err != nil {
		return
	}
	_, _ = s.conn.WriteToUnix(out, addr)
}

// Close stops Serve and releases the socket.
func (s *Server) Close() error {
	close(s.done)
	return s.conn.Close()
}

// Call sends req to the server at serverPath and returns its decoded
// response. clientPath is the local socket this call binds to receive
// the reply on (unixgram requires the client have a bound address too);
// Call closes the socket but does not remove the socket file, which is
// left for the caller to clean up.
func Call(serverPath, clientPath string, req CliRequest) (CliResponse, error) {
	localAddr, err := net.ResolveUnixAddr("unixgram", clientPath)
	if err != nil {
		return CliResponse{}, gwerr.Internal("cliproto: resolve client socket path", err)
	}
	remoteAddr, err := net.ResolveUnixAddr("unixgram", serverPath)
	if err != nil {
		return CliResponse{}, gwerr.Internal("cliproto: resolve server socket path", err)
	}
	conn, err := net.DialUnix("unixgram", localAddr, remoteAddr)
	if err != nil {
		return CliResponse{}, gwerr.Internal("cliproto: dial unixgram socket", err)
	}
	defer conn.Close()

	frame, err := EncodeFrame(req)
	if err != nil {
		return CliResponse{}, err
	}
	if _, err := conn.Write(frame); err != nil {
		return CliResponse{}, gwerr.Internal("cliproto: write request datagram", err)
	}

	buf := make([]byte, maxDatagram)
	n, err := conn.Read(buf)
	if err != nil {
		return CliResponse{}, gwerr.Internal("cliproto: read response datagram", err)
	}

	var resp CliResponse
	if err := DecodeFrame(buf[:n], &resp); err != nil {
		return CliResponse{}, fmt.Errorf("failed to deserialize response: %w", err)
	}
	return resp, nil
}
