// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gwcore

package cliproto

import (
	"bytes"
	"net/netip"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestResponseRoundTrip(t *testing.T) {
	addr := netip.MustParseAddr("10.0.0.1")
	proto := ProtocolBgp
	req := CliRequest{
		Action: ActionShowRouterIpv4Routes,
		Args: RequestArgs{
			Address:  &addr,
			Protocol: &proto,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteRequest(&buf, req))
	got, err := ReadRequest(&buf)
	require.NoError(t, err)
	assert.Equal(t, req.Action, got.Action)
	assert.Equal(t, *req.Args.Address, *got.Args.Address)
	assert.Equal(t, *req.Args.Protocol, *got.Args.Protocol)
}

func TestResponseRoundTripOk(t *testing.T) {
	req := CliRequest{Action: ActionShowVpc}
	resp := ResponseOK(req, "vpc1, vpc2")

	var buf bytes.Buffer
	require.NoError(t, WriteResponse(&buf, resp))
	got, err := ReadResponse(&buf)
	require.NoError(t, err)
	assert.True(t, got.IsOK())
	assert.Equal(t, "vpc1, vpc2", got.Ok)
	assert.Equal(t, req.Action, got.Request.Action)
}

func TestResponseRoundTripErr(t *testing.T) {
	req := CliRequest{Action: ActionShowNatRules}
	resp := ResponseErr(req, CliError{Kind: ErrNotFound, Detail: "vni 900"})

	var buf bytes.Buffer
	require.NoError(t, WriteResponse(&buf, resp))
	got, err := ReadResponse(&buf)
	require.NoError(t, err)
	assert.False(t, got.IsOK())
	assert.Equal(t, "vni 900", got.Err.Detail)
}

func TestDecodeFrameRejectsTruncatedFrame(t *testing.T) {
	frame, err := EncodeFrame(CliRequest{Action: ActionHelp})
	require.NoError(t, err)

	var req CliRequest
	err = DecodeFrame(frame[:len(frame)-1], &req)
	assert.Error(t, err)
}

func TestCallSurfacesDeserializeFailureWording(t *testing.T) {
	dir := t.TempDir()
	serverPath := filepath.Join(dir, "gwcored.sock")

	srv, err := Listen(serverPath, func(req CliRequest) CliResponse {
		return CliResponse{} // intentionally malformed below via raw write
	})
	require.NoError(t, err)
	defer srv.Close()

	go func() {
		buf := make([]byte, maxDatagram)
		n, addr, err := srv.conn.ReadFromUnix(buf)
		if err != nil {
			return
		}
		_ = n
		// Reply with garbage that is not a valid frame.
		srv.conn.WriteToUnix([]byte{0x01, 0x02}, addr)
	}()

	clientPath := filepath.Join(dir, "client.sock")
	_, err = Call(serverPath, clientPath, CliRequest{Action: ActionShowVpc})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to deserialize response")
	_ = os.Remove(clientPath)
}

func TestServeAnswersOverUnixgramSocket(t *testing.T) {
	dir := t.TempDir()
	serverPath := filepath.Join(dir, "gwcored.sock")

	srv, err := Listen(serverPath, func(req CliRequest) CliResponse {
		if req.Action == ActionShowVpc {
			return ResponseOK(req, "vpc1")
		}
		return ResponseErr(req, CliError{Kind: ErrNotSupported, Detail: req.Action.String()})
	})
	require.NoError(t, err)
	defer srv.Close()
	go srv.Serve()

	clientPath := filepath.Join(dir, "client.sock")
	resp, err := Call(serverPath, clientPath, CliRequest{Action: ActionShowVpc})
	require.NoError(t, err)
	assert.True(t, resp.IsOK())
	assert.Equal(t, "vpc1", resp.Ok)
	_ = os.Remove(clientPath)

	time.Sleep(time.Millisecond) // let the server goroutine settle before TempDir cleanup
}
