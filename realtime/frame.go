// Package realtime maintains the bridge's connection to the platform's
// message broker: a STOMP frame protocol layered over a WebSocket, fanned out
// into three delivery streams (group chat, personal alerts, blocked signal).
package realtime

import (
	"bytes"
	"fmt"
	"sort"
)

// STOMP frame commands used by the bridge.
const (
	CmdConnect     = "CONNECT"
	CmdConnected   = "CONNECTED"
	CmdSubscribe   = "SUBSCRIBE"
	CmdUnsubscribe = "UNSUBSCRIBE"
	CmdSend        = "SEND"
	CmdMessage     = "MESSAGE"
	CmdError       = "ERROR"
	CmdDisconnect  = "DISCONNECT"
	CmdReceipt     = "RECEIPT"
)

// Standard header names.
const (
	HdrAcceptVersion = "accept-version"
	HdrHost          = "host"
	HdrHeartBeat     = "heart-beat"
	HdrID            = "id"
	HdrDestination   = "destination"
	HdrReceipt       = "receipt"
)

// Frame is a single STOMP frame: a command line, headers, and an optional
// body terminated by a NUL octet on the wire.
type Frame struct {
	Command string
	Headers map[string]string
	Body    []byte
}

// NewFrame builds a frame from alternating header key/value pairs.
func NewFrame(command string, headers ...string) *Frame {
	f := &Frame{Command: command, Headers: map[string]string{}}
	for i := 0; i+1 < len(headers); i += 2 {
		f.Headers[headers[i]] = headers[i+1]
	}
	return f
}

// Marshal renders the frame in wire form. Headers are emitted in sorted key
// order so output is deterministic.
func (f *Frame) Marshal() []byte {
	var buf bytes.Buffer
	buf.WriteString(f.Command)
	buf.WriteByte('\n')

	keys := make([]string, 0, len(f.Headers))
	for k := range f.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		buf.WriteString(k)
		buf.WriteByte(':')
		buf.WriteString(f.Headers[k])
		buf.WriteByte('\n')
	}

	buf.WriteByte('\n')
	buf.Write(f.Body)
	buf.WriteByte(0)
	return buf.Bytes()
}

// ParseFrame decodes a wire frame. A bare EOL (server heart-beat) parses to
// (nil, nil) and should be skipped by the caller.
func ParseFrame(data []byte) (*Frame, error) {
	data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))

	// Heart-beats are a lone EOL, no command.
	if len(bytes.TrimRight(data, "\n\x00")) == 0 {
		return nil, nil
	}

	sep := bytes.Index(data, []byte("\n\n"))
	if sep < 0 {
		return nil, fmt.Errorf("stomp frame missing header terminator")
	}

	head := bytes.Split(data[:sep], []byte("\n"))
	command := string(head[0])
	if command == "" {
		return nil, fmt.Errorf("stomp frame missing command")
	}

	headers := make(map[string]string, len(head)-1)
	for _, line := range head[1:] {
		idx := bytes.IndexByte(line, ':')
		if idx < 0 {
			return nil, fmt.Errorf("stomp header %q missing separator", line)
		}
		key := string(line[:idx])
		// First occurrence wins, per the STOMP spec.
		if _, seen := headers[key]; !seen {
			headers[key] = string(line[idx+1:])
		}
	}

	body := data[sep+2:]
	if nul := bytes.IndexByte(body, 0); nul >= 0 {
		body = body[:nul]
	}

	return &Frame{Command: command, Headers: headers, Body: body}, nil
}
