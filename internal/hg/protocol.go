package hg

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Channels of the command server pipe protocol.
// Lower-case channels are optional, upper-case ones must be answered.
const (
	ChannelOutput byte = 'o'
	ChannelError  byte = 'e'
	ChannelResult byte = 'r'
	ChannelDebug  byte = 'd'
	ChannelInput  byte = 'I'
	ChannelLine   byte = 'L'
)

// maxFrame guards against a corrupted length prefix allocating gigabytes
const maxFrame = 64 << 20

// frame is one message from the server. For input channels Length is the
// number of bytes requested and Data is empty.
type frame struct {
	Channel byte
	Length  uint32
	Data    []byte
}

func (f frame) isInput() bool {
	return f.Channel == ChannelInput || f.Channel == ChannelLine
}

// readFrame reads a channel byte and a big-endian length, followed by the
// payload for data channels.
func readFrame(r *bufio.Reader) (frame, error) {
	var header [5]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return frame{}, err
	}
	f := frame{Channel: header[0], Length: binary.BigEndian.Uint32(header[1:])}
	if f.isInput() {
		return f, nil
	}
	if f.Length > maxFrame {
		return frame{}, fmt.Errorf("%w: frame on channel %q too large (%d bytes)", ErrProtocol, f.Channel, f.Length)
	}
	f.Data = make([]byte, f.Length)
	if _, err := io.ReadFull(r, f.Data); err != nil {
		return frame{}, err
	}
	return f, nil
}

// writeBlock writes a length-prefixed block. A zero-length block signals EOF
// to an input request.
func writeBlock(w io.Writer, data []byte) error {
	var length [4]byte
	binary.BigEndian.PutUint32(length[:], uint32(len(data)))
	if _, err := w.Write(length[:]); err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	_, err := w.Write(data)
	return err
}

// writeCommand sends "<name>\n" optionally followed by a data block
func writeCommand(w io.Writer, name string, data []byte) error {
	if _, err := io.WriteString(w, name+"\n"); err != nil {
		return err
	}
	if data == nil {
		return nil
	}
	return writeBlock(w, data)
}

// encodeArgs joins arguments with NUL as runcommand expects
func encodeArgs(args [][]byte) []byte {
	size := 0
	for _, a := range args {
		size += len(a) + 1
	}
	buf := make([]byte, 0, size)
	for i, a := range args {
		if i > 0 {
			buf = append(buf, 0)
		}
		buf = append(buf, a...)
	}
	return buf
}

// Hello is the greeting the server writes on the output channel at startup
type Hello struct {
	Capabilities []string
	Encoding     string
	PID          int
}

// HasCapability reports whether the server advertised name
func (h Hello) HasCapability(name string) bool {
	for _, c := range h.Capabilities {
		if c == name {
			return true
		}
	}
	return false
}

func parseHello(data []byte) (Hello, error) {
	var h Hello
	for _, line := range strings.Split(string(data), "\n") {
		key, value, ok := strings.Cut(line, ": ")
		if !ok {
			continue
		}
		switch key {
		case "capabilities":
			h.Capabilities = strings.Fields(value)
		case "encoding":
			h.Encoding = strings.TrimSpace(value)
		case "pid":
			pid, err := strconv.Atoi(strings.TrimSpace(value))
			if err == nil {
				h.PID = pid
			}
		}
	}
	if !h.HasCapability("runcommand") {
		return h, fmt.Errorf("%w: server does not support runcommand (hello %q)", ErrProtocol, data)
	}
	if h.Encoding == "" {
		h.Encoding = "UTF-8"
	}
	return h, nil
}
