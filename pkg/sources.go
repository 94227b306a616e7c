package fadc

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"go.bug.st/serial"
)

// ReplaySource plays back a raw module dump as if it came from the module
// memory: each poll offers as many whole packets as fit in chunkUnits units,
// padded with zeros to a whole number of units.
type ReplaySource struct {
	r          io.Reader
	unitBytes  int
	chunkUnits int
	pending    []byte
	next       []byte
	eof        bool
}

func NewReplaySource(r io.Reader, unitBytes int, chunkUnits int) *ReplaySource {
	if unitBytes <= 0 {
		unitBytes = DefaultUnitBytes
	}
	if chunkUnits <= 0 {
		chunkUnits = 1
	}
	return &ReplaySource{r: r, unitBytes: unitBytes, chunkUnits: chunkUnits}
}

func (s *ReplaySource) Available() (uint32, error) {
	if len(s.pending) == 0 {
		if err := s.fill(); err != nil {
			return 0, err
		}
	}
	units := (len(s.pending) + s.unitBytes - 1) / s.unitBytes
	return uint32(units), nil
}

func (s *ReplaySource) Read(units uint32, buf []byte) error {
	size := int(units) * s.unitBytes
	if len(buf) < size {
		return fmt.Errorf("buffer of %d bytes cannot hold %d units", len(buf), units)
	}
	if size > ((len(s.pending)+s.unitBytes-1)/s.unitBytes)*s.unitBytes {
		return fmt.Errorf("%d units requested, %d bytes pending", units, len(s.pending))
	}
	n := copy(buf[:size], s.pending)
	clear(buf[n:size])
	s.pending = s.pending[n:]
	if len(s.pending) == 0 {
		s.pending = nil
	}
	return nil
}

func (s *ReplaySource) fill() error {
	limit := s.chunkUnits * s.unitBytes
	for len(s.pending) < limit {
		if s.next == nil {
			if s.eof {
				break
			}
			packet, err := s.readPacket()
			if err == io.EOF {
				s.eof = true
				break
			}
			if err != nil {
				return err
			}
			s.next = packet
		}
		if len(s.pending) > 0 && len(s.pending)+len(s.next) > limit {
			break
		}
		s.pending = append(s.pending, s.next...)
		s.next = nil
	}
	return nil
}

// readPacket returns the next packet of the dump. A truncated or corrupt tail
// is returned as is and ends the replay.
func (s *ReplaySource) readPacket() ([]byte, error) {
	head := make([]byte, WordBytes*len(fieldDataLength.lanes))
	n, err := io.ReadFull(s.r, head)
	switch {
	case err == io.EOF:
		return nil, io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		s.eof = true
		return head[:n], nil
	case err != nil:
		return nil, err
	}

	dataLength := uint32(fieldDataLength.read(head))
	if dataLength < MinDataLength || dataLength > MaxDataLength {
		s.eof = true
		return head, nil
	}
	packet := make([]byte, PacketBytes(dataLength))
	copy(packet, head)
	n, err = io.ReadFull(s.r, packet[len(head):])
	switch {
	case err == io.EOF || errors.Is(err, io.ErrUnexpectedEOF):
		s.eof = true
		return packet[:len(head)+n], nil
	case err != nil:
		return nil, err
	}
	return packet, nil
}

// SerialSource buffers the byte stream of a serial bridge and offers it in
// whole units.
type SerialSource struct {
	port      io.ReadCloser
	unitBytes int

	mu       sync.Mutex
	buffered []byte
	err      error
	done     chan struct{}
}

func OpenSerialSource(portName string, baudRate int, unitBytes int) (*SerialSource, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, &ErrOpenFile{Filename: portName, Err: err}
	}
	return NewSerialSource(port, unitBytes), nil
}

// NewSerialSource starts reading port in the background.
func NewSerialSource(port io.ReadCloser, unitBytes int) *SerialSource {
	if unitBytes <= 0 {
		unitBytes = DefaultUnitBytes
	}
	s := &SerialSource{
		port:      port,
		unitBytes: unitBytes,
		done:      make(chan struct{}),
	}
	go s.monitor()
	return s
}

func (s *SerialSource) monitor() {
	defer close(s.done)
	chunk := make([]byte, 4096)
	for {
		n, err := s.port.Read(chunk)
		s.mu.Lock()
		s.buffered = append(s.buffered, chunk[:n]...)
		if err != nil {
			s.err = err
		}
		s.mu.Unlock()
		if err != nil {
			return
		}
	}
}

// Available returns the whole units buffered. Once the port has failed and
// less than a unit is left, the port error is returned.
func (s *SerialSource) Available() (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	units := len(s.buffered) / s.unitBytes
	if units == 0 && s.err != nil {
		return 0, s.err
	}
	return uint32(units), nil
}

func (s *SerialSource) Read(units uint32, buf []byte) error {
	size := int(units) * s.unitBytes
	if len(buf) < size {
		return fmt.Errorf("buffer of %d bytes cannot hold %d units", len(buf), units)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if size > len(s.buffered) {
		return fmt.Errorf("%d units requested, %d bytes buffered", units, len(s.buffered))
	}
	copy(buf, s.buffered[:size])
	remaining := len(s.buffered) - size
	copy(s.buffered, s.buffered[size:])
	s.buffered = s.buffered[:remaining]
	return nil
}

func (s *SerialSource) Close() error {
	err := s.port.Close()
	<-s.done
	return err
}
