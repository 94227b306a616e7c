package fadc

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidLength is returned when the declared packet length is
	// outside [MinDataLength, MaxDataLength] words.
	ErrInvalidLength = errors.New("invalid data length")
	// ErrTruncated is returned when the buffer holds fewer bytes than the
	// declared packet length.
	ErrTruncated = errors.New("truncated packet")
	// ErrSampleCountMismatch is returned by the writers when an event does not
	// have the sample count fixed by the first event of the file.
	ErrSampleCountMismatch = errors.New("sample count differs from first event")
)

// DecodeError describes a packet that could not be decoded.
type DecodeError struct {
	Offset     int
	DataLength uint32
	Available  int
	Err        error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding packet at offset %d (data length %d words, %d bytes available): %v",
		e.Offset, e.DataLength, e.Available, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// TransportError represents a failure of the byte source. It aborts the run.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ConfigError represents an invalid run configuration, detected before any
// acquisition starts.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error in %q: %s", e.Field, e.Reason)
}

// ErrOpenFile represents an error when opening a file.
type ErrOpenFile struct {
	Filename string
	Err      error
}

func (e *ErrOpenFile) Error() string {
	return fmt.Sprintf("error opening file %q: %v", e.Filename, e.Err)
}

func (e *ErrOpenFile) Unwrap() error {
	return e.Err
}

// ErrCreateGroup represents an error when creating a group.
type ErrCreateGroup struct {
	GroupName string
	Err       error
}

func (e *ErrCreateGroup) Error() string {
	return fmt.Sprintf("error creating group %q: %v", e.GroupName, e.Err)
}

func (e *ErrCreateGroup) Unwrap() error {
	return e.Err
}

// ErrCreateTable represents an error when creating a table.
type ErrCreateTable struct {
	TableName string
	Err       error
}

func (e *ErrCreateTable) Error() string {
	return fmt.Sprintf("error creating table %q: %v", e.TableName, e.Err)
}

func (e *ErrCreateTable) Unwrap() error {
	return e.Err
}
