// Package vfs implements the virtual file system façade of spec.md §4.9: a
// mount table resolving paths to filesystems, a file-descriptor table, and
// the flat error enumeration consumed by the syscall layer. Grounded in
// original_source/fs/vfs.cpp and original_source/fs/handles.cpp.
package vfs

import "fmt"

// ErrCode is the flat error enumeration of spec.md §6, fixed at the values
// original_source/include/fs/fs_errors.h defines (SPEC_FULL.md §4): the
// syscall ABI's negative-return convention makes the exact integers part of
// the wire contract, not an implementation detail.
type ErrCode int

// ErrNone reports success; every other value is an error.
const ErrNone ErrCode = 0

const (
	ErrNotExists ErrCode = iota + 1
	ErrNotExecutable
	ErrFailedExecution
	ErrNothingMounted
	ErrInvalidFilePath
	ErrDirectory
	ErrInvalidFileDescriptor
	ErrFailed
	ErrExists
	ErrBufferSmall
	ErrInvalidFileSystem
	ErrDiskFull
	ErrPermissionDenied
	ErrInvalidOffset
	ErrUnsupported
	ErrInvalidCount
	ErrInvalidRequest
	ErrInvalidDevice
	ErrAlreadyMounted
	ErrUnknown
)

var errMessages = map[ErrCode]string{
	ErrNotExists:             "the file does not exist",
	ErrNotExecutable:         "the file is not an executable",
	ErrFailedExecution:       "execution failed",
	ErrNothingMounted:        "nothing is mounted",
	ErrInvalidFilePath:       "the file path is not valid",
	ErrDirectory:             "the file is a directory",
	ErrInvalidFileDescriptor: "invalid file descriptor",
	ErrFailed:                "failed",
	ErrExists:                "the file exists",
	ErrBufferSmall:           "the buffer is too small",
	ErrInvalidFileSystem:     "unknown file system",
	ErrDiskFull:              "the disk is full",
	ErrPermissionDenied:      "permission denied",
	ErrInvalidOffset:         "the offset is not valid",
	ErrUnsupported:           "unsupported operation",
	ErrInvalidCount:          "the count is not valid",
	ErrInvalidRequest:        "the request is not valid",
	ErrInvalidDevice:         "the device is not valid for this request",
	ErrAlreadyMounted:        "something is already mounted",
	ErrUnknown:               "unknown error occurred",
}

// Error implements the error interface so ErrCode can be returned wherever
// hosted code (cmd/*, tests) wants a plain Go error.
func (e ErrCode) Error() string {
	if msg, ok := errMessages[e]; ok {
		return msg
	}
	return fmt.Sprintf("unknown error %d", int(e))
}
