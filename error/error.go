package error

import "errors"

var (
	ErrSessionInactive = errors.New("debug session is inactive")
	ErrSessionBusy     = errors.New("debug session cannot accept commands now")
	ErrUnknownRow      = errors.New("row id does not match any known entity")
	ErrBadNode         = errors.New("protocol node has unexpected shape")
	ErrNoProcess       = errors.New("no process id known for this row yet")
	ErrGdbExited       = errors.New("gdb process has exited")
)
