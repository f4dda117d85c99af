package utils

import (
	"io"
	"sync"
)

type flusher interface {
	Flush() error
}

// FlushingWriter serializes writes from the diagnostic and console loggers and flushes buffered targets after each one.
type FlushingWriter struct {
	mutex  sync.Mutex
	target io.Writer
}

// NewFlushingWriter wraps target; nil stays nil and an existing FlushingWriter is returned unchanged.
func NewFlushingWriter(target io.Writer) io.Writer {
	switch typed := target.(type) {
	case nil:
		return nil
	case *FlushingWriter:
		return typed
	default:
		return &FlushingWriter{target: target}
	}
}

// Write forwards data and flushes when the target buffers.
func (writer *FlushingWriter) Write(data []byte) (int, error) {
	if writer == nil || writer.target == nil {
		return 0, nil
	}
	writer.mutex.Lock()
	defer writer.mutex.Unlock()

	written, writeError := writer.target.Write(data)
	if writeError != nil {
		return written, writeError
	}
	if buffered, ok := writer.target.(flusher); ok {
		return written, buffered.Flush()
	}
	return written, nil
}
