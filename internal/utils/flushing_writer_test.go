package utils_test

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/ci_scripts/internal/utils"
)

type plainWriter struct{}

func (plainWriter) Write(data []byte) (int, error) {
	return len(data), nil
}

func TestFlushingWriterFlushesBufferedWriters(testInstance *testing.T) {
	var destination bytes.Buffer
	bufferedWriter := bufio.NewWriter(&destination)

	flushingWriter := utils.NewFlushingWriter(bufferedWriter)
	bytesWritten, writeError := flushingWriter.Write([]byte("Workflow Runs\n"))

	require.NoError(testInstance, writeError)
	require.Equal(testInstance, len("Workflow Runs\n"), bytesWritten)
	require.Equal(testInstance, "Workflow Runs\n", destination.String())
}

func TestNewFlushingWriterDoesNotDoubleWrap(testInstance *testing.T) {
	flushingWriter := utils.NewFlushingWriter(plainWriter{})

	require.Same(testInstance, flushingWriter, utils.NewFlushingWriter(flushingWriter))
	require.Nil(testInstance, utils.NewFlushingWriter(nil))
}
