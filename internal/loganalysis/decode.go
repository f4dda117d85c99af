package loganalysis

import (
	"bytes"
	"compress/gzip"
	"io"
	"strings"
)

var gzipMagicBytes = []byte{0x1f, 0x8b}

// DecodeLog returns the text of a job log payload, decompressing gzip archives and dropping invalid UTF-8.
func DecodeLog(payload []byte) string {
	if bytes.HasPrefix(payload, gzipMagicBytes) {
		if decompressed, decompressError := gunzip(payload); decompressError == nil {
			return strings.ToValidUTF8(string(decompressed), "")
		}
	}
	return strings.ToValidUTF8(string(payload), "")
}

func gunzip(payload []byte) ([]byte, error) {
	reader, readerError := gzip.NewReader(bytes.NewReader(payload))
	if readerError != nil {
		return nil, readerError
	}
	defer reader.Close()
	return io.ReadAll(reader)
}
