package logging

import (
	"bytes"
	"io"
)

// PrefixWriter adds a prefix to every line written through it.
// Incomplete lines are held back until their newline arrives, so a log
// line split over several Write calls is prefixed once.
type PrefixWriter struct {
	prefix  []byte
	writer  io.Writer
	partial bytes.Buffer
}

// NewPrefixWriter creates a PrefixWriter.
func NewPrefixWriter(prefix string, w io.Writer) *PrefixWriter {
	return &PrefixWriter{
		prefix: []byte(prefix),
		writer: w,
	}
}

// Write implements io.Writer.
func (pw *PrefixWriter) Write(p []byte) (int, error) {
	total := len(p)
	for {
		nl := bytes.IndexByte(p, '\n')
		if nl < 0 {
			pw.partial.Write(p)
			return total, nil
		}

		if _, err := pw.writer.Write(pw.prefix); err != nil {
			return 0, err
		}
		if pw.partial.Len() > 0 {
			if _, err := pw.partial.WriteTo(pw.writer); err != nil {
				return 0, err
			}
		}
		if _, err := pw.writer.Write(p[:nl+1]); err != nil {
			return 0, err
		}
		p = p[nl+1:]
	}
}
