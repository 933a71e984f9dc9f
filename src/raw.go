package sau

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
)

/*------------------------------------------------------------------
 *
 * Purpose:	RawSink writes bare interleaved s16 PCM with no header at
 *		all: the simplest possible Sink, useful for
 *		piping straight into another tool that already knows the
 *		rate/channel count out of band.
 *
 *------------------------------------------------------------------*/

// RawSink is a Sink that writes headerless little-endian s16 PCM.
type RawSink struct {
	f *os.File
	w *bufio.Writer
}

// NewRawSink creates path for raw PCM output.
func NewRawSink(path string) (*RawSink, error) {
	var f, err = os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("sau: create raw file: %w", err)
	}
	return &RawSink{f: f, w: bufio.NewWriter(f)}, nil
}

// WriteFrames appends the interleaved samples as-is.
func (s *RawSink) WriteFrames(pcm []int16, frames int) error {
	var err = binary.Write(s.w, binary.LittleEndian, pcm)
	if err != nil {
		return fmt.Errorf("sau: write raw samples: %w", err)
	}
	return nil
}

// Close flushes the buffered writer and closes the file.
func (s *RawSink) Close() error {
	if err := s.w.Flush(); err != nil {
		s.f.Close()
		return fmt.Errorf("sau: flush raw file: %w", err)
	}
	if err := s.f.Close(); err != nil {
		return fmt.Errorf("sau: close raw file: %w", err)
	}
	return nil
}
