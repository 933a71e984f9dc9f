package sau

import (
	"encoding/binary"
	"fmt"
	"os"
)

/*------------------------------------------------------------------
 *
 * Purpose:	AUSink writes Sun/NeXT ".snd" audio: a
 *		24-byte big-endian header (magic, header size, data size,
 *		encoding, rate, channels) followed by raw big-endian s16
 *		samples. Like WAVSink, the data size is patched on Close.
 *
 *------------------------------------------------------------------*/

const (
	auEncodingLinear16 = 3
	auHeaderSize       = 24
	auUnknownSize      = 0xFFFFFFFF
)

// AUSink is a Sink that writes 16-bit PCM to a Sun/NeXT .au file.
type AUSink struct {
	f        *os.File
	channels int
	rate     int
	written  int64
}

// NewAUSink creates path and writes the AU header. The header goes
// through the file's sequential cursor so the first WriteFrames lands
// right after it.
func NewAUSink(path string, rate, channels int) (*AUSink, error) {
	var f, err = os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("sau: create au file: %w", err)
	}

	a := &AUSink{f: f, channels: channels, rate: rate}
	hdr := a.header(auUnknownSize)
	if _, err := f.Write(hdr[:]); err != nil {
		f.Close()
		return nil, fmt.Errorf("sau: write au header: %w", err)
	}
	logger.Info("opened au sink", "path", path, "rate", rate, "channels", channels)
	return a, nil
}

func (a *AUSink) header(dataBytes uint32) [auHeaderSize]byte {
	var hdr [auHeaderSize]byte
	copy(hdr[0:4], ".snd")
	binary.BigEndian.PutUint32(hdr[4:8], auHeaderSize)
	binary.BigEndian.PutUint32(hdr[8:12], dataBytes)
	binary.BigEndian.PutUint32(hdr[12:16], auEncodingLinear16)
	binary.BigEndian.PutUint32(hdr[16:20], uint32(a.rate))
	binary.BigEndian.PutUint32(hdr[20:24], uint32(a.channels))
	return hdr
}

// WriteFrames appends frames sample frames (interleaved s16, converted
// to the format's big-endian byte order) to the file.
func (a *AUSink) WriteFrames(pcm []int16, frames int) error {
	var err = binary.Write(a.f, binary.BigEndian, pcm)
	if err != nil {
		return fmt.Errorf("sau: write au samples: %w", err)
	}
	a.written += int64(frames) * int64(a.channels) * 2
	return nil
}

// Close patches the data-size field in place now that it's known, and
// closes the file. A reader that doesn't special-case auUnknownSize
// would otherwise never know where the stream ends.
func (a *AUSink) Close() error {
	hdr := a.header(uint32(a.written))
	if _, err := a.f.WriteAt(hdr[:], 0); err != nil {
		a.f.Close()
		return fmt.Errorf("sau: patch au header: %w", err)
	}
	if err := a.f.Close(); err != nil {
		return fmt.Errorf("sau: close au file: %w", err)
	}
	return nil
}
