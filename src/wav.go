package sau

import (
	"encoding/binary"
	"fmt"
	"os"
)

/*------------------------------------------------------------------
 *
 * Purpose:	WAVSink writes a canonical 44-byte-header PCM WAV file.
 *		The RIFF/data chunk sizes aren't known until the render
 *		finishes, so the header is written once up front with
 *		placeholder sizes and patched in place on Close.
 *
 *------------------------------------------------------------------*/

// WAVSink is a Sink that writes 16-bit PCM WAV to a file.
type WAVSink struct {
	f        *os.File
	channels int
	rate     int
	written  int64 // data bytes written so far
}

// NewWAVSink creates path and writes a placeholder WAV header. The
// header goes through the file's sequential cursor so the first
// WriteFrames lands right after it.
func NewWAVSink(path string, rate, channels int) (*WAVSink, error) {
	var f, err = os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("sau: create wav file: %w", err)
	}

	w := &WAVSink{f: f, channels: channels, rate: rate}
	hdr := w.header(0)
	if _, err := f.Write(hdr[:]); err != nil {
		f.Close()
		return nil, fmt.Errorf("sau: write wav header: %w", err)
	}
	logger.Info("opened wav sink", "path", path, "rate", rate, "channels", channels)
	return w, nil
}

func (w *WAVSink) header(dataBytes uint32) [44]byte {
	const bitsPerSample = 16
	byteRate := uint32(w.rate * w.channels * bitsPerSample / 8)
	blockAlign := uint16(w.channels * bitsPerSample / 8)

	var hdr [44]byte
	copy(hdr[0:4], "RIFF")
	binary.LittleEndian.PutUint32(hdr[4:8], 36+dataBytes)
	copy(hdr[8:12], "WAVE")
	copy(hdr[12:16], "fmt ")
	binary.LittleEndian.PutUint32(hdr[16:20], 16) // fmt chunk size
	binary.LittleEndian.PutUint16(hdr[20:22], 1)  // PCM
	binary.LittleEndian.PutUint16(hdr[22:24], uint16(w.channels))
	binary.LittleEndian.PutUint32(hdr[24:28], uint32(w.rate))
	binary.LittleEndian.PutUint32(hdr[28:32], byteRate)
	binary.LittleEndian.PutUint16(hdr[32:34], blockAlign)
	binary.LittleEndian.PutUint16(hdr[34:36], bitsPerSample)
	copy(hdr[36:40], "data")
	binary.LittleEndian.PutUint32(hdr[40:44], dataBytes)
	return hdr
}

// WriteFrames appends frames sample frames (interleaved s16) to the file.
func (w *WAVSink) WriteFrames(pcm []int16, frames int) error {
	var err = binary.Write(w.f, binary.LittleEndian, pcm)
	if err != nil {
		return fmt.Errorf("sau: write wav samples: %w", err)
	}
	w.written += int64(frames) * int64(w.channels) * 2
	return nil
}

// Close patches the RIFF/data chunk sizes now that the final byte
// count is known, and closes the file. The patch uses WriteAt so the
// sequential cursor (still at end of data) is left alone.
func (w *WAVSink) Close() error {
	hdr := w.header(uint32(w.written))
	if _, err := w.f.WriteAt(hdr[:], 0); err != nil {
		w.f.Close()
		return fmt.Errorf("sau: patch wav header: %w", err)
	}
	if err := w.f.Close(); err != nil {
		return fmt.Errorf("sau: close wav file: %w", err)
	}
	return nil
}
