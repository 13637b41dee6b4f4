package audio

import (
	"encoding/binary"
	"fmt"
	"os"
)

const (
	wavHeaderSize  = 44
	wavAudioFormat = 1 // PCM
	wavBitsPerSamp = 16
)

// WriteWAV writes raw little-endian signed 16-bit PCM samples to path with a
// standard RIFF header. The data length must be a whole number of frames.
func WriteWAV(path string, data []byte, sampleRate, channels int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %d", sampleRate)
	}
	if channels <= 0 {
		return fmt.Errorf("invalid channel count %d", channels)
	}
	frameSize := channels * wavBitsPerSamp / 8
	if len(data)%frameSize != 0 {
		return fmt.Errorf("pcm data length %d is not frame aligned", len(data))
	}

	header := make([]byte, wavHeaderSize)
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], uint32(wavHeaderSize-8+len(data)))
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], wavAudioFormat)
	binary.LittleEndian.PutUint16(header[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(header[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(sampleRate*frameSize))
	binary.LittleEndian.PutUint16(header[32:34], uint16(frameSize))
	binary.LittleEndian.PutUint16(header[34:36], wavBitsPerSamp)
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], uint32(len(data)))

	file, err := os.Create(path) //nolint:gosec
	if err != nil {
		return fmt.Errorf("create wav file: %w", err)
	}
	if _, err := file.Write(header); err != nil {
		file.Close()
		return fmt.Errorf("write wav header: %w", err)
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		return fmt.Errorf("write wav data: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close wav file: %w", err)
	}
	return nil
}
