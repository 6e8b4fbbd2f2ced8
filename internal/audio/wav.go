// Package audio captures microphone input into WAV files for transcription.
package audio

import (
	"encoding/binary"
	"fmt"
	"io"
)

// WAVHeaderSize is the size of the canonical RIFF/WAVE header.
const WAVHeaderSize = 44

// Format describes raw PCM samples.
type Format struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
}

// DefaultFormat is what the speech recognizer expects: 16 kHz mono 16-bit PCM.
var DefaultFormat = Format{SampleRate: 16000, Channels: 1, BitsPerSample: 16}

// BlockAlign is the size in bytes of one sample frame.
func (f Format) BlockAlign() int {
	return f.Channels * f.BitsPerSample / 8
}

// ByteRate is the number of bytes per second of audio.
func (f Format) ByteRate() int {
	return f.SampleRate * f.BlockAlign()
}

type wavHeader struct {
	ChunkID       [4]byte
	ChunkSize     uint32
	Format        [4]byte
	Subchunk1ID   [4]byte
	Subchunk1Size uint32
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Subchunk2ID   [4]byte
	Subchunk2Size uint32
}

// WriteWAVHeader writes the 44-byte little-endian header for dataSize bytes of PCM in format f.
func WriteWAVHeader(w io.Writer, f Format, dataSize uint32) error {
	h := wavHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     36 + dataSize,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1, // PCM
		NumChannels:   uint16(f.Channels),
		SampleRate:    uint32(f.SampleRate),
		ByteRate:      uint32(f.ByteRate()),
		BlockAlign:    uint16(f.BlockAlign()),
		BitsPerSample: uint16(f.BitsPerSample),
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: dataSize,
	}
	if err := binary.Write(w, binary.LittleEndian, &h); err != nil {
		return fmt.Errorf("failed to write wav header: %w", err)
	}
	return nil
}

// ReadWAVHeader parses a canonical header. It is used to validate recordings.
func ReadWAVHeader(r io.Reader) (Format, uint32, error) {
	var h wavHeader
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return Format{}, 0, fmt.Errorf("failed to read wav header: %w", err)
	}
	if string(h.ChunkID[:]) != "RIFF" || string(h.Format[:]) != "WAVE" || string(h.Subchunk2ID[:]) != "data" {
		return Format{}, 0, fmt.Errorf("not a canonical wav file")
	}
	f := Format{
		SampleRate:    int(h.SampleRate),
		Channels:      int(h.NumChannels),
		BitsPerSample: int(h.BitsPerSample),
	}
	return f, h.Subchunk2Size, nil
}
