package audio

import (
	"bytes"
	"encoding/binary"
)

// EncodeWAV wraps raw little-endian 16-bit PCM bytes in a RIFF/WAVE container
// so downstream stages can sniff the format. Used for locally captured frames,
// which arrive as bare PCM.
func EncodeWAV(pcm []byte, sampleRate, channels int) []byte {
	blockAlign := channels * 2

	out := new(bytes.Buffer)
	out.WriteString("RIFF")
	binary.Write(out, binary.LittleEndian, uint32(36+len(pcm)))
	out.WriteString("WAVE")
	out.WriteString("fmt ")
	binary.Write(out, binary.LittleEndian, uint32(16))
	binary.Write(out, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(out, binary.LittleEndian, uint16(channels))
	binary.Write(out, binary.LittleEndian, uint32(sampleRate))
	binary.Write(out, binary.LittleEndian, uint32(sampleRate*blockAlign))
	binary.Write(out, binary.LittleEndian, uint16(blockAlign))
	binary.Write(out, binary.LittleEndian, uint16(16))
	out.WriteString("data")
	binary.Write(out, binary.LittleEndian, uint32(len(pcm)))
	out.Write(pcm)
	return out.Bytes()
}
