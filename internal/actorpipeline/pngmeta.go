package actorpipeline

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
)

// EmbedTextChunks appends PNG tEXt chunks (keyword\0value pairs) just
// before the IEND chunk of an already-encoded PNG, tagging scan artifacts
// with their scene/actor/version. image/png has no public chunk-writing
// API, so this works directly on the encoded byte stream.
func EmbedTextChunks(png []byte, fields map[string]string) []byte {
	const iendMarker = "IEND"
	idx := bytes.LastIndex(png, []byte(iendMarker))
	if idx < 4 {
		return png
	}
	// IEND chunk starts 4 bytes before its type marker (the length field).
	iendStart := idx - 4

	var out bytes.Buffer
	out.Write(png[:iendStart])
	for k, v := range fields {
		out.Write(textChunk(k, v))
	}
	out.Write(png[iendStart:])
	return out.Bytes()
}

func textChunk(keyword, text string) []byte {
	data := append([]byte(keyword), 0)
	data = append(data, []byte(text)...)

	var chunk bytes.Buffer
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(data)))
	chunk.Write(lenBuf[:])

	typeAndData := append([]byte("tEXt"), data...)
	chunk.Write(typeAndData)

	crc := crc32.ChecksumIEEE(typeAndData)
	var crcBuf [4]byte
	binary.BigEndian.PutUint32(crcBuf[:], crc)
	chunk.Write(crcBuf[:])

	return chunk.Bytes()
}
