// Package plantuml encodes diagram sources into the URL format expected by
// a PlantUML server: the text is raw-deflated (no zlib header) and the
// compressed bytes are encoded with PlantUML's own base64 alphabet. The
// encoding must match the server bit for bit, so it is kept isolated here.
package plantuml

import (
	"bytes"
	"compress/flate"
	"strings"
)

// DefaultServer is used when the project configuration does not override
// the PlantUML server.
const DefaultServer = "https://www.plantuml.com/plantuml"

// The alphabet differs from standard base64: digits first, then upper and
// lower case letters, then '-' and '_'.
const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz-_"

// Encode compresses the diagram source and returns its server-compatible
// text encoding. The result contains only characters from the PlantUML
// alphabet and is deterministic for a given input.
func Encode(src []byte) string {

	var compressed bytes.Buffer
	zw, err := flate.NewWriter(&compressed, flate.BestCompression)
	if err != nil {
		panic(err)
	}
	if _, err := zw.Write(src); err != nil {
		panic(err)
	}
	if err := zw.Close(); err != nil {
		panic(err)
	}

	return encode64(compressed.Bytes())
}

// ImageURL builds the full URL of the PNG rendering of a diagram on the
// given server. An empty server selects DefaultServer.
func ImageURL(server string, src []byte) string {
	if server == "" {
		server = DefaultServer
	}
	return strings.TrimRight(server, "/") + "/png/" + Encode(src)
}

// encode64 maps every 3 input bytes to 4 alphabet symbols. A trailing
// partial group is zero-padded, so the output length is always a multiple
// of four symbols.
func encode64(data []byte) string {

	var sb strings.Builder
	sb.Grow((len(data) + 2) / 3 * 4)

	for i := 0; i < len(data); i += 3 {
		var b1, b2 byte
		b0 := data[i]
		if i+1 < len(data) {
			b1 = data[i+1]
		}
		if i+2 < len(data) {
			b2 = data[i+2]
		}

		sb.WriteByte(alphabet[b0>>2])
		sb.WriteByte(alphabet[(b0&0x03)<<4|b1>>4])
		sb.WriteByte(alphabet[(b1&0x0F)<<2|b2>>6])
		sb.WriteByte(alphabet[b2&0x3F])
	}

	return sb.String()
}
