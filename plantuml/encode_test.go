package plantuml

import (
	"bytes"
	"compress/flate"
	"io"
	"strings"
	"testing"
)

// decode64 undoes encode64 so the tests can check the full round trip
// against the reference deflate implementation.
func decode64(s string) []byte {

	values := make(map[byte]byte, len(alphabet))
	for i := 0; i < len(alphabet); i++ {
		values[alphabet[i]] = byte(i)
	}

	var out []byte
	for i := 0; i+3 < len(s); i += 4 {
		v0 := values[s[i]]
		v1 := values[s[i+1]]
		v2 := values[s[i+2]]
		v3 := values[s[i+3]]
		out = append(out, v0<<2|v1>>4, v1<<4|v2>>2, v2<<6|v3)
	}
	return out
}

func TestEncodeRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{
			name: "sequence diagram",
			src:  "@startuml\nAlice -> Bob: request\nBob --> Alice: response\n@enduml\n",
		},
		{
			name: "mindmap",
			src:  "@startmindmap\n* root\n** leaf\n@endmindmap\n",
		},
		{
			name: "single byte",
			src:  "x",
		},
		{
			name: "empty",
			src:  "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded := Encode([]byte(tt.src))

			// The deflate stream ends with a final-block marker, so the
			// zero padding added by the encoding is ignored by the reader.
			zr := flate.NewReader(bytes.NewReader(decode64(encoded)))
			defer zr.Close()
			plain, err := io.ReadAll(zr)
			if err != nil {
				t.Fatalf("inflating %q: %v", encoded, err)
			}
			if string(plain) != tt.src {
				t.Errorf("round trip = %q, want %q", plain, tt.src)
			}
		})
	}
}

func TestEncodeDeterministic(t *testing.T) {
	src := []byte("@startuml\nA -> B\n@enduml\n")
	first := Encode(src)
	second := Encode(src)
	if first != second {
		t.Errorf("Encode is not deterministic: %q vs %q", first, second)
	}
}

func TestEncodeAlphabet(t *testing.T) {
	src := []byte("@startgantt\n[task] lasts 3 days\n@endgantt\n")
	encoded := Encode(src)

	if len(encoded) == 0 {
		t.Fatal("empty encoding for non-empty input")
	}
	if len(encoded)%4 != 0 {
		t.Errorf("encoded length %d is not a multiple of 4", len(encoded))
	}
	for i := 0; i < len(encoded); i++ {
		if !strings.ContainsRune(alphabet, rune(encoded[i])) {
			t.Errorf("character %q at %d is outside the PlantUML alphabet", encoded[i], i)
		}
	}
}

func TestImageURL(t *testing.T) {
	src := []byte("@startuml\nA -> B\n@enduml\n")
	encoded := Encode(src)

	tests := []struct {
		name   string
		server string
		want   string
	}{
		{
			name:   "default server",
			server: "",
			want:   DefaultServer + "/png/" + encoded,
		},
		{
			name:   "custom server",
			server: "https://uml.example.com/plantuml",
			want:   "https://uml.example.com/plantuml/png/" + encoded,
		},
		{
			name:   "trailing slash",
			server: "https://uml.example.com/plantuml/",
			want:   "https://uml.example.com/plantuml/png/" + encoded,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ImageURL(tt.server, src); got != tt.want {
				t.Errorf("ImageURL() = %q, want %q", got, tt.want)
			}
		})
	}
}
