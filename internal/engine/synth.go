package engine

import (
	"bytes"
	"encoding/binary"
	"hash/fnv"
	"image"
	"image/color"
	"image/png"
	"math"
	"unicode/utf8"
)

const (
	ContentTypePNG = "image/png"
	ContentTypeWAV = "audio/wav"
	ContentTypeMP4 = "video/mp4"
)

// Placeholder media stands in for real synthesis; it is deterministic in
// its inputs so repeated runs produce identical assets.

const maxPlaceholderSide = 256

// placeholderImage renders a two-tone gradient seeded by the prompt.
func placeholderImage(prompt string, width, height int) ([]byte, error) {
	width, height = clampSide(width), clampSide(height)
	h := fnv.New32a()
	h.Write([]byte(prompt))
	seed := h.Sum32()
	from := color.RGBA{R: uint8(seed), G: uint8(seed >> 8), B: uint8(seed >> 16), A: 255}
	to := color.RGBA{R: 255 - from.R, G: 255 - from.G, B: 255 - from.B, A: 255}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		t := float64(y) / float64(max(height-1, 1))
		c := color.RGBA{
			R: lerp(from.R, to.R, t),
			G: lerp(from.G, to.G, t),
			B: lerp(from.B, to.B, t),
			A: 255,
		}
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func clampSide(v int) int {
	switch {
	case v <= 0:
		return 64
	case v > maxPlaceholderSide:
		return maxPlaceholderSide
	}
	return v
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*t))
}

const (
	wavRate      = 8000
	wavPerRuneMS = 120
)

// placeholderAudio returns a 16-bit mono PCM WAV with a quiet tone whose
// length follows the text length.
func placeholderAudio(text string) []byte {
	runes := max(utf8.RuneCountInString(text), 1)
	samples := wavRate * runes * wavPerRuneMS / 1000
	data := make([]int16, samples)
	for i := range data {
		data[i] = int16(800 * math.Sin(2*math.Pi*440*float64(i)/wavRate))
	}

	var buf bytes.Buffer
	size := uint32(samples * 2)
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, 36+size)
	buf.WriteString("WAVEfmt ")
	binary.Write(&buf, binary.LittleEndian, struct {
		ChunkSize     uint32
		Format        uint16
		Channels      uint16
		SampleRate    uint32
		ByteRate      uint32
		BlockAlign    uint16
		BitsPerSample uint16
	}{16, 1, 1, wavRate, wavRate * 2, 2, 16})
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, size)
	binary.Write(&buf, binary.LittleEndian, data)
	return buf.Bytes()
}

// placeholderVideo returns an MP4 holding only an ftyp box and a free box
// describing the render.
func placeholderVideo(description string) []byte {
	var buf bytes.Buffer
	box := func(kind string, payload []byte) {
		binary.Write(&buf, binary.BigEndian, uint32(8+len(payload)))
		buf.WriteString(kind)
		buf.Write(payload)
	}
	box("ftyp", []byte("isom\x00\x00\x02\x00isomiso2mp41"))
	box("free", []byte(description))
	return buf.Bytes()
}
