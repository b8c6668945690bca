package main

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/adelrune/dmgo/dmgo/core"
	"github.com/adelrune/dmgo/dmgo/ppu"
)

// writePPM dumps a framebuffer as an ASCII (P3) PPM image, the simplest
// format that needs no image-encoding dependency at all.
func writePPM(path string, fb *ppu.Framebuffer) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "P3\n%d %d\n255\n", ppu.ScreenWidth, ppu.ScreenHeight)

	for _, pixel := range fb.Pixels() {
		r := uint8(pixel >> 24)
		g := uint8(pixel >> 16)
		b := uint8(pixel >> 8)
		fmt.Fprintf(w, "%d %d %d\n", r, g, b)
	}

	return w.Flush()
}

// writeWAV drains every sample currently buffered in the APU's ring and
// writes a canonical 16-bit PCM mono WAV file.
func writeWAV(path string, emu *core.Emulator) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	samples := make([]float32, 0, emu.SampleRate())
	buf := make([]float32, 4096)
	for {
		n := emu.Samples(buf)
		if n == 0 {
			break
		}
		samples = append(samples, buf[:n]...)
	}

	return writeWAVHeader(f, emu.SampleRate(), samples)
}

func writeWAVHeader(f *os.File, sampleRate int, samples []float32) error {
	const (
		bitsPerSample = 16
		numChannels   = 1
	)
	byteRate := sampleRate * numChannels * bitsPerSample / 8
	blockAlign := numChannels * bitsPerSample / 8
	dataSize := len(samples) * 2

	w := bufio.NewWriter(f)

	w.WriteString("RIFF")
	binary.Write(w, binary.LittleEndian, uint32(36+dataSize))
	w.WriteString("WAVE")

	w.WriteString("fmt ")
	binary.Write(w, binary.LittleEndian, uint32(16))
	binary.Write(w, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(w, binary.LittleEndian, uint16(numChannels))
	binary.Write(w, binary.LittleEndian, uint32(sampleRate))
	binary.Write(w, binary.LittleEndian, uint32(byteRate))
	binary.Write(w, binary.LittleEndian, uint16(blockAlign))
	binary.Write(w, binary.LittleEndian, uint16(bitsPerSample))

	w.WriteString("data")
	binary.Write(w, binary.LittleEndian, uint32(dataSize))
	for _, s := range samples {
		binary.Write(w, binary.LittleEndian, floatToPCM16(s))
	}

	return w.Flush()
}

func floatToPCM16(s float32) int16 {
	if s > 1 {
		s = 1
	}
	if s < -1 {
		s = -1
	}
	return int16(s * 32767)
}
