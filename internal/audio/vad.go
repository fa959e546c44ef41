package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// Silence trimming for consultation recordings. Long consultations carry
// minutes of dead air (examinations, note taking) that inflate transcription
// cost without adding content. The trimmer decodes 16-bit PCM WAV, resamples
// to 16 kHz mono, drops frames below an adaptive energy threshold, and writes
// the voiced intervals back out. Any failure at any step falls back to the
// untouched original file: trimming is an optimization, never a gate.

const (
	targetSampleRate = 16000
	frameMillis      = 30
	// paddingFrames keeps this many frames either side of a voiced interval
	// so word onsets are not clipped
	paddingFrames = 5
)

// Trimmer preprocesses audio files before transcription
type Trimmer struct {
	logger zerolog.Logger
}

// NewTrimmer creates an audio trimmer
func NewTrimmer(logger zerolog.Logger) *Trimmer {
	return &Trimmer{
		logger: logger.With().Str("component", "audio_trimmer").Logger(),
	}
}

// Trim returns the path of a silence-trimmed copy of the input, or the input
// path itself when the file cannot be processed. The trimmed copy is written
// next to the original with a "-trimmed" suffix.
func (t *Trimmer) Trim(inputPath string) string {
	samples, sampleRate, err := decodeWAV(inputPath)
	if err != nil {
		t.logger.Debug().
			Err(err).
			Str("path", inputPath).
			Msg("Audio not trimmable, using original")
		return inputPath
	}

	if sampleRate != targetSampleRate {
		samples = resample(samples, sampleRate, targetSampleRate)
	}

	voiced := voicedSamples(samples)
	// under ten percent removable is not worth a copy
	if len(voiced) == 0 || len(voiced)*10 >= len(samples)*9 {
		return inputPath
	}

	ext := filepath.Ext(inputPath)
	outPath := inputPath[:len(inputPath)-len(ext)] + "-trimmed" + ext
	if err := encodeWAV(outPath, voiced, targetSampleRate); err != nil {
		t.logger.Debug().
			Err(err).
			Str("path", outPath).
			Msg("Could not write trimmed audio, using original")
		return inputPath
	}

	t.logger.Info().
		Str("path", inputPath).
		Float64("kept_ratio", float64(len(voiced))/float64(len(samples))).
		Msg("Trimmed silence from audio")
	return outPath
}

// voicedSamples keeps the frames whose RMS energy clears an adaptive
// threshold above the recording's noise floor, plus padding around each
// voiced interval.
func voicedSamples(samples []int16) []int16 {
	frameLen := targetSampleRate * frameMillis / 1000
	frameCount := len(samples) / frameLen
	if frameCount == 0 {
		return nil
	}

	energies := make([]float64, frameCount)
	minEnergy, maxEnergy := math.MaxFloat64, 0.0
	for i := 0; i < frameCount; i++ {
		e := rmsEnergy(samples[i*frameLen : (i+1)*frameLen])
		energies[i] = e
		if e < minEnergy {
			minEnergy = e
		}
		if e > maxEnergy {
			maxEnergy = e
		}
	}

	// noise floor plus a tenth of the dynamic range
	threshold := minEnergy + (maxEnergy-minEnergy)*0.1

	voiced := make([]bool, frameCount)
	for i, e := range energies {
		if e >= threshold {
			lo := i - paddingFrames
			if lo < 0 {
				lo = 0
			}
			hi := i + paddingFrames
			if hi >= frameCount {
				hi = frameCount - 1
			}
			for j := lo; j <= hi; j++ {
				voiced[j] = true
			}
		}
	}

	out := make([]int16, 0, len(samples))
	for i, keep := range voiced {
		if keep {
			out = append(out, samples[i*frameLen:(i+1)*frameLen]...)
		}
	}
	return out
}

func rmsEnergy(frame []int16) float64 {
	var sum float64
	for _, s := range frame {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(frame)))
}

// resample converts samples between rates by linear interpolation. Good
// enough for speech fed to a transcription model.
func resample(samples []int16, from, to int) []int16 {
	if from == to || len(samples) == 0 {
		return samples
	}
	outLen := int(int64(len(samples)) * int64(to) / int64(from))
	out := make([]int16, outLen)
	ratio := float64(from) / float64(to)
	for i := range out {
		pos := float64(i) * ratio
		idx := int(pos)
		if idx >= len(samples)-1 {
			out[i] = samples[len(samples)-1]
			continue
		}
		frac := pos - float64(idx)
		out[i] = int16(float64(samples[idx])*(1-frac) + float64(samples[idx+1])*frac)
	}
	return out
}

// decodeWAV reads a RIFF/WAVE file and returns mono 16-bit samples. Stereo
// input is downmixed by averaging channels. Compressed or non-16-bit formats
// are rejected.
func decodeWAV(path string) ([]int16, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, err
	}
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, 0, fmt.Errorf("not a RIFF/WAVE file")
	}

	var (
		sampleRate    int
		channels      int
		bitsPerSample int
		pcm           []byte
	)
	for off := 12; off+8 <= len(data); {
		id := string(data[off : off+4])
		size := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		body := off + 8
		if body+size > len(data) {
			return nil, 0, fmt.Errorf("truncated %s chunk", id)
		}
		switch id {
		case "fmt ":
			if size < 16 {
				return nil, 0, fmt.Errorf("fmt chunk too small")
			}
			format := binary.LittleEndian.Uint16(data[body : body+2])
			if format != 1 {
				return nil, 0, fmt.Errorf("unsupported WAV format %d, want PCM", format)
			}
			channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			sampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			bitsPerSample = int(binary.LittleEndian.Uint16(data[body+14 : body+16]))
		case "data":
			pcm = data[body : body+size]
		}
		// chunks are word aligned
		off = body + size + size%2
	}

	if sampleRate == 0 || pcm == nil {
		return nil, 0, fmt.Errorf("missing fmt or data chunk")
	}
	if bitsPerSample != 16 {
		return nil, 0, fmt.Errorf("unsupported bit depth %d, want 16", bitsPerSample)
	}
	if channels < 1 || channels > 2 {
		return nil, 0, fmt.Errorf("unsupported channel count %d", channels)
	}

	frames := len(pcm) / (2 * channels)
	samples := make([]int16, frames)
	for i := 0; i < frames; i++ {
		if channels == 1 {
			samples[i] = int16(binary.LittleEndian.Uint16(pcm[i*2 : i*2+2]))
			continue
		}
		l := int16(binary.LittleEndian.Uint16(pcm[i*4 : i*4+2]))
		r := int16(binary.LittleEndian.Uint16(pcm[i*4+2 : i*4+4]))
		samples[i] = int16((int32(l) + int32(r)) / 2)
	}
	return samples, sampleRate, nil
}

// encodeWAV writes mono 16-bit PCM samples as a WAV file
func encodeWAV(path string, samples []int16, sampleRate int) error {
	dataSize := len(samples) * 2
	buf := make([]byte, 44+dataSize)

	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataSize))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1)
	binary.LittleEndian.PutUint16(buf[22:24], 1)
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(sampleRate*2))
	binary.LittleEndian.PutUint16(buf[32:34], 2)
	binary.LittleEndian.PutUint16(buf[34:36], 16)
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataSize))
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[44+i*2:46+i*2], uint16(s))
	}

	return os.WriteFile(path, buf, 0o644)
}
