// Package preset persists and restores the synthesizer's control state:
// rompler parameters, canvas mapping, tracker pattern, and mode. Presets are
// a compact little-endian binary format with a magic header and a version so
// older files keep loading as the layout grows.
package preset

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/1hoookkk/Sound-Canvas-Pro/pkg/paint"
	"github.com/1hoookkk/Sound-Canvas-Pro/pkg/synth"
	"github.com/1hoookkk/Sound-Canvas-Pro/pkg/tracker"
)

const (
	magic   = "SNDCNV"
	version = uint32(1)
)

// Save writes the engine's control state. Parameter values are the
// normalized atomics, so saving is safe while the engine renders.
func Save(w io.Writer, e *synth.Engine) error {
	if _, err := w.Write([]byte(magic)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, version); err != nil {
		return err
	}

	params := e.Rompler.Params().All()
	if err := binary.Write(w, binary.LittleEndian, int32(len(params))); err != nil {
		return err
	}
	for _, p := range params {
		if err := binary.Write(w, binary.LittleEndian, p.ID); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, p.GetValue()); err != nil {
			return err
		}
	}

	if err := binary.Write(w, binary.LittleEndian, int32(e.Mode())); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, int32(e.Rompler.SelectedSample())); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, boolByte(e.Sauce.IsBypassed())); err != nil {
		return err
	}

	if err := writeMapping(w, e.Paint); err != nil {
		return err
	}
	return writePattern(w, e.Tracker)
}

// Load reads a preset and applies it. Unknown parameter IDs are skipped so
// files written by newer builds still load what they can.
func Load(r io.Reader, e *synth.Engine) error {
	header := make([]byte, len(magic))
	if _, err := io.ReadFull(r, header); err != nil {
		return err
	}
	if string(header) != magic {
		return fmt.Errorf("not a preset file")
	}

	var v uint32
	if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
		return err
	}
	if v > version {
		return fmt.Errorf("preset version %d is newer than supported version %d", v, version)
	}

	var count int32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return err
	}
	registry := e.Rompler.Params()
	for i := int32(0); i < count; i++ {
		var id uint32
		if err := binary.Read(r, binary.LittleEndian, &id); err != nil {
			return err
		}
		var value float64
		if err := binary.Read(r, binary.LittleEndian, &value); err != nil {
			return err
		}
		if p := registry.Get(id); p != nil {
			p.SetValue(value)
		}
	}

	var mode, sample int32
	if err := binary.Read(r, binary.LittleEndian, &mode); err != nil {
		return err
	}
	if err := binary.Read(r, binary.LittleEndian, &sample); err != nil {
		return err
	}
	var bypass uint8
	if err := binary.Read(r, binary.LittleEndian, &bypass); err != nil {
		return err
	}
	// Mode, sample, and bypass changes go through the command queue so the
	// render thread applies them at a block boundary.
	e.SetMode(synth.Mode(mode))
	e.SelectSample(int(sample))
	e.SetSauceBypass(bypass != 0)

	if err := readMapping(r, e.Paint); err != nil {
		return err
	}
	return readPattern(r, e.Tracker)
}

func writeMapping(w io.Writer, p *paint.Engine) error {
	region := p.CanvasRegion()
	minFreq, maxFreq, logScale := p.FrequencyRange()
	fields := []float64{
		p.MasterGain(),
		region.Left, region.Right, region.Bottom, region.Top,
		minFreq, maxFreq,
		p.TimeLength(),
	}
	for _, f := range fields {
		if err := binary.Write(w, binary.LittleEndian, f); err != nil {
			return err
		}
	}
	return binary.Write(w, binary.LittleEndian, boolByte(logScale))
}

func readMapping(r io.Reader, p *paint.Engine) error {
	fields := make([]float64, 8)
	for i := range fields {
		if err := binary.Read(r, binary.LittleEndian, &fields[i]); err != nil {
			return err
		}
	}
	var logScale uint8
	if err := binary.Read(r, binary.LittleEndian, &logScale); err != nil {
		return err
	}
	p.SetMasterGain(fields[0])
	p.SetCanvasRegion(paint.CanvasRegionBounds{
		Left: fields[1], Right: fields[2], Bottom: fields[3], Top: fields[4],
	})
	p.SetFrequencyRange(fields[5], fields[6], logScale != 0)
	p.SetTimeLength(fields[7])
	return nil
}

func writePattern(w io.Writer, t *tracker.Engine) error {
	if err := binary.Write(w, binary.LittleEndian, t.Tempo()); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, t.Swing()); err != nil {
		return err
	}
	for i := 0; i < tracker.StepCount; i++ {
		s := t.StepAt(i)
		if err := binary.Write(w, binary.LittleEndian, boolByte(s.Enabled)); err != nil {
			return err
		}
		if _, err := w.Write([]byte{s.Note, s.Velocity}); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, s.Gate); err != nil {
			return err
		}
	}
	return nil
}

func readPattern(r io.Reader, t *tracker.Engine) error {
	var tempo, swing float64
	if err := binary.Read(r, binary.LittleEndian, &tempo); err != nil {
		return err
	}
	if err := binary.Read(r, binary.LittleEndian, &swing); err != nil {
		return err
	}
	t.SetTempo(tempo)
	t.SetSwing(swing)
	for i := 0; i < tracker.StepCount; i++ {
		var enabled uint8
		if err := binary.Read(r, binary.LittleEndian, &enabled); err != nil {
			return err
		}
		pair := make([]byte, 2)
		if _, err := io.ReadFull(r, pair); err != nil {
			return err
		}
		var gate float64
		if err := binary.Read(r, binary.LittleEndian, &gate); err != nil {
			return err
		}
		t.SetStep(i, tracker.Step{
			Enabled:  enabled != 0,
			Note:     pair[0],
			Velocity: pair[1],
			Gate:     gate,
		})
	}
	return nil
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
