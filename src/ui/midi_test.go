package ui

import (
	"testing"

	"github.com/jinjor/signal-control/src/controller"
)

func TestApplyMidiNoteSelectsMode(t *testing.T) {
	p, rx := newTestPanel()
	cases := []struct {
		note byte
		want controller.Kind
	}{
		{60, controller.Paused},
		{61, controller.Constant},
		{62, controller.Oscillating},
		{63, controller.Paused},
	}
	for _, c := range cases {
		applyMidi(p, []byte{0x90, c.note, 100})
		if m := latest(t, rx); m.Kind() != c.want {
			t.Errorf("note %d sent %v, want %v", c.note, m, c.want)
		}
	}
	applyMidi(p, []byte{0x90, 61, 0})
	if m, ok := rx.DrainLatest(); ok {
		t.Errorf("zero velocity note-on sent %v", m)
	}
	applyMidi(p, []byte{0x80, 61, 64})
	if m, ok := rx.DrainLatest(); ok {
		t.Errorf("note-off sent %v", m)
	}
}

func TestApplyMidiControlChangeSetsValue(t *testing.T) {
	p, _ := newTestPanel()
	for _, c := range []struct {
		cc   byte
		want uint16
	}{
		{0, 0},
		{127, MaxValue},
		{64, uint16(64 * MaxValue / 127)},
	} {
		applyMidi(p, []byte{0xB3, 1, c.cc})
		if got := p.View().Value; got != c.want {
			t.Errorf("cc %d: value %d, want %d", c.cc, got, c.want)
		}
	}
}

func TestApplyMidiPitchBendSetsValue(t *testing.T) {
	p, _ := newTestPanel()
	applyMidi(p, []byte{0xE0, 0x7F, 0x7F})
	if got := p.View().Value; got != MaxValue {
		t.Errorf("full bend: value %d, want %d", got, MaxValue)
	}
	applyMidi(p, []byte{0xE0, 0, 0})
	if got := p.View().Value; got != 0 {
		t.Errorf("zero bend: value %d, want 0", got)
	}
}

func TestApplyMidiIgnoresShortMessages(t *testing.T) {
	p, rx := newTestPanel()
	applyMidi(p, []byte{0xF8})
	applyMidi(p, nil)
	if m, ok := rx.DrainLatest(); ok {
		t.Errorf("short message sent %v", m)
	}
}

func TestRunMidiDrainsChannel(t *testing.T) {
	p, rx := newTestPanel()
	ch := make(chan []byte, 2)
	ch <- []byte{0xB0, 7, 127}
	ch <- []byte{0x90, 61, 90}
	close(ch)
	RunMidi(ch, p)
	if m := latest(t, rx); m.Kind() != controller.Constant || m.Level() != 1 {
		t.Errorf("got %v, want constant 1", m)
	}
}
