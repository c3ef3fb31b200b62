// Package ui is the operator side of the controller: the panel state and the
// front ends (terminal, IPC socket, MIDI) that edit it.
package ui

import (
	"fmt"
	"log"
	"math"
	"sync"

	"github.com/jinjor/signal-control/src/controller"
)

// MaxFrequency is the top of the oscillator range. The range is symmetric in
// log scale, so the bottom is 1/MaxFrequency.
const MaxFrequency = 10.0

// MaxValue is the full scale of the panel value.
const MaxValue = math.MaxUint16

// ----- Selection ----- //

// Selection is the mode chosen on the panel. The parameter is kept apart in
// the panel value so switching tabs does not lose it.
type Selection = controller.Kind

// Selections in display order.
var Selections = []Selection{controller.Paused, controller.Constant, controller.Oscillating}

// ----- Panel ----- //

// Panel ...
type Panel struct {
	sync.Mutex
	tx         *controller.Sender
	selection  Selection
	value      uint16
	currentErr error
	sent       controller.Mode
}

// View is a copy of the panel state for rendering.
type View struct {
	Selection Selection
	Value     uint16
	Label     string
	Err       error
	Sent      controller.Mode
}

// NewPanel ...
func NewPanel(tx *controller.Sender) *Panel {
	return &Panel{
		tx:        tx,
		selection: controller.Paused,
		sent:      controller.PausedMode(),
	}
}

// Select switches the mode and sends it with the current value.
func (p *Panel) Select(s Selection) {
	p.Lock()
	defer p.Unlock()
	p.selection = s
	p.sendState()
}

// SetValue changes the parameter of the selected mode.
func (p *Panel) SetValue(v uint16) {
	p.Lock()
	defer p.Unlock()
	p.value = v
	p.sendState()
}

// Nudge moves the value by delta, saturating at both ends.
func (p *Panel) Nudge(delta int) {
	p.Lock()
	defer p.Unlock()
	v := int(p.value) + delta
	if v < 0 {
		v = 0
	}
	if v > MaxValue {
		v = MaxValue
	}
	p.value = uint16(v)
	p.sendState()
}

// SendMode sends mode as is and moves the panel to match it.
func (p *Panel) SendMode(mode controller.Mode) {
	p.Lock()
	defer p.Unlock()
	p.selection = mode.Kind()
	switch mode.Kind() {
	case controller.Constant:
		p.value = levelToValue(mode.Level())
	case controller.Oscillating:
		p.value = frequencyToValue(mode.Frequency())
	}
	p.send(mode)
}

// ReportError shows err until it is dismissed.
func (p *Panel) ReportError(err error) {
	p.Lock()
	defer p.Unlock()
	p.currentErr = err
}

// ClearError dismisses the current error.
func (p *Panel) ClearError() {
	p.Lock()
	defer p.Unlock()
	p.currentErr = nil
}

// View ...
func (p *Panel) View() View {
	p.Lock()
	defer p.Unlock()
	return View{
		Selection: p.selection,
		Value:     p.value,
		Label:     p.label(),
		Err:       p.currentErr,
		Sent:      p.sent,
	}
}

// Watch reflects generation loop events on the panel until statuses is
// closed.
func (p *Panel) Watch(statuses <-chan controller.Status) {
	for s := range statuses {
		p.applyStatus(s)
	}
	log.Println("Watch() ended.")
}

func (p *Panel) applyStatus(s controller.Status) {
	p.Lock()
	defer p.Unlock()
	switch s.Kind {
	case controller.StatusSinkError:
		p.currentErr = s.Err
	case controller.StatusFallback:
		p.currentErr = fmt.Errorf("output paused after %d failed writes: %w", s.Failures, s.Err)
		// a mode sent after the failing one has replaced the fallback in the loop
		if p.sent == s.Mode {
			p.selection = controller.Paused
			p.sent = controller.PausedMode()
		}
	case controller.StatusStopped:
		if s.Err != nil {
			p.currentErr = s.Err
		}
	}
}

func (p *Panel) sendState() {
	var mode controller.Mode
	var err error
	switch p.selection {
	case controller.Paused:
		mode = controller.PausedMode()
	case controller.Constant:
		mode, err = controller.NewConstant(valueToLevel(p.value))
	case controller.Oscillating:
		mode, err = controller.NewOscillating(valueToFrequency(p.value))
	}
	if err != nil {
		p.currentErr = err
		return
	}
	p.send(mode)
}

func (p *Panel) send(mode controller.Mode) {
	if err := p.tx.Send(controller.NewCommand(mode)); err != nil {
		log.Printf("error: %v\n", err)
		p.currentErr = err
		return
	}
	p.sent = mode
}

// label is empty when paused since there is no parameter to show.
func (p *Panel) label() string {
	switch p.selection {
	case controller.Constant:
		percent := (valueToLevel(p.value) - 0.5) * 2.0
		side := "right"
		if percent < 0 {
			side = "left"
		}
		return fmt.Sprintf("Position: %.2f%% %s", math.Abs(percent)*100.0, side)
	case controller.Oscillating:
		return fmt.Sprintf("Frequency: %.2f Hz", valueToFrequency(p.value))
	}
	return ""
}

// ----- Conversion ----- //

func valueToLevel(v uint16) float64 {
	return float64(v) / MaxValue
}

func levelToValue(level float64) uint16 {
	return uint16(math.Round(level * MaxValue))
}

func valueToFrequency(v uint16) float64 {
	ofOne := float64(v) / MaxValue
	return math.Exp((ofOne - 0.5) * 2.0 * math.Log(MaxFrequency))
}

func frequencyToValue(freq float64) uint16 {
	ofOne := math.Log(freq)/(2.0*math.Log(MaxFrequency)) + 0.5
	if ofOne < 0 {
		ofOne = 0
	}
	if ofOne > 1 {
		ofOne = 1
	}
	return uint16(math.Round(ofOne * MaxValue))
}
