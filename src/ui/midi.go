package ui

import (
	"context"
	"log"

	"gitlab.com/gomidi/rtmididrv"
)

// ----- MIDI In ----- //

// ListenToMidiIn forwards raw messages from MIDI input port until ctx is
// cancelled. The channel is closed when listening stops; it is closed
// immediately when no such port exists.
func ListenToMidiIn(ctx context.Context, port int) <-chan []byte {
	ch := make(chan []byte, 1024)
	go func() {
		defer close(ch)
		drv, err := rtmididrv.New()
		if err != nil {
			log.Printf("failed to initialize MIDI driver: %v\n", err)
			return
		}
		defer func() {
			err := drv.Close()
			if err != nil {
				log.Printf("failed to close MIDI driver: %v\n", err)
			}
		}()
		ins, err := drv.Ins()
		if err != nil {
			log.Printf("failed to get MIDI IN: %v\n", err)
			return
		}
		log.Printf("MIDI IN: %v\n", ins)

		if port < 0 || port >= len(ins) {
			log.Printf("WARN: MIDI IN %d not found\n", port)
			return
		}
		in := ins[port]
		if err := in.Open(); err != nil {
			log.Printf("failed to open MIDI IN: %v\n", err)
			return
		}
		log.Println("opened " + in.String())
		defer func() {
			err := in.Close()
			if err != nil {
				log.Printf("failed to close MIDI IN: %v\n", err)
			}
		}()
		log.Println("start listening MIDI IN...")
		if err := in.SetListener(func(data []byte, deltaMicroseconds int64) {
			msg := append([]byte(nil), data...)
			select {
			case ch <- msg:
			default:
				log.Println("[WARN] MIDI message dropped")
			}
		}); err != nil {
			log.Println("failed to set listener: " + err.Error())
			return
		}
		defer func() {
			log.Println("stop listening MIDI IN...")
			err := in.StopListening()
			if err != nil {
				log.Printf("failed to stop listening: %v\n", err)
			}
		}()
		<-ctx.Done()
	}()
	return ch
}

// RunMidi applies MIDI messages to p until ch is closed.
func RunMidi(ch <-chan []byte, p *Panel) {
	for data := range ch {
		applyMidi(p, data)
	}
	log.Println("RunMidi() ended.")
}

// applyMidi maps a controller onto the panel: a note-on selects the mode by
// note number mod 3 (C paused, C# constant, D oscillating, repeating every
// three semitones), any control change or pitch bend sets the value.
func applyMidi(p *Panel, data []byte) {
	if len(data) < 3 {
		return
	}
	switch data[0] >> 4 {
	case 0x9:
		if data[2] == 0 {
			// note-on with zero velocity is a note-off
			return
		}
		p.Select(Selections[int(data[1])%len(Selections)])
	case 0xB:
		p.SetValue(uint16(uint32(data[2]&0x7F) * MaxValue / 127))
	case 0xE:
		bend := uint32(data[2]&0x7F)<<7 | uint32(data[1]&0x7F)
		p.SetValue(uint16(bend * MaxValue / 0x3FFF))
	}
}
