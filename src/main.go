package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jinjor/signal-control/src/controller"
	"github.com/jinjor/signal-control/src/monitor"
	"github.com/jinjor/signal-control/src/spidev"
	"github.com/jinjor/signal-control/src/ui"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
)

var (
	devicePath      = flag.String("device", spidev.DefaultPath, "spidev node of the DAC")
	spiMode         = flag.Uint("spi-mode", uint(spidev.DefaultOptions().Mode), "SPI mode (0-3)")
	spiBits         = flag.Uint("spi-bits", uint(spidev.DefaultOptions().BitsPerWord), "SPI bits per word")
	spiSpeed        = flag.Uint("spi-speed", uint(spidev.DefaultOptions().MaxSpeedHz), "SPI max speed in Hz")
	simulate        = flag.Bool("simulate", false, "do not open the device, pretend writes take -sim-delay")
	simDelay        = flag.Duration("sim-delay", 100*time.Millisecond, "duration of a simulated write")
	interval        = flag.Duration("interval", controller.DefaultConfig().Interval, "sleep after each sample")
	pausedInterval  = flag.Duration("paused-interval", controller.DefaultConfig().PausedInterval, "sleep of a paused cycle")
	maxSinkFailures = flag.Int("max-sink-failures", 3, "consecutive write failures before pausing (0: stop on first failure)")
	echo            = flag.Bool("echo", false, "print every written value as a bar")
	withMonitor     = flag.Bool("monitor", false, "play a tone following the output")
	monitorFreq     = flag.Float64("monitor-freq", monitor.DefaultOptions().ToneFreq, "monitor tone frequency in Hz")
	ipcPath         = flag.String("ipc", ui.DefaultSocketPath, "unix socket for remote commands (empty: disabled)")
	midiPort        = flag.Int("midi", -1, "MIDI input port (-1: disabled)")
	headless        = flag.Bool("headless", false, "no keyboard interface")
	logFile         = flag.String("log", "", "log to this file instead of stderr")
)

func main() {
	flag.Parse()
	log.SetFlags(log.Lshortfile)
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			log.Fatalf("error: %v\n", err)
		}
		defer f.Close()
		log.SetOutput(f)
	}
	interactive := !*headless && term.IsTerminal(int(os.Stdin.Fd()))
	if interactive && *echo {
		log.Fatalln("error: -echo would draw over the keyboard interface, use it with -headless")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sink, mon, err := openSink()
	if err != nil {
		log.Fatalf("error: %v\n", err)
	}
	tx, rx := controller.NewChannel()
	gen := controller.NewGenerator(rx, sink, controller.Config{
		Interval:        *interval,
		PausedInterval:  *pausedInterval,
		MaxSinkFailures: *maxSinkFailures,
	})
	panel := ui.NewPanel(tx)
	var tty *ui.Terminal
	if interactive {
		tty = ui.NewTerminal(panel, os.Stdin, os.Stdout)
		if *logFile == "" && term.IsTerminal(int(os.Stderr.Fd())) {
			log.SetOutput(tty.LogWriter(os.Stderr))
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// the interface keeps running and reports the disconnection
		if err := gen.Start(ctx); err != nil {
			log.Printf("error: %v\n", err)
		}
		return nil
	})
	g.Go(func() error {
		panel.Watch(gen.Status())
		return nil
	})
	if mon != nil {
		g.Go(func() error {
			return mon.Start(ctx)
		})
	}
	if *ipcPath != "" {
		g.Go(func() error {
			return ui.ServeIPC(ctx, *ipcPath, panel)
		})
	}
	if *midiPort >= 0 {
		g.Go(func() error {
			ui.RunMidi(ui.ListenToMidiIn(ctx, *midiPort), panel)
			return nil
		})
	}
	if tty != nil {
		g.Go(func() error {
			err := tty.Run(ctx)
			if errors.Is(err, ui.ErrNotTerminal) {
				log.Printf("WARN: %v, running headless\n", err)
				return nil
			}
			return err
		})
	} else if !*headless {
		log.Printf("WARN: %v, running headless\n", ui.ErrNotTerminal)
	}
	err = g.Wait()
	if err != nil && !errors.Is(err, ui.ErrQuit) {
		log.Fatalf("error: %v\n", err)
	}
	log.Println("main() ended.")
}

func openSink() (controller.Sink, *monitor.Monitor, error) {
	var sink controller.Sink
	if *simulate {
		sink = controller.Simulated(*simDelay)
	} else {
		dev, err := spidev.Open(*devicePath, spidev.Options{
			Mode:        uint8(*spiMode),
			BitsPerWord: uint8(*spiBits),
			MaxSpeedHz:  uint32(*spiSpeed),
		})
		if errors.Is(err, spidev.ErrUnsupported) {
			log.Printf("WARN: %v, simulating the device\n", err)
			sink = controller.Simulated(*simDelay)
		} else if err != nil {
			return nil, nil, err
		} else {
			sink = dev
		}
	}
	var mon *monitor.Monitor
	if *withMonitor {
		opts := monitor.DefaultOptions()
		opts.ToneFreq = *monitorFreq
		m, err := monitor.New(opts)
		if err != nil {
			log.Printf("WARN: monitor unavailable: %v\n", err)
		} else {
			mon = m
			sink = controller.Tee(sink, mon)
		}
	}
	if *echo {
		sink = controller.Echo(os.Stdout, sink)
	}
	return sink, mon, nil
}
