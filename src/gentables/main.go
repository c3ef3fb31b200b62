// Command gentables writes one period of the quantized oscillator output per
// frequency as CSV, for comparing against a scope capture of the DAC.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jinjor/signal-control/src/controller"
	"golang.org/x/sync/errgroup"
)

// maxFrequency matches the panel range of 1/maxFrequency to maxFrequency Hz.
const maxFrequency = 10.0

var step = flag.Duration("step", 2*time.Millisecond, "time between samples")

func main() {
	flag.Parse()
	dir := flag.Arg(0)
	if dir == "" || flag.NArg() < 2 {
		log.Fatalln("usage: gentables [-step d] <dir> <freq>...")
	}
	log.SetFlags(log.Lshortfile)

	ctx := context.Background()
	g, ctx := errgroup.WithContext(ctx)
	for _, arg := range flag.Args()[1:] {
		freq, err := parseFrequency(arg)
		if err != nil {
			log.Fatalf("error: %v\n", err)
		}
		mode, err := controller.NewOscillating(freq)
		if err != nil {
			log.Fatalf("error: %v\n", err)
		}
		g.Go(func() error {
			path := filepath.Join(dir, fmt.Sprintf("%ghz.csv", freq))
			if err := saveTable(ctx, path, mode, *step); err != nil {
				return err
			}
			log.Printf("saved %s\n", path)
			return nil
		})
	}
	err := g.Wait()
	if err != nil {
		log.Fatalf("error: %v\n", err)
	}
	log.Println("Successfully generated tables.")
}

// parseFrequency accepts the frequencies the panel can select.
func parseFrequency(arg string) (float64, error) {
	freq, err := strconv.ParseFloat(arg, 64)
	if err != nil {
		return 0, err
	}
	if !(freq >= 1/maxFrequency && freq <= maxFrequency) {
		return 0, fmt.Errorf("frequency %v out of range [%v, %v]", arg, 1/maxFrequency, maxFrequency)
	}
	return freq, nil
}

func saveTable(ctx context.Context, path string, mode controller.Mode, step time.Duration) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := writeTable(ctx, w, mode, step); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// writeTable writes "seconds,value" rows covering one period of mode.
func writeTable(ctx context.Context, w io.Writer, mode controller.Mode, step time.Duration) error {
	if step <= 0 {
		return fmt.Errorf("step must be positive, got %v", step)
	}
	if mode.Kind() != controller.Oscillating {
		return fmt.Errorf("no period in %v", mode)
	}
	period := time.Duration(float64(time.Second) / mode.Frequency())
	if _, err := io.WriteString(w, "seconds,value\n"); err != nil {
		return err
	}
	for t := time.Duration(0); t < period; t += step {
		if err := ctx.Err(); err != nil {
			return err
		}
		value := controller.Quantize(controller.Sample(mode, t))
		if _, err := fmt.Fprintf(w, "%.6f,%d\n", t.Seconds(), value); err != nil {
			return err
		}
	}
	return nil
}
