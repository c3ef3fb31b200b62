package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jinjor/signal-control/src/controller"
)

func TestWriteTable(t *testing.T) {
	mode, err := controller.NewOscillating(1)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := writeTable(context.Background(), &buf, mode, 250*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	want := strings.Join([]string{
		"seconds,value",
		"0.000000,127",
		"0.250000,255",
		"0.500000,127",
		"0.750000,0",
		"",
	}, "\n")
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("table mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteTableRejectsZeroStep(t *testing.T) {
	mode, _ := controller.NewOscillating(1)
	if err := writeTable(context.Background(), &bytes.Buffer{}, mode, 0); err == nil {
		t.Error("expected error")
	}
}

func TestParseFrequency(t *testing.T) {
	for _, arg := range []string{"0.1", "1", "2.5", "10"} {
		if _, err := parseFrequency(arg); err != nil {
			t.Errorf("%s: %v", arg, err)
		}
	}
	for _, arg := range []string{"0", "0.05", "1e-300", "10.5", "NaN", "Inf", "-1", "abc"} {
		if _, err := parseFrequency(arg); err == nil {
			t.Errorf("%s: expected error", arg)
		}
	}
}

func TestWriteTableRejectsConstant(t *testing.T) {
	mode, _ := controller.NewConstant(0.5)
	if err := writeTable(context.Background(), &bytes.Buffer{}, mode, time.Millisecond); err == nil {
		t.Error("expected error")
	}
}
