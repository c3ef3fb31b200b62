package ui

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jinjor/signal-control/src/controller"
)

func TestParseCommand(t *testing.T) {
	got, err := parseCommand("mode  oscillating%20 ")
	expectNoError(t, err)
	if diff := cmp.Diff([]string{"mode", "oscillating "}, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	if _, err := parseCommand("   "); err == nil {
		t.Error("expected error for empty command")
	}
	if _, err := parseCommand("mode %zz"); err == nil {
		t.Error("expected error for bad escape")
	}
}

func TestApplyCommand(t *testing.T) {
	p, rx := newTestPanel()

	expectNoError(t, applyCommand(p, []string{"value", "65535"}))
	expectNoError(t, applyCommand(p, []string{"mode", "constant"}))
	if m := latest(t, rx); m.Kind() != controller.Constant || m.Level() != 1 {
		t.Errorf("got %v, want constant 1", m)
	}

	expectNoError(t, applyCommand(p, []string{"freq", "2.5"}))
	if m := latest(t, rx); m.Kind() != controller.Oscillating || m.Frequency() != 2.5 {
		t.Errorf("got %v, want oscillating 2.5", m)
	}

	expectNoError(t, applyCommand(p, []string{"level", "0.25"}))
	if m := latest(t, rx); m.Kind() != controller.Constant || m.Level() != 0.25 {
		t.Errorf("got %v, want constant 0.25", m)
	}

	bad := [][]string{
		{"mode"},
		{"mode", "circular"},
		{"value", "70000"},
		{"level", "1.5"},
		{"freq", "0"},
		{"freq", "x"},
		{"jump"},
	}
	for _, c := range bad {
		if err := applyCommand(p, c); err == nil {
			t.Errorf("%v: expected error", c)
		}
	}
	if _, ok := rx.DrainLatest(); ok {
		t.Error("rejected commands must not reach the loop")
	}
}

func readUntil(t *testing.T, r *bufio.Reader, prefix string) string {
	t.Helper()
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("waiting for %q: %v", prefix, err)
		}
		line = strings.TrimSuffix(line, "\n")
		if strings.HasPrefix(line, prefix) {
			return line
		}
	}
}

func TestHandleConn(t *testing.T) {
	p, rx := newTestPanel()
	server, client := net.Pipe()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- handleConn(ctx, server, p)
	}()
	client.SetDeadline(time.Now().Add(5 * time.Second))
	r := bufio.NewReader(client)

	fmt.Fprint(client, "level 0.5\n")
	if diff := cmp.Diff("state constant 32768 constant+0.500", readUntil(t, r, "state constant")); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}
	if m := latest(t, rx); m.Level() != 0.5 {
		t.Errorf("got %v, want constant 0.5", m)
	}

	fmt.Fprint(client, "freq -1\n")
	if line := readUntil(t, r, "error "); !strings.Contains(line, "must+be+positive") {
		t.Errorf("unexpected error line %q", line)
	}

	client.Close()
	select {
	case err := <-done:
		expectNoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("handleConn did not return after the client closed")
	}
}
