package ui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jinjor/signal-control/src/controller"
	"golang.org/x/sync/errgroup"
)

// DefaultSocketPath ...
const DefaultSocketPath = "/tmp/signal-control.sock"

const reportInterval = time.Second / 10

// ServeIPC accepts connections on a unix socket at path until ctx is
// cancelled. Each connection sends line commands to p and receives state
// reports.
func ServeIPC(ctx context.Context, path string, p *Panel) error {
	os.Remove(path)
	listener, err := new(net.ListenConfig).Listen(ctx, "unix", path)
	if err != nil {
		return err
	}
	defer func() {
		log.Println("Closing IPC...")
		err := listener.Close()
		if err != nil && !errors.Is(err, net.ErrClosed) {
			log.Printf("error while closing listener: %v", err)
		}
		os.Remove(path)
	}()
	go func() {
		<-ctx.Done()
		listener.Close()
	}()
	log.Printf("start listening on %s...\n", path)
	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := handleConn(ctx, conn, p); err != nil {
				log.Printf("error: %v\n", err)
			}
		}()
	}
}

// lineWriter serializes report and error lines on one connection.
type lineWriter struct {
	sync.Mutex
	w io.Writer
}

func (lw *lineWriter) writeLine(fields ...string) error {
	lw.Lock()
	defer lw.Unlock()
	_, err := io.WriteString(lw.w, strings.Join(fields, " ")+"\n")
	return err
}

func handleConn(ctx context.Context, conn net.Conn, p *Panel) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer func() {
		err := conn.Close()
		if err != nil && !errors.Is(err, net.ErrClosed) {
			log.Printf("error while closing connection: %v", err)
		}
	}()
	out := &lineWriter{w: conn}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return receiveCommands(ctx, conn, p, out)
	})
	g.Go(func() error {
		defer cancel()
		return sendReports(ctx, p, out)
	})
	g.Go(func() error {
		// unblock the reader
		<-ctx.Done()
		return conn.Close()
	})
	err := g.Wait()
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

func receiveCommands(ctx context.Context, r io.Reader, p *Panel, out *lineWriter) error {
	reader := bufio.NewReader(r)
	var line []byte
loop:
	for {
		select {
		case <-ctx.Done():
			log.Println("Connection interrupted")
			break loop
		default:
		}
		next, isPrefix, err := reader.ReadLine()
		if err == io.EOF {
			break loop
		}
		if err != nil {
			if ctx.Err() != nil {
				break loop
			}
			return err
		}
		line = append(line, next...)
		if isPrefix {
			continue
		}
		log.Printf("received: %s\n", string(line))
		command, err := parseCommand(string(line))
		if err == nil {
			err = applyCommand(p, command)
		}
		if err != nil {
			if err := out.writeLine("error", url.QueryEscape(err.Error())); err != nil {
				log.Printf("receiveCommands() ended: %v\n", err)
				return nil
			}
		}
		line = line[:0]
	}
	log.Println("receiveCommands() ended.")
	return nil
}

func parseCommand(line string) ([]string, error) {
	lineStr := strings.Fields(line)
	if len(lineStr) == 0 {
		return nil, errors.New("empty command")
	}
	for i, item := range lineStr {
		escaped, err := url.QueryUnescape(item)
		if err != nil {
			return nil, err
		}
		lineStr[i] = escaped
	}
	return lineStr, nil
}

func applyCommand(p *Panel, command []string) error {
	arg := func() (string, error) {
		if len(command) != 2 {
			return "", fmt.Errorf("%s: expected 1 argument, got %d", command[0], len(command)-1)
		}
		return command[1], nil
	}
	switch command[0] {
	case "mode":
		a, err := arg()
		if err != nil {
			return err
		}
		kind, err := controller.KindFromString(a)
		if err != nil {
			return err
		}
		p.Select(kind)
	case "value":
		a, err := arg()
		if err != nil {
			return err
		}
		v, err := strconv.ParseUint(a, 10, 16)
		if err != nil {
			return err
		}
		p.SetValue(uint16(v))
	case "level":
		a, err := arg()
		if err != nil {
			return err
		}
		level, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return err
		}
		mode, err := controller.NewConstant(level)
		if err != nil {
			return err
		}
		p.SendMode(mode)
	case "freq":
		a, err := arg()
		if err != nil {
			return err
		}
		freq, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return err
		}
		mode, err := controller.NewOscillating(freq)
		if err != nil {
			return err
		}
		p.SendMode(mode)
	case "clear":
		p.ClearError()
	default:
		return fmt.Errorf("unknown command %v", command[0])
	}
	return nil
}

func reportFields(v View) []string {
	return []string{
		"state",
		v.Selection.String(),
		strconv.FormatUint(uint64(v.Value), 10),
		url.QueryEscape(v.Sent.String()),
	}
}

func sendReports(ctx context.Context, p *Panel, out *lineWriter) error {
	t := time.NewTicker(reportInterval)
	defer t.Stop()
	var lastState, lastErr string
loop:
	for {
		select {
		case <-ctx.Done():
			log.Println("sendReports() interrupted")
			break loop
		case <-t.C:
			v := p.View()
			state := strings.Join(reportFields(v), " ")
			if state != lastState {
				if err := out.writeLine(state); err != nil {
					log.Printf("sendReports() ended: %v\n", err)
					return nil
				}
				lastState = state
			}
			errStr := ""
			if v.Err != nil {
				errStr = url.QueryEscape(v.Err.Error())
			}
			if errStr != lastErr && errStr != "" {
				if err := out.writeLine("error", errStr); err != nil {
					log.Printf("sendReports() ended: %v\n", err)
					return nil
				}
			}
			lastErr = errStr
		}
	}
	log.Println("sendReports() ended.")
	return nil
}
