package ui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/roam-ai/whileusing-batch-listener/internal/state_managers"
	"github.com/rs/zerolog"
)

const consoleHelp = "commands: permission, start, stop, show, status, help, quit"

// Console is a line-oriented shell over the tracking controller. The reader
// is shared with the terminal permission prompt, so commands run one at a time.
type Console struct {
	in         *bufio.Reader
	out        io.Writer
	controller Controller
	store      *state_managers.ReadingStateManager
	logger     zerolog.Logger

	mu      sync.Mutex // serializes writes to out
	running atomic.Bool
}

// NewConsole creates a Console reading commands from in.
func NewConsole(in *bufio.Reader, out io.Writer, controller Controller, store *state_managers.ReadingStateManager, logger zerolog.Logger) *Console {
	c := &Console{
		in:         in,
		out:        out,
		controller: controller,
		store:      store,
		logger:     logger,
	}
	store.OnChange(func() {
		if c.running.Load() {
			c.show()
		}
	})
	return c
}

// Run processes commands until quit, end of input or ctx is cancelled.
func (c *Console) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.running.Store(true)
	defer c.running.Store(false)

	lines := make(chan string)
	next := make(chan struct{})
	readErr := make(chan error, 1)

	go func() {
		defer close(lines)
		for {
			line, err := c.in.ReadString('\n')
			if line != "" || err == nil {
				select {
				case lines <- line:
				case <-ctx.Done():
					return
				}
				// Wait until the command is handled; it may read a prompt answer.
				select {
				case <-next:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				readErr <- err
				return
			}
		}
	}()

	c.println(consoleHelp)
	c.show()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					if errors.Is(err, io.EOF) {
						return nil
					}
					return err
				default:
					return nil
				}
			}
			quit := c.handle(ctx, strings.TrimSpace(line))
			if quit {
				return nil
			}
			select {
			case next <- struct{}{}:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// handle runs one command and reports whether the console should exit.
func (c *Console) handle(ctx context.Context, command string) bool {
	switch strings.ToLower(command) {
	case "":
	case "permission":
		status := c.controller.RequestLocationPermission(ctx)
		c.println("location permission: " + string(status))
	case "start":
		if err := c.controller.StartTracking(ctx); err != nil {
			c.println("start failed: " + err.Error())
		}
		c.println("status: " + string(c.controller.State()))
	case "stop":
		if err := c.controller.StopTracking(ctx); err != nil {
			c.println("stop failed: " + err.Error())
		}
		c.println("status: " + string(c.controller.State()))
	case "show":
		c.show()
	case "status":
		c.println("status: " + string(c.controller.State()))
	case "help":
		c.println(consoleHelp)
	case "quit", "exit":
		return true
	default:
		c.logger.Debug().Str("command", command).Msg("Unknown console command")
		c.println(fmt.Sprintf("unknown command %q, %s", command, consoleHelp))
	}
	return false
}

func (c *Console) show() {
	reading, present := c.store.Current()
	c.print(Render(reading, present).String())
}

func (c *Console) println(s string) {
	c.print(s + "\n")
}

func (c *Console) print(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = io.WriteString(c.out, s)
}
