package permissions

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// PromptRequester asks on a terminal. Any answer other than y/yes denies.
type PromptRequester struct {
	mu  sync.Mutex
	in  *bufio.Reader
	out io.Writer
}

// NewPromptRequester reads answers from in and writes prompts to out.
func NewPromptRequester(in io.Reader, out io.Writer) *PromptRequester {
	return &PromptRequester{in: bufio.NewReader(in), out: out}
}

// Request prints the rationale and waits for one line of input.
func (p *PromptRequester) Request(ctx context.Context, permission Permission, rationale Rationale) (Status, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return Denied, err
	}

	fmt.Fprintf(p.out, "%s\n%s\nGrant %s? [y/N] ", rationale.Title, rationale.Message, permission)
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return Denied, fmt.Errorf("read answer: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return Granted, nil
	default:
		return Denied, nil
	}
}
