package mailer

import (
	"context"
	"fmt"
	"io"
	"sync"

	"tech-newsletter/internal/usecase/dispatch"
)

// PreviewTransport writes messages to w instead of sending them.
// It backs --dry-run: the full pipeline runs and the rendered newsletter is printed.
type PreviewTransport struct {
	mu sync.Mutex
	w  io.Writer
}

// NewPreviewTransport creates a transport writing to w.
func NewPreviewTransport(w io.Writer) *PreviewTransport {
	return &PreviewTransport{w: w}
}

// Send implements dispatch.Transport.
func (p *PreviewTransport) Send(ctx context.Context, msg *dispatch.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	body := msg.HTML
	if body == "" {
		body = msg.Text
	}
	_, err := fmt.Fprintf(p.w, "From: %s\nTo: %s\nSubject: %s\n\n%s\n", msg.From, msg.To, msg.Subject, body)
	if err != nil {
		return fmt.Errorf("write preview: %w", err)
	}
	return nil
}
