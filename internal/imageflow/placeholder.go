package imageflow

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/comigor/chatsim-go/internal/config"
)

// Placeholder builds URLs on the external placeholder-image service. Each
// URL carries a millisecond timestamp as uniqueness token; tokens never
// repeat within one Placeholder even if the clock does not move.
type Placeholder struct {
	baseURL  string
	width    int
	height   int
	fallback string

	mu        sync.Mutex
	lastToken int64
}

// NewPlaceholder creates a Placeholder from configuration.
func NewPlaceholder(cfg config.PlaceholderConfig) *Placeholder {
	return &Placeholder{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		width:    cfg.Width,
		height:   cfg.Height,
		fallback: cfg.FallbackURL,
	}
}

// URL returns https://<service>/<w>/<h>?random=<token> for the instant at.
func (p *Placeholder) URL(at time.Time) string {
	p.mu.Lock()
	token := at.UnixMilli()
	if token <= p.lastToken {
		token = p.lastToken + 1
	}
	p.lastToken = token
	p.mu.Unlock()

	return fmt.Sprintf("%s/%d/%d?random=%d", p.baseURL, p.width, p.height, token)
}

// Fallback is what renderers should show when the placeholder image fails
// to load. Empty means the renderer's own broken-image rendering.
func (p *Placeholder) Fallback() string { return p.fallback }
