// Package imageflow implements the two image subflows behind the modals:
// choosing a file to upload for analysis, and prompt-driven generation of
// a placeholder image.
package imageflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/qmuntal/stateless"

	"github.com/comigor/chatsim-go/internal/logger"
	"github.com/comigor/chatsim-go/internal/schedule"
)

var (
	ErrEmptyPrompt          = errors.New("imageflow: empty prompt")
	ErrUnsupportedFileType  = errors.New("imageflow: unsupported file type")
	ErrGenerationInProgress = errors.New("imageflow: generation already in progress")
)

// Source tells how a file reached the upload modal.
type Source string

const (
	SourcePicker Source = "picker"
	SourceDrop   Source = "drop"
)

// File is a selected or dropped file. MIMEType is what the picker or drop
// reported; when empty it is sniffed from Data.
type File struct {
	Name     string
	MIMEType string
	Data     []byte
	Source   Source
}

// Generation is the state of the generation subflow.
type Generation string

const (
	GenerationIdle       Generation = "Idle"
	GenerationGenerating Generation = "Generating"
	GenerationReady      Generation = "Ready"
)

const (
	triggerGenerate = "Generate"
	triggerResolve  = "Resolve"
	triggerReset    = "Reset"
)

// Result is a finished generation.
type Result struct {
	URL    string
	Prompt string
}

var suggestedPrompts = []string{
	"A futuristic cityscape at sunset",
	"A magical forest with glowing mushrooms",
	"Abstract digital art with vibrant colors",
	"A cozy coffee shop in the rain",
	"Minimalist mountain landscape",
	"A lighthouse on a stormy coast at night",
	"Watercolor portrait of a sleepy fox",
}

// SuggestedPrompts returns the quick-fill prompts offered in the generate modal.
func SuggestedPrompts() []string {
	out := make([]string, len(suggestedPrompts))
	copy(out, suggestedPrompts)
	return out
}

// Controller runs the upload and generation subflows.
type Controller struct {
	sched         schedule.Scheduler
	generateDelay time.Duration
	placeholder   *Placeholder
	blobs         *Blobs

	mu  sync.Mutex
	cur *generator
}

// generator is the generation state of one generate-modal instance. A
// pending generation keeps resolving into the instance that started it.
type generator struct {
	fsm     *stateless.StateMachine
	preview string
}

// NewController wires a controller. generateDelay is the simulated
// generation latency.
func NewController(sched schedule.Scheduler, generateDelay time.Duration, placeholder *Placeholder, blobs *Blobs) *Controller {
	return &Controller{
		sched:         sched,
		generateDelay: generateDelay,
		placeholder:   placeholder,
		blobs:         blobs,
		cur:           newGenerator(),
	}
}

func newGenerator() *generator {
	g := &generator{}
	fsm := stateless.NewStateMachine(GenerationIdle)

	fsm.Configure(GenerationIdle).
		Permit(triggerGenerate, GenerationGenerating).
		Ignore(triggerReset)

	fsm.Configure(GenerationGenerating).
		OnEntry(func(_ context.Context, _ ...any) error {
			g.preview = ""
			return nil
		}).
		Permit(triggerResolve, GenerationReady)

	fsm.Configure(GenerationReady).
		OnEntryFrom(triggerResolve, func(_ context.Context, args ...any) error {
			if len(args) > 0 {
				g.preview, _ = args[0].(string)
			}
			return nil
		}).
		Permit(triggerGenerate, GenerationGenerating).
		Permit(triggerReset, GenerationIdle)

	fsm.OnTransitioned(func(_ context.Context, t stateless.Transition) {
		logger.L.Debug("generation transition", "from", t.Source, "to", t.Destination, "trigger", t.Trigger)
	})
	g.fsm = fsm
	return g
}

// Remount starts a fresh generation state, as when the generate modal is
// opened again. Generations still pending from the previous instance
// resolve normally but no longer affect State.
func (c *Controller) Remount() {
	c.mu.Lock()
	c.cur = newGenerator()
	c.mu.Unlock()
}

// Accept validates f and registers it as a session blob, returning the
// local reference for inline display. Only the image/ MIME prefix is
// checked; size and format are not.
func (c *Controller) Accept(f File) (Blob, string, error) {
	mimeType := strings.TrimSpace(f.MIMEType)
	if mimeType == "" {
		mimeType = mimetype.Detect(f.Data).String()
	}
	if !strings.HasPrefix(strings.ToLower(mimeType), "image/") {
		logger.L.Debug("rejected upload", "name", f.Name, "mime", mimeType, "source", f.Source)
		return Blob{}, "", fmt.Errorf("%w: %s", ErrUnsupportedFileType, mimeType)
	}
	blob, ref := c.blobs.Put(Blob{Name: f.Name, MIMEType: mimeType, Data: f.Data})
	logger.L.Info("accepted upload", "name", f.Name, "mime", mimeType, "bytes", len(f.Data), "ref", ref)
	return blob, ref, nil
}

// Generate starts a simulated generation for prompt. After the generate
// delay the placeholder URL is resolved and done is called with it. A
// generation cannot be cancelled once started. While the current instance
// is generating, a second prompt is rejected with ErrGenerationInProgress.
func (c *Controller) Generate(prompt string, done func(Result)) error {
	if strings.TrimSpace(prompt) == "" {
		return ErrEmptyPrompt
	}

	c.mu.Lock()
	g := c.cur
	if g.fsm.MustState() == GenerationGenerating {
		c.mu.Unlock()
		return ErrGenerationInProgress
	}
	if err := g.fsm.Fire(triggerGenerate); err != nil {
		c.mu.Unlock()
		return fmt.Errorf("imageflow: start generation: %w", err)
	}
	c.mu.Unlock()

	logger.L.Info("generating image", "prompt", prompt, "delay", c.generateDelay)
	c.sched.AfterFunc(c.generateDelay, func() {
		ref := c.placeholder.URL(c.sched.Now())

		c.mu.Lock()
		if err := g.fsm.Fire(triggerResolve, ref); err != nil {
			logger.L.Warn("generation resolve", "error", err)
		}
		c.mu.Unlock()

		if done != nil {
			done(Result{URL: ref, Prompt: prompt})
		}
	})
	return nil
}

// Reset discards the last preview ("generate new"). It is ignored while a
// generation is pending or nothing has been generated.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	g := c.cur
	if g.fsm.MustState() == GenerationReady {
		if err := g.fsm.Fire(triggerReset); err != nil {
			logger.L.Warn("generation reset", "error", err)
		}
		g.preview = ""
	}
}

// State returns the generation state and the last preview URL, if any.
func (c *Controller) State() (Generation, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cur.fsm.MustState().(Generation), c.cur.preview
}

// Blobs exposes the session blob registry.
func (c *Controller) Blobs() *Blobs { return c.blobs }

// Placeholder exposes the placeholder-image source.
func (c *Controller) Placeholder() *Placeholder { return c.placeholder }
