package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/comigor/chatsim-go/internal/conversation"
	"github.com/comigor/chatsim-go/internal/imageflow"
	"github.com/comigor/chatsim-go/internal/logger"
	"github.com/comigor/chatsim-go/internal/timeline"
)

// repl renders the timeline as text and forwards typed intents to the store.
type repl struct {
	store *conversation.Store
	in    io.Reader

	mu  sync.Mutex
	out io.Writer
}

func newREPL(store *conversation.Store, in io.Reader, out io.Writer) *repl {
	return &repl{store: store, in: in, out: out}
}

func (r *repl) printf(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = fmt.Fprintf(r.out, format, args...)
}

func (r *repl) render(m timeline.Message) {
	who := "You"
	if !m.IsUser() {
		who = "AI"
	}
	switch m.Kind {
	case timeline.KindUploadedImage, timeline.KindGeneratedImage:
		r.printf("[%s] %s> %s\n    image: %s\n", m.CreatedAt.Format("15:04"), who, m.Body, m.ImageRef)
	default:
		r.printf("[%s] %s> %s\n", m.CreatedAt.Format("15:04"), who, m.Body)
	}
}

// Run blocks until EOF, /quit or ctx is cancelled.
func (r *repl) Run(ctx context.Context) error {
	for _, m := range r.store.Messages() {
		r.render(m)
	}
	unsubscribe := r.store.Subscribe(func(e conversation.Event) {
		switch {
		case e.Kind == conversation.EventAppended && (!e.Message.IsUser() || e.Message.HasImage()):
			r.render(e.Message)
		case e.Kind == conversation.EventComposing && e.Composing:
			r.printf("AI is typing...\n")
		}
	})
	defer unsubscribe()

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(r.in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-scanErr:
			return err
		case line := <-lines:
			if quit := r.handle(ctx, line); quit {
				return nil
			}
		}
	}
}

func (r *repl) handle(ctx context.Context, line string) bool {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)
	sess := r.store.Session()

	var err error
	switch cmd {
	case "/quit", "/exit":
		return true
	case "/upload", "/drop":
		source := imageflow.SourcePicker
		if cmd == "/drop" {
			source = imageflow.SourceDrop
		}
		if err = sess.OpenUploadModal(); err == nil {
			err = r.upload(ctx, arg, source)
		}
	case "/generate":
		if err = sess.OpenGenerateModal(); err == nil {
			if err = r.store.RequestGeneratedImage(ctx, arg); err == nil {
				r.printf("Generating...\n")
			}
		}
	case "/suggest":
		for i, p := range imageflow.SuggestedPrompts() {
			r.printf("  %d. %s\n", i+1, p)
		}
	case "/close":
		err = sess.CloseModal()
	default:
		sess.SetInput(line)
		err = r.store.SubmitInput(ctx)
	}

	switch {
	case err == nil:
	case errors.Is(err, conversation.ErrEmptyInput),
		errors.Is(err, imageflow.ErrEmptyPrompt),
		errors.Is(err, imageflow.ErrUnsupportedFileType),
		errors.Is(err, imageflow.ErrGenerationInProgress):
		logger.L.Debug("input ignored", "reason", err)
	default:
		r.printf("error: %v\n", err)
	}
	return false
}

func (r *repl) upload(ctx context.Context, path string, source imageflow.Source) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	mediaType := mime.TypeByExtension(filepath.Ext(path))
	return r.store.AttachUploadedImage(ctx, imageflow.File{
		Name:     filepath.Base(path),
		MIMEType: mediaType,
		Data:     data,
		Source:   source,
	})
}
