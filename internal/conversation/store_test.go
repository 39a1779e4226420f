package conversation

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/comigor/chatsim-go/internal/config"
	"github.com/comigor/chatsim-go/internal/history"
	"github.com/comigor/chatsim-go/internal/imageflow"
	"github.com/comigor/chatsim-go/internal/schedule"
	"github.com/comigor/chatsim-go/internal/session"
	"github.com/comigor/chatsim-go/internal/synth"
	"github.com/comigor/chatsim-go/internal/timeline"
)

var epoch = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// echoResponder tags every reply with the text that triggered it.
type echoResponder struct{}

func (echoResponder) Reply(text string) string { return "reply to: " + text }
func (echoResponder) AnalyzeImage() string     { return "analysis" }

// jitterSeq returns the queued draws in order, then zero.
func jitterSeq(draws ...int64) func(int64) int64 {
	var mu sync.Mutex
	return func(n int64) int64 {
		mu.Lock()
		defer mu.Unlock()
		if len(draws) == 0 {
			return 0
		}
		d := draws[0]
		draws = draws[1:]
		return d
	}
}

type fixture struct {
	store *Store
	clock *schedule.Manual
	sess  *session.State
}

func newFixture(t *testing.T, responder synth.Responder, opts ...Option) fixture {
	t.Helper()
	cfg := config.Default()
	clock := schedule.NewManual(epoch)
	sess := session.New(epoch)
	images := imageflow.NewController(clock, cfg.Timing.GenerateDelay, imageflow.NewPlaceholder(cfg.Placeholder), imageflow.NewBlobs("/blobs/"))
	opts = append([]Option{WithScheduler(clock), WithTiming(cfg.Timing), WithJitter(jitterSeq())}, opts...)
	store, err := New(sess, images, responder, opts...)
	require.NoError(t, err)
	return fixture{store: store, clock: clock, sess: sess}
}

func TestNew_SeedsWelcome(t *testing.T) {
	f := newFixture(t, echoResponder{})
	msgs := f.store.Messages()
	require.Len(t, msgs, 1)
	require.Equal(t, synth.Welcome, msgs[0].Body)
	require.Equal(t, timeline.AuthorAssistant, msgs[0].Author)
	require.False(t, f.store.Composing())
}

func TestSubmitUserText_AppendsPairAroundComposing(t *testing.T) {
	f := newFixture(t, echoResponder{})
	ctx := context.Background()
	f.sess.SetInput("  hello there  ")

	require.NoError(t, f.store.SubmitInput(ctx))

	msgs := f.store.Messages()
	require.Len(t, msgs, 2)
	require.Equal(t, timeline.AuthorUser, msgs[1].Author)
	require.Equal(t, timeline.KindText, msgs[1].Kind)
	require.Equal(t, "  hello there  ", msgs[1].Body, "raw content is preserved")
	require.Equal(t, epoch, msgs[1].CreatedAt)
	require.Empty(t, f.sess.Input())
	require.True(t, f.store.Composing())

	f.clock.Advance(1499 * time.Millisecond)
	require.Len(t, f.store.Messages(), 2)
	require.True(t, f.store.Composing())

	f.clock.Advance(time.Millisecond)
	msgs = f.store.Messages()
	require.Len(t, msgs, 3)
	require.Equal(t, timeline.AuthorAssistant, msgs[2].Author)
	require.Equal(t, "reply to:   hello there  ", msgs[2].Body)
	require.Equal(t, epoch.Add(1500*time.Millisecond), msgs[2].CreatedAt)
	require.False(t, f.store.Composing())
}

func TestSubmitUserText_RejectsBlank(t *testing.T) {
	f := newFixture(t, echoResponder{})
	for _, text := range []string{"", "   ", "\n\t"} {
		require.ErrorIs(t, f.store.SubmitUserText(context.Background(), text), ErrEmptyInput)
	}
	require.Len(t, f.store.Messages(), 1)
	require.False(t, f.store.Composing())
	require.Zero(t, f.clock.Pending())
}

func TestSubmitUserText_DelayUpperBound(t *testing.T) {
	var gotN int64
	f := newFixture(t, echoResponder{}, WithJitter(func(n int64) int64 {
		gotN = n
		return n - 1
	}))
	require.NoError(t, f.store.SubmitUserText(context.Background(), "hi"))
	require.Equal(t, int64(time.Second)+1, gotN)

	f.clock.Advance(2499 * time.Millisecond)
	require.Len(t, f.store.Messages(), 2)
	f.clock.Advance(time.Millisecond)
	require.Len(t, f.store.Messages(), 3)
}

func TestSubmitUserText_UsesSynthesizer(t *testing.T) {
	f := newFixture(t, synth.New())
	require.NoError(t, f.store.SubmitUserText(context.Background(), "can you write an essay"))
	f.clock.Advance(3 * time.Second)

	last := f.store.Messages()[2]
	require.True(t, strings.HasPrefix(last.Body, "I'm excellent at helping with writing tasks!"))
}

func TestSubmitUserText_OverlappingRepliesResolveByTimer(t *testing.T) {
	// First reply waits 2500ms, second 1500ms.
	f := newFixture(t, echoResponder{}, WithJitter(jitterSeq(int64(time.Second), 0)))
	ctx := context.Background()

	require.NoError(t, f.store.SubmitUserText(ctx, "first"))
	f.clock.Advance(500 * time.Millisecond)
	require.NoError(t, f.store.SubmitUserText(ctx, "second"))

	// Second resolves at t=2000ms, before the first.
	f.clock.Advance(1500 * time.Millisecond)
	require.False(t, f.store.Composing(), "each resolution clears the single flag")

	f.clock.Advance(500 * time.Millisecond)

	var bodies []string
	for _, m := range f.store.Messages()[1:] {
		bodies = append(bodies, string(m.Author)+": "+m.Body)
	}
	require.Equal(t, []string{
		"user: first",
		"user: second",
		"assistant: reply to: second",
		"assistant: reply to: first",
	}, bodies)
	require.False(t, f.store.Composing())
}

func TestAttachUploadedImage_RejectsNonImageDrop(t *testing.T) {
	f := newFixture(t, echoResponder{})
	require.NoError(t, f.sess.OpenUploadModal())

	err := f.store.AttachUploadedImage(context.Background(), imageflow.File{
		Name: "notes.txt", MIMEType: "text/plain", Data: []byte("hello"), Source: imageflow.SourceDrop,
	})
	require.ErrorIs(t, err, imageflow.ErrUnsupportedFileType)
	require.Len(t, f.store.Messages(), 1)
	require.Equal(t, session.ModalUpload, f.sess.Modal())
	require.False(t, f.store.Composing())
	require.Zero(t, f.clock.Pending())
}

func TestAttachUploadedImage_AnalysisAfterFixedDelay(t *testing.T) {
	f := newFixture(t, echoResponder{})
	require.NoError(t, f.sess.OpenUploadModal())

	err := f.store.AttachUploadedImage(context.Background(), imageflow.File{
		Name: "cat.png", MIMEType: "image/png", Data: []byte{1, 2, 3}, Source: imageflow.SourcePicker,
	})
	require.NoError(t, err)

	msgs := f.store.Messages()
	require.Len(t, msgs, 2)
	up := msgs[1]
	require.Equal(t, timeline.AuthorUser, up.Author)
	require.Equal(t, timeline.KindUploadedImage, up.Kind)
	require.Equal(t, uploadCaption, up.Body)
	require.True(t, strings.HasPrefix(up.ImageRef, "/blobs/"))
	require.Equal(t, session.ModalNone, f.sess.Modal())
	require.True(t, f.store.Composing())

	f.clock.Advance(1999 * time.Millisecond)
	require.Len(t, f.store.Messages(), 2)
	f.clock.Advance(time.Millisecond)

	msgs = f.store.Messages()
	require.Len(t, msgs, 3)
	require.Equal(t, "analysis", msgs[2].Body)
	require.Equal(t, timeline.KindText, msgs[2].Kind)
	require.False(t, f.store.Composing())
}

func TestRequestGeneratedImage_AppendsWithoutComposing(t *testing.T) {
	f := newFixture(t, echoResponder{})
	var composingEvents int
	unsubscribe := f.store.Subscribe(func(e Event) {
		if e.Kind == EventComposing {
			composingEvents++
		}
	})
	defer unsubscribe()

	ctx := context.Background()
	require.NoError(t, f.sess.OpenGenerateModal())
	require.NoError(t, f.store.RequestGeneratedImage(ctx, "a red fox in snow"))
	require.Len(t, f.store.Messages(), 1)

	f.clock.Advance(3 * time.Second)
	msgs := f.store.Messages()
	require.Len(t, msgs, 2)
	gen := msgs[1]
	require.Equal(t, timeline.AuthorAssistant, gen.Author)
	require.Equal(t, timeline.KindGeneratedImage, gen.Kind)
	require.Equal(t, "a red fox in snow", gen.Prompt)
	require.Equal(t, `I've generated an image based on your prompt: "a red fox in snow"`, gen.Body)
	require.NotEmpty(t, gen.ImageRef)
	require.Equal(t, session.ModalNone, f.sess.Modal())

	require.NoError(t, f.store.RequestGeneratedImage(ctx, "a red fox in snow"))
	f.clock.Advance(3 * time.Second)
	msgs = f.store.Messages()
	require.Len(t, msgs, 3)
	require.NotEqual(t, msgs[1].ImageRef, msgs[2].ImageRef)

	require.Zero(t, composingEvents)
	require.False(t, f.store.Composing())
}

func TestRequestGeneratedImage_RejectsBlank(t *testing.T) {
	f := newFixture(t, echoResponder{})
	require.ErrorIs(t, f.store.RequestGeneratedImage(context.Background(), "  "), imageflow.ErrEmptyPrompt)
	require.Zero(t, f.clock.Pending())
}

func TestRequestGeneratedImage_ClosingModalDoesNotRetract(t *testing.T) {
	f := newFixture(t, echoResponder{})
	require.NoError(t, f.sess.OpenGenerateModal())
	require.NoError(t, f.store.RequestGeneratedImage(context.Background(), "lighthouse"))
	require.NoError(t, f.sess.CloseModal())

	f.clock.Advance(3 * time.Second)
	require.Len(t, f.store.Messages(), 2)
	require.Equal(t, session.ModalNone, f.sess.Modal())
}

func TestSink_MirrorsTimeline(t *testing.T) {
	sink := history.NewMemory()
	f := newFixture(t, echoResponder{}, WithSink(sink))
	ctx := context.Background()
	require.NoError(t, f.store.SubmitUserText(ctx, "hi"))
	f.clock.Advance(3 * time.Second)

	got, err := sink.List(ctx, f.sess.ID)
	require.NoError(t, err)
	require.Equal(t, f.store.Messages(), got)
}

func TestSubscribe_EventsAndUnsubscribe(t *testing.T) {
	f := newFixture(t, echoResponder{})
	var kinds []EventKind
	unsubscribe := f.store.Subscribe(func(e Event) { kinds = append(kinds, e.Kind) })

	require.NoError(t, f.store.SubmitUserText(context.Background(), "hi"))
	f.clock.Advance(3 * time.Second)
	require.Equal(t, []EventKind{EventAppended, EventComposing, EventAppended, EventComposing}, kinds)

	unsubscribe()
	require.NoError(t, f.store.SubmitUserText(context.Background(), "again"))
	require.Len(t, kinds, 4)
}

func TestSnapshot(t *testing.T) {
	f := newFixture(t, echoResponder{})
	require.NoError(t, f.sess.OpenGenerateModal())
	require.NoError(t, f.store.RequestGeneratedImage(context.Background(), "forest"))

	snap := f.store.Snapshot()
	require.Equal(t, f.sess.ID.String(), snap.SessionID)
	require.Equal(t, session.ModalGenerate, snap.Modal)
	require.Equal(t, imageflow.GenerationGenerating, snap.Generation)
	require.Len(t, snap.Messages, 1)

	f.clock.Advance(3 * time.Second)
	snap = f.store.Snapshot()
	require.Equal(t, imageflow.GenerationReady, snap.Generation)
	require.Equal(t, snap.Messages[1].ImageRef, snap.Preview)
}

func TestRequestGeneratedImage_LeavesUploadModalOpen(t *testing.T) {
	f := newFixture(t, echoResponder{})
	require.NoError(t, f.sess.OpenGenerateModal())
	require.NoError(t, f.store.RequestGeneratedImage(context.Background(), "fox"))
	require.NoError(t, f.sess.OpenUploadModal())

	f.clock.Advance(3 * time.Second)
	require.Len(t, f.store.Messages(), 2)
	require.Equal(t, session.ModalUpload, f.sess.Modal())
}

func TestAttachUploadedImage_LeavesGenerateModalOpen(t *testing.T) {
	f := newFixture(t, echoResponder{})
	require.NoError(t, f.sess.OpenGenerateModal())

	err := f.store.AttachUploadedImage(context.Background(), imageflow.File{
		Name: "cat.png", MIMEType: "image/png", Data: []byte{1, 2, 3}, Source: imageflow.SourceDrop,
	})
	require.NoError(t, err)
	require.Equal(t, session.ModalGenerate, f.sess.Modal())
}

func TestRequestGeneratedImage_ReopenedModalAcceptsNewPrompt(t *testing.T) {
	f := newFixture(t, echoResponder{})
	ctx := context.Background()
	require.NoError(t, f.sess.OpenGenerateModal())
	require.NoError(t, f.store.RequestGeneratedImage(ctx, "one"))
	require.NoError(t, f.sess.CloseModal())
	require.NoError(t, f.sess.OpenGenerateModal())

	require.NoError(t, f.store.RequestGeneratedImage(ctx, "two"))
	require.Equal(t, 2, f.clock.Pending())

	f.clock.Advance(3 * time.Second)
	msgs := f.store.Messages()
	require.Len(t, msgs, 3)
	require.Equal(t, "one", msgs[1].Prompt)
	require.Equal(t, "two", msgs[2].Prompt)

	// Without reopening, the same instance still rejects overlap.
	require.NoError(t, f.sess.OpenGenerateModal())
	require.NoError(t, f.store.RequestGeneratedImage(ctx, "three"))
	require.ErrorIs(t, f.store.RequestGeneratedImage(ctx, "four"), imageflow.ErrGenerationInProgress)
}

func TestSubscribe_AppendedEventsFollowCommitOrder(t *testing.T) {
	f := newFixture(t, echoResponder{})
	var seqs []uint64
	unsubscribe := f.store.Subscribe(func(e Event) {
		if e.Kind == EventAppended {
			seqs = append(seqs, e.Message.Seq)
		}
	})
	defer unsubscribe()

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- f.store.SubmitUserText(context.Background(), "hi")
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	require.Len(t, seqs, 32)
	for i := 1; i < len(seqs); i++ {
		require.Less(t, seqs[i-1], seqs[i])
	}
}
