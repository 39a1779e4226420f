package timeline

import (
	"time"

	"github.com/google/uuid"
)

// Author identifies who produced a message.
type Author string

const (
	AuthorUser      Author = "user"
	AuthorAssistant Author = "assistant"
)

// Kind is the rendering kind of a message.
type Kind string

const (
	KindText           Kind = "text"
	KindUploadedImage  Kind = "uploaded-image"
	KindGeneratedImage Kind = "generated-image"
)

// Message is a single timeline entry. Messages are immutable once appended.
type Message struct {
	ID        uuid.UUID `json:"id"`
	Seq       uint64    `json:"seq"`
	Body      string    `json:"body"`
	Author    Author    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
	Kind      Kind      `json:"kind"`
	ImageRef  string    `json:"image_ref,omitempty"`
	Prompt    string    `json:"prompt,omitempty"`
}

// Draft is a message before it is committed, i.e. without ID, Seq or timestamp.
type Draft struct {
	Body     string
	Author   Author
	Kind     Kind
	ImageRef string
	Prompt   string
}

// Text builds a plain text draft.
func Text(author Author, body string) Draft {
	return Draft{Body: body, Author: author, Kind: KindText}
}

// UploadedImage builds a user draft carrying a local image reference.
func UploadedImage(body, ref string) Draft {
	return Draft{Body: body, Author: AuthorUser, Kind: KindUploadedImage, ImageRef: ref}
}

// GeneratedImage builds an assistant draft carrying a generated image and its prompt.
func GeneratedImage(body, ref, prompt string) Draft {
	return Draft{Body: body, Author: AuthorAssistant, Kind: KindGeneratedImage, ImageRef: ref, Prompt: prompt}
}

// IsUser reports whether the message was authored by the user.
func (m Message) IsUser() bool { return m.Author == AuthorUser }

// HasImage reports whether the message renders an image.
func (m Message) HasImage() bool {
	return m.Kind == KindUploadedImage || m.Kind == KindGeneratedImage
}
