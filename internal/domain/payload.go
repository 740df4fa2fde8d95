package domain

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// MaxContentLength bounds a text message
const MaxContentLength = 4000

var payloadValidator = validator.New()

var (
	ErrUnknownMessageType = errors.New("unknown message type")
	ErrPayloadMismatch    = errors.New("payload does not match message type")
)

// Payload is the type-specific body of a message
type Payload interface {
	Type() MessageType
	// Apply writes the payload into m, leaving every other body field nil
	Apply(m *Message)
}

// TextPayload carries plain text
type TextPayload struct {
	Content string `validate:"required,max=4000"`
}

// ImagePayload carries an uploaded image
type ImagePayload struct {
	URL string `validate:"required,uri,max=1024"`
}

// StickerPayload carries a sticker reference
type StickerPayload struct {
	URL string `validate:"required,uri,max=1024"`
}

// AudioPayload carries an uploaded voice note
type AudioPayload struct {
	URL string `validate:"required,uri,max=1024"`
}

func (TextPayload) Type() MessageType    { return MessageTypeText }
func (ImagePayload) Type() MessageType   { return MessageTypeImage }
func (StickerPayload) Type() MessageType { return MessageTypeSticker }
func (AudioPayload) Type() MessageType   { return MessageTypeAudio }

func (p TextPayload) Apply(m *Message) {
	content := p.Content
	m.setBody(MessageTypeText, &content, nil, nil, nil)
}

func (p ImagePayload) Apply(m *Message) {
	url := p.URL
	m.setBody(MessageTypeImage, nil, &url, nil, nil)
}

func (p StickerPayload) Apply(m *Message) {
	url := p.URL
	m.setBody(MessageTypeSticker, nil, nil, &url, nil)
}

func (p AudioPayload) Apply(m *Message) {
	url := p.URL
	m.setBody(MessageTypeAudio, nil, nil, nil, &url)
}

func (m *Message) setBody(t MessageType, content, image, sticker, audio *string) {
	m.MessageType = t
	m.Content = content
	m.ImageURL = image
	m.StickerURL = sticker
	m.AudioURL = audio
}

// NewPayload picks the field matching t from a loosely typed request and
// validates it. An empty type means text. Fields that do not belong to t
// are ignored.
func NewPayload(t MessageType, content, imageURL, stickerURL, audioURL *string) (Payload, error) {
	if t == "" {
		t = MessageTypeText
	}

	var p Payload
	switch t {
	case MessageTypeText:
		p = TextPayload{Content: deref(content)}
	case MessageTypeImage:
		p = ImagePayload{URL: deref(imageURL)}
	case MessageTypeSticker:
		p = StickerPayload{URL: deref(stickerURL)}
	case MessageTypeAudio:
		p = AudioPayload{URL: deref(audioURL)}
	default:
		return nil, ErrUnknownMessageType
	}

	if err := payloadValidator.Struct(p); err != nil {
		return nil, ErrPayloadMismatch
	}
	return p, nil
}

// PayloadFromRequest is NewPayload over a SendMessageRequest
func PayloadFromRequest(req *SendMessageRequest) (Payload, error) {
	return NewPayload(req.MessageType, req.Content, req.ImageURL, req.StickerURL, req.AudioURL)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
