package mailbox

import (
	"errors"
	"fmt"
	"io"

	"github.com/emersion/go-message/mail"
	"github.com/gartstein/recruit/internal/recruit/ingestion"
	"github.com/gartstein/recruit/internal/recruit/ocr"
)

// Message is a parsed e-mail and the resume attachments it carries.
type Message struct {
	UID         uint32
	From        string
	Subject     string
	Attachments []ingestion.File
}

// Parse reads a raw RFC 5322 message. Attachments whose type cannot be
// ingested are dropped.
func Parse(r io.Reader) (*Message, error) {
	mr, err := mail.CreateReader(r)
	if err != nil {
		return nil, fmt.Errorf("read message: %w", err)
	}
	defer mr.Close()

	msg := &Message{}
	msg.Subject, _ = mr.Header.Subject()
	if from, err := mr.Header.AddressList("From"); err == nil && len(from) > 0 {
		msg.From = from[0].Address
	}

	for {
		p, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read part: %w", err)
		}

		h, ok := p.Header.(*mail.AttachmentHeader)
		if !ok {
			continue
		}
		name, err := h.Filename()
		if err != nil || name == "" {
			continue
		}
		data, err := io.ReadAll(p.Body)
		if err != nil {
			return nil, fmt.Errorf("read attachment %s: %w", name, err)
		}
		if !ocr.Supported(name) && !ocr.IsPDF(name, data) {
			continue
		}
		contentType, _, _ := h.ContentType()
		msg.Attachments = append(msg.Attachments, ingestion.File{
			Name:        name,
			ContentType: contentType,
			Data:        data,
		})
	}
	return msg, nil
}
