// Package mailbox pulls the schedule PDF out of a raw RFC 822 email.
package mailbox

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"net/textproto"
	"strings"
	"time"
)

const pdfType = "application/pdf"

var ErrNoAttachment = errors.New("email received, no valid attachment found")

// Attachment is a decoded email attachment.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Message is the part of an email the ingester cares about.
type Message struct {
	Date        time.Time // zero when the header is missing or unparsable
	Subject     string
	Attachments []Attachment
}

// Parse reads a raw email and decodes every attachment in it, walking nested
// multipart bodies.
func Parse(raw []byte) (*Message, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("read email: %w", err)
	}

	out := &Message{Subject: decodeHeader(msg.Header.Get("Subject"))}
	if date, err := msg.Header.Date(); err == nil {
		out.Date = date
	}

	header := textproto.MIMEHeader(msg.Header)
	if err := walk(header, msg.Body, out); err != nil {
		return nil, err
	}
	return out, nil
}

// ScheduleAttachment returns the first PDF attachment whose filename starts
// with prefix.
func (m *Message) ScheduleAttachment(prefix string) (*Attachment, error) {
	for i := range m.Attachments {
		a := &m.Attachments[i]
		if a.ContentType == pdfType && strings.HasPrefix(a.Filename, prefix) {
			return a, nil
		}
	}
	return nil, ErrNoAttachment
}

// FindSchedule is Parse followed by ScheduleAttachment.
func FindSchedule(raw []byte, prefix string) (*Message, *Attachment, error) {
	msg, err := Parse(raw)
	if err != nil {
		return nil, nil, err
	}
	att, err := msg.ScheduleAttachment(prefix)
	if err != nil {
		return msg, nil, err
	}
	return msg, att, nil
}

func walk(header textproto.MIMEHeader, body io.Reader, out *Message) error {
	mediaType, params, err := mime.ParseMediaType(header.Get("Content-Type"))
	if err != nil {
		mediaType = "text/plain"
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		boundary := params["boundary"]
		if boundary == "" {
			return fmt.Errorf("multipart body without boundary")
		}
		mr := multipart.NewReader(body, boundary)
		for {
			part, err := mr.NextRawPart()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return fmt.Errorf("read part: %w", err)
			}
			if err := walk(part.Header, part, out); err != nil {
				return err
			}
		}
	}

	filename := attachmentName(header, params)
	if filename == "" {
		return nil
	}
	data, err := io.ReadAll(decodeBody(header.Get("Content-Transfer-Encoding"), body))
	if err != nil {
		return fmt.Errorf("decode attachment %q: %w", filename, err)
	}
	out.Attachments = append(out.Attachments, Attachment{
		Filename:    filename,
		ContentType: mediaType,
		Data:        data,
	})
	return nil
}

// attachmentName prefers the Content-Disposition filename and falls back to
// the Content-Type name parameter.
func attachmentName(header textproto.MIMEHeader, typeParams map[string]string) string {
	if _, params, err := mime.ParseMediaType(header.Get("Content-Disposition")); err == nil {
		if name := params["filename"]; name != "" {
			return decodeHeader(name)
		}
	}
	return decodeHeader(typeParams["name"])
}

func decodeBody(encoding string, body io.Reader) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, body)
	case "quoted-printable":
		return quotedprintable.NewReader(body)
	default:
		return body
	}
}

var wordDecoder = mime.WordDecoder{}

func decodeHeader(s string) string {
	decoded, err := wordDecoder.DecodeHeader(s)
	if err != nil {
		return s
	}
	return decoded
}
