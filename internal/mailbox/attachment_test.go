package mailbox

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pdfBytes = []byte("%PDF-1.4\nfake schedule body\n%%EOF\n")

func wrap64(data []byte) string {
	enc := base64.StdEncoding.EncodeToString(data)
	var b strings.Builder
	for len(enc) > 20 {
		b.WriteString(enc[:20])
		b.WriteString("\r\n")
		enc = enc[20:]
	}
	b.WriteString(enc)
	return b.String()
}

func email(parts ...string) []byte {
	var b strings.Builder
	b.WriteString("From: transport@example.com\r\n")
	b.WriteString("To: board@example.com\r\n")
	b.WriteString("Subject: =?utf-8?q?Bus_times?=\r\n")
	b.WriteString("Date: Mon, 15 Jan 2024 09:12:00 +0000\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: multipart/mixed; boundary=\"outer\"\r\n\r\n")
	for _, p := range parts {
		b.WriteString("--outer\r\n")
		b.WriteString(p)
		b.WriteString("\r\n")
	}
	b.WriteString("--outer--\r\n")
	return []byte(b.String())
}

func pdfPart(name string) string {
	return "Content-Type: application/pdf; name=\"" + name + "\"\r\n" +
		"Content-Disposition: attachment; filename=\"" + name + "\"\r\n" +
		"Content-Transfer-Encoding: base64\r\n\r\n" +
		wrap64(pdfBytes)
}

const textPart = "Content-Type: text/plain; charset=utf-8\r\n\r\nSee attached."

func TestFindSchedule(t *testing.T) {
	raw := email(textPart, pdfPart("Notes.pdf"), pdfPart("Transport Schedule 150124.pdf"))

	msg, att, err := FindSchedule(raw, "Transport Schedule")
	require.NoError(t, err)
	assert.Equal(t, "Transport Schedule 150124.pdf", att.Filename)
	assert.Equal(t, "application/pdf", att.ContentType)
	assert.Equal(t, pdfBytes, att.Data)
	assert.Equal(t, "Bus times", msg.Subject)
	assert.True(t, msg.Date.Equal(time.Date(2024, 1, 15, 9, 12, 0, 0, time.UTC)))
	assert.Len(t, msg.Attachments, 2)
}

func TestFindSchedule_FirstMatchWins(t *testing.T) {
	raw := email(pdfPart("Transport Schedule 150124.pdf"), pdfPart("Transport Schedule 220124.pdf"))
	_, att, err := FindSchedule(raw, "Transport Schedule")
	require.NoError(t, err)
	assert.Equal(t, "Transport Schedule 150124.pdf", att.Filename)
}

func TestFindSchedule_NoAttachment(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
	}{
		{"text only", email(textPart)},
		{"wrong prefix", email(pdfPart("Minutes 150124.pdf"))},
		{"not a pdf", email("Content-Type: text/csv\r\n" +
			"Content-Disposition: attachment; filename=\"Transport Schedule 150124.csv\"\r\n\r\n" +
			"Time,Vehicle\r\n")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, att, err := FindSchedule(tt.raw, "Transport Schedule")
			assert.ErrorIs(t, err, ErrNoAttachment)
			assert.Nil(t, att)
			assert.NotNil(t, msg)
		})
	}
}

func TestParse_Nested(t *testing.T) {
	inner := "Content-Type: multipart/alternative; boundary=\"inner\"\r\n\r\n" +
		"--inner\r\n" + textPart + "\r\n" +
		"--inner\r\n" + pdfPart("Transport Schedule 150124.pdf") + "\r\n" +
		"--inner--"
	msg, err := Parse(email(inner))
	require.NoError(t, err)
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, pdfBytes, msg.Attachments[0].Data)
}

func TestParse_QuotedPrintableAndNameFallback(t *testing.T) {
	part := "Content-Type: application/pdf; name=\"Transport Schedule 150124.pdf\"\r\n" +
		"Content-Transfer-Encoding: quoted-printable\r\n\r\n" +
		"%PDF=3D1\r\n"
	msg, err := Parse(email(part))
	require.NoError(t, err)
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "Transport Schedule 150124.pdf", msg.Attachments[0].Filename)
	assert.True(t, strings.HasPrefix(string(msg.Attachments[0].Data), "%PDF=1"))
}

func TestParse_Garbage(t *testing.T) {
	_, err := Parse([]byte("no headers here"))
	assert.Error(t, err)
}
