package eml

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/concierge-hq/concierge/internal/core/domain"
)

func rawEmail(content string) *domain.RawRecord {
	return &domain.RawRecord{
		Provider: domain.ProviderGmail,
		ID:       "msg-1",
		MIMEType: "message/rfc822",
		Content:  []byte(content),
	}
}

func TestExtract_PlainText(t *testing.T) {
	e := New()

	msg := "From: Alice <alice@example.com>\r\n" +
		"Subject: Quarterly update\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"Numbers are up.\r\n"

	out, err := e.Extract(context.Background(), rawEmail(msg))
	require.NoError(t, err)

	assert.Equal(t, "Quarterly update", out.Title)
	assert.Equal(t, "Alice <alice@example.com>", out.Sender)
	assert.Contains(t, out.Content, "Numbers are up.")
}

func TestExtract_MultipartPrefersPlainText(t *testing.T) {
	e := New()

	msg := strings.Join([]string{
		"From: bob@example.com",
		"Subject: Meeting notes",
		`Content-Type: multipart/alternative; boundary="b1"`,
		"",
		"--b1",
		"Content-Type: text/plain",
		"",
		"plain version",
		"--b1",
		"Content-Type: text/html",
		"",
		"<p>html version</p>",
		"--b1--",
		"",
	}, "\r\n")

	out, err := e.Extract(context.Background(), rawEmail(msg))
	require.NoError(t, err)

	assert.Contains(t, out.Content, "plain version")
	assert.NotContains(t, out.Content, "html version")
}

func TestExtract_HTMLOnlyIsStripped(t *testing.T) {
	e := New()

	msg := strings.Join([]string{
		"From: news@example.com",
		"Subject: Newsletter",
		"Content-Type: text/html",
		"",
		"<html><body><h1>Big News</h1><p>Read all about it.</p></body></html>",
		"",
	}, "\r\n")

	out, err := e.Extract(context.Background(), rawEmail(msg))
	require.NoError(t, err)

	assert.Contains(t, out.Content, "Big News")
	assert.Contains(t, out.Content, "Read all about it.")
	assert.NotContains(t, out.Content, "<p>")
}

func TestExtract_NestedMultipart(t *testing.T) {
	e := New()

	inner := strings.Join([]string{
		"--inner",
		"Content-Type: text/plain",
		"",
		"nested text",
		"--inner--",
		"",
	}, "\r\n")

	msg := strings.Join([]string{
		"From: carol@example.com",
		"Subject: Fwd: attachment",
		`Content-Type: multipart/mixed; boundary="outer"`,
		"",
		"--outer",
		`Content-Type: multipart/alternative; boundary="inner"`,
		"",
		inner,
		"--outer--",
		"",
	}, "\r\n")

	out, err := e.Extract(context.Background(), rawEmail(msg))
	require.NoError(t, err)

	assert.Contains(t, out.Content, "nested text")
}

func TestExtract_EncodedSubject(t *testing.T) {
	e := New()

	msg := "From: d@example.com\r\n" +
		"Subject: =?UTF-8?B?SGVsbG8gV8O2cmxk?=\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"body\r\n"

	out, err := e.Extract(context.Background(), rawEmail(msg))
	require.NoError(t, err)

	assert.Equal(t, "Hello Wörld", out.Title)
}

func TestExtract_Malformed(t *testing.T) {
	e := New()

	_, err := e.Extract(context.Background(), rawEmail("not an email"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = e.Extract(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCleanBody_StripsArtifacts(t *testing.T) {
	body := "\uFEFFHello\u200B world\u200C\u200D\n\n\n\n[image: tracking pixel]\nBye"
	out := cleanBody(body)

	assert.NotContains(t, out, "\uFEFF")
	assert.NotContains(t, out, "\u200B")
	assert.NotContains(t, out, "\u200C")
	assert.NotContains(t, out, "\u200D")
	assert.NotContains(t, out, "tracking pixel")
	assert.NotContains(t, out, "\n\n\n")
}
