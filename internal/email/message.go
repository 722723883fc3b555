// Package email isolates the readable body of transaction alert emails and
// extracts structured transaction data from it.
package email

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"
)

var (
	// ErrNoTextContent means the message had no text/plain part to search.
	ErrNoTextContent = errors.New("email has no text content")

	// ErrNoTransactionFound means no extraction pattern matched the body.
	ErrNoTransactionFound = errors.New("no transaction found in email")
)

// Message is the slice of a parsed email this system cares about: the raw
// Date header and the first plain-text body part.
type Message struct {
	DateHeader string
	Body       string
}

// Parse reads a raw RFC 5322 message and pulls out the Date header and the
// first text/plain part. Multipart bodies are walked depth-first; transfer
// encodings are decoded. A missing text part leaves Body empty rather than
// failing, so the caller decides how to treat bodyless mail.
func Parse(raw string) (*Message, error) {
	msg, err := mail.ReadMessage(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("read message: %w", err)
	}

	body, err := plainTextPart(msg.Header.Get("Content-Type"), msg.Header.Get("Content-Transfer-Encoding"), msg.Body)
	if err != nil {
		return nil, err
	}

	return &Message{
		DateHeader: msg.Header.Get("Date"),
		Body:       body,
	}, nil
}

// plainTextPart returns the first text/plain payload reachable from the given
// entity, or "" when there is none.
func plainTextPart(contentType, transferEncoding string, body io.Reader) (string, error) {
	// No Content-Type on a top-level entity means text/plain per RFC 2045.
	if contentType == "" {
		contentType = "text/plain"
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", fmt.Errorf("parse content type %q: %w", contentType, err)
	}

	switch {
	case mediaType == "text/plain":
		data, err := io.ReadAll(decodeTransferEncoding(body, transferEncoding))
		if err != nil {
			return "", fmt.Errorf("read text part: %w", err)
		}
		return string(data), nil

	case strings.HasPrefix(mediaType, "multipart/"):
		boundary := params["boundary"]
		if boundary == "" {
			return "", fmt.Errorf("multipart message without boundary")
		}
		mr := multipart.NewReader(body, boundary)
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				return "", nil
			}
			if err != nil {
				return "", fmt.Errorf("next part: %w", err)
			}
			text, err := plainTextPart(
				part.Header.Get("Content-Type"),
				part.Header.Get("Content-Transfer-Encoding"),
				part,
			)
			if err != nil {
				return "", err
			}
			if text != "" {
				return text, nil
			}
		}

	default:
		return "", nil
	}
}

func decodeTransferEncoding(r io.Reader, encoding string) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, r)
	case "quoted-printable":
		return quotedprintable.NewReader(r)
	default:
		return r
	}
}
