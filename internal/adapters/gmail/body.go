package gmail

import (
	"encoding/base64"

	"google.golang.org/api/gmail/v1"
)

// decodeBody extracts a plain-text body from a message payload. The first
// decodable text/plain part wins and is returned verbatim; failing that, the
// first text/html part is stripped down to its text. As a last resort the
// top-level payload body is decoded and treated as HTML. Parts that fail to
// decode are skipped. With nothing decodable the body is empty.
func (c *Client) decodeBody(payload *gmail.MessagePart) string {
	var firstHTML string
	haveHTML := false

	for _, part := range payload.Parts {
		if part.Body == nil || part.Body.Data == "" {
			continue
		}

		decoded, err := decodePartData(part.Body.Data)
		if err != nil {
			continue
		}

		switch part.MimeType {
		case "text/plain":
			return decoded
		case "text/html":
			if !haveHTML {
				firstHTML = decoded
				haveHTML = true
			}
		}
	}

	if haveHTML {
		return c.textProcessor.StripHTML(firstHTML)
	}

	// Single-part message: the body sits directly on the payload.
	if payload.Body != nil && payload.Body.Data != "" {
		if decoded, err := decodePartData(payload.Body.Data); err == nil {
			return c.textProcessor.StripHTML(decoded)
		}
	}

	return ""
}

// decodePartData decodes the URL-safe base64 body data Gmail returns. The API
// is inconsistent about padding, so both variants are tried.
func decodePartData(data string) (string, error) {
	if b, err := base64.URLEncoding.DecodeString(data); err == nil {
		return string(b), nil
	}
	b, err := base64.RawURLEncoding.DecodeString(data)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
