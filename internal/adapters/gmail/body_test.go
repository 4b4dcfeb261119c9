package gmail

import (
	"encoding/base64"
	"testing"

	"github.com/mikey/spam-sweeper/internal/utils"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	gmailapi "google.golang.org/api/gmail/v1"
)

func newTestClient() *Client {
	logger := zap.NewNop()
	return &Client{
		textProcessor: utils.NewTextProcessor(logger),
		logger:        logger,
	}
}

func encodePart(s string) string {
	return base64.URLEncoding.EncodeToString([]byte(s))
}

func TestDecodeBodyPrefersPlainText(t *testing.T) {
	payload := &gmailapi.MessagePart{
		Parts: []*gmailapi.MessagePart{
			{MimeType: "text/html", Body: &gmailapi.MessagePartBody{Data: encodePart("<p>html body</p>")}},
			{MimeType: "text/plain", Body: &gmailapi.MessagePartBody{Data: encodePart("plain body")}},
		},
	}

	assert.Equal(t, "plain body", newTestClient().decodeBody(payload))
}

func TestDecodeBodyStripsHTMLFallback(t *testing.T) {
	payload := &gmailapi.MessagePart{
		Parts: []*gmailapi.MessagePart{
			{MimeType: "text/html", Body: &gmailapi.MessagePartBody{
				Data: encodePart("<html><head><style>p{}</style></head><body><p>Buy <b>now</b></p></body></html>"),
			}},
		},
	}

	assert.Equal(t, "Buy now", newTestClient().decodeBody(payload))
}

func TestDecodeBodyTopLevelPayload(t *testing.T) {
	payload := &gmailapi.MessagePart{
		Body: &gmailapi.MessagePartBody{Data: encodePart("<p>single part</p>")},
	}

	assert.Equal(t, "single part", newTestClient().decodeBody(payload))
}

func TestDecodeBodySkipsUndecodableParts(t *testing.T) {
	payload := &gmailapi.MessagePart{
		Parts: []*gmailapi.MessagePart{
			{MimeType: "text/plain", Body: &gmailapi.MessagePartBody{Data: "!!!not base64!!!"}},
			{MimeType: "text/plain", Body: &gmailapi.MessagePartBody{Data: encodePart("readable")}},
		},
	}

	assert.Equal(t, "readable", newTestClient().decodeBody(payload))
}

func TestDecodeBodyEmpty(t *testing.T) {
	assert.Equal(t, "", newTestClient().decodeBody(&gmailapi.MessagePart{}))
}

func TestDecodePartDataRawEncoding(t *testing.T) {
	// No padding
	data := base64.RawURLEncoding.EncodeToString([]byte("hello"))
	got, err := decodePartData(data)
	assert.NoError(t, err)
	assert.Equal(t, "hello", got)
}
