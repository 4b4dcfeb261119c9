package gmail

import (
	"context"
	"fmt"
	"time"

	"github.com/mikey/spam-sweeper/internal/core"
	"github.com/mikey/spam-sweeper/internal/utils"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// queryDateLayout is the date form Gmail search queries expect.
const queryDateLayout = "2006/01/02"

// Client is a Gmail implementation of the MailClient interface, bound to one
// authorized credential.
type Client struct {
	service       *gmail.Service
	textProcessor *utils.TextProcessor
	logger        *zap.Logger
	maxResults    int64
}

// NewClient creates a new Gmail client for the given OAuth token
func NewClient(
	ctx context.Context,
	token *oauth2.Token,
	conf *oauth2.Config,
	textProcessor *utils.TextProcessor,
	logger *zap.Logger,
	maxResults int64,
) (*Client, error) {
	httpClient := conf.Client(ctx, token)
	service, err := gmail.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail service: %w", err)
	}

	return &Client{
		service:       service,
		textProcessor: textProcessor,
		logger:        logger,
		maxResults:    maxResults,
	}, nil
}

// FetchByDateRange searches the mailbox with an after:/before: query and
// fetches each hit in full, one round-trip per message. Messages come back in
// provider-supplied order.
func (c *Client) FetchByDateRange(ctx context.Context, start, end time.Time) ([]core.Message, error) {
	query := fmt.Sprintf("after:%s before:%s", start.Format(queryDateLayout), end.Format(queryDateLayout))

	resp, err := c.service.Users.Messages.List("me").
		Q(query).
		MaxResults(c.maxResults).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	c.logger.Debug("Listed messages",
		zap.String("query", query),
		zap.Int("count", len(resp.Messages)))

	messages := make([]core.Message, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		full, err := c.service.Users.Messages.Get("me", m.Id).
			Format("full").
			Context(ctx).
			Do()
		if err != nil {
			return nil, fmt.Errorf("failed to get message %s: %w", m.Id, err)
		}

		msg := core.Message{ID: m.Id}
		if full.Payload != nil {
			msg.Sender = headerValue(full.Payload.Headers, "From")
			msg.Subject = headerValue(full.Payload.Headers, "Subject")
			msg.Body = c.decodeBody(full.Payload)
		}
		messages = append(messages, msg)
	}

	return messages, nil
}

// Trash moves messages to trash one by one, stopping on the first failure.
// The count of messages already trashed is returned either way.
func (c *Client) Trash(ctx context.Context, ids []string) (int, error) {
	count := 0
	for _, id := range ids {
		if _, err := c.service.Users.Messages.Trash("me", id).Context(ctx).Do(); err != nil {
			return count, fmt.Errorf("failed to trash message %s: %w", id, err)
		}
		count++
	}

	c.logger.Info("Trashed messages", zap.Int("count", count))
	return count, nil
}

// headerValue returns the value of the named header, or "" when absent
func headerValue(headers []*gmail.MessagePartHeader, name string) string {
	for _, h := range headers {
		if h.Name == name {
			return h.Value
		}
	}
	return ""
}

// Ensure Client implements core.MailClient
var _ core.MailClient = (*Client)(nil)
