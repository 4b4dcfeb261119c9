package httpserver

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/google/uuid"
	"github.com/mikey/spam-sweeper/internal/adapters/gmail"
	"github.com/mikey/spam-sweeper/internal/core"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// Session keys.
const (
	sessionKeyCredentials = "credentials"
	sessionKeyOwnerID     = "user_id"
	sessionKeyOAuthState  = "oauth_state"
)

// generateState creates a random value binding the consent redirect to this
// session.
func generateState() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// ownerID returns the session's owner ID, or "" when none was issued yet
func (s *Server) ownerID(sess *session.Session) string {
	if v, ok := sess.Get(sessionKeyOwnerID).(string); ok {
		return v
	}
	return ""
}

// ensureOwnerID returns the session's owner ID, minting one when absent
func (s *Server) ensureOwnerID(sess *session.Session) (string, error) {
	if id := s.ownerID(sess); id != "" {
		return id, nil
	}
	id := uuid.NewString()
	sess.Set(sessionKeyOwnerID, id)
	if err := sess.Save(); err != nil {
		return "", fmt.Errorf("failed to save session: %w", err)
	}
	return id, nil
}

// storeCredentials serializes the token into the session
func (s *Server) storeCredentials(sess *session.Session, token *oauth2.Token) error {
	raw, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}
	sess.Set(sessionKeyCredentials, string(raw))
	return sess.Save()
}

// mailClient builds a Gmail client from the session's credential. An expired
// access token is refreshed in place when a refresh token is present;
// otherwise the caller gets ErrNotAuthenticated and the user must re-authorize.
func (s *Server) mailClient(c *fiber.Ctx, sess *session.Session) (core.MailClient, error) {
	raw, ok := sess.Get(sessionKeyCredentials).(string)
	if !ok || raw == "" {
		return nil, core.ErrNotAuthenticated
	}

	var token oauth2.Token
	if err := json.Unmarshal([]byte(raw), &token); err != nil {
		return nil, core.ErrNotAuthenticated
	}

	fresh, err := s.oauthConf.TokenSource(c.Context(), &token).Token()
	if err != nil {
		s.logger.Debug("Credential refresh failed", zap.Error(err))
		return nil, core.ErrNotAuthenticated
	}

	if fresh.AccessToken != token.AccessToken {
		if err := s.storeCredentials(sess, fresh); err != nil {
			return nil, err
		}
		s.logger.Debug("Refreshed access token in session")
	}

	return gmail.NewClient(c.Context(), fresh, s.oauthConf, s.textProcessor, s.logger, s.maxResults)
}
