package httpserver

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/mikey/spam-sweeper/internal/adapters/xlsx"
	"github.com/mikey/spam-sweeper/internal/core"
	"golang.org/x/oauth2"
)

// Home returns the service banner
func (s *Server) Home(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message":   "Mailbox spam sweeper - authorize to begin",
		"next_step": "POST /authorize",
	})
}

// Authorize redirects the browser to the provider's consent screen
func (s *Server) Authorize(c *fiber.Ctx) error {
	sess, err := s.sessions.Get(c)
	if err != nil {
		return s.fail(c, err)
	}

	state, err := generateState()
	if err != nil {
		return s.fail(c, err)
	}
	sess.Set(sessionKeyOAuthState, state)
	if err := sess.Save(); err != nil {
		return s.fail(c, err)
	}

	url := s.oauthConf.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
		oauth2.SetAuthURLParam("include_granted_scopes", "true"))
	return c.Redirect(url, fiber.StatusSeeOther)
}

// Callback completes the authorization: it exchanges the code for a credential
// and stores it in the session. The cache is untouched.
func (s *Server) Callback(c *fiber.Ctx) error {
	sess, err := s.sessions.Get(c)
	if err != nil {
		return s.fail(c, err)
	}

	if errParam := c.Query("error"); errParam != "" {
		return s.fail(c, core.NewValidationError("authorization refused: %s", errParam))
	}

	code := c.Query("code")
	if code == "" {
		return s.fail(c, core.NewValidationError("missing authorization code"))
	}

	wantState, _ := sess.Get(sessionKeyOAuthState).(string)
	if wantState == "" || c.Query("state") != wantState {
		return s.fail(c, core.NewValidationError("authorization state mismatch"))
	}
	sess.Delete(sessionKeyOAuthState)

	token, err := s.oauthConf.Exchange(c.Context(), code)
	if err != nil {
		return s.fail(c, core.NewUpstreamError("token exchange failed", err))
	}

	if err := s.storeCredentials(sess, token); err != nil {
		return s.fail(c, err)
	}

	return c.JSON(fiber.Map{
		"status":    "success",
		"message":   "Authorization successful",
		"next_step": "POST /fetch-emails with start_date and end_date",
	})
}

// FetchEmails fetches the date window, classifies every message, and caches
// the labelled result set under the session's owner ID
func (s *Server) FetchEmails(c *fiber.Ctx) error {
	sess, err := s.sessions.Get(c)
	if err != nil {
		return s.fail(c, err)
	}

	mail, err := s.mailClient(c, sess)
	if err != nil {
		return s.fail(c, err)
	}

	ownerID, err := s.ensureOwnerID(sess)
	if err != nil {
		return s.fail(c, err)
	}

	start, err := core.ParseDate(c.FormValue("start_date"))
	if err != nil {
		return s.fail(c, err)
	}
	end, err := core.ParseDate(c.FormValue("end_date"))
	if err != nil {
		return s.fail(c, err)
	}

	summary, err := s.service.DetectSpam(c.Context(), mail, ownerID, start, end)
	if err != nil {
		return s.fail(c, err)
	}

	message := fmt.Sprintf("Classified %d emails", summary.Total)
	if summary.Total == 0 {
		message = "No emails found for this date range"
	}

	return c.JSON(fiber.Map{
		"status":   "success",
		"message":  message,
		"total":    summary.Total,
		"spam":     summary.Spam,
		"not_spam": summary.NotSpam,
		"date_range": fmt.Sprintf("%s to %s",
			start.Format(core.DisplayDateLayout),
			end.Format(core.DisplayDateLayout)),
	})
}

// DownloadResults streams the live result set as an xlsx attachment
func (s *Server) DownloadResults(c *fiber.Ctx) error {
	sess, err := s.sessions.Get(c)
	if err != nil {
		return s.fail(c, err)
	}

	entry, err := s.service.Results(c.Context(), s.ownerID(sess))
	if err != nil {
		return s.fail(c, err)
	}

	data, err := s.codec.Export(entry.Messages)
	if err != nil {
		return s.fail(c, err)
	}

	c.Set(fiber.HeaderContentType, xlsx.ContentType)
	c.Set(fiber.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", xlsx.Filename(entry.Provenance)))
	return c.Send(data)
}

// UploadCorrections replaces the cached result set with a user-corrected
// spreadsheet
func (s *Server) UploadCorrections(c *fiber.Ctx) error {
	sess, err := s.sessions.Get(c)
	if err != nil {
		return s.fail(c, err)
	}

	header, err := c.FormFile("file")
	if err != nil {
		return s.fail(c, core.NewValidationError("missing file upload"))
	}
	if !strings.HasSuffix(strings.ToLower(header.Filename), ".xlsx") {
		return s.fail(c, core.NewValidationError("please upload an .xlsx file"))
	}

	ownerID := s.ownerID(sess)
	if ownerID == "" {
		return s.fail(c, core.ErrNotAuthenticated)
	}

	file, err := header.Open()
	if err != nil {
		return s.fail(c, core.NewValidationError("failed to read upload: %v", err))
	}
	defer file.Close()

	messages, err := s.codec.Import(file)
	if err != nil {
		return s.fail(c, err)
	}

	summary, err := s.service.ApplyCorrections(c.Context(), ownerID, messages)
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(fiber.Map{
		"status":   "success",
		"message":  fmt.Sprintf("Applied corrections for %d emails", summary.Total),
		"total":    summary.Total,
		"spam":     summary.Spam,
		"not_spam": summary.NotSpam,
		"source":   summary.Source,
	})
}

// MoveToTrash trashes every message whose prediction is spam
func (s *Server) MoveToTrash(c *fiber.Ctx) error {
	sess, err := s.sessions.Get(c)
	if err != nil {
		return s.fail(c, err)
	}

	mail, err := s.mailClient(c, sess)
	if err != nil {
		return s.fail(c, err)
	}

	moved, provenance, err := s.service.TrashSpam(c.Context(), mail, s.ownerID(sess))
	if err != nil {
		return s.fail(c, err)
	}

	message := "No spam emails to move"
	if moved > 0 {
		message = fmt.Sprintf("%d mails have been moved to trash", moved)
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"moved":   moved,
		"message": message,
		"source":  provenance,
	})
}

// SpamSummary reports the current counts without mutating anything beyond
// expiry-driven eviction
func (s *Server) SpamSummary(c *fiber.Ctx) error {
	sess, err := s.sessions.Get(c)
	if err != nil {
		return s.fail(c, err)
	}

	entry, err := s.service.Results(c.Context(), s.ownerID(sess))
	if err != nil {
		return c.JSON(fiber.Map{
			"count":  0,
			"total":  0,
			"source": core.ProvenanceModel,
		})
	}

	summary := core.Summarize(entry.Messages, entry.Provenance)
	return c.JSON(fiber.Map{
		"count":    summary.Spam,
		"total":    summary.Total,
		"not_spam": summary.NotSpam,
		"source":   summary.Source,
	})
}

// CacheStats sweeps the cache and reports what is left
func (s *Server) CacheStats(c *fiber.Ctx) error {
	if err := s.cache.Sweep(c.Context()); err != nil {
		return s.fail(c, err)
	}

	entries := s.cache.Entries(c.Context())
	now := time.Now()
	totalBytes := 0

	stats := make([]fiber.Map, 0, len(entries))
	for _, entry := range entries {
		if encoded, err := json.Marshal(entry.Messages); err == nil {
			totalBytes += len(encoded)
		}
		owner := entry.OwnerID
		if len(owner) > 8 {
			owner = owner[:8] + "..."
		}
		stats = append(stats, fiber.Map{
			"user_id":            owner,
			"email_count":        len(entry.Messages),
			"source":             entry.Provenance,
			"expires_in_minutes": math.Round(entry.ExpiresAt.Sub(now).Minutes()*10) / 10,
		})
	}

	return c.JSON(fiber.Map{
		"cached_users":    len(entries),
		"total_memory_kb": math.Round(float64(totalBytes)/1024*100) / 100,
		"total_memory_mb": math.Round(float64(totalBytes)/(1024*1024)*100) / 100,
		"cache_entries":   stats,
	})
}

// DebugSession projects the session's keys without mutating it
func (s *Server) DebugSession(c *fiber.Ctx) error {
	sess, err := s.sessions.Get(c)
	if err != nil {
		return s.fail(c, err)
	}

	ownerID := s.ownerID(sess)
	display := "None"
	if len(ownerID) > 8 {
		display = ownerID[:8] + "..."
	}

	_, hasCredentials := sess.Get(sessionKeyCredentials).(string)
	return c.JSON(fiber.Map{
		"session_keys":    sess.Keys(),
		"has_credentials": hasCredentials,
		"has_user_id":     ownerID != "",
		"user_id":         display,
	})
}

// Logout drops the owner's cache entry and destroys the session
func (s *Server) Logout(c *fiber.Ctx) error {
	sess, err := s.sessions.Get(c)
	if err != nil {
		return s.fail(c, err)
	}

	if ownerID := s.ownerID(sess); ownerID != "" {
		if err := s.service.Forget(c.Context(), ownerID); err != nil {
			return s.fail(c, err)
		}
	}

	if err := sess.Destroy(); err != nil {
		return s.fail(c, err)
	}

	return c.Redirect("/", fiber.StatusSeeOther)
}
