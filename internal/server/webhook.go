package server

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/servex/v2"
)

const (
	githubSignatureHeader = "X-Hub-Signature-256"
	gitlabTokenHeader     = "X-Gitlab-Token"
)

type refreshResponse struct {
	Status string `json:"status"`
}

// handleWebhook starts a snapshot refresh on a push notification from the VCS.
// The refresh runs in background, a request during a running refresh is ignored.
func (h *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeJSON(w, r, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}
	ctx := servex.NewContext(w, r)

	body, err := ctx.Read()
	if err != nil {
		ctx.BadRequest(err, "failed to read webhook body")
		return
	}

	if err := validateWebhook(h.config.WebhookSecret, body, r.Header); err != nil {
		h.log.Warn("webhook validation failed", "error", err)
		h.writeJSON(w, r, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
		return
	}

	if !h.refreshing.CompareAndSwap(false, true) {
		h.log.Debug("refresh already running, webhook ignored")
		h.writeJSON(w, r, http.StatusAccepted, refreshResponse{Status: "already running"})
		return
	}

	go func() {
		defer h.refreshing.Store(false)
		if err := h.refresh(h.baseContext()); err != nil {
			h.log.Error("webhook refresh failed", "error", err)
			return
		}
		h.log.Info("webhook refresh completed")
	}()

	h.writeJSON(w, r, http.StatusAccepted, refreshResponse{Status: "started"})
}

func (h *Server) baseContext() context.Context {
	if ctx := h.baseCtx.Load(); ctx != nil {
		return *ctx
	}
	return context.Background()
}

// validateWebhook accepts a GitHub HMAC signature or a GitLab secret token.
// An empty secret disables validation.
func validateWebhook(secret string, payload []byte, header http.Header) error {
	if secret == "" {
		return nil
	}

	if signature := header.Get(githubSignatureHeader); signature != "" {
		// GitHub signature format: "sha256=<signature>"
		if !strings.HasPrefix(signature, "sha256=") {
			return errm.New("invalid GitHub signature format")
		}
		expected := strings.TrimPrefix(signature, "sha256=")

		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write(payload)
		calculated := hex.EncodeToString(mac.Sum(nil))

		if !hmac.Equal([]byte(expected), []byte(calculated)) {
			return errm.New("GitHub webhook signature verification failed")
		}
		return nil
	}

	if token := header.Get(gitlabTokenHeader); token != "" {
		if !hmac.Equal([]byte(token), []byte(secret)) {
			return errm.New("invalid GitLab webhook token")
		}
		return nil
	}

	return errm.New("missing webhook signature")
}
