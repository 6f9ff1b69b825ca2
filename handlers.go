package main

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

func (s *Service) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "not found", nil)
		return
	}
	writeHTML(w, http.StatusOK, renderFormPage(""))
}

func (s *Service) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	count, err := s.vault.Count()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load vault state", nil)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"vault_entries":     count,
		"vault_ttl_seconds": s.cfg.VaultTTLSeconds,
		"analysis_base_url": s.cfg.AnalysisBaseURL,
	})
}

// handleCredentials validates the submitted bundle, writes it to the vault
// under its derived locator (exactly one write; resubmitting for the same
// instance URL overwrites) and binds the browser session to the locator.
func (s *Service) handleCredentials(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeHTML(w, http.StatusBadRequest, renderFormPage("That submission didn't parse. Try again."))
		return
	}

	bundle := CredentialBundle{
		BaseURL:      strings.TrimSpace(r.PostFormValue("instance_url")),
		ClientID:     strings.TrimSpace(r.PostFormValue("client_id")),
		ClientSecret: strings.TrimSpace(r.PostFormValue("client_secret")),
	}

	if err := s.validate.Struct(bundle); err != nil {
		var invalid validator.ValidationErrors
		message := "Those credentials don't look right."
		if errors.As(err, &invalid) && len(invalid) > 0 {
			message = validationMessage(invalid[0])
		}
		writeHTML(w, http.StatusUnprocessableEntity, renderFormPage(message))
		return
	}

	locator := deriveLocator(bundle.BaseURL)
	if err := s.vault.Put(locator, bundle, s.vaultTTL()); err != nil {
		logError("credentials.vault_write_failed", "locator", locator, "error", err)
		writeHTML(w, http.StatusInternalServerError, renderFormPage("Couldn't stash your credentials. Try again in a moment."))
		return
	}

	logInfo("credentials.stored",
		"locator", locator,
		"base_url", bundle.BaseURL,
		"client_id", maskSecret(bundle.ClientID),
	)

	http.SetCookie(w, s.sessions.Encode(locator))
	http.Redirect(w, r, "/roast", http.StatusSeeOther)
}

func validationMessage(fieldError validator.FieldError) string {
	switch fieldError.Field() {
	case "BaseURL":
		return "The instance URL needs to be a full URL, e.g. https://acme.looker.com."
	case "ClientID":
		return "The client ID should be exactly 20 characters."
	case "ClientSecret":
		return "The client secret should be exactly 24 characters."
	default:
		return "Those credentials don't look right."
	}
}

// handleRoast serves the roast page. Without a live session (including the
// expected case where the cookie outlived the vault TTL) the user goes back
// to the form.
func (s *Service) handleRoast(w http.ResponseWriter, r *http.Request) {
	if _, err := s.requireSession(r); err != nil {
		if errors.Is(err, errCredentialsNotFound) {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to resolve session", nil)
		return
	}
	writeHTML(w, http.StatusOK, roastPageHTML)
}

// handleRoastStream runs the roast for one SSE connection: seed the opening
// script, fire the three stat fetches, then drain the pacing queue until
// the client goes away. The engine and its queue are scoped to this request.
func (s *Service) handleRoastStream(w http.ResponseWriter, r *http.Request) {
	bundle, err := s.requireSession(r)
	if err != nil {
		if errors.Is(err, errCredentialsNotFound) {
			writeError(w, http.StatusUnauthorized, "not authenticated", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to resolve session", nil)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported", nil)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	_, _ = fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	engine := NewRoastEngine(
		time.Duration(s.cfg.TypingBaseMs)*time.Millisecond,
		time.Duration(s.cfg.TypingPerCharMs)*time.Millisecond,
		newSSESink(w, flusher),
	)
	engine.AppendBatch(initialMessages())

	ctx := r.Context()
	launchStatFetches(ctx, engine, s.stats, *bundle)

	logInfo("roast.stream.start", "base_url", bundle.BaseURL)
	engine.Run(ctx)
	logInfo("roast.stream.end", "base_url", bundle.BaseURL)
}

// handleStatsProxy is the thin per-stat proxy: resolve the session's
// credentials, forward one request to the analysis service, return the
// graded payload untouched.
func (s *Service) handleStatsProxy(w http.ResponseWriter, r *http.Request) {
	route := strings.Trim(strings.TrimPrefix(r.URL.Path, "/stats/"), "/")

	known := false
	for _, candidate := range statRoutes() {
		if route == candidate {
			known = true
			break
		}
	}
	if !known {
		writeError(w, http.StatusNotFound, "unknown stat route", nil)
		return
	}

	bundle, err := s.requireSession(r)
	if err != nil {
		if errors.Is(err, errCredentialsNotFound) {
			writeAPIError(w, unauthorized("not authenticated", nil))
			return
		}
		writeAPIError(w, internalServerError("failed to resolve session", nil))
		return
	}

	raw, err := s.stats.FetchRaw(route, *bundle)
	if err != nil {
		logWarn("stats.proxy_failed", "stat", route, "error", err)
		writeAPIError(w, badGateway("analysis service request failed", err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}
