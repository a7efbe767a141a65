package handler

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"credex/internal/application"
	"credex/internal/decision"
	"credex/internal/explanation"
	id "credex/pkg/domain"
	dErrors "credex/pkg/domain-errors"
)

// maxAttributes bounds the request body; applications past this size are
// malformed input, not real applications.
const maxAttributes = 200

// EvaluateRequest is the HTTP request body for POST /decisions/evaluate.
type EvaluateRequest struct {
	ApplicationID string                       `json:"application_id"`
	Attributes    map[string]application.Value `json:"attributes"`
	Languages     []string                     `json:"languages"`
	Style         string                       `json:"style"`

	// Parsed values (populated by Validate)
	parsedApplication application.Application
	parsedStyle       explanation.Style
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *EvaluateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	if len(r.Attributes) > maxAttributes {
		return dErrors.New(dErrors.CodeValidation, "too many attributes")
	}

	appID, err := id.ParseApplicationID(r.ApplicationID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "invalid application_id")
	}

	app, err := application.New(appID, r.Attributes)
	if err != nil {
		return err
	}
	r.parsedApplication = app

	style := explanation.Style(strings.TrimSpace(r.Style))
	if style != "" && !style.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "style must be one of short, formal, advisory")
	}
	r.parsedStyle = style

	return nil
}

// ParsedApplication returns the validated application.
func (r *EvaluateRequest) ParsedApplication() application.Application {
	return r.parsedApplication
}

// AssessOptions returns the validated explanation options.
func (r *EvaluateRequest) AssessOptions() decision.AssessOptions {
	return decision.AssessOptions{Languages: r.Languages, Style: r.parsedStyle}
}

// parseListFilter builds a decision filter from list query parameters.
func parseListFilter(query url.Values) (decision.Filter, error) {
	filter := decision.Filter{Limit: 50}

	if raw := query.Get("application_id"); raw != "" {
		appID, err := id.ParseApplicationID(raw)
		if err != nil {
			return decision.Filter{}, dErrors.Wrap(err, dErrors.CodeValidation, "invalid application_id")
		}
		filter.ApplicationID = appID
	}
	if raw := query.Get("outcome"); raw != "" {
		outcome := decision.Outcome(raw)
		if !outcome.IsValid() {
			return decision.Filter{}, dErrors.New(dErrors.CodeValidation, "outcome must be one of approved, rejected, review")
		}
		filter.Outcome = outcome
	}

	since, until, err := parseWindow(query)
	if err != nil {
		return decision.Filter{}, err
	}
	filter.Since, filter.Until = since, until

	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > 500 {
			return decision.Filter{}, dErrors.New(dErrors.CodeValidation, "limit must be between 1 and 500")
		}
		filter.Limit = limit
	}
	if raw := query.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return decision.Filter{}, dErrors.New(dErrors.CodeValidation, "offset must be non-negative")
		}
		filter.Offset = offset
	}

	return filter, nil
}

// parseWindow reads optional since/until RFC 3339 bounds.
func parseWindow(query url.Values) (time.Time, time.Time, error) {
	var since, until time.Time
	if raw := query.Get("since"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, time.Time{}, dErrors.New(dErrors.CodeValidation, "since must be RFC 3339")
		}
		since = t
	}
	if raw := query.Get("until"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, time.Time{}, dErrors.New(dErrors.CodeValidation, "until must be RFC 3339")
		}
		until = t
	}
	if !since.IsZero() && !until.IsZero() && until.Before(since) {
		return time.Time{}, time.Time{}, dErrors.New(dErrors.CodeValidation, "until must not precede since")
	}
	return since, until, nil
}
