package handler

import (
	"fmt"
	"strings"

	"credex/internal/application"
	"credex/internal/decision"
	"credex/internal/explanation"
	"credex/internal/whatif"
	id "credex/pkg/domain"
	dErrors "credex/pkg/domain-errors"
)

const (
	maxAttributes = 200
	maxChanges    = 50
)

// SimulateRequest is the HTTP request body for POST /whatif/simulate.
type SimulateRequest struct {
	ApplicationID string                       `json:"application_id"`
	Attributes    map[string]application.Value `json:"attributes"`
	Changes       map[string]application.Value `json:"changes"`
	Languages     []string                     `json:"languages"`
	Style         string                       `json:"style"`

	parsedApplication application.Application
	parsedStyle       explanation.Style
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *SimulateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	app, style, err := parseBase(r.ApplicationID, r.Attributes, r.Style)
	if err != nil {
		return err
	}
	if err := validateChanges(r.Changes); err != nil {
		return err
	}
	r.parsedApplication = app
	r.parsedStyle = style
	return nil
}

// ParsedApplication returns the validated baseline application.
func (r *SimulateRequest) ParsedApplication() application.Application {
	return r.parsedApplication
}

// AssessOptions returns the validated explanation options.
func (r *SimulateRequest) AssessOptions() decision.AssessOptions {
	return decision.AssessOptions{Languages: r.Languages, Style: r.parsedStyle}
}

// BatchRequest is the HTTP request body for POST /whatif/batch.
type BatchRequest struct {
	ApplicationID string                       `json:"application_id"`
	Attributes    map[string]application.Value `json:"attributes"`
	Scenarios     []ScenarioRequest            `json:"scenarios"`
	Languages     []string                     `json:"languages"`
	Style         string                       `json:"style"`

	parsedApplication application.Application
	parsedStyle       explanation.Style
}

// ScenarioRequest names one set of changes within a batch.
type ScenarioRequest struct {
	Name    string                       `json:"name"`
	Changes map[string]application.Value `json:"changes"`
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *BatchRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	app, style, err := parseBase(r.ApplicationID, r.Attributes, r.Style)
	if err != nil {
		return err
	}
	if len(r.Scenarios) == 0 {
		return dErrors.New(dErrors.CodeValidation, "at least one scenario is required")
	}
	seen := make(map[string]bool, len(r.Scenarios))
	for i := range r.Scenarios {
		scenario := &r.Scenarios[i]
		scenario.Name = strings.TrimSpace(scenario.Name)
		if scenario.Name == "" {
			return dErrors.New(dErrors.CodeValidation, "scenario name is required")
		}
		if seen[scenario.Name] {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("duplicate scenario name %q", scenario.Name))
		}
		seen[scenario.Name] = true
		if err := validateChanges(scenario.Changes); err != nil {
			return err
		}
	}
	r.parsedApplication = app
	r.parsedStyle = style
	return nil
}

// ParsedApplication returns the validated baseline application.
func (r *BatchRequest) ParsedApplication() application.Application {
	return r.parsedApplication
}

// ParsedScenarios returns the validated scenarios in request order.
func (r *BatchRequest) ParsedScenarios() []whatif.Scenario {
	scenarios := make([]whatif.Scenario, len(r.Scenarios))
	for i, scenario := range r.Scenarios {
		scenarios[i] = whatif.Scenario{Name: scenario.Name, Deltas: scenario.Changes}
	}
	return scenarios
}

// AssessOptions returns the validated explanation options.
func (r *BatchRequest) AssessOptions() decision.AssessOptions {
	return decision.AssessOptions{Languages: r.Languages, Style: r.parsedStyle}
}

func parseBase(rawAppID string, attrs map[string]application.Value, rawStyle string) (application.Application, explanation.Style, error) {
	if len(attrs) > maxAttributes {
		return application.Application{}, "", dErrors.New(dErrors.CodeValidation, "too many attributes")
	}
	appID, err := id.ParseApplicationID(rawAppID)
	if err != nil {
		return application.Application{}, "", dErrors.Wrap(err, dErrors.CodeValidation, "invalid application_id")
	}
	app, err := application.New(appID, attrs)
	if err != nil {
		return application.Application{}, "", err
	}
	style := explanation.Style(strings.TrimSpace(rawStyle))
	if style != "" && !style.IsValid() {
		return application.Application{}, "", dErrors.New(dErrors.CodeValidation, "style must be one of short, formal, advisory")
	}
	return app, style, nil
}

func validateChanges(changes map[string]application.Value) error {
	if len(changes) == 0 {
		return dErrors.New(dErrors.CodeValidation, "changes must not be empty")
	}
	if len(changes) > maxChanges {
		return dErrors.New(dErrors.CodeValidation, "too many changes")
	}
	for name, value := range changes {
		if name == "" {
			return dErrors.New(dErrors.CodeValidation, "change attribute name cannot be empty")
		}
		if value.IsZero() {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("change %q has no value", name))
		}
	}
	return nil
}
