// Package assist asks a language model for job posting content and turns
// the reply into a posting.Suggestion.
package assist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"jobmate/posting-service/internal/posting"
)

// ErrEmptyReply is returned when the model answered with nothing usable.
var ErrEmptyReply = errors.New("assistant returned no JSON object")

// Generator completes a single prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Client implements posting.Assistant.
type Client struct {
	gen    Generator
	policy *bluemonday.Policy
}

// NewClient returns a Client over gen. Every string of a reply is stripped
// of HTML before it reaches a draft.
func NewClient(gen Generator) *Client {
	return &Client{gen: gen, policy: bluemonday.StrictPolicy()}
}

// Suggest implements posting.Assistant.
func (c *Client) Suggest(ctx context.Context, req posting.AssistRequest) (posting.Suggestion, error) {
	raw, err := c.gen.Generate(ctx, BuildPrompt(req))
	if err != nil {
		return posting.Suggestion{}, fmt.Errorf("generate: %w", err)
	}
	return c.Parse(raw, req.Category)
}

type reply struct {
	Description  string          `json:"description"`
	Tasks        []string        `json:"tasks"`
	Requirements []string        `json:"requirements"`
	Benefits     []string        `json:"benefits"`
	Skills       []string        `json:"skills"`
	Languages    []string        `json:"languages"`
	Details      json.RawMessage `json:"details"`
}

// Parse decodes a model reply. Markdown code fences and chatter around the
// JSON object are tolerated. Details are decoded as the variant of category;
// details that do not decode are dropped.
func (c *Client) Parse(raw string, category posting.Category) (posting.Suggestion, error) {
	body := extractJSON(raw)
	if body == "" {
		return posting.Suggestion{}, ErrEmptyReply
	}
	var r reply
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		return posting.Suggestion{}, fmt.Errorf("decode reply: %w", err)
	}

	s := posting.Suggestion{
		Description:  c.clean(r.Description),
		Tasks:        c.cleanAll(r.Tasks),
		Requirements: c.cleanAll(r.Requirements),
		Benefits:     c.cleanAll(r.Benefits),
		Skills:       c.cleanAll(r.Skills),
		Languages:    c.cleanAll(r.Languages),
	}
	if len(r.Details) > 0 && string(r.Details) != "null" {
		s.Details = c.details(r.Details, category)
	}
	return s, nil
}

func (c *Client) details(data json.RawMessage, category posting.Category) posting.CategoryDetails {
	switch category {
	case posting.CategoryInternship:
		var d posting.InternshipDetails
		if json.Unmarshal(data, &d) != nil {
			return nil
		}
		d.StudyFields = c.cleanAll(d.StudyFields)
		return d
	case posting.CategoryApprenticeship:
		var d posting.ApprenticeshipDetails
		if json.Unmarshal(data, &d) != nil {
			return nil
		}
		d.Profession = c.clean(d.Profession)
		d.SchoolCertificate = c.clean(d.SchoolCertificate)
		d.VocationalSchool = c.clean(d.VocationalSchool)
		return d
	case posting.CategoryProfessional:
		var d posting.ProfessionalDetails
		if json.Unmarshal(data, &d) != nil {
			return nil
		}
		d.CareerLevel = c.clean(d.CareerLevel)
		return d
	}
	return nil
}

// clean strips markup and undoes the entity escaping of the policy so plain
// text like "R&D" survives unchanged.
func (c *Client) clean(s string) string {
	return strings.TrimSpace(html.UnescapeString(c.policy.Sanitize(s)))
}

func (c *Client) cleanAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if v := c.clean(s); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func extractJSON(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < start {
		return ""
	}
	return raw[start : end+1]
}
