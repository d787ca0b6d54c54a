package model

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Status is the lifecycle state of a contact.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusEnriched   Status = "enriched"
	StatusError      Status = "error"
)

// ErrInvalidTransition is returned when a status change would move backwards.
var ErrInvalidTransition = eris.New("model: invalid status transition")

// Field names an informational contact attribute.
type Field string

const (
	FieldFullName           Field = "full_name"
	FieldFirstName          Field = "first_name"
	FieldLastName           Field = "last_name"
	FieldTitle              Field = "title"
	FieldEmail              Field = "email"
	FieldLinkedInURL        Field = "linkedin_url"
	FieldCompanyName        Field = "company_name"
	FieldCompanyDomain      Field = "company_domain"
	FieldCompanyDescription Field = "company_description"
)

// Fields lists every informational field in export column order.
var Fields = []Field{
	FieldFullName,
	FieldFirstName,
	FieldLastName,
	FieldTitle,
	FieldEmail,
	FieldLinkedInURL,
	FieldCompanyName,
	FieldCompanyDomain,
	FieldCompanyDescription,
}

// RequiredFields must all be present (besides a name) for a contact to count as enriched.
var RequiredFields = []Field{
	FieldEmail,
	FieldLinkedInURL,
	FieldCompanyName,
	FieldCompanyDomain,
	FieldCompanyDescription,
}

// Partial is a set of field values returned by a single provider call.
type Partial map[Field]string

// Contact is one person record moving through enrichment.
type Contact struct {
	ID                 string  `json:"id"`
	FullName           string  `json:"full_name"`
	FirstName          string  `json:"first_name"`
	LastName           string  `json:"last_name"`
	Title              string  `json:"title"`
	Email              string  `json:"email"`
	LinkedInURL        string  `json:"linkedin_url"`
	CompanyName        string  `json:"company_name"`
	CompanyDomain      string  `json:"company_domain"`
	CompanyDescription string  `json:"company_description"`
	Status             Status  `json:"status"`
	EnrichedFields     []Field `json:"enriched_fields"`
	Cost               float64 `json:"cost"`
	Error              string  `json:"error,omitempty"`
}

// NewContact returns a pending contact with no cost and no enriched fields.
func NewContact(id string) Contact {
	return Contact{
		ID:             id,
		Status:         StatusPending,
		EnrichedFields: []Field{},
	}
}

func (c *Contact) ptr(f Field) *string {
	switch f {
	case FieldFullName:
		return &c.FullName
	case FieldFirstName:
		return &c.FirstName
	case FieldLastName:
		return &c.LastName
	case FieldTitle:
		return &c.Title
	case FieldEmail:
		return &c.Email
	case FieldLinkedInURL:
		return &c.LinkedInURL
	case FieldCompanyName:
		return &c.CompanyName
	case FieldCompanyDomain:
		return &c.CompanyDomain
	case FieldCompanyDescription:
		return &c.CompanyDescription
	}
	return nil
}

// Get returns the raw value of a field, or "" for unknown fields.
func (c Contact) Get(f Field) string {
	if p := c.ptr(f); p != nil {
		return *p
	}
	return ""
}

// Set stores a trimmed value for f without recording it as enriched.
// It is meant for ingesting user-supplied data.
func (c *Contact) Set(f Field, value string) {
	if p := c.ptr(f); p != nil {
		*p = strings.TrimSpace(value)
	}
}

// Has reports whether the field holds a non-blank value.
func (c Contact) Has(f Field) bool {
	return strings.TrimSpace(c.Get(f)) != ""
}

// HasName reports whether the contact has a full name or both first and last names.
func (c Contact) HasName() bool {
	return c.Has(FieldFullName) || (c.Has(FieldFirstName) && c.Has(FieldLastName))
}

// HasAnyName reports whether any of the name columns is populated.
func (c Contact) HasAnyName() bool {
	return c.Has(FieldFullName) || c.Has(FieldFirstName) || c.Has(FieldLastName)
}

// HasCompanySignal reports whether a company name or domain is known.
func (c Contact) HasCompanySignal() bool {
	return c.Has(FieldCompanyName) || c.Has(FieldCompanyDomain)
}

// DisplayName is the full name, falling back to "first last".
func (c Contact) DisplayName() string {
	if c.Has(FieldFullName) {
		return strings.TrimSpace(c.FullName)
	}
	return strings.TrimSpace(strings.TrimSpace(c.FirstName) + " " + strings.TrimSpace(c.LastName))
}

// IsComplete reports whether every required field is populated.
func (c Contact) IsComplete() bool {
	if !c.HasName() {
		return false
	}
	for _, f := range RequiredFields {
		if !c.Has(f) {
			return false
		}
	}
	return true
}

// Missing returns the required fields that are still empty.
func (c Contact) Missing() []Field {
	var out []Field
	if !c.HasName() {
		out = append(out, FieldFullName)
	}
	for _, f := range RequiredFields {
		if !c.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

// Fill sets f to value only if f is empty and value is not.
// Existing data always wins over newly fetched data.
func (c *Contact) Fill(f Field, value string) bool {
	p := c.ptr(f)
	if p == nil {
		return false
	}
	value = strings.TrimSpace(value)
	if value == "" || strings.TrimSpace(*p) != "" {
		return false
	}
	*p = value
	c.markEnriched(f)
	return true
}

// Merge fills every field in p and returns the fields that were written,
// in Fields order so that the result is deterministic.
func (c *Contact) Merge(p Partial) []Field {
	var written []Field
	for _, f := range Fields {
		v, ok := p[f]
		if !ok {
			continue
		}
		if c.Fill(f, v) {
			written = append(written, f)
		}
	}
	return written
}

func (c *Contact) markEnriched(f Field) {
	for _, e := range c.EnrichedFields {
		if e == f {
			return
		}
	}
	c.EnrichedFields = append(c.EnrichedFields, f)
}

// AddCost adds a non-negative amount to the running cost.
func (c *Contact) AddCost(usd float64) error {
	if usd < 0 {
		return eris.Errorf("model: negative cost %f", usd)
	}
	c.Cost += usd
	return nil
}

// Transition moves the contact to the next status.
// Allowed: pending -> in-progress | error and in-progress -> in-progress | enriched | error.
func (c *Contact) Transition(to Status) error {
	from := c.Status
	if from == "" {
		from = StatusPending
	}
	ok := false
	switch from {
	case StatusPending:
		ok = to == StatusInProgress || to == StatusError
	case StatusInProgress:
		ok = to == StatusInProgress || to == StatusEnriched || to == StatusError
	}
	if !ok {
		return eris.Wrapf(ErrInvalidTransition, "%s -> %s", from, to)
	}
	c.Status = to
	return nil
}

// Fail marks the contact as errored with the given reason.
func (c *Contact) Fail(reason string) error {
	if err := c.Transition(StatusError); err != nil {
		return err
	}
	c.Error = reason
	return nil
}

// Clone returns a deep copy of c.
func (c Contact) Clone() Contact {
	out := c
	out.EnrichedFields = append([]Field{}, c.EnrichedFields...)
	return out
}
