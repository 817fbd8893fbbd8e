package models

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar date format used by forms, filters and storage.
const DateLayout = "2006-01-02"

// TagSeparator joins multi-value fields in storage.
const TagSeparator = ","

type Incident struct {
	ID              int64
	Emitter         string
	Classification  string
	Company         string
	Date            time.Time // calendar day, midnight UTC
	Time            TimeOfDay
	Location        string
	Description     string
	ImmediateAction string
	Employee        string

	// Review annotations. Empty means not yet filled in.
	SSTClass         string
	EnvClass         string
	Opinion          string
	MaintenanceOrder string
	Provenance       string
	Justification    string

	Causes           []string
	UnsafeConditions []string
	UnsafeBehaviors  []string
	Environmental    []string

	CreatedAt time.Time
}

// Review holds the fields a reviewer fills in on an existing incident.
type Review struct {
	SSTClass         string
	EnvClass         string
	Causes           []string
	Opinion          string
	MaintenanceOrder string
	Provenance       string
	Justification    string
	UnsafeConditions []string
	UnsafeBehaviors  []string
	Environmental    []string
	Employee         string
}

// Apply overwrites the incident's annotation fields with the review.
func (r Review) Apply(i *Incident) {
	i.SSTClass = r.SSTClass
	i.EnvClass = r.EnvClass
	i.Causes = r.Causes
	i.Opinion = r.Opinion
	i.MaintenanceOrder = r.MaintenanceOrder
	i.Provenance = r.Provenance
	i.Justification = r.Justification
	i.UnsafeConditions = r.UnsafeConditions
	i.UnsafeBehaviors = r.UnsafeBehaviors
	i.Environmental = r.Environmental
	i.Employee = r.Employee
}

// Input layouts also accept unpadded month, day and minute ("2024-3-10", "8:5").
const (
	dateInputLayout = "2006-1-2"
	timeInputLayout = "15:4"
)

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(dateInputLayout, strings.TrimSpace(s))
}

// TimeOfDay is minutes past midnight.
type TimeOfDay int

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse(timeInputLayout, strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return TimeOfDay(t.Hour()*60 + t.Minute()), nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// SplitTags decodes a stored multi-value field. Tokens are trimmed and empty
// tokens dropped; duplicates are kept.
func SplitTags(raw string) []string {
	if raw == "" {
		return nil
	}
	var tags []string
	for _, tok := range strings.Split(raw, TagSeparator) {
		if tok = strings.TrimSpace(tok); tok != "" {
			tags = append(tags, tok)
		}
	}
	return tags
}

// JoinTags encodes a multi-value field for storage, dropping blank entries.
func JoinTags(tags []string) string {
	clean := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			clean = append(clean, t)
		}
	}
	return strings.Join(clean, TagSeparator)
}
