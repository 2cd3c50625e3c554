package chunking

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/corpus-core/internal/core/domain"
)

func TestExtractEntities_IDs(t *testing.T) {
	text := "Employee record: emp_id=123, user_id: 456. Ticket ID# ABC9."
	entities := ExtractEntities(text)

	assert.Contains(t, entities.IDs, "123")
	assert.Contains(t, entities.IDs, "456")
	assert.Contains(t, entities.IDs, "ABC9")
}

func TestExtractEntities_ContactDetails(t *testing.T) {
	text := "You can reach Jane Doe at jane.doe@example.com or 555-123-4567."
	entities := ExtractEntities(text)

	assert.Equal(t, []string{"jane.doe@example.com"}, entities.Emails)
	assert.Len(t, entities.PhoneNumbers, 1)
	assert.Equal(t, []string{"Jane Doe"}, entities.Names)
}

func TestExtractEntities_Amounts(t *testing.T) {
	text := "Base salary $85,000.00 plus a bonus of 5,000 USD."
	entities := ExtractEntities(text)

	assert.Contains(t, entities.Amounts, "85,000.00")
	assert.Contains(t, entities.Amounts, "5,000")
}

func TestExtractEntities_Dates(t *testing.T) {
	text := "Effective 2024-03-01, replacing the 01/15/2023 policy from Jan 2023."
	entities := ExtractEntities(text)

	assert.Contains(t, entities.Dates, "2024-03-01")
	assert.Contains(t, entities.Dates, "01/15/2023")
	assert.Contains(t, entities.Dates, "Jan 2023")
}

func TestExtractEntities_Deduplicates(t *testing.T) {
	text := "id=7 mentioned twice: id=7. Alice Smith met Alice Smith."
	entities := ExtractEntities(text)

	assert.Equal(t, []string{"7"}, entities.IDs)
	assert.Equal(t, []string{"Alice Smith"}, entities.Names)
}

func TestClassifyDataTypes_SalaryRequiresAmount(t *testing.T) {
	// Keyword without a co-occurring amount must not fire.
	entities := ExtractEntities("The salary review meeting is on Monday.")
	tags := ClassifyDataTypes("The salary review meeting is on Monday.", entities)
	assert.NotContains(t, tags, "salary_data")

	text := "John Smith salary is $85,000 per year."
	entities = ExtractEntities(text)
	tags = ClassifyDataTypes(text, entities)
	assert.Contains(t, tags, "salary_data")
}

func TestClassifyDataTypes_Multiple(t *testing.T) {
	text := "Employee Maria Garcia (emp_id=42) status: completed. Contact maria@corp.com."
	entities := ExtractEntities(text)
	tags := ClassifyDataTypes(text, entities)

	assert.Contains(t, tags, "contact_info")
	assert.Contains(t, tags, "status_data")
	assert.Contains(t, tags, "personnel_data")
}

func TestClassifyDataTypes_GeneralFallback(t *testing.T) {
	tags := ClassifyDataTypes("nothing of note here", domain.Entities{})
	assert.Equal(t, []string{"general"}, tags)
}

func TestDetectTemporal_CurrentWinsOverHistorical(t *testing.T) {
	// Both signals present: the current keyword's weight wins outright.
	info := DetectTemporal("The current salary replaces the previous figure.")

	assert.True(t, info.IsCurrent)
	assert.True(t, info.IsHistorical)
	assert.InDelta(t, 0.9, info.RecencyScore, 1e-9)
	assert.Equal(t, domain.ConfidenceHigh, info.Confidence)
}

func TestDetectTemporal_HistoricalOnly(t *testing.T) {
	info := DetectTemporal("This document is archived.")

	assert.False(t, info.IsCurrent)
	assert.True(t, info.IsHistorical)
	assert.InDelta(t, 0.1, info.RecencyScore, 1e-9)
	assert.Equal(t, domain.ConfidenceMedium, info.Confidence)
}

func TestDetectTemporal_NeutralDefault(t *testing.T) {
	info := DetectTemporal("The quarterly report contains twelve sections.")

	assert.False(t, info.HasIndicator)
	assert.InDelta(t, 0.5, info.RecencyScore, 1e-9)
	assert.Equal(t, domain.ConfidenceLow, info.Confidence)
}

func TestDetectTemporal_MaxOfCurrentWeights(t *testing.T) {
	// "effective" (0.7) and "latest" (0.9): the highest weight sticks.
	info := DetectTemporal("Effective immediately, this is the latest plan.")
	assert.InDelta(t, 0.9, info.RecencyScore, 1e-9)
}

func TestDetectContentType(t *testing.T) {
	cases := []struct {
		name string
		text string
		want string
	}{
		{"heading", "## Compensation Policy", domain.ContentTypeHeading},
		{"list", "- first item\n- second item", domain.ContentTypeList},
		{"table", "| name | salary | team |", domain.ContentTypeTable},
		{"code", "```go\nfunc main() {}\n```", domain.ContentTypeCode},
		{"paragraph", "Plain prose without structure.", domain.ContentTypeParagraph},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DetectContentType(tc.text))
		})
	}
}

func TestExtract_FullPass(t *testing.T) {
	text := "Current salary for Bob Jones (emp_id=9) is $95,000."
	meta := Extract(text)

	assert.Equal(t, domain.ContentTypeParagraph, meta.ContentType)
	assert.Contains(t, meta.DataTypes, "salary_data")
	assert.Contains(t, meta.Entities.IDs, "9")
	assert.True(t, meta.Temporal.IsCurrent)
	assert.InDelta(t, 0.9, meta.Temporal.RecencyScore, 1e-9)
}
