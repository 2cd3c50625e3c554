// Package chunking splits document text into token-bounded chunks and
// extracts the metadata used for conflict-aware retrieval: entities,
// data-type tags, temporal recency and content structure.
//
// Everything in this package is pure: no I/O, no shared state. Each rule
// lives in a table so it can be tested on its own.
package chunking

import (
	"regexp"
	"strings"

	"github.com/custodia-labs/corpus-core/internal/core/domain"
)

// Numeric ID patterns. The capture group is the extracted value.
var idPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bid[=:]\s*(\d+)\b`),
	regexp.MustCompile(`(?i)\bemp_id[=:]\s*(\d+)\b`),
	regexp.MustCompile(`(?i)\bemployee_id[=:]\s*(\d+)\b`),
	regexp.MustCompile(`(?i)\buser_id[=:]\s*(\d+)\b`),
	regexp.MustCompile(`(?i)\bproject_id[=:]\s*(\d+)\b`),
	regexp.MustCompile(`(?i)\bproduct_id[=:]\s*(\d+)\b`),
	regexp.MustCompile(`\bID[:#]\s*(\w+)\b`),
}

var emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

// NANP-style phone numbers, with optional +1 prefix and separators.
var phonePattern = regexp.MustCompile(`\b(?:\+?1[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}\b`)

// Monetary amounts: $100, 150 USD, USD 200, 99 dollars.
var amountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\$\s*(\d+(?:,\d{3})*(?:\.\d{2})?)`),
	regexp.MustCompile(`(?i)(\d+(?:,\d{3})*(?:\.\d{2})?)\s*(?:USD|dollars?)`),
	regexp.MustCompile(`(?i)(?:USD)\s*(\d+(?:,\d{3})*(?:\.\d{2})?)`),
}

// Dates: ISO, US slash form, and month-name forms.
var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`),
	regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{4}\b`),
	regexp.MustCompile(`(?i)\b(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+\d{4}\b`),
	regexp.MustCompile(`(?i)\b\d{1,2}\s+(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+\d{4}\b`),
}

// Two or more consecutive capitalized words, a cheap proper-noun heuristic.
var namePattern = regexp.MustCompile(`\b([A-Z][a-z]+(?:\s+[A-Z][a-z]+)+)\b`)

// ExtractEntities pulls deduplicated entity values out of chunk text.
func ExtractEntities(text string) domain.Entities {
	var e domain.Entities

	for _, p := range idPatterns {
		for _, m := range p.FindAllStringSubmatch(text, -1) {
			e.IDs = append(e.IDs, m[1])
		}
	}
	e.Emails = emailPattern.FindAllString(text, -1)
	e.PhoneNumbers = phonePattern.FindAllString(text, -1)
	for _, p := range amountPatterns {
		for _, m := range p.FindAllStringSubmatch(text, -1) {
			e.Amounts = append(e.Amounts, m[1])
		}
	}
	for _, p := range datePatterns {
		e.Dates = append(e.Dates, p.FindAllString(text, -1)...)
	}
	for _, m := range namePattern.FindAllStringSubmatch(text, -1) {
		e.Names = append(e.Names, m[1])
	}

	e.IDs = dedupe(e.IDs)
	e.Emails = dedupe(e.Emails)
	e.PhoneNumbers = dedupe(e.PhoneNumbers)
	e.Amounts = dedupe(e.Amounts)
	e.Dates = dedupe(e.Dates)
	e.Names = dedupe(e.Names)
	return e
}

// Data-type classification rules. A rule fires when its keyword pattern
// matches and its entity requirement (if any) is satisfied.
var (
	salaryKeywords    = regexp.MustCompile(`\bsalary\b|\bcompensation\b|\bpay\b|\bwage\b`)
	statusKeywords    = regexp.MustCompile(`\bstatus\b|\bstate\b|\bphase\b|\bcompleted\b|\bin progress\b|\bpending\b`)
	policyKeywords    = regexp.MustCompile(`\bpolicy\b|\brule\b|\bguideline\b|\bprocedure\b|\bmust\b|\bshall\b|\brequired\b`)
	financialKeywords = regexp.MustCompile(`\bprice\b|\bcost\b|\bfee\b|\bbudget\b|\brevenue\b`)
	personnelKeywords = regexp.MustCompile(`\bemployee\b|\bmanager\b|\bteam\b|\bdepartment\b|\bhr\b`)
	projectKeywords   = regexp.MustCompile(`\bproject\b|\bproduct\b|\bfeature\b|\brelease\b|\bversion\b`)
)

// ClassifyDataTypes tags the chunk with the kinds of data it carries.
// A chunk can carry several tags; "general" is the fallback.
func ClassifyDataTypes(text string, entities domain.Entities) []string {
	var tags []string
	lower := strings.ToLower(text)

	if salaryKeywords.MatchString(lower) && len(entities.Amounts) > 0 {
		tags = append(tags, "salary_data")
	}
	if len(entities.Emails) > 0 || len(entities.PhoneNumbers) > 0 {
		tags = append(tags, "contact_info")
	}
	if statusKeywords.MatchString(lower) {
		tags = append(tags, "status_data")
	}
	if policyKeywords.MatchString(lower) {
		tags = append(tags, "policy_data")
	}
	if len(entities.Amounts) > 0 && financialKeywords.MatchString(lower) {
		tags = append(tags, "financial_data")
	}
	if len(entities.Names) > 0 && personnelKeywords.MatchString(lower) {
		tags = append(tags, "personnel_data")
	}
	if projectKeywords.MatchString(lower) {
		tags = append(tags, "project_data")
	}

	if len(tags) == 0 {
		tags = append(tags, "general")
	}
	return tags
}

// temporalRule binds a keyword pattern to its recency weight.
type temporalRule struct {
	keyword string
	pattern *regexp.Regexp
	weight  float64
}

// Current-tense signals raise the recency score.
var currentRules = []temporalRule{
	{"current", regexp.MustCompile(`\bcurrent(?:ly)?\b`), 0.9},
	{"latest", regexp.MustCompile(`\blatest\b`), 0.9},
	{"now", regexp.MustCompile(`\bnow\b`), 0.85},
	{"today", regexp.MustCompile(`\btoday\b`), 0.85},
	{"present", regexp.MustCompile(`\bpresent\b`), 0.8},
	{"as of now", regexp.MustCompile(`\bas of now\b`), 0.9},
	{"updated", regexp.MustCompile(`\bupdated\b`), 0.85},
	{"recent", regexp.MustCompile(`\brecent(?:ly)?\b`), 0.8},
	{"active", regexp.MustCompile(`\bactive\b`), 0.75},
	{"effective", regexp.MustCompile(`\beffective\b`), 0.7},
}

// Historical signals lower the score, but only when no current signal fired.
var historicalRules = []temporalRule{
	{"previous", regexp.MustCompile(`\bprevious(?:ly)?\b`), 0.3},
	{"old", regexp.MustCompile(`\bold\b`), 0.2},
	{"former", regexp.MustCompile(`\bformer(?:ly)?\b`), 0.25},
	{"was", regexp.MustCompile(`\bwas\b`), 0.4},
	{"past", regexp.MustCompile(`\bpast\b`), 0.3},
	{"archived", regexp.MustCompile(`\barchived\b`), 0.1},
	{"deprecated", regexp.MustCompile(`\bdeprecated\b`), 0.1},
	{"expired", regexp.MustCompile(`\bexpired\b`), 0.1},
	{"obsolete", regexp.MustCompile(`\bobsolete\b`), 0.1},
}

// DetectTemporal scores how "current" the chunk's content is.
//
// Score starts at the neutral 0.5. Every current-tense match raises it to
// the highest matching weight. Historical matches pull it down to the
// lowest matching weight, but only when no current-tense keyword matched:
// a chunk saying both "current" and "previous" is current. Confidence is
// high with two or more keyword hits, medium with one, low with none.
func DetectTemporal(text string) domain.TemporalInfo {
	info := domain.TemporalInfo{
		RecencyScore: 0.5,
		Confidence:   domain.ConfidenceMedium,
	}
	lower := strings.ToLower(text)

	score := 0.5
	for _, r := range currentRules {
		if r.pattern.MatchString(lower) {
			info.HasIndicator = true
			info.IsCurrent = true
			info.Keywords = append(info.Keywords, r.keyword)
			if r.weight > score {
				score = r.weight
			}
		}
	}
	for _, r := range historicalRules {
		if r.pattern.MatchString(lower) {
			info.HasIndicator = true
			info.IsHistorical = true
			info.Keywords = append(info.Keywords, r.keyword)
			if !info.IsCurrent && r.weight < score {
				score = r.weight
			}
		}
	}
	info.RecencyScore = score

	switch {
	case len(info.Keywords) >= 2:
		info.Confidence = domain.ConfidenceHigh
	case len(info.Keywords) == 1:
		info.Confidence = domain.ConfidenceMedium
	default:
		info.Confidence = domain.ConfidenceLow
	}
	return info
}

var (
	headingPattern = regexp.MustCompile(`^#{1,6}\s+\w+`)
	listPattern    = regexp.MustCompile(`(?m)^[*\-+•]\s+`)
	codePattern    = regexp.MustCompile("^```")
)

// A chunk with more than this many pipe characters reads as a table.
const tableMinPipes = 2

// DetectContentType classifies the chunk's structure. Tests run in priority
// order: heading, list, table, code fence, then paragraph.
func DetectContentType(text string) string {
	trimmed := strings.TrimSpace(text)

	switch {
	case headingPattern.MatchString(trimmed):
		return domain.ContentTypeHeading
	case listPattern.MatchString(trimmed):
		return domain.ContentTypeList
	case strings.Count(trimmed, "|") > tableMinPipes:
		return domain.ContentTypeTable
	case codePattern.MatchString(trimmed):
		return domain.ContentTypeCode
	default:
		return domain.ContentTypeParagraph
	}
}

// Extract runs the full metadata pass over one chunk of text.
// Positional fields (chunk index, length, token count) are filled in by
// the splitter, which knows the chunk's place in the document.
func Extract(text string) domain.ChunkMetadata {
	entities := ExtractEntities(text)
	return domain.ChunkMetadata{
		ContentType: DetectContentType(text),
		DataTypes:   ClassifyDataTypes(text, entities),
		Entities:    entities,
		Temporal:    DetectTemporal(text),
	}
}

// dedupe removes duplicates preserving first-seen order.
func dedupe(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := values[:0]
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
