package triage

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// SlotExtractor pulls a slot value out of a free-text answer. ok is false
// when the answer does not contain a usable value.
type SlotExtractor interface {
	Extract(utterance string) (value string, ok bool)
}

// ExtractorFunc adapts a plain function to SlotExtractor.
type ExtractorFunc func(utterance string) (string, bool)

func (f ExtractorFunc) Extract(utterance string) (string, bool) { return f(utterance) }

// Extractors groups the pluggable extraction steps used by the engine.
type Extractors struct {
	// Location looks for a body location inside the symptom answer.
	Location SlotExtractor
	// Duration validates the answer to the duration question.
	Duration SlotExtractor
	// Severity validates the answer to the terminal question.
	Severity SlotExtractor
}

// KeywordExtractor looks for vocabulary keywords inside the utterance,
// compared case-insensitively. A keyword must start at a word boundary but
// may end inside a word, so "head" matches "headache" while "ear" does not
// match "heart". When several keywords match, the longest wins; ties go to
// the earlier vocabulary entry.
type KeywordExtractor struct {
	keywords []string
	byLength []string
}

// NewKeywordExtractor normalizes and deduplicates the vocabulary, keeping order.
func NewKeywordExtractor(keywords []string) *KeywordExtractor {
	k := &KeywordExtractor{keywords: uniqueKeys(keywords)}
	k.byLength = cloneStrings(k.keywords)
	sort.SliceStable(k.byLength, func(i, j int) bool {
		return utf8.RuneCountInString(k.byLength[i]) > utf8.RuneCountInString(k.byLength[j])
	})
	return k
}

// Keywords returns the normalized vocabulary.
func (k *KeywordExtractor) Keywords() []string {
	return cloneStrings(k.keywords)
}

func (k *KeywordExtractor) Extract(utterance string) (string, bool) {
	text := NormalizeKey(utterance)
	if text == "" {
		return "", false
	}
	for _, kw := range k.byLength {
		if containsAtWordStart(text, kw) {
			return kw, true
		}
	}
	return "", false
}

func containsAtWordStart(text, kw string) bool {
	for from := 0; from <= len(text)-len(kw); {
		i := strings.Index(text[from:], kw)
		if i < 0 {
			return false
		}
		i += from
		if i == 0 {
			return true
		}
		prev, _ := utf8.DecodeLastRuneInString(text[:i])
		if !unicode.IsLetter(prev) && !unicode.IsDigit(prev) {
			return true
		}
		_, size := utf8.DecodeRuneInString(text[i:])
		from = i + size
	}
	return false
}

var (
	// numeral + unit, e.g. "3 days", "2hrs", "a week"
	durationAmount = regexp.MustCompile(`(?i)\b(\d+|a|an|one|two|three|four|five|six|seven|eight|nine|ten|few|couple of|several)\s*(hours?|hrs?|days?|weeks?|wks?|months?|years?|yrs?)\b`)
	durationUnit   = regexp.MustCompile(`(?i)(hour|day|week|month|year)`)
	durationPhrase = regexp.MustCompile(`(?i)\b(yesterday|today|tonight|last night|this morning|since)\b`)
)

// DurationExtractor accepts answers that mention a time unit or a relative
// date and returns the answer unchanged.
type DurationExtractor struct{}

func (DurationExtractor) Extract(utterance string) (string, bool) {
	text := strings.TrimSpace(utterance)
	if text == "" {
		return "", false
	}
	if durationAmount.MatchString(text) || durationUnit.MatchString(text) || durationPhrase.MatchString(text) {
		return text, true
	}
	return "", false
}

// ClosedSetExtractor requires the whole answer to be one of the allowed values.
type ClosedSetExtractor struct {
	allowed map[string]struct{}
}

func NewClosedSetExtractor(values []string) *ClosedSetExtractor {
	allowed := make(map[string]struct{}, len(values))
	for _, v := range uniqueKeys(values) {
		allowed[v] = struct{}{}
	}
	return &ClosedSetExtractor{allowed: allowed}
}

func (c *ClosedSetExtractor) Extract(utterance string) (string, bool) {
	key := strings.Trim(NormalizeKey(utterance), ".!?,;")
	if _, ok := c.allowed[key]; ok {
		return key, true
	}
	return "", false
}

// AnyExtractor accepts every non-empty answer verbatim.
type AnyExtractor struct{}

func (AnyExtractor) Extract(utterance string) (string, bool) {
	text := strings.TrimSpace(utterance)
	return text, text != ""
}

// FallbackExtractor tries Primary and falls back to the raw answer, so it
// never rejects a non-empty utterance.
type FallbackExtractor struct {
	Primary SlotExtractor
}

func (f FallbackExtractor) Extract(utterance string) (string, bool) {
	if f.Primary != nil {
		if v, ok := f.Primary.Extract(utterance); ok {
			return v, true
		}
	}
	return AnyExtractor{}.Extract(utterance)
}

// DefaultExtractors builds the extractors for cfg. Location and pain-type
// vocabularies are extended with the distinct values of the reference table.
func DefaultExtractors(cfg Config, entries []ReferenceEntry) Extractors {
	locations := append(cloneStrings(cfg.LocationKeywords), DistinctValues(entries, func(e ReferenceEntry) string { return e.Location })...)
	ex := Extractors{
		Location: NewKeywordExtractor(locations),
		Duration: DurationExtractor{},
	}
	switch cfg.SeverityPolicy {
	case PolicyPermissive:
		ex.Severity = AnyExtractor{}
	case PolicyPainType:
		pains := append(cloneStrings(cfg.PainKeywords), DistinctValues(entries, func(e ReferenceEntry) string { return e.PainType })...)
		ex.Severity = FallbackExtractor{Primary: NewKeywordExtractor(pains)}
	default:
		ex.Severity = NewClosedSetExtractor(SeverityLevels())
	}
	return ex
}
