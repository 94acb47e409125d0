package triage

// DefaultGreetings returns the utterances treated as small talk.
func DefaultGreetings() []string {
	return []string{"hi", "hello", "hey", "good morning", "good evening"}
}

// DefaultLocationKeywords returns the body-location vocabulary scanned in the
// symptom answer. Order matters: the first keyword found wins.
func DefaultLocationKeywords() []string {
	return []string{
		"head",
		"chest",
		"stomach",
		"abdomen",
		"back",
		"throat",
		"neck",
		"shoulder",
		"arm",
		"hand",
		"wrist",
		"leg",
		"knee",
		"ankle",
		"foot",
		"eye",
		"ear",
		"nose",
		"tooth",
		"skin",
		"joint",
		"heart",
	}
}

// DefaultPainKeywords returns the pain-type vocabulary used before the
// reference table adds its own values.
func DefaultPainKeywords() []string {
	return []string{
		"sharp",
		"dull",
		"throbbing",
		"burning",
		"stabbing",
		"aching",
		"cramping",
		"shooting",
		"pressure",
		"itching",
	}
}

// SeverityLevels returns the closed set accepted by the strict policy.
func SeverityLevels() []string {
	return []string{"mild", "moderate", "severe"}
}
