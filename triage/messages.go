package triage

import (
	"fmt"
	"strings"
)

const (
	msgOpening         = "👋 Hi! I'm your medical assistant. What symptoms are you experiencing today?"
	msgGreeting        = "Hello! 👋 Please describe your symptom(s), and I'll guide you."
	msgAskSymptom      = "What symptoms are you experiencing today?"
	msgAskLocation     = "Thanks. Where in your body are you experiencing this?"
	msgAskDuration     = "How long have you had this symptom?"
	msgAskSeverity     = "On a scale of Mild, Moderate, Severe, how would you rate it?"
	msgAskPainType     = "What kind of pain is it? For example sharp, dull, throbbing or burning."
	msgDuplicate       = "You already said that. Could you tell me a bit more?"
	msgEmpty           = "I didn't catch that."
	msgBadDuration     = "Please tell me how long, for example \"3 days\" or \"since yesterday\"."
	msgBadSeverity     = "Please answer with Mild, Moderate or Severe."
	msgResolveFailed   = "Sorry, I couldn't work out a department right now. Please try again."
	msgRecommendFormat = "✅ Based on what you've told me, I recommend visiting the **%s** department."
)

// OpeningMessage is the first assistant message of every conversation.
func OpeningMessage() string { return msgOpening }

// GreetingMessage is the reply to small talk.
func GreetingMessage() string { return msgGreeting }

// DuplicateMessage is the reply to an utterance repeated verbatim.
func DuplicateMessage() string { return msgDuplicate }

func promptFor(step Step) string {
	switch step {
	case AwaitingLocation:
		return msgAskLocation
	case AwaitingDuration:
		return msgAskDuration
	case AwaitingSeverity:
		return msgAskSeverity
	case AwaitingPainType:
		return msgAskPainType
	default:
		return msgAskSymptom
	}
}

func locationAck(location string) string {
	return fmt.Sprintf("Got it, your %s. %s", location, msgAskDuration)
}

func recommendation(department string, alternatives []Match) string {
	text := fmt.Sprintf(msgRecommendFormat, department)
	if len(alternatives) == 0 {
		return text
	}
	names := make([]string, len(alternatives))
	for i, m := range alternatives {
		names[i] = m.Department
	}
	return text + " Other departments that may fit: " + strings.Join(names, ", ") + "."
}
