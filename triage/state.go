package triage

// Step is the question the conversation is waiting on.
type Step int

const (
	AwaitingSymptom Step = iota
	AwaitingLocation
	AwaitingDuration
	AwaitingSeverity
	AwaitingPainType
)

func (s Step) String() string {
	switch s {
	case AwaitingSymptom:
		return "awaiting_symptom"
	case AwaitingLocation:
		return "awaiting_location"
	case AwaitingDuration:
		return "awaiting_duration"
	case AwaitingSeverity:
		return "awaiting_severity"
	case AwaitingPainType:
		return "awaiting_pain_type"
	default:
		return "unknown"
	}
}

// Valid reports whether s is one of the defined steps.
func (s Step) Valid() bool {
	return s >= AwaitingSymptom && s <= AwaitingPainType
}

// SlotName names a piece of collected information.
type SlotName string

const (
	SlotSymptom  SlotName = "symptom"
	SlotLocation SlotName = "location"
	SlotDuration SlotName = "duration"
	SlotSeverity SlotName = "severity"
	SlotPainType SlotName = "pain_type"
)

// Slots maps slot names to the collected answers.
type Slots map[SlotName]string

// ConversationState is the mutable part of one conversation.
type ConversationState struct {
	Step      Step
	Slots     Slots
	LastInput string
}

// NewConversationState returns the initial state.
func NewConversationState() ConversationState {
	return ConversationState{Step: AwaitingSymptom, Slots: Slots{}}
}

// Clone deep-copies the state.
func (s ConversationState) Clone() ConversationState {
	out := ConversationState{Step: s.Step, LastInput: s.LastInput, Slots: make(Slots, len(s.Slots))}
	for k, v := range s.Slots {
		out.Slots[k] = v
	}
	return out
}

// Filled reports whether slot holds a non-empty value.
func (s ConversationState) Filled(slot SlotName) bool {
	return s.Slots[slot] != ""
}

// Equal compares two states, treating nil and empty slot maps alike.
func (s ConversationState) Equal(o ConversationState) bool {
	if s.Step != o.Step || s.LastInput != o.LastInput || len(s.Slots) != len(o.Slots) {
		return false
	}
	for k, v := range s.Slots {
		if ov, ok := o.Slots[k]; !ok || ov != v {
			return false
		}
	}
	return true
}
