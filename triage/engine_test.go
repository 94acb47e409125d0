package triage

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// drive feeds utterances in order and fails on any engine error.
func drive(t *testing.T, e *Engine, state ConversationState, utterances ...string) (ConversationState, Reply) {
	t.Helper()
	var reply Reply
	for _, u := range utterances {
		var err error
		state, reply, err = e.HandleTurn(context.Background(), state, u)
		require.NoError(t, err, u)
	}
	return state, reply
}

func TestGreetingLeavesStateUnchanged(t *testing.T) {
	e := newTestEngine(t, Config{})
	initial := NewConversationState()
	atLocation, _ := drive(t, e, initial, "feeling dizzy")
	atDuration, _ := drive(t, e, initial, "pain in my chest")
	atSeverity, _ := drive(t, e, initial, "pain in my chest", "2 days")
	require.Equal(t, AwaitingLocation, atLocation.Step)
	require.Equal(t, AwaitingDuration, atDuration.Step)
	require.Equal(t, AwaitingSeverity, atSeverity.Step)

	for _, state := range []ConversationState{initial, atLocation, atDuration, atSeverity} {
		for _, g := range append(DefaultGreetings(), "  HeLLo ", "Good   Morning") {
			next, reply, err := e.HandleTurn(context.Background(), state, g)
			require.NoError(t, err)
			assert.True(t, next.Equal(state), "%q changed state at %s", g, state.Step)
			assert.Equal(t, GreetingMessage(), reply.Text)
			assert.False(t, reply.Resolved)
		}
	}
}

func TestSymptomWithLocationSkipsLocationQuestion(t *testing.T) {
	e := newTestEngine(t, Config{})
	state, reply := drive(t, e, NewConversationState(), "Sharp pain in my CHEST")
	assert.Equal(t, AwaitingDuration, state.Step)
	assert.Equal(t, "chest", state.Slots[SlotLocation])
	assert.Equal(t, "Sharp pain in my CHEST", state.Slots[SlotSymptom])
	assert.Contains(t, reply.Text, msgAskDuration)
}

func TestLongerLocationKeywordWins(t *testing.T) {
	e := newTestEngine(t, Config{})
	tests := []struct {
		in   string
		want string
	}{
		{"my heart is racing", "heart"},
		{"palpitations in my heart", "heart"},
		{"my ear hurts", "ear"},
	}
	for _, tt := range tests {
		state, _ := drive(t, e, NewConversationState(), tt.in)
		assert.Equal(t, AwaitingDuration, state.Step, tt.in)
		assert.Equal(t, tt.want, state.Slots[SlotLocation], tt.in)
	}

	for _, in := range []string{"shortness of breath for years", "I feel warm and weak"} {
		state, _ := drive(t, e, NewConversationState(), in)
		assert.Equal(t, AwaitingLocation, state.Step, in)
		assert.False(t, state.Filled(SlotLocation), in)
	}
}

func TestSymptomWithoutLocationAsksForIt(t *testing.T) {
	e := newTestEngine(t, Config{})
	for _, u := range []string{"feeling dizzy", "nauseous since lunch"} {
		state, reply := drive(t, e, NewConversationState(), u)
		assert.Equal(t, AwaitingLocation, state.Step, u)
		assert.False(t, state.Filled(SlotLocation), u)
		assert.Equal(t, msgAskLocation, reply.Text)

		state, reply = drive(t, e, state, "everywhere really")
		assert.Equal(t, AwaitingDuration, state.Step)
		assert.Equal(t, "everywhere really", state.Slots[SlotLocation])
		assert.Equal(t, msgAskDuration, reply.Text)
	}
}

func TestLocationFromReferenceTableVocabulary(t *testing.T) {
	entries := append(sampleEntries(), ReferenceEntry{Description: "pelvic pain", Department: "Gynecology", Location: "Pelvis"})
	e := newTestAssistant(t, Config{}, entries).Engine()
	state, _ := drive(t, e, NewConversationState(), "ache in the pelvis")
	assert.Equal(t, AwaitingDuration, state.Step)
	assert.Equal(t, "pelvis", state.Slots[SlotLocation])
}

func TestInvalidDurationDoesNotAdvance(t *testing.T) {
	e := newTestEngine(t, Config{})
	state, _ := drive(t, e, NewConversationState(), "pain in my chest")
	for _, u := range []string{"a while", "forever", "not sure"} {
		next, reply, err := e.HandleTurn(context.Background(), state, u)
		require.NoError(t, err)
		assert.True(t, next.Equal(state), u)
		assert.False(t, next.Filled(SlotDuration), u)
		assert.Equal(t, msgBadDuration, reply.Text)
	}
}

func TestStrictSeverityRepromptsOnMismatch(t *testing.T) {
	e := newTestEngine(t, Config{SeverityPolicy: PolicyStrict})
	state, _ := drive(t, e, NewConversationState(), "pain in my chest", "2 days")

	next, reply, err := e.HandleTurn(context.Background(), state, "pretty bad")
	require.NoError(t, err)
	assert.True(t, next.Equal(state))
	assert.Equal(t, msgBadSeverity, reply.Text)

	next, reply = drive(t, e, next, "Moderate")
	assert.True(t, reply.Resolved)
	assert.True(t, next.Equal(NewConversationState()))
}

func TestPermissiveSeverityAcceptsAnything(t *testing.T) {
	e := newTestEngine(t, Config{SeverityPolicy: PolicyPermissive})
	state, reply := drive(t, e, NewConversationState(), "I have a bad headache", "3 days", "pretty bad honestly")
	assert.True(t, reply.Resolved)
	assert.Equal(t, "Neurology", reply.Department)
	assert.True(t, state.Equal(NewConversationState()))
}

func TestPainTypePolicy(t *testing.T) {
	e := newTestEngine(t, Config{SeverityPolicy: PolicyPainType})
	state, reply := drive(t, e, NewConversationState(), "swollen knee", "a week")
	assert.Equal(t, AwaitingPainType, state.Step)
	assert.Equal(t, msgAskPainType, reply.Text)

	// unknown pain words are accepted as they are
	state, reply = drive(t, e, state, "it comes and goes")
	assert.True(t, reply.Resolved)
	assert.Equal(t, "Orthopedics", reply.Department)
	assert.True(t, state.Equal(NewConversationState()))
}

func TestPainTypeExtractorPrefersKeyword(t *testing.T) {
	cfg := Config{SeverityPolicy: PolicyPainType}
	cfg.ApplyDefaults()
	ex := DefaultExtractors(cfg, sampleEntries())

	v, ok := ex.Severity.Extract("a dull ache")
	require.True(t, ok)
	assert.Equal(t, "dull", v)

	v, ok = ex.Severity.Extract("Cramping mostly")
	require.True(t, ok)
	assert.Equal(t, "cramping", v)
}

func TestEndToEndRecommendation(t *testing.T) {
	e := newTestEngine(t, Config{})
	state := NewConversationState()

	state, reply := drive(t, e, state, "I have a bad headache")
	assert.Equal(t, AwaitingDuration, state.Step)
	assert.Equal(t, "head", state.Slots[SlotLocation])
	assert.False(t, reply.Resolved)

	state, reply = drive(t, e, state, "3 days")
	assert.Equal(t, AwaitingSeverity, state.Step)
	assert.Equal(t, msgAskSeverity, reply.Text)

	state, reply = drive(t, e, state, "severe")
	assert.True(t, reply.Resolved)
	assert.Equal(t, "Neurology", reply.Department)
	assert.Contains(t, reply.Text, "Neurology")
	assert.Equal(t, AwaitingSymptom, state.Step)
	assert.Empty(t, state.Slots)
	assert.Empty(t, state.LastInput)
}

func TestDuplicateInputIsRejected(t *testing.T) {
	e := newTestEngine(t, Config{})
	first, _ := drive(t, e, NewConversationState(), "headache")

	second, reply, err := e.HandleTurn(context.Background(), first, "  HEADACHE ")
	require.NoError(t, err)
	assert.Equal(t, DuplicateMessage(), reply.Text)
	assert.Equal(t, first.Step, second.Step)
	assert.True(t, second.Equal(first))
}

func TestDuplicateGuardCanBeDisabled(t *testing.T) {
	off := false
	e := newTestEngine(t, Config{DuplicateGuard: &off})
	first, _ := drive(t, e, NewConversationState(), "headache")

	_, reply, err := e.HandleTurn(context.Background(), first, "headache")
	require.NoError(t, err)
	assert.Equal(t, msgBadDuration, reply.Text)
}

func TestDuplicateGuardIgnoresEmptyLastInput(t *testing.T) {
	e := newTestEngine(t, Config{})
	state := NewConversationState()
	require.Empty(t, state.LastInput)
	next, reply := drive(t, e, state, "headache")
	assert.NotEqual(t, DuplicateMessage(), reply.Text)
	assert.Equal(t, "headache", next.LastInput)
}

func TestEmptyUtteranceReprompts(t *testing.T) {
	e := newTestEngine(t, Config{})
	state, _ := drive(t, e, NewConversationState(), "feeling dizzy")
	for _, u := range []string{"", "   ", "\t\n"} {
		next, reply, err := e.HandleTurn(context.Background(), state, u)
		require.NoError(t, err)
		assert.True(t, next.Equal(state))
		assert.True(t, strings.HasPrefix(reply.Text, msgEmpty))
		assert.Contains(t, reply.Text, msgAskLocation)
	}
}

func TestRestartIsIdempotent(t *testing.T) {
	e := newTestEngine(t, Config{})
	a := e.Restart()
	b := e.Restart()
	assert.True(t, a.Equal(b))
	assert.True(t, a.Equal(NewConversationState()))
	assert.Equal(t, AwaitingSymptom, a.Step)
}

func TestHandleTurnDoesNotMutateInput(t *testing.T) {
	e := newTestEngine(t, Config{})
	state, _ := drive(t, e, NewConversationState(), "pain in my chest")
	snapshot := state.Clone()
	_, _ = drive(t, e, state, "2 days")
	assert.True(t, state.Equal(snapshot))
}

func TestInvalidStepRestarts(t *testing.T) {
	e := newTestEngine(t, Config{})
	state, _ := drive(t, e, ConversationState{Step: Step(42)}, "pain in my chest")
	assert.Equal(t, AwaitingDuration, state.Step)
}

func TestResolverFailureKeepsState(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	e, err := NewEngine(failingResolver{}, cfg, Extractors{}, nil)
	require.NoError(t, err)

	state, _ := drive(t, e, NewConversationState(), "pain in my chest", "2 days")
	next, reply, err := e.HandleTurn(context.Background(), state, "severe")
	require.Error(t, err)
	assert.ErrorIs(t, err, errBoom)
	assert.ErrorIs(t, err, ErrResolve)
	assert.True(t, next.Equal(state))
	assert.Equal(t, msgResolveFailed, reply.Text)
	assert.NotContains(t, reply.Text, "boom")
	assert.False(t, reply.Resolved)
}

func TestAlternativesAreListed(t *testing.T) {
	e := newTestEngine(t, Config{Alternatives: 2})
	_, reply := drive(t, e, NewConversationState(), "I have a bad headache", "3 days", "severe")
	require.True(t, reply.Resolved)
	assert.Equal(t, "Neurology", reply.Department)
	require.Len(t, reply.Alternatives, 2)
	assert.Contains(t, reply.Text, "Other departments that may fit")
	for _, alt := range reply.Alternatives {
		assert.NotEqual(t, "Neurology", alt.Department)
		assert.Contains(t, reply.Text, alt.Department)
	}
}

func TestCustomExtractorIsUsed(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	r, err := NewResolver(context.Background(), NewHashEmbedder(64), sampleEntries(), nil)
	require.NoError(t, err)
	always := ExtractorFunc(func(string) (string, bool) { return "whole body", true })
	e, err := NewEngine(r, cfg, Extractors{Location: always}, nil)
	require.NoError(t, err)

	state, _ := drive(t, e, NewConversationState(), "feeling dizzy")
	assert.Equal(t, "whole body", state.Slots[SlotLocation])
	assert.Equal(t, AwaitingDuration, state.Step)
}

func TestNewEngineRequiresResolver(t *testing.T) {
	_, err := NewEngine(nil, Config{}, Extractors{}, nil)
	assert.Error(t, err)
}

func TestStepString(t *testing.T) {
	assert.Equal(t, "awaiting_pain_type", AwaitingPainType.String())
	assert.Equal(t, "unknown", Step(-1).String())
	assert.False(t, Step(-1).Valid())
	assert.True(t, AwaitingSeverity.Valid())
}
