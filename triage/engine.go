package triage

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
)

// DepartmentResolver is what the engine needs from a Resolver.
type DepartmentResolver interface {
	Resolve(ctx context.Context, query string) (string, error)
	Rank(ctx context.Context, query string, k int) ([]Match, error)
}

// Engine is the slot-filling dialog. It holds no conversation state: each
// call to HandleTurn takes a state value and returns the next one.
type Engine struct {
	resolver     DepartmentResolver
	extractors   Extractors
	greetings    map[string]struct{}
	policy       SeverityPolicy
	guard        bool
	alternatives int
	logger       *log.Logger
}

// NewEngine wires an engine from cfg. Nil extractors fall back to the
// defaults for cfg without reference-table vocabulary.
func NewEngine(resolver DepartmentResolver, cfg Config, extractors Extractors, logger *log.Logger) (*Engine, error) {
	if resolver == nil {
		return nil, errors.New("resolver is required")
	}
	cfg.ApplyDefaults()
	defaults := DefaultExtractors(cfg, nil)
	if extractors.Location == nil {
		extractors.Location = defaults.Location
	}
	if extractors.Duration == nil {
		extractors.Duration = defaults.Duration
	}
	if extractors.Severity == nil {
		extractors.Severity = defaults.Severity
	}
	greetings := make(map[string]struct{}, len(cfg.Greetings))
	for _, g := range uniqueKeys(cfg.Greetings) {
		greetings[g] = struct{}{}
	}
	return &Engine{
		resolver:     resolver,
		extractors:   extractors,
		greetings:    greetings,
		policy:       cfg.SeverityPolicy,
		guard:        cfg.GuardDuplicates(),
		alternatives: cfg.Alternatives,
		logger:       logger,
	}, nil
}

// Opening returns the message that starts a conversation.
func (e *Engine) Opening() string {
	return OpeningMessage()
}

// Restart returns the initial state.
func (e *Engine) Restart() ConversationState {
	return NewConversationState()
}

// terminalStep is the last question, chosen by the severity policy.
func (e *Engine) terminalStep() Step {
	if e.policy == PolicyPainType {
		return AwaitingPainType
	}
	return AwaitingSeverity
}

func (e *Engine) terminalSlot() SlotName {
	if e.policy == PolicyPainType {
		return SlotPainType
	}
	return SlotSeverity
}

// HandleTurn processes one user utterance. The returned error is only set
// when resolution fails; the reply then carries an apology and the returned
// state equals the input state so the user can answer again.
func (e *Engine) HandleTurn(ctx context.Context, state ConversationState, utterance string) (ConversationState, Reply, error) {
	next := state.Clone()
	if !next.Step.Valid() {
		e.logf("invalid step %d, restarting conversation", int(next.Step))
		next = NewConversationState()
	}

	key := NormalizeKey(utterance)
	if key == "" {
		return next, Reply{Text: msgEmpty + " " + promptFor(next.Step)}, nil
	}
	if _, ok := e.greetings[key]; ok {
		return next, Reply{Text: msgGreeting}, nil
	}
	if e.guard && next.LastInput != "" && key == next.LastInput {
		return next, Reply{Text: msgDuplicate}, nil
	}

	text := strings.TrimSpace(NormalizeText(utterance))
	switch next.Step {
	case AwaitingSymptom:
		next.Slots[SlotSymptom] = text
		next.LastInput = key
		if loc, ok := e.extractors.Location.Extract(text); ok && loc != "" {
			next.Slots[SlotLocation] = loc
			next.Step = AwaitingDuration
			return next, Reply{Text: locationAck(loc)}, nil
		}
		next.Step = AwaitingLocation
		return next, Reply{Text: msgAskLocation}, nil

	case AwaitingLocation:
		next.Slots[SlotLocation] = text
		next.LastInput = key
		next.Step = AwaitingDuration
		return next, Reply{Text: msgAskDuration}, nil

	case AwaitingDuration:
		v, ok := e.extractors.Duration.Extract(text)
		if !ok || v == "" {
			return next, Reply{Text: msgBadDuration}, nil
		}
		next.Slots[SlotDuration] = v
		next.LastInput = key
		next.Step = e.terminalStep()
		return next, Reply{Text: promptFor(next.Step)}, nil

	default:
		v, ok := e.extractors.Severity.Extract(text)
		if !ok || v == "" {
			return next, Reply{Text: msgBadSeverity}, nil
		}
		next.Slots[e.terminalSlot()] = v
		return e.finish(ctx, state, next)
	}
}

func (e *Engine) finish(ctx context.Context, prev, filled ConversationState) (ConversationState, Reply, error) {
	order := []SlotName{SlotSymptom, SlotLocation, SlotDuration, e.terminalSlot()}
	parts := make([]string, 0, len(order))
	for _, slot := range order {
		if !filled.Filled(slot) {
			return prev.Clone(), Reply{Text: msgResolveFailed}, fmt.Errorf("%w: %w: slot %s is empty", ErrResolve, ErrInvalidInput, slot)
		}
		parts = append(parts, filled.Slots[slot])
	}
	query := strings.Join(parts, " ")

	var department string
	var alternatives []Match
	if e.alternatives > 0 {
		matches, err := e.resolver.Rank(ctx, query, e.alternatives+1)
		if err == nil && len(matches) == 0 {
			err = fmt.Errorf("%w: no matches", ErrInvalidInput)
		}
		if err != nil {
			return prev.Clone(), Reply{Text: msgResolveFailed}, fmt.Errorf("%w: %w", ErrResolve, err)
		}
		department = matches[0].Department
		alternatives = matches[1:]
	} else {
		dept, err := e.resolver.Resolve(ctx, query)
		if err != nil {
			return prev.Clone(), Reply{Text: msgResolveFailed}, fmt.Errorf("%w: %w", ErrResolve, err)
		}
		department = dept
	}
	e.logf("resolved %q to %s", query, department)
	return NewConversationState(), Reply{
		Text:         recommendation(department, alternatives),
		Department:   department,
		Resolved:     true,
		Alternatives: alternatives,
	}, nil
}

func (e *Engine) logf(format string, args ...any) {
	if e.logger != nil {
		e.logger.Printf(format, args...)
	}
}
