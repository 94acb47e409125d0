package triage

import (
	"encoding/json"
	"time"
)

// SeverityPolicy selects how the terminal question is validated.
type SeverityPolicy string

const (
	// PolicyStrict only accepts mild, moderate or severe.
	PolicyStrict SeverityPolicy = "strict"
	// PolicyPermissive accepts any answer to the severity question.
	PolicyPermissive SeverityPolicy = "permissive"
	// PolicyPainType asks for the kind of pain instead of a severity level.
	PolicyPainType SeverityPolicy = "pain_type"
)

// Backend names an embedding implementation.
type Backend string

const (
	BackendORT  Backend = "ort"
	BackendHash Backend = "hash"
)

// ReferenceEntry is one row of the reference table.
type ReferenceEntry struct {
	Description string    `json:"description"`
	Department  string    `json:"department"`
	Location    string    `json:"location,omitempty"`
	PainType    string    `json:"painType,omitempty"`
	Embedding   []float32 `json:"-"`
}

// Match is a scored department candidate.
type Match struct {
	Department  string  `json:"department"`
	Description string  `json:"description"`
	Score       float32 `json:"score"`
}

// Role identifies the author of a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single entry of the conversation history.
type Turn struct {
	Role       Role   `json:"role"`
	Text       string `json:"text"`
	Department string `json:"department,omitempty"`
}

// Reply is what the engine says back for one utterance.
type Reply struct {
	Text         string  `json:"text"`
	Department   string  `json:"department,omitempty"`
	Resolved     bool    `json:"resolved"`
	Alternatives []Match `json:"alternatives,omitempty"`
}

// EmbedderConfig wraps the configuration for the embedder and its cache.
type EmbedderConfig struct {
	Backend       Backend `json:"backend"`
	OrtDLL        string  `json:"ortDll"`
	ModelPath     string  `json:"modelPath"`
	TokenizerPath string  `json:"tokenizerPath"`
	MaxSeqLen     int     `json:"maxSeqLen"`
	CacheDir      string  `json:"cacheDir"`
	ModelID       string  `json:"modelId"`
	Dimension     int     `json:"dimension"`
}

// Duration is a time.Duration that reads and writes as "30m" in JSON.
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*d = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Config aggregates runtime settings persisted to config.json.
type Config struct {
	ReferencePath    string         `json:"referencePath"`
	SeverityPolicy   SeverityPolicy `json:"severityPolicy"`
	DuplicateGuard   *bool          `json:"duplicateGuard,omitempty"`
	Alternatives     int            `json:"alternatives"`
	SessionTTL       Duration       `json:"sessionTTL"`
	Greetings        []string       `json:"greetings,omitempty"`
	LocationKeywords []string       `json:"locationKeywords,omitempty"`
	PainKeywords     []string       `json:"painKeywords,omitempty"`
	// Columns overrides the header names recognised in the reference
	// table. Nil fields keep the built-in candidates.
	Columns  *ColumnCandidates `json:"columns,omitempty"`
	Embedder EmbedderConfig    `json:"embedder"`
}

// Clone creates a deep copy of the configuration so callers can mutate safely.
func (c Config) Clone() Config {
	buf, _ := json.Marshal(c)
	var out Config
	_ = json.Unmarshal(buf, &out)
	return out
}

// GuardDuplicates reports whether repeated input is rejected.
func (c Config) GuardDuplicates() bool {
	return c.DuplicateGuard == nil || *c.DuplicateGuard
}

// ApplyDefaults populates zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	switch c.SeverityPolicy {
	case PolicyStrict, PolicyPermissive, PolicyPainType:
	default:
		c.SeverityPolicy = PolicyStrict
	}
	if c.DuplicateGuard == nil {
		on := true
		c.DuplicateGuard = &on
	}
	if c.Alternatives < 0 {
		c.Alternatives = 0
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = Duration(30 * time.Minute)
	}
	if len(c.Greetings) == 0 {
		c.Greetings = DefaultGreetings()
	}
	if len(c.LocationKeywords) == 0 {
		c.LocationKeywords = DefaultLocationKeywords()
	}
	if len(c.PainKeywords) == 0 {
		c.PainKeywords = DefaultPainKeywords()
	}
	if c.Embedder.Backend == "" {
		c.Embedder.Backend = BackendORT
	}
	if c.Embedder.MaxSeqLen == 0 {
		c.Embedder.MaxSeqLen = 256
	}
	if c.Embedder.Dimension == 0 {
		c.Embedder.Dimension = 384
	}
}

// Std converts to time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }
