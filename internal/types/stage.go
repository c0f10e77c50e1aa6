package types

import "strings"

// Stage is the lifecycle classification of a candidate.
type Stage string

// Stages ordered by forward progress. PASS is terminal and sits outside the forward flow.
const (
	StagePass    Stage = "PASS"
	StageChat    Stage = "CHAT"
	StageSeek    Stage = "SEEK"
	StageContact Stage = "CONTACT"
)

// Default stage thresholds.
const (
	DefaultChatThreshold       = 6.0
	DefaultBorderlineThreshold = 7.0
	DefaultSeekThreshold       = 8.0
)

var allStages = []Stage{StagePass, StageChat, StageSeek, StageContact}

// Stages returns every valid stage in lifecycle order.
func Stages() []Stage {
	out := make([]Stage, len(allStages))
	copy(out, allStages)
	return out
}

// Classify maps an overall score to a stage.
// The caller guarantees chat < borderline < seek; the thresholds are not checked.
// A score equal to a threshold belongs to the higher stage.
func Classify(score, chat, borderline, seek float64) Stage {
	switch {
	case score < chat:
		return StagePass
	case score < borderline:
		return StageChat
	case score < seek:
		return StageSeek
	default:
		return StageContact
	}
}

// Thresholds bundles the three ordered stage boundaries.
type Thresholds struct {
	Chat       float64 `json:"chat_threshold"`
	Borderline float64 `json:"borderline_threshold"`
	Seek       float64 `json:"seek_threshold"`
}

// DefaultThresholds returns the 6/7/8 boundaries.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Chat:       DefaultChatThreshold,
		Borderline: DefaultBorderlineThreshold,
		Seek:       DefaultSeekThreshold,
	}
}

// Classify maps score to a stage using t.
func (t Thresholds) Classify(score float64) Stage {
	return Classify(score, t.Chat, t.Borderline, t.Seek)
}

// NormalizeStage matches text case-insensitively against the valid stage names.
func NormalizeStage(text string) (Stage, bool) {
	text = strings.TrimSpace(text)
	for _, s := range allStages {
		if strings.EqualFold(text, string(s)) {
			return s, true
		}
	}
	return "", false
}

// Describe returns a short human-readable explanation of the stage.
func (s Stage) Describe() string {
	switch s {
	case StagePass:
		return "PASS: score below the chat threshold, candidate rejected"
	case StageChat:
		return "CHAT: actively engaging the candidate in conversation"
	case StageSeek:
		return "SEEK: weak fit, proactively pursued for more information"
	case StageContact:
		return "CONTACT: contact information acquired"
	default:
		return "unknown stage"
	}
}

// Valid reports whether s is one of the four stages.
func (s Stage) Valid() bool {
	for _, v := range allStages {
		if s == v {
			return true
		}
	}
	return false
}
