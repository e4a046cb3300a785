package configurator

import (
	"context"
	"strings"
	"time"
)

// FixtureConfig is the nested configuration block of a saved record, matching
// the upstream wire shape. The cables map values are semi-structured text
// blocks; there is no stable grammar, so they are parsed best-effort and the
// raw text is always retained.
type FixtureConfig struct {
	LightType   string            `json:"light_type"`
	LightAmount int               `json:"light_amount"`
	CableColor  string            `json:"cable_color"`
	CableLength string            `json:"cable_length"`
	BaseType    string            `json:"base_type"`
	Cables      map[string]string `json:"cables"`
}

// SavedConfig is one remotely stored fixture configuration.
type SavedConfig struct {
	ID        string        `json:"id"`
	UserID    string        `json:"userId"`
	Name      string        `json:"name,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
	Config    FixtureConfig `json:"config"`
}

// SavedConfigClient talks to the remote saved-configuration endpoints.
type SavedConfigClient interface {
	List(ctx context.Context, userID string) ([]SavedConfig, error)
	Save(ctx context.Context, cfg SavedConfig) (SavedConfig, error)
	Delete(ctx context.Context, id string) error
}

// CableDescriptor is the best-effort parse of one cables entry.
type CableDescriptor struct {
	Position string `json:"position,omitempty"`
	Length   string `json:"length,omitempty"`
	Color    string `json:"color,omitempty"`
	Notes    string `json:"notes,omitempty"`
	Raw      string `json:"raw"`
}

// ParseCableDescriptor splits a cables descriptor into its recognisable
// fields. Segments are separated by newlines or semicolons; a segment of the
// form "key: value" with a known key fills the matching field, everything
// else accumulates into Notes. Raw always carries the original text so no
// information is lost when the grammar assumption does not hold.
func ParseCableDescriptor(raw string) CableDescriptor {
	desc := CableDescriptor{Raw: raw}
	var notes []string
	for _, segment := range splitSegments(raw) {
		key, value, ok := strings.Cut(segment, ":")
		if !ok {
			notes = append(notes, segment)
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "position", "pos":
			desc.Position = value
		case "length", "len":
			desc.Length = value
		case "color", "colour":
			desc.Color = value
		default:
			notes = append(notes, segment)
		}
	}
	desc.Notes = strings.Join(notes, "; ")
	return desc
}

// ParseCables maps every cables entry through ParseCableDescriptor, keyed by
// the original index strings.
func ParseCables(cables map[string]string) map[string]CableDescriptor {
	out := make(map[string]CableDescriptor, len(cables))
	for index, raw := range cables {
		out[index] = ParseCableDescriptor(raw)
	}
	return out
}

func splitSegments(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == '\n' || r == ';'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}
