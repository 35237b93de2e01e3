package partial

import "encoding/json"

// Export is the client-facing state of a partial.
type Export struct {
	Type               string   `json:"type" yaml:"type"`
	Settings           []string `json:"settings" yaml:"settings"`
	PrimarySetting     string   `json:"primarySetting" yaml:"primary_setting"`
	Selector           string   `json:"selector" yaml:"selector"`
	ContainerInclusive bool     `json:"containerInclusive" yaml:"container_inclusive"`
	FallbackRefresh    bool     `json:"fallbackRefresh" yaml:"fallback_refresh"`
	PostType           string   `json:"postType" yaml:"post_type"`
	PostID             int64    `json:"postId" yaml:"post_id"`
	FieldID            *string  `json:"fieldId" yaml:"field_id"`
	Placement          *string  `json:"placement" yaml:"placement"`
}

// Export projects the partial's public attributes. It never reads record state.
func (p *FieldPartial) Export() Export {
	return Export{
		Type:               Kind,
		Settings:           p.Settings(),
		PrimarySetting:     p.PrimarySetting(),
		Selector:           p.selector,
		ContainerInclusive: p.containerInclusive,
		FallbackRefresh:    p.fallbackRefresh,
		PostType:           p.id.ContentType,
		PostID:             p.id.RecordID,
		FieldID:            optional(p.id.FieldID),
		Placement:          optional(p.id.Placement),
	}
}

// MarshalJSON encodes the exported state.
func (p *FieldPartial) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Export())
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
