package entities

// Metadata is the optional subtype-specific payload on a span. Subtype
// selects the typed variant; subtypes this build doesn't know about
// round-trip through Extra untouched.
type Metadata struct {
	Subtype string            `json:"subtype,omitempty"`
	Photo   *PhotoMetadata    `json:"photo,omitempty"`
	Extra   map[string]string `json:"extra,omitempty"`
}

// PhotoMetadata describes a span of subtype "photo".
type PhotoMetadata struct {
	URL       string `json:"url,omitempty"`
	Caption   string `json:"caption,omitempty"`
	TakenYear int    `json:"taken_year,omitempty"`
}

// SubtypePhoto is the one subtype with a typed variant.
const SubtypePhoto = "photo"
