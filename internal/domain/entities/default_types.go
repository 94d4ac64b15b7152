package entities

import "time"

// SpanType categorizes spans. Built-in types are seeded on first use and
// cannot be removed; users can register further types.
type SpanType struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// DefaultSpanTypes are the built-in span types.
var DefaultSpanTypes = []SpanType{
	{Name: TypePerson, Description: "A human being, living or historical"},
	{Name: TypePlace, Description: "A geographical location: city, building, region"},
	{Name: TypeEvent, Description: "Something that happened at a point or span of time"},
	{Name: TypeOrganisation, Description: "A company, institution, band, or other group"},
	{Name: TypeThing, Description: "A made object or work: book, album, photo, ship"},
	{Name: TypeRole, Description: "A position or function held within an organisation"},
	{Name: TypeConnection, Description: "Narrative holder for a connection between two spans"},
}

// IsDefaultSpanType checks if a type name is a built-in default.
func IsDefaultSpanType(name string) bool {
	for _, t := range DefaultSpanTypes {
		if t.Name == name {
			return true
		}
	}
	return false
}

// DefaultConnectionTypes are the built-in relationship categories seeded
// on first use. These cannot be deleted by users.
var DefaultConnectionTypes = []ConnectionType{
	{
		Name:               "family",
		ForwardPredicate:   "is the parent of",
		ForwardDescription: "Parent-child and wider family ties",
		InversePredicate:   "is the child of",
		InverseDescription: "Child-parent reading of a family tie",
	},
	{
		Name:               "friend",
		ForwardPredicate:   "is a friend of",
		ForwardDescription: "Friendship between two people",
		InversePredicate:   "is a friend of",
		InverseDescription: "Friendship between two people",
	},
	{
		Name:               "membership",
		ForwardPredicate:   "is a member of",
		ForwardDescription: "Belonging to an organisation or group",
		InversePredicate:   "has as a member",
		InverseDescription: "An organisation's reading of membership",
	},
	{
		Name:               "residence",
		ForwardPredicate:   "lived in",
		ForwardDescription: "A person living at a place",
		InversePredicate:   "was home to",
		InverseDescription: "A place's reading of residence",
	},
	{
		Name:               "employment",
		ForwardPredicate:   "worked for",
		ForwardDescription: "A person employed by an organisation",
		InversePredicate:   "employed",
		InverseDescription: "An organisation's reading of employment",
	},
	{
		Name:               "ownership",
		ForwardPredicate:   "owned",
		ForwardDescription: "A person or organisation owning a thing",
		InversePredicate:   "was owned by",
		InverseDescription: "A thing's reading of ownership",
	},
	{
		Name:               "participation",
		ForwardPredicate:   "took part in",
		ForwardDescription: "A person or organisation participating in an event",
		InversePredicate:   "included",
		InverseDescription: "An event's reading of participation",
	},
	{
		Name:               "travel",
		ForwardPredicate:   "travelled to",
		ForwardDescription: "A person visiting a place",
		InversePredicate:   "was visited by",
		InverseDescription: "A place's reading of travel",
	},
}

// IsDefaultConnectionType checks if a type name is a built-in default.
func IsDefaultConnectionType(name string) bool {
	for _, t := range DefaultConnectionTypes {
		if t.Name == name {
			return true
		}
	}
	return false
}
