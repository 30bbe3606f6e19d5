package models

// Age ranks how recent one side of an entry is compared to the other sides
type Age int

const (
	// AgeNew is the most recent side
	AgeNew Age = iota
	// AgeMiddle is between the newest and the oldest side
	AgeMiddle
	// AgeOld is the oldest side
	AgeOld
	// AgeNotThere means the side does not exist
	AgeNotThere
)

func (a Age) String() string {
	switch a {
	case AgeNew:
		return "new"
	case AgeMiddle:
		return "middle"
	case AgeOld:
		return "old"
	case AgeNotThere:
		return "not-there"
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler
func (a Age) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (a *Age) UnmarshalText(text []byte) error {
	for candidate := AgeNew; candidate <= AgeNotThere; candidate++ {
		if candidate.String() == string(text) {
			*a = candidate
			return nil
		}
	}
	return &ValidationError{Field: "age", Message: "unknown age " + string(text)}
}

// IsValid reports whether a is a declared rank
func (a Age) IsValid() bool {
	return a >= AgeNew && a <= AgeNotThere
}
