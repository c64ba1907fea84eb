package enums

import (
	"fmt"
	"strings"
)

// AgeClass is the life stage a product is formulated for.
type AgeClass string

const (
	AgeClassPuppy  AgeClass = "cachorro"
	AgeClassAdult  AgeClass = "adulto"
	AgeClassSenior AgeClass = "senior"
	AgeClassAll    AgeClass = "todas"
)

var validAgeClasses = []AgeClass{
	AgeClassPuppy,
	AgeClassAdult,
	AgeClassSenior,
	AgeClassAll,
}

// String implements fmt.Stringer.
func (a AgeClass) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AgeClass.
func (a AgeClass) IsValid() bool {
	for _, candidate := range validAgeClasses {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAgeClass converts raw input into an AgeClass.
func ParseAgeClass(value string) (AgeClass, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validAgeClasses {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid age class %q", value)
}
