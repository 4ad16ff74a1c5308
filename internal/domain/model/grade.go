package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// GradeLevel is a school grade from kindergarten ("K") to "6".
type GradeLevel string

// Supported grade levels.
const (
	GradeK GradeLevel = "K"
	Grade1 GradeLevel = "1"
	Grade2 GradeLevel = "2"
	Grade3 GradeLevel = "3"
	Grade4 GradeLevel = "4"
	Grade5 GradeLevel = "5"
	Grade6 GradeLevel = "6"
)

var allGrades = []GradeLevel{GradeK, Grade1, Grade2, Grade3, Grade4, Grade5, Grade6}

// Grades lists every supported grade in order.
func Grades() []GradeLevel {
	out := make([]GradeLevel, len(allGrades))
	copy(out, allGrades)
	return out
}

// ParseGrade accepts "K", "k", "0" (kindergarten) and "1".."6".
func ParseGrade(s string) (GradeLevel, error) {
	g := normalizeGrade(s)
	if !g.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidGrade, s)
	}
	return g, nil
}

func normalizeGrade(s string) GradeLevel {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "0" || s == "KINDERGARTEN" {
		return GradeK
	}
	return GradeLevel(s)
}

// Valid reports whether g is one of the supported grades.
func (g GradeLevel) Valid() bool {
	return g.Index() >= 0
}

// Index is the position of g in Grades (K is 0), or -1.
func (g GradeLevel) Index() int {
	for i, v := range allGrades {
		if v == g {
			return i
		}
	}
	return -1
}

// Display is the human label, e.g. "Kindergarten" or "Grade 2".
func (g GradeLevel) Display() string {
	if g == GradeK {
		return "Kindergarten"
	}
	return "Grade " + string(g)
}

func (g GradeLevel) String() string { return string(g) }

// UnmarshalJSON accepts a string ("K", "2") or a number (0 for K, 1..6).
// Unsupported values are kept verbatim so validation can report them.
func (g *GradeLevel) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*g = normalizeGrade(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidGrade, string(b))
	}
	i, err := n.Int64()
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidGrade, string(b))
	}
	*g = normalizeGrade(strconv.FormatInt(i, 10))
	return nil
}

// UnmarshalYAML mirrors UnmarshalJSON for yaml.v2 decoders.
func (g *GradeLevel) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	*g = normalizeGrade(s)
	return nil
}
