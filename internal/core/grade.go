package core

import (
	"fmt"
	"strings"
)

// Grade is a school year, ordered from elementary 3 to high-school 3.
type Grade string

// GradeCategory is the pricing bucket a grade collapses into.
type GradeCategory string

const (
	E3 Grade = "E3"
	E4 Grade = "E4"
	E5 Grade = "E5"
	E6 Grade = "E6"
	J1 Grade = "J1"
	J2 Grade = "J2"
	J3 Grade = "J3"
	H1 Grade = "H1"
	H2 Grade = "H2"
	H3 Grade = "H3"
)

const (
	CategoryElementaryLower GradeCategory = "E3-5"
	CategoryElementary6     GradeCategory = "E6"
	CategoryJunior12        GradeCategory = "J1-2"
	CategoryJunior3         GradeCategory = "J3"
	CategoryHigh12          GradeCategory = "H1-2"
	CategoryHigh3           GradeCategory = "H3"
)

// Grades lists every grade in school order.
var Grades = []Grade{E3, E4, E5, E6, J1, J2, J3, H1, H2, H3}

// Categories lists every grade category in school order.
var Categories = []GradeCategory{
	CategoryElementaryLower,
	CategoryElementary6,
	CategoryJunior12,
	CategoryJunior3,
	CategoryHigh12,
	CategoryHigh3,
}

var gradeCategories = map[Grade]GradeCategory{
	E3: CategoryElementaryLower,
	E4: CategoryElementaryLower,
	E5: CategoryElementaryLower,
	E6: CategoryElementary6,
	J1: CategoryJunior12,
	J2: CategoryJunior12,
	J3: CategoryJunior3,
	H1: CategoryHigh12,
	H2: CategoryHigh12,
	H3: CategoryHigh3,
}

var gradeLabels = map[Grade]string{
	E3: "小3", E4: "小4", E5: "小5", E6: "小6",
	J1: "中1", J2: "中2", J3: "中3",
	H1: "高1", H2: "高2", H3: "高3",
}

// ParseGrade accepts the canonical code ("J2") or the display label ("中2").
func ParseGrade(s string) (Grade, error) {
	s = strings.TrimSpace(s)
	g := Grade(strings.ToUpper(s))
	if _, ok := gradeCategories[g]; ok {
		return g, nil
	}
	for grade, label := range gradeLabels {
		if label == s {
			return grade, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidGrade, s)
}

func (g Grade) Validate() error {
	if _, ok := gradeCategories[g]; !ok {
		return fmt.Errorf("%w: %q", ErrInvalidGrade, string(g))
	}
	return nil
}

// Category returns the pricing category. Unknown grades map to "".
func (g Grade) Category() GradeCategory {
	return gradeCategories[g]
}

// Label returns the Japanese display label
func (g Grade) Label() string {
	if l, ok := gradeLabels[g]; ok {
		return l
	}
	return string(g)
}

func (c GradeCategory) Validate() error {
	for _, known := range Categories {
		if c == known {
			return nil
		}
	}
	return fmt.Errorf("%w: category %q", ErrInvalidGrade, string(c))
}
