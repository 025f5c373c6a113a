package ladderdomain

import (
	"fmt"
	"strings"
)

// Level is a skill tier. Tiers are ordered; a higher value is a stronger tier.
type Level int

const (
	LevelBeginner Level = iota + 1
	LevelIntermediate
	LevelAdvanced
	LevelProfessional
)

// Levels lists every tier in ascending order.
var Levels = []Level{LevelBeginner, LevelIntermediate, LevelAdvanced, LevelProfessional}

var levelNames = map[Level]string{
	LevelBeginner:     "beginner",
	LevelIntermediate: "intermediate",
	LevelAdvanced:     "advanced",
	LevelProfessional: "professional",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("level(%d)", int(l))
}

func (l Level) Valid() bool {
	return l >= LevelBeginner && l <= LevelProfessional
}

// ParseLevel accepts a tier name or its ordinal.
func ParseLevel(s string) (Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for l, name := range levelNames {
		if name == s || fmt.Sprint(int(l)) == s {
			return l, nil
		}
	}
	return 0, fmt.Errorf("unknown level %q", s)
}

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// Genders lists every gender cohort.
var Genders = []Gender{GenderMale, GenderFemale, GenderOther}

func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

const (
	// StartingPoints is the balance of a newly registered player.
	StartingPoints = 1000
	// MaxActiveChallenges caps concurrent outgoing challenges.
	MaxActiveChallenges = 3
)
