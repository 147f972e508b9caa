package region

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Level is one rank of the fixed four-level administrative tree.
type Level int

const (
	Province Level = iota
	City
	District
	Village
)

const levelCount = 4

// Levels lists every Level, top-down.
var Levels = [levelCount]Level{Province, City, District, Village}

var levelNames = [levelCount]string{"province", "city", "district", "village"}

var ErrInvalidLevel = errors.New("invalid region level")

func ParseLevel(s string) (Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range levelNames {
		if s == name {
			return Level(i), nil
		}
	}
	return 0, errors.Wrapf(ErrInvalidLevel, "%q", s)
}

func (l Level) Valid() bool { return l >= Province && l <= Village }

func (l Level) String() string {
	if !l.Valid() {
		return "Level(" + strconv.Itoa(int(l)) + ")"
	}
	return levelNames[l]
}

// Child returns the level below l; ok is false for Village.
func (l Level) Child() (Level, bool) {
	if !l.Valid() || l == Village {
		return 0, false
	}
	return l + 1, true
}

func (l Level) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, ErrInvalidLevel
	}
	return []byte(l.String()), nil
}

func (l *Level) UnmarshalText(text []byte) error {
	lvl, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = lvl
	return nil
}
