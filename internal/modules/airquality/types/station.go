package types

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed stations.yaml
var stationsYAML []byte

// ErrUnknownStation is returned when a station name is not part of the catalogue.
var ErrUnknownStation = errors.New("unknown station")

// Station is the name of one of the fixed monitoring sites.
type Station string

type stationCatalogue struct {
	Stations []struct {
		Name string `yaml:"name"`
	} `yaml:"stations"`
}

var (
	stationOrder []Station
	stationIndex map[Station]int
)

func init() {
	order, err := parseCatalogue(stationsYAML)
	if err != nil {
		panic(fmt.Sprintf("types: station catalogue: %v", err))
	}
	stationOrder = order
	stationIndex = make(map[Station]int, len(order))
	for i, s := range order {
		stationIndex[s] = i
	}
}

func parseCatalogue(data []byte) ([]Station, error) {
	var cat stationCatalogue
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, err
	}
	if len(cat.Stations) == 0 {
		return nil, errors.New("no stations defined")
	}
	seen := make(map[string]bool, len(cat.Stations))
	out := make([]Station, 0, len(cat.Stations))
	for _, s := range cat.Stations {
		name := strings.TrimSpace(s.Name)
		if name == "" {
			return nil, errors.New("station with empty name")
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate station %q", name)
		}
		seen[name] = true
		out = append(out, Station(name))
	}
	return out, nil
}

// Stations returns the catalogue in display order.
func Stations() []Station {
	out := make([]Station, len(stationOrder))
	copy(out, stationOrder)
	return out
}

// ParseStation resolves name against the catalogue.
func ParseStation(name string) (Station, error) {
	s := Station(strings.TrimSpace(name))
	if _, ok := stationIndex[s]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStation, name)
	}
	return s, nil
}

// Valid reports whether s is in the catalogue.
func (s Station) Valid() bool {
	_, ok := stationIndex[s]
	return ok
}

// Compare orders stations by catalogue position. Stations outside the
// catalogue sort after known ones, by name.
func (s Station) Compare(other Station) int {
	i, iok := stationIndex[s]
	j, jok := stationIndex[other]
	switch {
	case iok && jok:
		return i - j
	case iok:
		return -1
	case jok:
		return 1
	default:
		return strings.Compare(string(s), string(other))
	}
}

func (s Station) String() string {
	return string(s)
}
