// planner/parse.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package planner

import (
	"encoding/json"
	"fmt"

	m "github.com/isrplan/planner/math"
	"github.com/isrplan/planner/util"
)

// rawEnvironment mirrors the wire format described in the external
// interfaces: airports/targets/sams plus optional synthetic_starts and
// checkpoints. SAM position accepts the pos/position/x,y aliases; range
// accepts range or radius. Unknown fields are ignored by encoding/json
// by default.
type rawEnvironment struct {
	Airports         []rawAirport         `json:"airports"`
	Targets          []rawTarget          `json:"targets"`
	SAMs             []rawSAM             `json:"sams"`
	SyntheticStarts  map[string]rawPoint  `json:"synthetic_starts"`
	Checkpoints      []rawAirport         `json:"checkpoints"`
}

type rawAirport struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

type rawTarget struct {
	ID       string  `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Priority int     `json:"priority"`
	Type     string  `json:"type"`
}

type rawPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// rawSAM accepts pos/position as a two-element [x,y] array, or explicit
// x/y fields, and range/radius interchangeably.
type rawSAM struct {
	Pos      *[2]float64 `json:"pos"`
	Position *[2]float64 `json:"position"`
	X        *float64    `json:"x"`
	Y        *float64    `json:"y"`
	Range    *float64    `json:"range"`
	Radius   *float64    `json:"radius"`
}

func (s rawSAM) resolvePos() (float64, float64, bool) {
	if s.Pos != nil {
		return s.Pos[0], s.Pos[1], true
	}
	if s.Position != nil {
		return s.Position[0], s.Position[1], true
	}
	if s.X != nil && s.Y != nil {
		return *s.X, *s.Y, true
	}
	return 0, 0, false
}

func (s rawSAM) resolveRadius() (float64, bool) {
	if s.Range != nil {
		return *s.Range, true
	}
	if s.Radius != nil {
		return *s.Radius, true
	}
	return 0, false
}

// ParseEnvironment decodes raw into an Environment, rejecting it per the
// parser's validation rules: duplicate ids, non-finite airport/target
// coordinates, non-positive SAM radii, or an out-of-range target type.
func ParseEnvironment(raw []byte) (*Environment, error) {
	if dups := util.FindDuplicateJSONKeys(raw); len(dups) > 0 {
		return nil, &ErrInputMalformed{Reason: fmt.Sprintf("duplicate key %q at %q", dups[0].Key, dups[0].Path)}
	}

	var re rawEnvironment
	if err := util.UnmarshalJSONBytes(raw, &re); err != nil {
		return nil, &ErrInputMalformed{Reason: err.Error()}
	}

	env := &Environment{SyntheticStarts: map[string]m.Point2D{}}
	seenIDs := map[string]bool{}

	claim := func(id string) error {
		if id == "" {
			return fmt.Errorf("entity id must be non-empty")
		}
		if seenIDs[id] {
			return fmt.Errorf("duplicate entity id %q", id)
		}
		seenIDs[id] = true
		return nil
	}

	for _, a := range re.Airports {
		if err := claim(a.ID); err != nil {
			return nil, &ErrInputMalformed{Reason: err.Error()}
		}
		if !m.IsFinite(a.X) || !m.IsFinite(a.Y) {
			return nil, &ErrInputMalformed{Reason: fmt.Sprintf("airport %q has non-finite coordinates", a.ID)}
		}
		env.Airports = append(env.Airports, Airport{ID: a.ID, X: a.X, Y: a.Y})
	}

	for _, t := range re.Targets {
		if err := claim(t.ID); err != nil {
			return nil, &ErrInputMalformed{Reason: err.Error()}
		}
		if !m.IsFinite(t.X) || !m.IsFinite(t.Y) {
			return nil, &ErrInputMalformed{Reason: fmt.Sprintf("target %q has non-finite coordinates", t.ID)}
		}
		tt := TargetType(t.Type)
		if !ValidTargetType(tt) {
			return nil, &ErrInputMalformed{Reason: fmt.Sprintf("target %q has invalid type %q", t.ID, t.Type)}
		}
		env.Targets = append(env.Targets, Target{ID: t.ID, X: t.X, Y: t.Y, Priority: t.Priority, Type: tt})
	}

	for i, s := range re.SAMs {
		x, y, ok := s.resolvePos()
		if !ok {
			return nil, &ErrInputMalformed{Reason: fmt.Sprintf("sam[%d] has no position", i)}
		}
		r, ok := s.resolveRadius()
		if !ok || r <= 0 {
			return nil, &ErrInputMalformed{Reason: fmt.Sprintf("sam[%d] has non-positive radius", i)}
		}
		if !m.IsFinite(x) || !m.IsFinite(y) {
			return nil, &ErrInputMalformed{Reason: fmt.Sprintf("sam[%d] has non-finite coordinates", i)}
		}
		env.SAMs = append(env.SAMs, SAM{X: x, Y: y, Radius: r})
	}

	for id, p := range re.SyntheticStarts {
		if err := claim(id); err != nil {
			return nil, &ErrInputMalformed{Reason: err.Error()}
		}
		if !m.IsFinite(p.X) || !m.IsFinite(p.Y) {
			return nil, &ErrInputMalformed{Reason: fmt.Sprintf("synthetic start %q has non-finite coordinates", id)}
		}
		env.SyntheticStarts[id] = m.Point2D{p.X, p.Y}
	}

	for _, c := range re.Checkpoints {
		if err := claim(c.ID); err != nil {
			return nil, &ErrInputMalformed{Reason: err.Error()}
		}
		env.Checkpoints = append(env.Checkpoints, Airport{ID: c.ID, X: c.X, Y: c.Y})
		env.SyntheticStarts[c.ID] = m.Point2D{c.X, c.Y}
	}

	return env, nil
}

// MarshalEnvironment round-trips an Environment back to the wire format,
// normalizing SAM fields to explicit x/y/range (the aliasing in
// ParseEnvironment is lossy only in which alias was originally used, not
// in value).
func MarshalEnvironment(env *Environment) ([]byte, error) {
	re := rawEnvironment{
		SyntheticStarts: map[string]rawPoint{},
	}
	for _, a := range env.Airports {
		re.Airports = append(re.Airports, rawAirport{ID: a.ID, X: a.X, Y: a.Y})
	}
	for _, t := range env.Targets {
		re.Targets = append(re.Targets, rawTarget{ID: t.ID, X: t.X, Y: t.Y, Priority: t.Priority, Type: string(t.Type)})
	}
	for _, s := range env.SAMs {
		x, y, r := s.X, s.Y, s.Radius
		re.SAMs = append(re.SAMs, rawSAM{X: &x, Y: &y, Range: &r})
	}
	checkpointIDs := map[string]bool{}
	for _, c := range env.Checkpoints {
		checkpointIDs[c.ID] = true
		re.Checkpoints = append(re.Checkpoints, rawAirport{ID: c.ID, X: c.X, Y: c.Y})
	}
	for id, p := range env.SyntheticStarts {
		if checkpointIDs[id] {
			continue
		}
		re.SyntheticStarts[id] = rawPoint{X: p[0], Y: p[1]}
	}
	return json.Marshal(re)
}
