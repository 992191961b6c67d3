// planner/parse_test.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package planner

import (
	"testing"
)

func TestParseEnvironmentSAMAliases(t *testing.T) {
	raw := []byte(`{
		"airports": [{"id": "A1", "x": 0, "y": 0}],
		"targets": [{"id": "T1", "x": 10, "y": 10, "priority": 5, "type": "a"}],
		"sams": [
			{"pos": [30, 30], "range": 12},
			{"position": [60, 60], "radius": 8},
			{"x": 90, "y": 90, "range": 5}
		]
	}`)
	env, err := ParseEnvironment(raw)
	if err != nil {
		t.Fatal(err)
	}
	if len(env.SAMs) != 3 {
		t.Fatalf("got %d SAMs, want 3", len(env.SAMs))
	}
	want := []SAM{{X: 30, Y: 30, Radius: 12}, {X: 60, Y: 60, Radius: 8}, {X: 90, Y: 90, Radius: 5}}
	for i, s := range env.SAMs {
		if s != want[i] {
			t.Errorf("sam[%d]: got %+v, want %+v", i, s, want[i])
		}
	}
}

func TestParseEnvironmentRejects(t *testing.T) {
	for _, tc := range []struct {
		name string
		raw  string
	}{
		{"duplicate id", `{"airports": [{"id": "A1", "x": 0, "y": 0}], "targets": [{"id": "A1", "x": 1, "y": 1, "priority": 0, "type": "a"}]}`},
		{"empty id", `{"airports": [{"id": "", "x": 0, "y": 0}]}`},
		{"bad target type", `{"targets": [{"id": "T1", "x": 0, "y": 0, "priority": 1, "type": "z"}]}`},
		{"zero radius", `{"sams": [{"pos": [0, 0], "range": 0}]}`},
		{"negative radius", `{"sams": [{"pos": [0, 0], "radius": -3}]}`},
		{"missing sam position", `{"sams": [{"range": 5}]}`},
		{"duplicate json key", `{"airports": [], "airports": []}`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseEnvironment([]byte(tc.raw))
			if err == nil {
				t.Fatal("expected rejection")
			}
			if _, ok := err.(*ErrInputMalformed); !ok {
				t.Errorf("got %T, want *ErrInputMalformed", err)
			}
		})
	}
}

func TestEnvironmentRoundTrip(t *testing.T) {
	raw := []byte(`{
		"airports": [{"id": "A1", "x": 0, "y": 0}, {"id": "A2", "x": 100, "y": 0}],
		"targets": [{"id": "T1", "x": 20, "y": 40, "priority": 5, "type": "a"}],
		"sams": [{"position": [50, 50], "radius": 10}],
		"synthetic_starts": {"C1-1": {"x": 20, "y": 20}},
		"checkpoints": [{"id": "C2", "x": 30, "y": 30}]
	}`)
	env, err := ParseEnvironment(raw)
	if err != nil {
		t.Fatal(err)
	}

	out, err := MarshalEnvironment(env)
	if err != nil {
		t.Fatal(err)
	}
	env2, err := ParseEnvironment(out)
	if err != nil {
		t.Fatalf("re-parse failed: %v", err)
	}

	if len(env2.Airports) != len(env.Airports) || len(env2.Targets) != len(env.Targets) || len(env2.SAMs) != len(env.SAMs) {
		t.Fatalf("round trip changed entity counts: %+v vs %+v", env2, env)
	}
	for i := range env.Airports {
		if env2.Airports[i] != env.Airports[i] {
			t.Errorf("airport %d: got %+v, want %+v", i, env2.Airports[i], env.Airports[i])
		}
	}
	for i := range env.Targets {
		if env2.Targets[i] != env.Targets[i] {
			t.Errorf("target %d: got %+v, want %+v", i, env2.Targets[i], env.Targets[i])
		}
	}
	// Alias normalization: position/radius in, x/y/range out, same values.
	for i := range env.SAMs {
		if env2.SAMs[i] != env.SAMs[i] {
			t.Errorf("sam %d: got %+v, want %+v", i, env2.SAMs[i], env.SAMs[i])
		}
	}
	if p, ok := env2.SyntheticStarts["C1-1"]; !ok || p != env.SyntheticStarts["C1-1"] {
		t.Errorf("synthetic start lost in round trip: %v", env2.SyntheticStarts)
	}
	if len(env2.Checkpoints) != 1 || env2.Checkpoints[0] != env.Checkpoints[0] {
		t.Errorf("checkpoint lost in round trip: %v", env2.Checkpoints)
	}
}

func TestParseUnknownFieldsIgnored(t *testing.T) {
	raw := []byte(`{"airports": [{"id": "A1", "x": 0, "y": 0, "elevation": 120}], "comment": "scenario seven"}`)
	env, err := ParseEnvironment(raw)
	if err != nil {
		t.Fatal(err)
	}
	if len(env.Airports) != 1 {
		t.Fatalf("got %d airports, want 1", len(env.Airports))
	}
}
