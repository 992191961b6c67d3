// cmd/isrplan/main.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/klauspost/compress/zstd"

	"github.com/isrplan/planner/allocate"
	"github.com/isrplan/planner/log"
	"github.com/isrplan/planner/planner"
	"github.com/isrplan/planner/util"
)

type rawDroneConfig struct {
	ID              string   `json:"id"`
	Enabled         bool     `json:"enabled"`
	FuelBudget      float64  `json:"fuel_budget"`
	StartID         string   `json:"start_id"`
	EndID           string   `json:"end_id"`
	AccessibleTypes []string `json:"accessible_types"`
}

func parseDroneConfigs(b []byte) ([]planner.DroneConfig, error) {
	var raw []rawDroneConfig
	if err := util.UnmarshalJSONBytes(b, &raw); err != nil {
		return nil, err
	}
	out := make([]planner.DroneConfig, len(raw))
	for i, r := range raw {
		access := map[planner.TargetType]bool{}
		for _, t := range r.AccessibleTypes {
			access[planner.TargetType(t)] = true
		}
		out[i] = planner.DroneConfig{
			ID: r.ID, Enabled: r.Enabled, FuelBudget: r.FuelBudget,
			StartID: r.StartID, EndID: r.EndID, AccessibleTypes: access,
		}
	}
	return out, nil
}

func main() {
	envPath := flag.String("env", "", "path to environment JSON")
	dronesPath := flag.String("drones", "", "path to drone_configs JSON")
	strategy := flag.String("strategy", "greedy", "allocation strategy: greedy|balanced|efficient|geographic|exclusive")
	noPostOpt := flag.Bool("no-post-optimize", false, "disable the post-optimization passes")
	compress := flag.Bool("compress", false, "zstd-compress the solution before writing it")
	out := flag.String("out", "", "output path (default: stdout, or solution.json.zst with -compress)")
	flag.Parse()

	lg := log.Discard()

	if *envPath == "" {
		fmt.Fprintln(os.Stderr, "usage: isrplan -env environment.json [-drones drone_configs.json] [-strategy ...] [-out solution.json]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	envBytes, err := os.ReadFile(*envPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	env, err := planner.ParseEnvironment(envBytes)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var drones []planner.DroneConfig
	if *dronesPath != "" {
		droneBytes, err := os.ReadFile(*dronesPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		drones, err = parseDroneConfigs(droneBytes)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	var e util.ErrorLogger
	e.Push("strategy")
	st := allocate.Strategy(*strategy)
	switch st {
	case allocate.Greedy, allocate.Balanced, allocate.Efficient, allocate.Geographic, allocate.ExclusiveFirst:
	default:
		e.ErrorString("unknown strategy %q", *strategy)
	}
	e.Pop()
	if e.HaveErrors() {
		e.PrintErrors(lg)
		os.Exit(1)
	}

	f := planner.NewFacade(lg)
	opts := planner.DefaultOptions()
	opts.PostOptimize = !*noPostOpt

	sol, err := f.Solve(env, drones, st, opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	droneOrder := make([]string, len(drones))
	for i, d := range drones {
		droneOrder[i] = d.ID
	}
	solBytes, err := planner.MarshalSolution(sol, droneOrder)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if !*compress {
		if err := writeOutput(*out, solBytes); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	compressed := enc.EncodeAll(solBytes, nil)
	enc.Close()
	path := *out
	if path == "" {
		path = "solution.json.zst"
	}
	if err := os.WriteFile(path, compressed, 0o644); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func writeOutput(path string, b []byte) error {
	if path == "" {
		_, err := os.Stdout.Write(append(b, '\n'))
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
