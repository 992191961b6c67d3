// distmat/cache.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package distmat

import (
	"sort"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/sync/singleflight"

	"github.com/isrplan/planner/log"
	"github.com/isrplan/planner/util"
)

// Fingerprint derives a stable cache key for in by msgpack-encoding its
// geometry-relevant fields (waypoint ids/positions, SAM disks, buffer)
// and hashing the result with xxhash. The matrix is invalidated whenever
// any of those change — adding a waypoint or nudging a SAM produces a
// different fingerprint automatically.
func Fingerprint(in Input) (uint64, error) {
	type wp struct {
		ID  string
		X   float64
		Y   float64
		Tgt bool
		Apt bool
	}
	type disk struct{ X, Y, R float64 }

	sortedWP := make([]wp, len(in.Waypoints))
	for i, w := range in.Waypoints {
		sortedWP[i] = wp{ID: w.ID, X: w.Pos[0], Y: w.Pos[1], Tgt: w.IsTarget, Apt: w.IsAirport}
	}
	sort.Slice(sortedWP, func(i, j int) bool { return sortedWP[i].ID < sortedWP[j].ID })

	disks := make([]disk, len(in.SAMs))
	for i, s := range in.SAMs {
		disks[i] = disk{s.Center[0], s.Center[1], s.Radius}
	}
	sort.Slice(disks, func(i, j int) bool {
		if disks[i].X != disks[j].X {
			return disks[i].X < disks[j].X
		}
		if disks[i].Y != disks[j].Y {
			return disks[i].Y < disks[j].Y
		}
		return disks[i].R < disks[j].R
	})

	payload := struct {
		Waypoints []wp
		SAMs      []disk
		Buffer    float64
	}{sortedWP, disks, in.Buffer}

	b, err := msgpack.Marshal(payload)
	if err != nil {
		return 0, err
	}
	return xxhash.Sum64(b), nil
}

// Cache is the single process-wide distance-matrix cache: a capacity-1
// LRU slot, with concurrent builds for the same fingerprint collapsed
// via singleflight and the slow path (check, build, insert) serialized
// under a LoggingMutex. Readers borrow the cached *Matrix directly;
// only a cache miss takes the mutex.
type Cache struct {
	slot  *lru.Cache[uint64, *Matrix]
	group singleflight.Group
	mu    util.LoggingMutex
}

// NewCache creates an empty single-slot cache.
func NewCache() *Cache {
	slot, _ := lru.New[uint64, *Matrix](1)
	return &Cache{slot: slot}
}

// GetOrBuild returns the cached matrix for fingerprint if present,
// otherwise builds it via build, inserts it, and returns it. Concurrent
// calls with the same fingerprint share one in-flight build.
func (c *Cache) GetOrBuild(lg *log.Logger, fingerprint uint64, build func() *Matrix) *Matrix {
	if v, ok := c.slot.Get(fingerprint); ok {
		return v
	}

	v, _, _ := c.group.Do(keyString(fingerprint), func() (interface{}, error) {
		if v, ok := c.slot.Get(fingerprint); ok {
			return v, nil
		}
		c.mu.Lock(lg)
		defer c.mu.Unlock(lg)
		mt := build()
		c.slot.Add(fingerprint, mt)
		return mt, nil
	})
	return v.(*Matrix)
}

// Clear empties the cache. Collaborators are responsible for calling
// this on environment edits; the core never auto-invalidates.
func (c *Cache) Clear() {
	c.slot.Purge()
}

func keyString(fp uint64) string {
	const hex = "0123456789abcdef"
	buf := make([]byte, 16)
	for i := 15; i >= 0; i-- {
		buf[i] = hex[fp&0xf]
		fp >>= 4
	}
	return string(buf)
}
