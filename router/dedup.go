// Copyright (C) 2025 tomnet-org
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package router

import (
	"sync"
	"time"
)

// DedupCache records envelope ids already seen, with a TTL matching the
// envelope's own message lifetime so entries are evicted along with the
// messages they guard.
type DedupCache struct {
	ttl  time.Duration
	data sync.Map // envelope id -> expiry unix

	tick *time.Ticker
	stop chan struct{}
}

// NewDedupCache creates a cache with a background GC goroutine that sweeps
// expired ids once a minute.
func NewDedupCache(ttl time.Duration) *DedupCache {
	c := &DedupCache{
		ttl:  ttl,
		stop: make(chan struct{}),
		tick: time.NewTicker(time.Minute),
	}
	go c.gcLoop()
	return c
}

// Seen reports whether id has already been recorded; if not, it records it
// and returns false.
func (c *DedupCache) Seen(id string) bool {
	if id == "" {
		return false
	}
	now := time.Now()
	exp := now.Add(c.ttl).Unix()

	if old, ok := c.data.Load(id); ok {
		if prevExp, _ := old.(int64); prevExp >= now.Unix() {
			return true
		}
	}
	c.data.Store(id, exp)
	return false
}

// Close stops the background GC goroutine.
func (c *DedupCache) Close() {
	close(c.stop)
	c.tick.Stop()
}

func (c *DedupCache) gcLoop() {
	for {
		select {
		case <-c.tick.C:
			now := time.Now().Unix()
			c.data.Range(func(k, v any) bool {
				if exp, _ := v.(int64); exp < now {
					c.data.Delete(k)
				}
				return true
			})
		case <-c.stop:
			return
		}
	}
}
