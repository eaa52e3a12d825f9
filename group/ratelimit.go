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

package group

import (
	"sync"
	"time"

	"github.com/tomnet-org/tomnet/identity"
)

// bucket is a per-sender token bucket: refills to capacity once per
// second, one token per allowed message.
type bucket struct {
	mu       sync.Mutex
	tokens   int
	capacity int
}

func newBucket(capacity int) *bucket {
	return &bucket{tokens: capacity, capacity: capacity}
}

func (b *bucket) consume() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.tokens <= 0 {
		return false
	}
	b.tokens--
	return true
}

func (b *bucket) refill() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokens = b.capacity
}

// SenderRateLimiter enforces a per-sender messages-per-second cap at the
// hub, refilling every sender's bucket to capacity once a second.
type SenderRateLimiter struct {
	mu       sync.Mutex
	buckets  map[identity.NodeID]*bucket
	capacity int

	tick *time.Ticker
	stop chan struct{}
}

// NewSenderRateLimiter creates a limiter allowing capacity messages/sec per
// sender.
func NewSenderRateLimiter(capacity int) *SenderRateLimiter {
	l := &SenderRateLimiter{
		buckets:  make(map[identity.NodeID]*bucket),
		capacity: capacity,
		tick:     time.NewTicker(time.Second),
		stop:     make(chan struct{}),
	}
	go l.refillLoop()
	return l
}

// Allow reports whether sender may send a group message right now,
// consuming one token if so.
func (l *SenderRateLimiter) Allow(sender identity.NodeID) bool {
	l.mu.Lock()
	b, ok := l.buckets[sender]
	if !ok {
		b = newBucket(l.capacity)
		l.buckets[sender] = b
	}
	l.mu.Unlock()
	return b.consume()
}

// Close stops the refill goroutine.
func (l *SenderRateLimiter) Close() {
	close(l.stop)
	l.tick.Stop()
}

func (l *SenderRateLimiter) refillLoop() {
	for {
		select {
		case <-l.tick.C:
			l.mu.Lock()
			buckets := make([]*bucket, 0, len(l.buckets))
			for _, b := range l.buckets {
				buckets = append(buckets, b)
			}
			l.mu.Unlock()
			for _, b := range buckets {
				b.refill()
			}
		case <-l.stop:
			return
		}
	}
}
