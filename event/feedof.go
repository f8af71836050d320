// Copyright 2023 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package event

import (
	"context"
	"sync"
)

// FeedOf implements one-to-many subscriptions where the carrier of events is a channel.
// Values sent to a FeedOf are delivered to all subscribed channels simultaneously.
//
// The zero value is ready to use.
type FeedOf[T any] struct {
	once      sync.Once
	sendLock  chan struct{}
	removeSub chan chan<- T
	sendCases caseListOf[T]

	mu    sync.Mutex
	inbox caseListOf[T]
}

type caseOf[T any] struct {
	channel chan<- T
}

type caseListOf[T any] []caseOf[T]

func (f *FeedOf[T]) init() {
	f.removeSub = make(chan chan<- T)
	f.sendLock = make(chan struct{}, 1)
	f.sendLock <- struct{}{}
}

// Subscribe adds a channel to the feed. Future sends will be delivered on the channel
// until the subscription is canceled.
//
// The channel should have ample buffer space to avoid blocking other subscribers.
// Slow subscribers are not dropped by Send, only by SendWithCtx when drop is requested.
func (f *FeedOf[T]) Subscribe(channel chan<- T) Subscription {
	f.once.Do(f.init)

	sub := &feedOfSub[T]{feed: f, channel: channel, err: make(chan error, 1)}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inbox = append(f.inbox, caseOf[T]{channel: channel})
	return sub
}

type feedOfSub[T any] struct {
	feed    *FeedOf[T]
	channel chan<- T
	errOnce sync.Once
	err     chan error
}

func (sub *feedOfSub[T]) Unsubscribe() {
	sub.errOnce.Do(func() {
		sub.feed.remove(sub)
		close(sub.err)
	})
}

func (sub *feedOfSub[T]) Err() <-chan error {
	return sub.err
}

func (f *FeedOf[T]) remove(sub *feedOfSub[T]) {
	// Delete from inbox first, which covers channels that have not been sent on yet.
	f.mu.Lock()
	for i, cas := range f.inbox {
		if cas.channel == sub.channel {
			f.inbox = append(f.inbox[:i], f.inbox[i+1:]...)
			f.mu.Unlock()
			return
		}
	}
	f.mu.Unlock()

	select {
	case f.removeSub <- sub.channel:
		// A Send is in progress, it will remove the channel from sendCases.
	case <-f.sendLock:
		// No Send is in progress, delete the channel now that we hold the send lock.
		f.deleteSendCase(sub.channel)
		f.sendLock <- struct{}{}
	}
}

func (f *FeedOf[T]) deleteSendCase(channel chan<- T) {
	for i, cas := range f.sendCases {
		if cas.channel == channel {
			f.sendCases = append(f.sendCases[:i], f.sendCases[i+1:]...)
			return
		}
	}
}

// Send delivers to all subscribed channels simultaneously. It returns the number of
// subscribers that the value was sent to. Send blocks until every current subscriber
// has received the value.
func (f *FeedOf[T]) Send(value T) (nsent int) {
	nsent, _ = f.sendWithCtx(context.Background(), false, value)
	return nsent
}

// SendWithCtx delivers value the same way as Send, but stops waiting on slow
// subscribers once ctx is done. If drop is true, channels that had not yet received
// the value when ctx became done are unsubscribed and closed, and ndropped reports
// how many of them there were. If drop is false, cancellation of ctx is ignored and
// SendWithCtx behaves exactly like Send, blocking until all subscribers are served.
func (f *FeedOf[T]) SendWithCtx(ctx context.Context, drop bool, value T) (nsent, ndropped int) {
	return f.sendWithCtx(ctx, drop, value)
}

func (f *FeedOf[T]) sendWithCtx(ctx context.Context, drop bool, value T) (nsent, ndropped int) {
	f.once.Do(f.init)
	<-f.sendLock

	f.mu.Lock()
	f.sendCases = append(f.sendCases, f.inbox...)
	f.inbox = nil
	f.mu.Unlock()

	remaining := make([]chan<- T, len(f.sendCases))
	for i, cas := range f.sendCases {
		remaining[i] = cas.channel
	}

	var done <-chan struct{}
	if drop {
		done = ctx.Done()
	}

	for len(remaining) > 0 {
		// Fast path: try sending without blocking before falling back to a
		// blocking select. This usually succeeds if subscribers keep up.
		progress := true
		for progress {
			progress = false
			for i := 0; i < len(remaining); i++ {
				select {
				case remaining[i] <- value:
					nsent++
					remaining = append(remaining[:i], remaining[i+1:]...)
					i--
					progress = true
				case ch := <-f.removeSub:
					f.deleteSendCase(ch)
					remaining = removeChan(remaining, ch)
					i--
					progress = true
				default:
				}
			}
		}
		if len(remaining) == 0 {
			break
		}

		select {
		case remaining[0] <- value:
			nsent++
			remaining = remaining[1:]
		case ch := <-f.removeSub:
			f.deleteSendCase(ch)
			remaining = removeChan(remaining, ch)
		case <-done:
			for _, ch := range remaining {
				f.deleteSendCase(ch)
				close(ch)
			}
			ndropped = len(remaining)
			remaining = nil
		}
	}

	f.sendLock <- struct{}{}
	return nsent, ndropped
}

func removeChan[T any](chans []chan<- T, target chan<- T) []chan<- T {
	for i, ch := range chans {
		if ch == target {
			return append(chans[:i], chans[i+1:]...)
		}
	}
	return chans
}
