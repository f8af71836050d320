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

import "sync"

// JoinSubscriptions joins multiple subscriptions into one subscription. Unsubscribing
// the result unsubscribes all of the children. The resulting subscription's error
// channel only fires once every child subscription has terminated.
func JoinSubscriptions(subs ...Subscription) Subscription {
	return NewSubscription(func(unsub <-chan struct{}) error {
		closed := make(chan struct{})
		go func() {
			var wg sync.WaitGroup
			wg.Add(len(subs))
			for _, s := range subs {
				s := s
				go func() {
					defer wg.Done()
					<-s.Err()
				}()
			}
			wg.Wait()
			close(closed)
		}()

		select {
		case <-closed:
			return nil
		case <-unsub:
			for _, s := range subs {
				s.Unsubscribe()
			}
			<-closed
			return nil
		}
	})
}
