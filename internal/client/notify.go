// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of portalctl

package client

import "sync"

// NotificationKind classifies a notification.
type NotificationKind string

const (
	KindSuccess NotificationKind = "success"
	KindError   NotificationKind = "error"
	KindWarning NotificationKind = "warning"
)

// Notification is handed to the registered sink once per call outcome.
type Notification struct {
	Kind    NotificationKind
	Message string
	Details []string
}

// Notifier receives notifications.
type Notifier func(Notification)

// LoadingListener observes the loading indicator visibility.
type LoadingListener interface {
	// LoadingChanged fires when the indicator turns on or off.
	LoadingChanged(visible bool)
}

// LoadingCounter tracks in-flight calls that opted into the loading indicator.
// The indicator is visible iff the count is positive.
type LoadingCounter struct {
	count     int
	listeners []LoadingListener
	mx        sync.Mutex
}

// NewLoadingCounter returns a zeroed counter.
func NewLoadingCounter() *LoadingCounter {
	return &LoadingCounter{}
}

// Inc registers a started call.
func (l *LoadingCounter) Inc() {
	l.mx.Lock()
	defer l.mx.Unlock()

	l.count++
	if l.count == 1 {
		l.fire(true)
	}
}

// Dec registers a terminated call. The count never drops below zero.
func (l *LoadingCounter) Dec() {
	l.mx.Lock()
	defer l.mx.Unlock()

	if l.count == 0 {
		return
	}
	l.count--
	if l.count == 0 {
		l.fire(false)
	}
}

// Count returns the number of in-flight calls.
func (l *LoadingCounter) Count() int {
	l.mx.Lock()
	defer l.mx.Unlock()
	return l.count
}

// Visible reports whether the loading indicator should show.
func (l *LoadingCounter) Visible() bool {
	return l.Count() > 0
}

// AddListener registers a loading listener.
func (l *LoadingCounter) AddListener(ll LoadingListener) {
	l.mx.Lock()
	defer l.mx.Unlock()
	l.listeners = append(l.listeners, ll)
}

// RemoveListener unregisters a loading listener.
func (l *LoadingCounter) RemoveListener(ll LoadingListener) {
	l.mx.Lock()
	defer l.mx.Unlock()

	for i, listener := range l.listeners {
		if listener == ll {
			l.listeners = append(l.listeners[:i], l.listeners[i+1:]...)
			return
		}
	}
}

// fire runs under the lock so transitions reach listeners in order.
func (l *LoadingCounter) fire(visible bool) {
	for _, ll := range l.listeners {
		ll.LoadingChanged(visible)
	}
}
