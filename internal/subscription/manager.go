// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package subscription keeps at most one active sensor subscription per
// reference tag and makes unsubscribe idempotent.
package subscription

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
)

var (
	// ErrNotSubscribed is returned by a Provider asked to stop a tag it is
	// not delivering. The Manager treats it as success.
	ErrNotSubscribed = errors.New("subscription: tag not subscribed")
	// ErrBusy is returned by a Provider that cannot take the request.
	ErrBusy = errors.New("subscription: resource busy")
)

// Provider is the sensor stream collaborator.
type Provider interface {
	Subscribe(path string, tag uint8) error
	Unsubscribe(tag uint8) error
}

// Manager mediates subscribe/unsubscribe for one logical consumer.
// It is not safe for concurrent use.
type Manager struct {
	provider   Provider
	defaultTag uint8
	active     map[uint8]string
	log        *slog.Logger
}

func NewManager(p Provider, defaultTag uint8, log *slog.Logger) *Manager {
	return &Manager{
		provider:   p,
		defaultTag: defaultTag,
		active:     make(map[uint8]string),
		log:        log.With("component", "subscription"),
	}
}

// Subscribe starts delivery of path under tag. Any subscription on the
// default tag or on tag itself is stopped first so two pipelines never
// deliver to the same consumer.
func (m *Manager) Subscribe(path string, tag uint8) error {
	if err := m.Unsubscribe(m.defaultTag); err != nil {
		return err
	}
	if tag != m.defaultTag {
		if err := m.Unsubscribe(tag); err != nil {
			return err
		}
	}
	if err := m.provider.Subscribe(path, tag); err != nil {
		return fmt.Errorf("subscribe %s (tag %d): %w", path, tag, err)
	}
	m.active[tag] = path
	m.log.Info("subscribed", "path", path, "tag", tag)
	return nil
}

// Unsubscribe stops delivery for tag. Stopping a tag that is not
// subscribed is a no-op.
func (m *Manager) Unsubscribe(tag uint8) error {
	err := m.provider.Unsubscribe(tag)
	if err != nil && !errors.Is(err, ErrNotSubscribed) {
		return fmt.Errorf("unsubscribe tag %d: %w", tag, err)
	}
	if path, ok := m.active[tag]; ok {
		delete(m.active, tag)
		m.log.Info("unsubscribed", "path", path, "tag", tag)
	}
	return nil
}

// Active reports whether tag currently has a subscription.
func (m *Manager) Active(tag uint8) bool {
	_, ok := m.active[tag]
	return ok
}

// Tags lists the active tags in ascending order.
func (m *Manager) Tags() []uint8 {
	tags := make([]uint8, 0, len(m.active))
	for t := range m.active {
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}
