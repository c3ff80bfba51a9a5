// Copyright (c) 2026 Lector. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package reading

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoRendition is returned by navigation on a session without a renderer.
var ErrNoRendition = errors.New("reading: session has no rendition")

// Session binds one open book to the renderer displaying it.
//
// Commands go to the rendition held by the session; position reports come
// back through [Session.Relocated]. Nothing is shared between sessions.
type Session struct {
	tracker   *Tracker
	book      BookRef
	rendition Rendition
}

// Attach opens a session for book on rendition.
func (tracker *Tracker) Attach(book BookRef, rendition Rendition) *Session {
	return &Session{tracker: tracker, book: book, rendition: rendition}
}

// Book returns the book the session is bound to.
func (session *Session) Book() BookRef { return session.book }

// Open displays the initial location (local first, then remote) and returns it.
// A book never opened anywhere starts at the renderer's default position.
func (session *Session) Open(context context.Context) (string, error) {
	location, _, err := session.tracker.InitialLocation(context, session.book.ID)
	if err != nil {
		return "", err
	}
	if location == "" {
		return "", nil
	}
	if err := session.Display(context, location); err != nil {
		return "", err
	}
	return location, nil
}

func (session *Session) Next(context context.Context) error {
	if session.rendition == nil {
		return ErrNoRendition
	}
	return session.rendition.Next(context)
}

func (session *Session) Prev(context context.Context) error {
	if session.rendition == nil {
		return ErrNoRendition
	}
	return session.rendition.Prev(context)
}

// Display jumps to a position token, e.g. a bookmark.
func (session *Session) Display(context context.Context, location string) error {
	if session.rendition == nil {
		return ErrNoRendition
	}
	return session.rendition.Display(context, location)
}

// SeekPercentage jumps to a fraction of the book in [0, 1].
func (session *Session) SeekPercentage(context context.Context, fraction float64) error {
	if session.rendition == nil {
		return ErrNoRendition
	}
	if fraction < 0 || fraction > 1 {
		return fmt.Errorf("reading: seek fraction %v outside [0, 1]", fraction)
	}

	location, err := session.rendition.LocationAt(fraction)
	if err != nil {
		return fmt.Errorf("reading: resolve %v: %w", fraction, err)
	}
	return session.rendition.Display(context, location)
}

// Relocated is the renderer's callback after any position change.
func (session *Session) Relocated(context context.Context, location string, progress float64) (bool, error) {
	return session.tracker.PositionChanged(context, session.book, location, progress)
}
