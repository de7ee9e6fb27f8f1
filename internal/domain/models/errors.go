package models

import "errors"

var (
	// ErrTransport marks a dropped, refused or failed network connection.
	ErrTransport = errors.New("transport error")
	// ErrProtocol marks an unparseable or unexpectedly shaped venue/relay message.
	ErrProtocol = errors.New("protocol error")
	// ErrConnection marks a failure to open a short-lived order connection.
	ErrConnection = errors.New("connection error")
	// ErrAuth marks a failure to deliver the authorize message.
	ErrAuth = errors.New("auth error")
)
