package domain

import "errors"

var (
	// ErrTransport marks a dropped node connection. It only ever travels
	// inside node notifications.
	ErrTransport = errors.New("node transport error")

	ErrHandshakeTimeout = errors.New("voice connection timed out")
	ErrConnectionClosed = errors.New("voice connection was closed")
	ErrConnectionExists = errors.New("guild already has an existing connection")
	ErrNoNodes          = errors.New("no available nodes")
	ErrNodeUnavailable  = errors.New("node is not connected")
	ErrRequestTimeout   = errors.New("rest request timed out")
	ErrNodeNotFound     = errors.New("node does not exist")
	ErrNodeExists       = errors.New("node already exists")
	ErrNotReady         = errors.New("user id is not set yet")
)
