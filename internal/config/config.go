// Package config describes the router's own identity and the tuning knobs
// handed to its default collaborators (the HLC skew window, most notably).
// It mirrors USA-RedDragon-DMRHub's internal/config package: a plain struct
// populated by the cmd entrypoint's cobra flags, with no file format or
// remote config source of its own.
package config

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/libp2p/go-libp2p-core/peer"

	pubsub "github.com/meshspace/pubsubrouter"
)

// Config is the router's own identity plus the ambient tuning knob its
// default HLC collaborator (defaultClock) is constructed with.
type Config struct {
	// Pid is this node's own peer identity, base58-encoded.
	Pid string
	// WhatAmI is this node's own tier: "router", "peer" or "client".
	WhatAmI string
	// ClockSkew bounds how far ahead of the local wall clock a remote
	// HLC timestamp may be before defaultClock rejects it.
	ClockSkew time.Duration
}

// Default returns a Config with the values routerd falls back to when no
// flag overrides them; environment variables are not read.
func Default() Config {
	return Config{
		WhatAmI:   "router",
		ClockSkew: 5 * time.Second,
	}
}

// ParsedPid decodes Pid, minting a fresh random identity if none was given.
// The core treats PeerId opaquely (spec.md §3), so a random byte string is a
// perfectly good standalone identity even though it is not a real multihash.
func (c Config) ParsedPid() (pubsub.PeerId, error) {
	if c.Pid == "" {
		buf := make([]byte, 16)
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("minting random pid: %w", err)
		}
		return pubsub.PeerId(buf), nil
	}
	id, err := peer.Decode(c.Pid)
	if err != nil {
		return id, fmt.Errorf("parsing --pid %q: %w", c.Pid, err)
	}
	return id, nil
}

// ParsedWhatAmI maps the configured tier name to its pubsub.WhatAmI.
func (c Config) ParsedWhatAmI() (pubsub.WhatAmI, error) {
	switch c.WhatAmI {
	case "router":
		return pubsub.Router, nil
	case "peer":
		return pubsub.Peer, nil
	case "client":
		return pubsub.Client, nil
	default:
		return pubsub.WhatAmIUnknown, fmt.Errorf("unknown --whatami %q (want router, peer or client)", c.WhatAmI)
	}
}
