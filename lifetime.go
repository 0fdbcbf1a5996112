package ioc

import (
	"encoding/json"
	"fmt"
)

// Lifetime is the construction strategy recorded for a key.
// It determines whether the factory runs on every resolution, once, or never.
type Lifetime int

const (
	// Transient invokes the factory on every resolution.
	// This is the default for Register.
	Transient Lifetime = iota

	// Singleton invokes the factory on first resolution and caches the result
	// for the lifetime of the container that holds the registration.
	// A failed construction is not cached.
	Singleton

	// Instance holds a value built by the caller. The container never
	// constructs or disposes it.
	Instance
)

// String returns the string representation of the Lifetime.
func (l Lifetime) String() string {
	switch l {
	case Transient:
		return "Transient"
	case Singleton:
		return "Singleton"
	case Instance:
		return "Instance"
	default:
		return fmt.Sprintf("Unknown(%d)", int(l))
	}
}

// IsValid checks if the lifetime is one of the defined strategies.
func (l Lifetime) IsValid() bool {
	return l >= Transient && l <= Instance
}

// MarshalText implements encoding.TextMarshaler.
func (l Lifetime) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Lifetime) UnmarshalText(text []byte) error {
	switch string(text) {
	case "Transient", "transient":
		*l = Transient
	case "Singleton", "singleton":
		*l = Singleton
	case "Instance", "instance":
		*l = Instance
	default:
		return LifetimeError{Value: string(text)}
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (l Lifetime) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *Lifetime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	return l.UnmarshalText([]byte(s))
}
