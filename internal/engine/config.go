package engine

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidConfig = errors.New("invalid engine config")

// Mode selects how concurrent match passes on one instrument are ordered.
type Mode int

const (
	// Serialized holds a per-instrument lock around each match pass so an
	// instrument's orders are only ever mutated by one pass at a time.
	// Separate instruments still match in parallel.
	Serialized Mode = iota
	// Relaxed takes no lock at all. Two passes on the same instrument may
	// both consume the same resting order, so remaining quantities can dip
	// below zero in a narrow window.
	Relaxed
)

func (m Mode) String() string {
	switch m {
	case Serialized:
		return "serialized"
	case Relaxed:
		return "relaxed"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "serialized":
		return Serialized, nil
	case "relaxed":
		return Relaxed, nil
	}
	return 0, fmt.Errorf("%w: unknown mode %q", ErrInvalidConfig, s)
}

// LocatorKind selects the best price discovery strategy.
type LocatorKind int

const (
	// ScanLocator rescans every order in the store on each lookup.
	ScanLocator LocatorKind = iota
	// LevelLocator keeps price levels per instrument in ordered trees.
	LevelLocator
)

func (k LocatorKind) String() string {
	switch k {
	case ScanLocator:
		return "scan"
	case LevelLocator:
		return "levels"
	}
	return fmt.Sprintf("LocatorKind(%d)", int(k))
}

func ParseLocator(s string) (LocatorKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "scan":
		return ScanLocator, nil
	case "levels":
		return LevelLocator, nil
	}
	return 0, fmt.Errorf("%w: unknown locator %q", ErrInvalidConfig, s)
}

const (
	DefaultCapacity       = 50000
	DefaultMaxInstruments = 1024
)

// Config is fixed for the lifetime of an engine.
type Config struct {
	Capacity       int // Maximum number of orders ever accepted
	MaxInstruments int // Instruments are identified by [0, MaxInstruments)
	Mode           Mode
	Locator        LocatorKind
}

func DefaultConfig() Config {
	return Config{
		Capacity:       DefaultCapacity,
		MaxInstruments: DefaultMaxInstruments,
		Mode:           Serialized,
		Locator:        ScanLocator,
	}
}

func (c Config) Validate() error {
	if c.Capacity <= 0 {
		return fmt.Errorf("%w: capacity %d must be positive", ErrInvalidConfig, c.Capacity)
	}
	if c.MaxInstruments <= 0 {
		return fmt.Errorf("%w: instrument count %d must be positive", ErrInvalidConfig, c.MaxInstruments)
	}
	if c.Mode != Serialized && c.Mode != Relaxed {
		return fmt.Errorf("%w: unknown mode %v", ErrInvalidConfig, c.Mode)
	}
	if c.Locator != ScanLocator && c.Locator != LevelLocator {
		return fmt.Errorf("%w: unknown locator %v", ErrInvalidConfig, c.Locator)
	}
	return nil
}
