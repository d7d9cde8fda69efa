package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/quantmind-br/bundlefile/internal/config"
	"github.com/quantmind-br/bundlefile/internal/discovery"
)

// Validation error messages
var (
	ErrRequired      = errors.New("this field is required")
	ErrInvalidNumber = errors.New("must be a valid number")
	ErrInvalidRange  = errors.New("value out of valid range")
)

// ValidateRequired ensures a string value is not empty
func ValidateRequired(s string) error {
	if strings.TrimSpace(s) == "" {
		return ErrRequired
	}
	return nil
}

// ValidateIntRange validates that a string represents an integer within a range
func ValidateIntRange(min, max int) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return ErrInvalidNumber
		}
		if n < min || n > max {
			return fmt.Errorf("%w: must be between %d and %d", ErrInvalidRange, min, max)
		}
		return nil
	}
}

// ValidateSize validates sizes such as 512KB or 10MB
func ValidateSize(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil // Empty is valid (will use default)
	}
	if _, err := config.ParseSize(s); err != nil {
		return fmt.Errorf("invalid size (use: 512KB, 10MB, 0 for unlimited): %w", err)
	}
	return nil
}

// ValidatePatterns validates one glob per line
func ValidatePatterns(s string) error {
	_, err := discovery.NewFilter(splitPatterns(s), nil)
	return err
}

// ValidateLogLevel validates log level values
func ValidateLogLevel(s string) error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(s)] {
		return fmt.Errorf("invalid log level: must be one of debug, info, warn, error")
	}
	return nil
}

// ValidateLogFormat validates log format values
func ValidateLogFormat(s string) error {
	switch strings.ToLower(s) {
	case "json", "pretty":
		return nil
	}
	return fmt.Errorf("invalid log format: must be json or pretty")
}
