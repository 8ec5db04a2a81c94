package model

import (
	"errors"
	"fmt"
	"strings"
)

var ErrorPostNotFound = errors.New("post not found")
var ErrorSettingsNotFound = errors.New("settings not found")
var ErrorNoCredentials = errors.New("no Threads access token or user id configured")

// ValidationError carries the full list of rule violations for an ingested
// batch; a batch is accepted whole or rejected whole.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "invalid posts: " + strings.Join(e.Errors, "; ")
}

// PlatformError is a non-success response from the publishing platform,
// carrying the platform's reported error when present.
type PlatformError struct {
	Message string
	Type    string
	Code    int
}

func (e *PlatformError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("%s (%s, code %d)", e.Message, e.Type, e.Code)
	}
	return e.Message
}
