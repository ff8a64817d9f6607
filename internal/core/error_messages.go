package core

// error_messages.go maps technical errors to user-facing messages with codes.
//
// When an import is rejected as a whole, the caller gets a message, a
// suggested action and a code to quote to support:
//
//	FILE001 - File too large               Patterns: "file too large"
//	FILE002 - Unreadable spreadsheet       Patterns: "unreadable spreadsheet"
//	FILE003 - Invalid encoding             Patterns: "invalid file encoding"
//	FILE004 - No file                      Patterns: "no file provided"
//	FILE005 - Empty spreadsheet            Patterns: "empty spreadsheet"
//	FILE006 - Unsupported format           Patterns: "unsupported file format"
//	IMP001  - Lookups unavailable          Patterns: "tenant lookups unavailable"
//	IMP002  - System busy                  Patterns: "too many concurrent imports"
//	REQ001  - Invalid request              Patterns: "invalid import request"
//	AUTH001 - Not authenticated            Patterns: "unauthenticated"
//	DB001   - Duplicate key                Patterns: "duplicate key"
//	DB003   - Foreign key                  Patterns: "violates foreign key"
//	DB004   - Connection refused           Patterns: "connection refused"
//	DB006   - Timeout                      Patterns: "timeout", "context deadline exceeded"
//	RATE001 - Rate limited                 Patterns: "rate limit"
//	ERR000  - Unknown error (fallback)
//
// Patterns are matched case-insensitively with strings.Contains; the first
// match wins, so specific patterns come before general ones.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// File errors
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "The spreadsheet exceeds the maximum upload size",
			Action:  "Split the spreadsheet into smaller files",
			Code:    "FILE001",
		},
	},
	{
		pattern: "unreadable spreadsheet",
		msg: UserMessage{
			Message: "The spreadsheet could not be read",
			Action:  "Save the file as .xlsx or .csv and upload it again",
			Code:    "FILE002",
		},
	},
	{
		pattern: "invalid file encoding",
		msg: UserMessage{
			Message: "The uploaded file is not valid base64",
			Action:  "Upload the file again",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a spreadsheet to import",
			Code:    "FILE004",
		},
	},
	{
		pattern: "empty spreadsheet",
		msg: UserMessage{
			Message: "The spreadsheet has no data rows",
			Action:  "Add at least one row below the header row",
			Code:    "FILE005",
		},
	},
	{
		pattern: "unsupported file format",
		msg: UserMessage{
			Message: "This file type is not supported",
			Action:  "Upload an .xlsx or .csv file",
			Code:    "FILE006",
		},
	},

	// Import errors
	{
		pattern: "tenant lookups unavailable",
		msg: UserMessage{
			Message: "Clients, companies and channels could not be loaded",
			Action:  "Nothing was imported. Please try again in a few moments",
			Code:    "IMP001",
		},
	},
	{
		pattern: "too many concurrent imports",
		msg: UserMessage{
			Message: "System is busy processing other imports",
			Action:  "Please wait a moment and try again",
			Code:    "IMP002",
		},
	},

	// Request errors
	{
		pattern: "invalid import request",
		msg: UserMessage{
			Message: "The import request is malformed",
			Action:  "Send file, filename and tenantId",
			Code:    "REQ001",
		},
	},
	{
		pattern: "unauthenticated",
		msg: UserMessage{
			Message: "You must be signed in to import",
			Action:  "Provide a valid API key",
			Code:    "AUTH001",
		},
	},

	// Database errors
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "A record with this ID already exists",
			Action:  "Review the rows reported as failed",
			Code:    "DB001",
		},
	},
	{
		pattern: "violates foreign key",
		msg: UserMessage{
			Message: "Referenced record does not exist",
			Action:  "Check that the client, company and channel still exist",
			Code:    "DB003",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller spreadsheet or try again later",
			Code:    "DB006",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Try a smaller spreadsheet or try again later",
			Code:    "DB006",
		},
	},

	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// If no pattern matches, the ERR000 fallback is returned.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError wraps a technical error with a user-friendly message.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
