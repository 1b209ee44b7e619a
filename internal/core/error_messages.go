package core

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

func pattern(p, code, message, action string) errorPattern {
	return errorPattern{pattern: p, msg: UserMessage{Message: message, Action: action, Code: code}}
}

// errorPatterns is matched in order against the lowercased error text; the
// first hit wins, so specific patterns go before general ones.
var errorPatterns = []errorPattern{
	// Constraints
	pattern("duplicate key", "DB001", "A record with this ID already exists", "Remove repeated identifiers from the sheet"),
	pattern("unique constraint", "DB002", "This value must be unique but already exists", "Check for duplicate entries in the sheet"),
	pattern("violates unique", "DB002", "A duplicate value was found", "Review the sheet for duplicate key values"),
	pattern("foreign key constraint", "DB003", "Referenced record does not exist", "Import the parent sheet first or fix the reference"),
	pattern("violates foreign key", "DB003", "Referenced record does not exist", "Import the parent sheet first or fix the reference"),

	// Connectivity
	pattern("connection refused", "DB004", "Unable to connect to database", "Please try again in a few moments"),
	pattern("connection reset", "DB005", "Database connection was interrupted", "Please try again"),
	pattern("timeout", "DB006", "Operation timed out", "Try a smaller workbook or try again later"),
	pattern("deadlock", "DB007", "Database was busy with conflicting operations", "Please try again"),

	// Cell and row validation
	pattern("invalid date", "VAL001", "Invalid date format detected", "Use YYYY-MM-DD or a spreadsheet date cell"),
	pattern("invalid number", "VAL002", "Invalid number format detected", "Use plain digits with an optional decimal separator"),
	pattern("required field", "VAL003", "Required field is empty", "Ensure all required columns have values"),
	pattern("columns, got", "VAL004", "Row has fewer columns than expected", "Check the row against the import template"),
	pattern("invalid enum", "VAL006", "Value is not in the allowed list", "Check the allowed values for this field"),

	// Upload
	pattern("file too large", "FILE001", "File exceeds maximum size limit", "Split the workbook into smaller files"),
	pattern("invalid workbook", "FILE002", "File is not a readable workbook", "Save the file as .xlsx and try again"),
	pattern("no file provided", "FILE004", "No file was selected", "Please select an .xlsx workbook to import"),
	pattern("empty file", "FILE005", "The uploaded file is empty", "Please upload a workbook with data rows"),

	// Orchestration
	pattern("required sheet", "IMP001", "A required worksheet is missing", "Add the sheet using the import template"),
	pattern("model not found", "IMP002", "The target table does not exist", "Check the database schema for this entity"),
	pattern("import already running", "IMP003", "Another import is in progress", "Please wait for it to finish and try again"),
	pattern("context canceled", "IMP004", "Request was cancelled", "Please try again"),
	pattern("context deadline exceeded", "IMP004", "Request timed out", "Try a smaller workbook or check your connection"),
}

// defaultMessage is the ERR000 fallback. Support staff should check the logs
// for the technical error behind it.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message, falling
// back to ERR000. A nil error maps to the zero UserMessage.
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

// FormatUserError renders err as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern rather than the
// ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
