package core

// error_messages.go maps technical errors to user-facing messages with a
// support code.
//
// # Source Errors (SRC001-SRC099)
//
//	SRC001 - Pending table not found
//	         Action: Place the payroll workbook in the storage directory
//	SRC002 - Pending table unreadable
//	         Action: Check the file is a valid workbook with a header row
//	         Patterns: "open workbook", "no sheets", "parse csv"
//
// # Batch Errors (BAT001-BAT099)
//
//	BAT001 - Another batch is running
//	         Action: Wait for it to finish, then try again
//
// # Persistence Errors (PST001-PST099)
//
//	PST001 - Tables could not be written back
//	         Action: Compare the pending and sent tables before re-running
//
// # Row Errors (RND001-RND099, DSP001-DSP099)
//
// Row errors never reach the caller of a batch; they are mapped for logs and
// for the per-row report.
//
//	RND001 - Letter template incomplete
//	RND002 - Row is missing columns
//	RND003 - Letter could not be generated (any other RenderError)
//	DSP001 - Mail server rejected the credentials   (patterns: "535", "authentication")
//	DSP002 - Mail server unreachable                 (patterns: "connection refused", "no such host")
//	DSP003 - Recipient rejected                      (patterns: "550", "recipient")
//	DSP004 - Message could not be delivered          (any other DispatchError)
//
// # Generic (NET001, RATE001, ERR000)
//
//	NET001 - Operation timed out        (patterns: "timeout", "deadline exceeded")
//	RATE001 - Too many requests         (patterns: "rate limit")
//	ERR000 - Fallback; check the logs for the technical error
//
// Typed errors are matched first with errors.Is / errors.As, then the
// message is matched case-insensitively against the pattern table. The first
// match wins.

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

var (
	msgSourceNotFound = UserMessage{
		Message: "File not found",
		Action:  "Place the payroll workbook in the storage directory and try again",
		Code:    "SRC001",
	}
	msgBatchInProgress = UserMessage{
		Message: "Another batch is already running",
		Action:  "Wait for it to finish, then try again",
		Code:    "BAT001",
	}
	msgPersistence = UserMessage{
		Message: "Internal server error",
		Action:  "Compare the pending and sent tables before running again",
		Code:    "PST001",
	}
	msgMissingTemplate = UserMessage{
		Message: "Letter template is incomplete",
		Action:  "Set every SALARY_REVIEW_* field and COMPANY_NAME",
		Code:    "RND001",
	}
	msgShortRow = UserMessage{
		Message: "Employee row is missing columns",
		Action:  "Check the row has name, email, payroll number, department, basic salary and housing allowance",
		Code:    "RND002",
	}
	msgRender = UserMessage{
		Message: "Letter could not be generated",
		Action:  "Check the row for characters the letter font cannot print",
		Code:    "RND003",
	}
	msgDispatch = UserMessage{
		Message: "Message could not be delivered",
		Action:  "Check the recipient address and the mail server logs",
		Code:    "DSP004",
	}
)

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns is searched in order; specific patterns come first.
var errorPatterns = []errorPattern{
	{
		pattern: "open workbook",
		msg: UserMessage{
			Message: "Payroll file could not be read",
			Action:  "Check the file is a valid workbook with a header row",
			Code:    "SRC002",
		},
	},
	{
		pattern: "no sheets",
		msg: UserMessage{
			Message: "Payroll file could not be read",
			Action:  "Check the file is a valid workbook with a header row",
			Code:    "SRC002",
		},
	},
	{
		pattern: "parse csv",
		msg: UserMessage{
			Message: "Payroll file could not be read",
			Action:  "Check the file is comma-separated with a header row",
			Code:    "SRC002",
		},
	},
	{
		pattern: "535",
		msg: UserMessage{
			Message: "Mail server rejected the credentials",
			Action:  "Check SMTP_USER and SMTP_PASS",
			Code:    "DSP001",
		},
	},
	{
		pattern: "authentication",
		msg: UserMessage{
			Message: "Mail server rejected the credentials",
			Action:  "Check SMTP_USER and SMTP_PASS",
			Code:    "DSP001",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Mail server unreachable",
			Action:  "Check SMTP_HOST and SMTP_PORT",
			Code:    "DSP002",
		},
	},
	{
		pattern: "no such host",
		msg: UserMessage{
			Message: "Mail server unreachable",
			Action:  "Check SMTP_HOST and SMTP_PORT",
			Code:    "DSP002",
		},
	},
	{
		pattern: "550",
		msg: UserMessage{
			Message: "Recipient rejected",
			Action:  "Check the employee's email address",
			Code:    "DSP003",
		},
	},
	{
		pattern: "recipient",
		msg: UserMessage{
			Message: "Recipient rejected",
			Action:  "Check the employee's email address",
			Code:    "DSP003",
		},
	},
	{
		pattern: "deadline exceeded",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Please try again",
			Code:    "NET001",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Please try again",
			Code:    "NET001",
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

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	switch {
	case errors.Is(err, ErrSourceNotFound):
		return msgSourceNotFound
	case errors.Is(err, ErrBatchInProgress):
		return msgBatchInProgress
	}

	var pe *PersistenceError
	if errors.As(err, &pe) {
		return msgPersistence
	}

	var re *RenderError
	if errors.As(err, &re) {
		switch {
		case errors.Is(err, ErrShortRow):
			return msgShortRow
		case errors.Is(err, ErrMissingTemplateField):
			return msgMissingTemplate
		}
		return msgRender
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	var de *DispatchError
	if errors.As(err, &de) {
		return msgDispatch
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

// IsUserFacing reports whether err maps to something other than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
