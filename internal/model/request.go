package model

import "time"

// Request lives only for one command invocation. Its durable trace is the
// summary message and the thread spawned from it.
type Request struct {
	RequesterID string
	Text        string
	RoleID      string
	Client      ClientRecord
	Remaining   string
	Consumed    bool
}

type CreateRequestParams struct {
	RequesterID string
	RoleIDs     []string
	Text        string
}

// CompletionEvent is raised when the admin approves a summary message.
type CompletionEvent struct {
	RequestText string
	ApproverID  string
	ThreadID    string
	CompletedAt time.Time
}

const UnknownRequest = "Unknown Request"
