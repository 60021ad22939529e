package model

import "time"

// ChatResponse SSE 推送的单个增量
type ChatResponse struct {
	WorkspaceID string `json:"workspace_id"`
	MessageID   string `json:"message_id"`
	Content     string `json:"content"` // 本次增量
	Role        string `json:"role"`
	Timestamp   int64  `json:"timestamp"`
	Done        bool   `json:"done,omitempty"`
	StreamType  string `json:"stream_type,omitempty"` // "live" | "demo"
}

type ScheduleSlot struct {
	Index           int    `json:"index"`
	Title           string `json:"title"`
	Start           string `json:"start"`
	End             string `json:"end"`
	DurationMinutes int    `json:"durationMinutes"`
}

type Schedule struct {
	Slots         []ScheduleSlot `json:"slots"`
	End           string         `json:"end"`
	TotalDuration int            `json:"totalDuration"`
}

type FileSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	MimeType  string `json:"type"`
	SizeBytes int64  `json:"size"`
}

type WorkspaceResponse struct {
	WorkspaceID  string        `json:"workspace_id"`
	Files        []FileSummary `json:"files"`
	Agenda       *MeetingData  `json:"agenda"`
	Schedule     *Schedule     `json:"schedule,omitempty"`
	Initials     []string      `json:"initials,omitempty"`
	MessageCount int           `json:"message_count"`
	Generating   bool          `json:"generating"`
	Streaming    bool          `json:"streaming"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

type ModeResponse struct {
	DemoMode          bool   `json:"demo_mode"`
	CredentialPresent bool   `json:"credential_present"`
	Provider          string `json:"provider"`
}

type Notice struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"` // success | error | info
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
