package models

import "time"

// CaseStatus is the case lifecycle state (spec.md §3).
type CaseStatus string

const (
	CaseOpen   CaseStatus = "open"
	CaseClosed CaseStatus = "closed"
)

// Case is a persistent incident record grouping runs by stable identity.
// Invariant: a case_key maps to at most one open case at any time.
type Case struct {
	CaseID              string     `db:"case_id" json:"case_id"`
	CaseKey             string     `db:"case_key" json:"case_key"`
	Status              CaseStatus `db:"status" json:"status"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updated_at"`
	ResolvedAt          *time.Time `db:"resolved_at" json:"resolved_at,omitempty"`
	ResolutionCategory  *string    `db:"resolution_category" json:"resolution_category,omitempty"`
	ResolutionSummary   *string    `db:"resolution_summary" json:"resolution_summary,omitempty"`
	PostmortemLink      *string    `db:"postmortem_link" json:"postmortem_link,omitempty"`
	Cluster             *string    `db:"cluster" json:"cluster,omitempty"`
	TargetType          *string    `db:"target_type" json:"target_type,omitempty"`
	Namespace           *string    `db:"namespace" json:"namespace,omitempty"`
	WorkloadKind        *string    `db:"workload_kind" json:"workload_kind,omitempty"`
	WorkloadName        *string    `db:"workload_name" json:"workload_name,omitempty"`
	Service             *string    `db:"service" json:"service,omitempty"`
	Instance            *string    `db:"instance" json:"instance,omitempty"`
	Family              *string    `db:"family" json:"family,omitempty"`
	PrimaryDriver       *string    `db:"primary_driver" json:"primary_driver,omitempty"`
	LatestOneLiner      *string    `db:"latest_one_liner" json:"latest_one_liner,omitempty"`
	S3ReportKey         *string    `db:"s3_report_key" json:"s3_report_key,omitempty"`
	S3InvestigationKey  *string    `db:"s3_investigation_key" json:"s3_investigation_key,omitempty"`
	Team                *string    `db:"team" json:"team,omitempty"`
}

// Run is a row per investigation invocation (spec.md §3).
type Run struct {
	RunID              string    `db:"run_id" json:"run_id"`
	CaseID             string    `db:"case_id" json:"case_id"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	Fingerprint        string    `db:"fingerprint" json:"fingerprint"`
	Family             string    `db:"family" json:"family"`
	Cluster            *string   `db:"cluster" json:"cluster,omitempty"`
	Namespace          *string   `db:"namespace" json:"namespace,omitempty"`
	WorkloadKind       *string   `db:"workload_kind" json:"workload_kind,omitempty"`
	WorkloadName       *string   `db:"workload_name" json:"workload_name,omitempty"`
	Classification     string    `db:"classification" json:"classification"`
	S3ReportKey        string    `db:"s3_report_key" json:"s3_report_key"`
	S3InvestigationKey string    `db:"s3_investigation_key" json:"s3_investigation_key"`
	AnalysisSnapshot   []byte    `db:"analysis_snapshot" json:"-"`
}

// ActionStatus is the action-proposal lifecycle (spec.md §3).
type ActionStatus string

const (
	ActionProposed ActionStatus = "proposed"
	ActionApproved ActionStatus = "approved"
	ActionRejected ActionStatus = "rejected"
	ActionExecuted ActionStatus = "executed"
)

// ActionProposal is a proposed remediation, gated by an action policy; the
// core never performs mutating actions itself (spec.md §1 Non-goals).
type ActionProposal struct {
	ActionID          string       `db:"action_id" json:"action_id"`
	CaseID            string       `db:"case_id" json:"case_id"`
	RunID             *string      `db:"run_id" json:"run_id,omitempty"`
	HypothesisID      *string      `db:"hypothesis_id" json:"hypothesis_id,omitempty"`
	ActionType        string       `db:"action_type" json:"action_type"`
	Title             string       `db:"title" json:"title"`
	Risk              *string      `db:"risk" json:"risk,omitempty"`
	Preconditions     []string     `db:"-" json:"preconditions,omitempty"`
	ExecutionPayload  []byte       `db:"execution_payload" json:"execution_payload,omitempty"`
	Status            ActionStatus `db:"status" json:"status"`
	ProposedBy        string       `db:"proposed_by" json:"proposed_by"`
	ApprovedAt        *time.Time   `db:"approved_at" json:"approved_at,omitempty"`
	ApprovedBy        *string      `db:"approved_by" json:"approved_by,omitempty"`
	ExecutedAt        *time.Time   `db:"executed_at" json:"executed_at,omitempty"`
	ExecutedBy        *string      `db:"executed_by" json:"executed_by,omitempty"`
}

// ChatThreadKind distinguishes a global inbox-wide thread from a case-scoped
// thread (spec.md §3).
type ChatThreadKind string

const (
	ChatGlobal ChatThreadKind = "global"
	ChatCase   ChatThreadKind = "case"
)

// ChatThread is a conversation container; unique per-user for global kind,
// and per (user_key, case_id) for case kind.
type ChatThread struct {
	ThreadID      string         `db:"thread_id" json:"thread_id"`
	UserKey       string         `db:"user_key" json:"user_key"`
	Kind          ChatThreadKind `db:"kind" json:"kind"`
	CaseID        *string        `db:"case_id" json:"case_id,omitempty"`
	Title         *string        `db:"title" json:"title,omitempty"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
	LastMessageAt *time.Time     `db:"last_message_at" json:"last_message_at,omitempty"`
}

// ChatRole is the chat message author role.
type ChatRole string

const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
	RoleSystem    ChatRole = "system"
)

// ChatMessage is one row in a chat thread; Seq is strictly increasing per
// thread, assigned under a row lock on the thread (spec.md §5 Ordering).
type ChatMessage struct {
	MessageID string    `db:"message_id" json:"message_id"`
	ThreadID  string    `db:"thread_id" json:"thread_id"`
	Seq       int64     `db:"seq" json:"seq"`
	Role      ChatRole  `db:"role" json:"role"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ToolEvent is one record per attempted tool call (spec.md Glossary).
type ToolEvent struct {
	EventID   string    `db:"event_id" json:"event_id"`
	MessageID string    `db:"message_id" json:"message_id"`
	Tool      string    `db:"tool" json:"tool"`
	Args      []byte    `db:"args" json:"args,omitempty"`
	OK        bool      `db:"ok" json:"ok"`
	Error     *string   `db:"error" json:"error,omitempty"`
	Outcome   string    `db:"outcome" json:"outcome"` // ok | empty | unavailable | error | skipped_duplicate
	Summary   string    `db:"summary" json:"summary,omitempty"`
	Key       string    `db:"key" json:"key"` // dedupe key, blake2s(tool_id+canonical(args))[:12]
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
