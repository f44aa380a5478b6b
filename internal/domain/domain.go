package domain

// Case statuses. Transitions are one-directional: active -> closed|radiated.
const (
	CaseActive   = "active"
	CaseClosed   = "closed"
	CaseRadiated = "radiated"
)

// Hearing statuses.
const (
	HearingUpcoming   = "upcoming"
	HearingHeld       = "held"
	HearingUnreported = "unreported"
)

// Result kinds.
const (
	ResultRenvoi    = "renvoi"
	ResultRadiation = "radiation"
	ResultDelibere  = "delibere"
)

// Alert statuses.
const (
	AlertPending  = "pending"
	AlertSent     = "sent"
	AlertResolved = "resolved"
)

type Case struct {
	ID            string `json:"id"`
	Reference     string `json:"reference"`
	Title         string `json:"title"`
	OpposingParty string `json:"opposing_party,omitempty"`
	Status        string `json:"status" enum:"active,closed,radiated"`
	OwnerID       string `json:"owner_id"`
	CreatedAt     string `json:"created_at" format:"date-time"`
	UpdatedAt     string `json:"updated_at" format:"date-time"`
}

type Hearing struct {
	ID        string  `json:"id"`
	CaseID    string  `json:"case_id"`
	Date      string  `json:"date"`
	Time      *string `json:"time,omitempty"`
	Type      string  `json:"type"`
	Court     string  `json:"court,omitempty"`
	Status    string  `json:"status" enum:"upcoming,held,unreported"`
	ResultID  *string `json:"result_id,omitempty"`
	PrepNotes string  `json:"prep_notes,omitempty"`

	// Court-filing enrollment reminder, set at creation when requested.
	EnrollRequired bool    `json:"enroll_required"`
	EnrollDate     *string `json:"enroll_date,omitempty"`
	EnrollDone     bool    `json:"enroll_done"`

	CreatedAt string `json:"created_at" format:"date-time"`
	UpdatedAt string `json:"updated_at" format:"date-time"`
}

type Result struct {
	ID        string  `json:"id"`
	HearingID string  `json:"hearing_id"`
	Kind      string  `json:"kind" enum:"renvoi,radiation,delibere"`
	NewDate   *string `json:"new_date,omitempty"`
	Reason    string  `json:"reason,omitempty"`
	Decision  string  `json:"decision,omitempty"`
	CreatedAt string  `json:"created_at" format:"date-time"`
}

type Alert struct {
	ID         string  `json:"id"`
	HearingID  string  `json:"hearing_id"`
	Status     string  `json:"status" enum:"pending,sent,resolved"`
	SendCount  int     `json:"send_count"`
	LastSentAt *string `json:"last_sent_at,omitempty" format:"date-time"`
	ResolvedAt *string `json:"resolved_at,omitempty" format:"date-time"`
	CreatedAt  string  `json:"created_at" format:"date-time"`
}

type AppealReminder struct {
	ID          string  `json:"id"`
	CaseID      string  `json:"case_id"`
	ResultID    *string `json:"result_id,omitempty"`
	Deadline    string  `json:"deadline"`
	Done        bool    `json:"done"`
	CompletedAt *string `json:"completed_at,omitempty" format:"date-time"`
	Notes       string  `json:"notes,omitempty"`
	CreatedAt   string  `json:"created_at" format:"date-time"`
	UpdatedAt   string  `json:"updated_at" format:"date-time"`
}

type AuditEntry struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id"`
	Action     string `json:"action" enum:"create,update,delete"`
	ActorID    string `json:"actor_id"`
	Before     string `json:"before_json,omitempty"`
	After      string `json:"after_json,omitempty"`
}

type APIKey struct {
	ID        string `json:"id"`
	ActorID   string `json:"actor_id"`
	Name      string `json:"name,omitempty"`
	KeyHash   string `json:"key_hash"`
	CreatedAt string `json:"created_at" format:"date-time"`
}
