package server

// Request payloads

type CreateCaseRequest struct {
	Reference     string  `json:"reference"`
	Title         string  `json:"title"`
	OpposingParty *string `json:"opposing_party,omitempty"`
	OwnerID       *string `json:"owner_id,omitempty"`
}

type CreateHearingRequest struct {
	CaseID         string  `json:"case_id"`
	Date           string  `json:"date" format:"date"`
	Time           *string `json:"time,omitempty" example:"09:30"`
	Type           string  `json:"type" example:"Mise en état"`
	Court          *string `json:"court,omitempty"`
	PrepNotes      *string `json:"prep_notes,omitempty"`
	EnrollRequired bool    `json:"enroll_required,omitempty"`
}

type RecordResultRequest struct {
	Kind           string  `json:"kind" enum:"renvoi,radiation,delibere"`
	NewDate        *string `json:"new_date,omitempty" format:"date"`
	Reason         *string `json:"reason,omitempty"`
	Decision       *string `json:"decision,omitempty"`
	AppealOptIn    bool    `json:"appeal_opt_in,omitempty"`
	AppealDeadline *string `json:"appeal_deadline,omitempty" format:"date"`
	AppealNotes    *string `json:"appeal_notes,omitempty"`
}

type CreateAppealReminderRequest struct {
	CaseID   string  `json:"case_id"`
	Deadline *string `json:"deadline,omitempty" format:"date"`
	Notes    *string `json:"notes,omitempty"`
}

type UpdateAppealReminderRequest struct {
	Deadline *string `json:"deadline,omitempty" format:"date"`
	Notes    *string `json:"notes,omitempty"`
	Done     *bool   `json:"done,omitempty"`
}

type CreateAPIKeyRequest struct {
	ActorID string `json:"actor_id"`
	Name    string `json:"name,omitempty"`
}

// Response payloads that are not plain domain entities.

type RecordResultResponse struct {
	HearingID string `json:"hearing_id"`
	Status    string `json:"status" enum:"upcoming,held,unreported"`
	ResultID  string `json:"result_id"`
	Kind      string `json:"kind" enum:"renvoi,radiation,delibere"`
}

type SweepStatusResponse struct {
	Lapsed int `json:"lapsed"`
}

type APIKeyCreatedResponse struct {
	ID      string `json:"id"`
	ActorID string `json:"actor_id"`
	Name    string `json:"name,omitempty"`
	// Key is shown once, at creation. Only its hash is stored.
	Key string `json:"key"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
