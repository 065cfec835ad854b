package model

const (
	AuditActionRegister    = "auth.register"
	AuditActionLogin       = "auth.login"
	AuditActionLogout      = "auth.logout"
	AuditActionRefresh     = "auth.refresh"
	AuditActionEventCreate = "event.create"
	AuditActionEventUpdate = "event.update"
	AuditActionEventDelete = "event.delete"

	AuditStatusSuccess = "success"
	AuditStatusFailure = "failure"
)

type AuditActor struct {
	UserID string `json:"user_id,omitempty"`
	Email  string `json:"email,omitempty"`
	IP     string `json:"ip,omitempty"`
}

type AuditEntry struct {
	Action     string     `json:"action"`
	OccurredAt string     `json:"occurred_at"`
	Actor      AuditActor `json:"actor"`
	Status     string     `json:"status"`
	Resource   string     `json:"resource,omitempty"`
	Error      string     `json:"error,omitempty"`
}

type AuditQuery struct {
	Action  string
	ActorID string
	Status  string
	Page    int
	Limit   int
}

type AuditListData struct {
	Items []AuditEntry `json:"items"`
}
