package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Activity actions recorded by the services.
const (
	ActionUserRegistered     = "USER_REGISTERED"
	ActionUserLoggedIn       = "USER_LOGGED_IN"
	ActionUserLoggedOut      = "USER_LOGGED_OUT"
	ActionTokenRotated       = "TOKEN_ROTATED"
	ActionSessionsRevoked    = "SESSIONS_REVOKED"
	ActionUserRoleChanged    = "USER_ROLE_CHANGED"
	ActionUserStatusChanged  = "USER_STATUS_CHANGED"
	ActionProfileUpdated     = "USER_PROFILE_UPDATED"
	ActionOrderCreated       = "ORDER_CREATED"
	ActionOrderCancelled     = "ORDER_CANCELLED"
	ActionOrderStatusChanged = "ORDER_STATUS_CHANGED"
)

// Metadata is a free-form JSON object stored in a text column.
type Metadata map[string]any

func (Metadata) GormDataType() string { return "text" }

func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *Metadata) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*m = Metadata{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("metadata: unsupported type %T", src)
	}
	out := Metadata{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			return err
		}
	}
	*m = out
	return nil
}

// ActivityLog is an append-only audit row.
type ActivityLog struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID    *string   `gorm:"type:varchar(36);index" json:"userId"`
	Action    string    `gorm:"type:varchar(64);not null;index" json:"action"`
	Metadata  Metadata  `json:"metadata"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}
