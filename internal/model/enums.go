package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Role is the authorization level of a user account.
type Role string

const (
	RoleUser    Role = "USER"
	RoleCurator Role = "CURATOR"
	RoleAdmin   Role = "ADMIN"
)

// UserStatus controls whether an account may sign in.
type UserStatus string

const (
	StatusActive    UserStatus = "ACTIVE"
	StatusInactive  UserStatus = "INACTIVE"
	StatusSuspended UserStatus = "SUSPENDED"
)

// OrderStatus is the lifecycle state of an order. PENDING is the initial
// state; CANCELLED is reached from PENDING through owner cancellation.
type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderPaid      OrderStatus = "PAID"
	OrderFulfilled OrderStatus = "FULFILLED"
	OrderCancelled OrderStatus = "CANCELLED"
	OrderRefunded  OrderStatus = "REFUNDED"
)

var (
	roles         = []Role{RoleUser, RoleCurator, RoleAdmin}
	userStatuses  = []UserStatus{StatusActive, StatusInactive, StatusSuspended}
	orderStatuses = []OrderStatus{OrderPending, OrderPaid, OrderFulfilled, OrderCancelled, OrderRefunded}
)

func parseEnum[T ~string](kind, raw string, allowed []T) (T, error) {
	v := T(strings.ToUpper(strings.TrimSpace(raw)))
	for _, a := range allowed {
		if a == v {
			return v, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("invalid %s %q", kind, raw)
}

func unmarshalEnum[T ~string](data []byte, kind string, allowed []T, dst *T) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%s must be a string", kind)
	}
	v, err := parseEnum(kind, s, allowed)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func ParseRole(s string) (Role, error) { return parseEnum("role", s, roles) }

func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

func (r *Role) UnmarshalJSON(data []byte) error { return unmarshalEnum(data, "role", roles, r) }

func ParseUserStatus(s string) (UserStatus, error) { return parseEnum("status", s, userStatuses) }

func (s UserStatus) Valid() bool {
	_, err := ParseUserStatus(string(s))
	return err == nil
}

func (s *UserStatus) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, "status", userStatuses, s)
}

func ParseOrderStatus(s string) (OrderStatus, error) {
	return parseEnum("order status", s, orderStatuses)
}

func (s OrderStatus) Valid() bool {
	_, err := ParseOrderStatus(string(s))
	return err == nil
}

func (s *OrderStatus) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, "order status", orderStatuses, s)
}

// Counted reports whether an order contributes to revenue figures.
func (s OrderStatus) Counted() bool {
	return s != OrderCancelled && s != OrderRefunded
}

// UncountedOrderStatuses lists the statuses excluded from revenue.
func UncountedOrderStatuses() []OrderStatus {
	return []OrderStatus{OrderCancelled, OrderRefunded}
}
