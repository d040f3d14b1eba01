package domain

// Role represents user role in the system
type Role string

const (
	RoleMember    Role = "MEMBER"
	RoleLibrarian Role = "LIBRARIAN"
	RoleAdmin     Role = "ADMIN"
)

// ValidRole reports whether s names a known role
func ValidRole(s string) bool {
	switch Role(s) {
	case RoleMember, RoleLibrarian, RoleAdmin:
		return true
	}
	return false
}

// FineStatus represents the lifecycle state of a fine
type FineStatus string

const (
	FineStatusPending   FineStatus = "pending"
	FineStatusPaid      FineStatus = "paid"
	FineStatusCancelled FineStatus = "cancelled"
	FineStatusWaived    FineStatus = "waived"
)

// ActiveFineStatuses are the statuses that still count against a borrow
// record. Cancelled and waived fines no longer do.
var ActiveFineStatuses = []string{string(FineStatusPending), string(FineStatusPaid)}

// FineReason represents why a fine was issued
type FineReason string

const (
	FineReasonOverdue    FineReason = "overdue"
	FineReasonDamage     FineReason = "damage"
	FineReasonLost       FineReason = "lost"
	FineReasonLateReturn FineReason = "late_return"
	FineReasonViolation  FineReason = "violation"
	FineReasonOther      FineReason = "other"
)

// PaymentMethod represents how a fine was settled
type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "cash"
	PaymentMethodCard     PaymentMethod = "card"
	PaymentMethodTransfer PaymentMethod = "transfer"
	PaymentMethodOnline   PaymentMethod = "online"
	PaymentMethodCheck    PaymentMethod = "check"
)

// DefaultMaxBooks is the borrowing limit assigned to new members
const DefaultMaxBooks = 5
