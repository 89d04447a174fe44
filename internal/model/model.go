// Package model defines domain entities used by services and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// Role of an account in the landlord/tenant hierarchy.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleLandlord Role = "landlord"
	RoleTenant   Role = "tenant"
)

// UnlimitedQuantity is the available_quantity sentinel for perks without a
// stock ceiling.
const UnlimitedQuantity = -1

// Account is a user of the rewards economy. Balance is in whole points and is
// only ever mutated through the atomic ledger adjust.
type Account struct {
	ID         uuid.UUID
	Email      string // unique, lower-cased
	Name       string
	Role       Role
	PwdHash    []byte        // bcrypt
	LandlordID uuid.NullUUID // set for tenants only
	Points     int64         // >= 0, display snapshot; never a write precondition
	CreatedAt  time.Time
}

// EntryKind categorizes ledger entries. Each (kind, ref) pair is unique, which
// is what makes awards and refunds exactly-once.
type EntryKind string

const (
	EntryTaskAward  EntryKind = "task_award"  // ref = task id
	EntryPerkDebit  EntryKind = "perk_debit"  // ref = claim id
	EntryPerkRefund EntryKind = "perk_refund" // ref = claim id
)

// PointEntry is an immutable audit record written atomically with the balance
// change it describes.
type PointEntry struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Delta     int64
	Kind      EntryKind
	Ref       uuid.UUID
	CreatedAt time.Time
}

// TaskStatus is the task lifecycle state.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskSubmitted TaskStatus = "submitted"
	TaskApproved  TaskStatus = "approved" // terminal
	TaskRejected  TaskStatus = "rejected" // tenant may resubmit
)

// Task is a landlord-assigned, points-rewarding unit of work.
// pending -> submitted -> {approved, rejected}; rejected -> submitted is the
// only back-edge.
type Task struct {
	ID              uuid.UUID
	LandlordID      uuid.UUID
	TenantID        uuid.UUID
	Title           string
	Description     string
	Category        string
	PointsReward    int64 // immutable after creation
	Status          TaskStatus
	ProofRef        string // opaque locator of the tenant's uploaded proof
	RejectionReason string
	CreatedAt       time.Time
	SubmittedAt     time.Time
	VerifiedAt      time.Time
}

// Perk is a landlord-defined reward of finite or unlimited stock.
type Perk struct {
	ID                uuid.UUID
	LandlordID        uuid.UUID
	Title             string
	Description       string
	PointsCost        int64
	AvailableQuantity int64 // UnlimitedQuantity means no ceiling
	ClaimedCount      int64
	CreatedAt         time.Time
}

// Unlimited reports whether the perk has no stock ceiling.
func (p *Perk) Unlimited() bool { return p.AvailableQuantity == UnlimitedQuantity }

// SoldOut reports whether the snapshot shows no remaining stock. Advisory
// only: the authoritative check is the conditional stock update.
func (p *Perk) SoldOut() bool {
	return !p.Unlimited() && p.ClaimedCount >= p.AvailableQuantity
}

// PerkClaim is the immutable audit record of a successful redemption.
// A row exists iff both the debit and the stock reservation succeeded.
type PerkClaim struct {
	ID             uuid.UUID
	PerkID         uuid.UUID
	TenantID       uuid.UUID
	LandlordID     uuid.UUID
	PerkTitle      string
	PointsSpent    int64  // cost snapshot at claim time
	IdempotencyKey string // optional, client-supplied
	Fulfilled      bool   // set later by the landlord
	ClaimedAt      time.Time
}

// Notification is a stored, fire-and-forget message to a user.
type Notification struct {
	ID          uuid.UUID
	RecipientID uuid.UUID
	Title       string
	Message     string
	Category    string
	LinkTo      string
	IsRead      bool
	CreatedAt   time.Time
}

// Tokens collects issued access tokens.
type Tokens struct {
	AccessToken string
	ExpiresAt   time.Time
}
