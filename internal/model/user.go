package model

import "time"

// Role names carried in the access token's "role" claim.
const (
	RoleHolder = "HOLDER"
	RoleAdmin  = "ADMIN"
)

// Holder represents a verified person allowed to book concepts, as stored
// in the `holders` table.  The ID is the identifier the chat platform
// assigns to the person; the engine treats it as opaque.
//
// Fields:
//  ID        – chat platform user id (primary key).
//  Name      – display name chosen during verification.
//  Contact   – optional profile link.
//  Role      – HOLDER or ADMIN.
//  CreatedAt – timestamp of verification.
//  UpdatedAt – timestamp of last rename.
type Holder struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Contact   string    `json:"contact,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
