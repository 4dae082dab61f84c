package model

import "time"

// Roles a principal may hold. A principal can hold several assignments at
// once (e.g. admin at school A and parent of a child at school B).
const (
	RoleParent     = "parent"
	RoleTeacher    = "teacher"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"

	// RoleStudent is a pseudo-role: students hold no RoleAssignment row and
	// are resolved by matching the signed-in email against a student record.
	RoleStudent = "student"
)

// rolePriorities orders roles for default activation after login:
// super_admin > admin > teacher > parent.
var rolePriorities = map[string]int{
	RoleSuperAdmin: 40,
	RoleAdmin:      30,
	RoleTeacher:    20,
	RoleParent:     10,
}

// RolePriority returns the activation priority of a role; unknown roles rank lowest.
func RolePriority(role string) int {
	return rolePriorities[role]
}

// ValidRole reports whether role is one of the assignable roles.
func ValidRole(role string) bool {
	_, ok := rolePriorities[role]
	return ok
}

// RoleAssignment binds a principal to a role, optionally scoped to a school.
// super_admin assignments carry no school (global scope). Assignments are
// soft-deactivated via Active, never hard-deleted.
type RoleAssignment struct {
	ID        uint      `json:"id" gorm:"primaryKey;column:id"`
	UserID    uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_user_role_school"`
	Role      string    `json:"role" gorm:"type:varchar(50);not null;uniqueIndex:idx_user_role_school"`
	SchoolID  *uint     `json:"school_id,omitempty" gorm:"uniqueIndex:idx_user_role_school"`
	Active    bool      `json:"active" gorm:"default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User   User    `json:"-" gorm:"foreignKey:UserID"`
	School *School `json:"school,omitempty" gorm:"foreignKey:SchoolID"`
}

// TableName keeps the schema contract's table name.
func (RoleAssignment) TableName() string {
	return "user_roles"
}
