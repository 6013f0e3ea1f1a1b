package domain

import "time"

// StaffRole enumerates shop operator roles.
type StaffRole string

const (
	RoleAdmin       StaffRole = "ADMIN"
	RoleShopManager StaffRole = "SHOP_MANAGER"
	RoleSeller      StaffRole = "SELLER"
	RoleTechnician  StaffRole = "TECHNICIAN"
)

// StaffMember models a shop employee who operates on repairs.
type StaffMember struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         StaffRole
	ShopID       *string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
