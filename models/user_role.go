package models

import "github.com/google/uuid"

const RoleAdmin = "admin"

type UserRole struct {
	UserID uuid.UUID `json:"user_id" gorm:"column:user_id;type:uuid;primaryKey"`
	Role   string    `json:"role" gorm:"column:role;type:text;not null"`
}

func (UserRole) TableName() string { return "user_roles" }
