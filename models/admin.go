package models

import "time"

// Admin is a back-office operator account.
type Admin struct {
	ID           string    `bson:"_id" json:"_id"`
	Email        string    `bson:"email" json:"email"`
	PasswordHash string    `bson:"passwordHash" json:"-"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
}

// LoginRequest is the admin login payload.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RoleAdmin is the only role the dashboard issues tokens for.
const RoleAdmin = "admin"
