package model

import "time"

// User is an account allowed to operate the salon API.  In the solo
// business mode there is exactly one user (the owner); the schema
// allows a handful of staff accounts without changes.  This struct
// corresponds to a row in the `users` table.
//
// Fields:
//  ID           – primary key identifier.
//  Email        – login email, unique and lower-cased.
//  PasswordHash – bcrypt hash of the password.
//  BusinessName – display name of the salon shown to clients.
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last update timestamp.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	BusinessName string    // users.business_name
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}
