package model

import "time"

// User is a passenger account.  Users are identified by their resident
// ID card number, which is unique; phone numbers are 11 digits.  Only a
// bcrypt hash of the password is stored.
//
// Fields:
//  ID           – primary key identifier.
//  Name         – display name.
//  Phone        – 11-digit phone number.
//  IDCard       – 18-character resident ID card number, unique.
//  PasswordHash – bcrypt hash.
//  CreatedAt    – timestamp of registration.
type User struct {
	ID           uint64    // users.id
	Name         string    // users.name
	Phone        string    // users.phone
	IDCard       string    // users.id_card
	PasswordHash string    // users.password_hash
	CreatedAt    time.Time // users.created_at
}

// Admin is an operator account used for maintenance operations such as
// invalidating stations and trains.
type Admin struct {
	ID           uint64    // admins.id
	Name         string    // admins.name, unique
	PasswordHash string    // admins.password_hash
	CreatedAt    time.Time // admins.created_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  The plain
// token is not stored; only its SHA-256 hash.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  Role      – role the token was issued for (USER or ADMIN).
//  TokenHash – SHA-256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (nil if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	Role      string     // refresh_tokens.role
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
