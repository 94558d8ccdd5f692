package models

import (
	"time"

	"github.com/izakgestao/backend/internal/domain/identity"
)

// UserModel is the persistence model for users
type UserModel struct {
	AggregateModel
	Name              string     `gorm:"type:varchar(200);not null"`
	Email             string     `gorm:"type:varchar(255);not null;uniqueIndex"`
	PasswordHash      string     `gorm:"type:varchar(255);not null"`
	Status            string     `gorm:"type:varchar(20);not null"`
	LastLoginAt       *time.Time ``
	ResetToken        string     `gorm:"type:varchar(64)"`
	ResetTokenExpires *time.Time ``
}

// TableName returns the table name for UserModel
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the model to a domain user
func (m *UserModel) ToDomain() *identity.User {
	user := &identity.User{
		Name:              m.Name,
		Email:             m.Email,
		PasswordHash:      m.PasswordHash,
		Status:            identity.UserStatus(m.Status),
		LastLoginAt:       m.LastLoginAt,
		ResetToken:        m.ResetToken,
		ResetTokenExpires: m.ResetTokenExpires,
	}
	m.PopulateAggregateRoot(&user.BaseAggregateRoot)
	return user
}

// UserModelFromDomain converts a domain user to its persistence model
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{
		Name:              u.Name,
		Email:             u.Email,
		PasswordHash:      u.PasswordHash,
		Status:            string(u.Status),
		LastLoginAt:       u.LastLoginAt,
		ResetToken:        u.ResetToken,
		ResetTokenExpires: u.ResetTokenExpires,
	}
	m.FromDomainAggregateRoot(u.BaseAggregateRoot)
	return m
}
