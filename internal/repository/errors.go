package repository

import "errors"

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrTradeNotFound        = errors.New("trade not found")
	ErrNotificationNotFound = errors.New("notification not found")

	ErrUsernameExists = errors.New("username already exists")
	ErrEmailExists    = errors.New("email already exists")
)
