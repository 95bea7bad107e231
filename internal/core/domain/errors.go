package domain

import "errors"

var (
	ErrInvalidArgument  = errors.New("invalid arguments")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidToken     = errors.New("invalid token")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrForbidden        = errors.New("forbidden")
	ErrUserNotFound     = errors.New("user not found")
	ErrUserExists       = errors.New("user already exists")
	ErrWalletExists     = errors.New("wallet already registered")
	ErrProfileNotFound  = errors.New("farcaster profile not found")
	ErrInvalidWebhook   = errors.New("invalid webhook event")
)
