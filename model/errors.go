package model

import "errors"

var (
	ErrNoSuchGame   = errors.New("no such game")
	ErrNoSuchPlayer = errors.New("no such player")
)
