package model

import "time"

const DefaultMaxLoginAttempts = 3

type LoginAttempt struct {
	Email         string    `db:"Email"`
	Attempts      int       `db:"Attempts"`
	LastAttemptAt time.Time `db:"LastAttemptAt"`
}

func (a *LoginAttempt) Locked(max int) bool {
	return a.Attempts >= max
}

func (a *LoginAttempt) Remaining(max int) int {
	if a.Attempts >= max {
		return 0
	}
	return max - a.Attempts
}
