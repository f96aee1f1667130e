package utils

import "errors"

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrTripNotFound  = errors.New("trip not found")
	ErrNoMembers     = errors.New("trip has no members")
	ErrNoPlaces      = errors.New("trip has no candidate places")
	ErrNoAnchor      = errors.New("no departure anchor place found")
	ErrStageTimeout  = errors.New("stage exceeded its time bound")
	ErrNoSchedule    = errors.New("no active schedule for trip")
	ErrDatabaseError = errors.New("database error")
)
