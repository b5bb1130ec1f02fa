package service

import "errors"

var (
	// ErrInvalidRideID is returned when ride ID is empty.
	ErrInvalidRideID = errors.New("invalid ride id")

	// ErrInvalidUserID is returned when user ID is empty.
	ErrInvalidUserID = errors.New("invalid user id")

	// ErrMissingRoute is returned when origin or destination is blank.
	ErrMissingRoute = errors.New("origin and destination are required")

	// ErrInvalidDate is returned when a date is not YYYY-MM-DD.
	ErrInvalidDate = errors.New("invalid date, expected YYYY-MM-DD")

	// ErrInvalidTime is returned when a departure time is not HH:MM.
	ErrInvalidTime = errors.New("invalid time, expected HH:MM")

	// ErrInvalidSeats is returned when seats fall outside 1..10.
	ErrInvalidSeats = errors.New("seats must be between 1 and 10")

	// ErrInvalidPrice is returned when price is negative or not a number.
	ErrInvalidPrice = errors.New("price must be zero or more")

	// ErrInvalidRating is returned when a rating falls outside 1..5.
	ErrInvalidRating = errors.New("rating must be between 1 and 5")

	// ErrRideAlreadyBooked is returned when booking a ride that is not Available.
	ErrRideAlreadyBooked = errors.New("ride already booked")

	// ErrInvalidLocation is returned when location coordinates are invalid.
	ErrInvalidLocation = errors.New("invalid location")

	// ErrInvalidName is returned when a registration has no name.
	ErrInvalidName = errors.New("name is required")

	// ErrInvalidEmail is returned when an email address cannot be parsed.
	ErrInvalidEmail = errors.New("invalid email address")

	// ErrWeakPassword is returned when a password is too short.
	ErrWeakPassword = errors.New("password must be at least 6 characters")

	// ErrEmailTaken is returned when registering an email that already exists.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials is returned when login email or password is wrong.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrInvalidSession is returned when a session token is missing, expired or forged.
	ErrInvalidSession = errors.New("invalid session")
)
