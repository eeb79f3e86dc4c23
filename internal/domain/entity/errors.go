package entity

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrPriceOutOfCategory = errors.New("price is outside of the price category bounds")
	ErrInvalidStatus      = errors.New("invalid request status")
	ErrMalformedCallback  = errors.New("malformed callback data")
	ErrMalformedUpdate    = errors.New("malformed update payload")
	ErrInvalidCar         = errors.New("invalid car listing")
)
