package amenity

import "errors"

var (
	ErrNotFound         = errors.New("amenity not found")
	ErrBuildingNotFound = errors.New("building not found")
	ErrBuildingMismatch = errors.New("amenity belongs to a different building")
	ErrDuplicateName    = errors.New("amenity with this name already exists in the building")
	ErrInvalidWindow    = errors.New("open time must be earlier than close time")
	ErrInvalidDuration  = errors.New("default duration must not exceed max duration")
)
