package chrono

import "time"

// API is the clock used by anything that stamps scraped data.
type API interface {
	Now() time.Time
}

type StandardImpl struct {
	location *time.Location
}

// NewStandardImpl returns a clock reporting time in location, or in
// time.Local when location is nil.
func NewStandardImpl(location *time.Location) StandardImpl {
	if location == nil {
		location = time.Local
	}
	return StandardImpl{location: location}
}

func (s StandardImpl) Now() time.Time {
	return time.Now().In(s.location)
}

// Fixed always reports the same instant.
type Fixed time.Time

func (f Fixed) Now() time.Time {
	return time.Time(f)
}
