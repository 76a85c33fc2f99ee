package domain

import (
	"encoding/json"
	"fmt"
)

// Point is a validated latitude/longitude pair. The zero value is (0, 0).
type Point struct {
	latitude  float64
	longitude float64
}

func NewPoint(latitude, longitude float64) (Point, error) {
	if latitude < -90 || latitude > 90 {
		return Point{}, fmt.Errorf("%w: latitude %v outside [-90, 90]", ErrInvalidPoint, latitude)
	}
	if longitude < -180 || longitude > 180 {
		return Point{}, fmt.Errorf("%w: longitude %v outside [-180, 180]", ErrInvalidPoint, longitude)
	}
	return Point{latitude: latitude, longitude: longitude}, nil
}

func (p Point) Latitude() float64  { return p.latitude }
func (p Point) Longitude() float64 { return p.longitude }

type pointJSON struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal(pointJSON{Latitude: &p.latitude, Longitude: &p.longitude})
}

// UnmarshalJSON requires both coordinates and rejects out-of-range values.
func (p *Point) UnmarshalJSON(b []byte) error {
	var raw pointJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw.Latitude == nil || raw.Longitude == nil {
		return fmt.Errorf("%w: latitude and longitude are required", ErrInvalidPoint)
	}
	pt, err := NewPoint(*raw.Latitude, *raw.Longitude)
	if err != nil {
		return err
	}
	*p = pt
	return nil
}
