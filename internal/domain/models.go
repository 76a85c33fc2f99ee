package domain

type MeterType string

const (
	MeterTypeMAMAC   MeterType = "mamac"
	MeterTypeMetasys MeterType = "metasys"
	MeterTypeObvius  MeterType = "obvius"
	MeterTypeOther   MeterType = "other"
)

func (t MeterType) Valid() bool {
	switch t {
	case MeterTypeMAMAC, MeterTypeMetasys, MeterTypeObvius, MeterTypeOther:
		return true
	}
	return false
}

// Meter is a physical or virtual metering device. ID is zero until inserted.
type Meter struct {
	ID                   int64      `json:"id"`
	Name                 string     `json:"name"`
	IPAddress            *string    `json:"ipAddress"`
	Enabled              bool       `json:"enabled"`
	Displayable          bool       `json:"displayable"`
	MeterType            *MeterType `json:"meterType"`
	TimeZone             *string    `json:"timeZone"`
	GPS                  *Point     `json:"gps"`
	Identifier           *string    `json:"identifier"`
	Note                 *string    `json:"note"`
	Area                 *float64   `json:"area"`
	Cumulative           bool       `json:"cumulative"`
	CumulativeReset      bool       `json:"cumulativeReset"`
	CumulativeResetStart *string    `json:"cumulativeResetStart"`
	CumulativeResetEnd   *string    `json:"cumulativeResetEnd"`
	PreviousDay          bool       `json:"previousDay"`
	ReadingLength        *string    `json:"readingLength"`
	ReadingVariation     *string    `json:"readingVariation"`
	ReadingGap           *float64   `json:"readingGap"`
	Reading              float64    `json:"reading"`
	StartTimestamp       *string    `json:"startTimestamp"`
	EndTimestamp         *string    `json:"endTimestamp"`
}

// Group is a named collection of meters and other groups.
type Group struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Displayable bool     `json:"displayable"`
	GPS         *Point   `json:"gps"`
	Note        *string  `json:"note"`
	Area        *float64 `json:"area"`
}

// Children lists the direct members of a group.
type Children struct {
	Meters []int64 `json:"meters"`
	Groups []int64 `json:"groups"`
}

// Map is the metadata of a georeferenced image overlay.
type Map struct {
	ID                    int64   `json:"id"`
	Name                  string  `json:"name"`
	Displayable           bool    `json:"displayable"`
	Note                  *string `json:"note"`
	Filename              string  `json:"filename"`
	ModifiedDate          string  `json:"modifiedDate"`
	Origin                *Point  `json:"origin"`
	Opposite              *Point  `json:"opposite"`
	MapSource             string  `json:"mapSource"`
	NorthAngle            *int    `json:"northAngle"`
	MaxCircleSizeFraction *int    `json:"maxCircleSizeFraction"`
}

// Validate checks the corner pairing: opposite is present iff origin is.
func (m *Map) Validate() error {
	if (m.Origin == nil) != (m.Opposite == nil) {
		return ErrUnpairedCorner
	}
	return nil
}

// Reading is one compressed sample; timestamps are unix milliseconds.
type Reading struct {
	Reading        float64 `db:"reading" json:"reading"`
	StartTimestamp int64   `db:"start_timestamp" json:"startTimestamp"`
	EndTimestamp   int64   `db:"end_timestamp" json:"endTimestamp"`
}

type User struct {
	ID           int64  `db:"id" json:"id"`
	Email        string `db:"email" json:"email"`
	PasswordHash string `db:"password_hash" json:"-"`
	Role         string `db:"role" json:"role"`
}
