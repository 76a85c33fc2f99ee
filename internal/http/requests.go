package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/ANIKETSHETTY47/open-energy-dashboard/internal/domain"
)

var idPattern = regexp.MustCompile(`^\d+$`)

// Validation is the outcome of checking a decoded request. It is valid when
// Errors is empty.
type Validation struct {
	Errors []string
}

func (v Validation) OK() bool { return len(v.Errors) == 0 }

func (v *Validation) require(present bool, field string) {
	if !present {
		v.Errors = append(v.Errors, field+" is required")
	}
}

func (v *Validation) check(ok bool, format string, args ...any) {
	if !ok {
		v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
	}
}

type validator interface {
	Validate() Validation
}

// decodeRequest parses the JSON body into req and validates it. Strict
// decoding rejects unknown fields.
func decodeRequest(c *fiber.Ctx, req validator, strict bool) Validation {
	dec := json.NewDecoder(bytes.NewReader(c.Body()))
	if strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(req); err != nil {
		return Validation{Errors: []string{"malformed body: " + err.Error()}}
	}
	return req.Validate()
}

// pathID parses a numeric route parameter.
func pathID(c *fiber.Ctx, name string) (int64, bool) {
	raw := c.Params(name)
	if !idPattern.MatchString(raw) {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	return id, err == nil
}

func nonEmpty(s *string) bool { return s != nil && *s != "" }

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

type idRequest struct {
	ID *int64 `json:"id"`
}

func (r *idRequest) Validate() Validation {
	var v Validation
	v.require(r.ID != nil, "id")
	if r.ID != nil {
		v.check(*r.ID >= 0, "id must be non-negative")
	}
	return v
}

type mapRequest struct {
	ID                    *int64        `json:"id"`
	Name                  *string       `json:"name"`
	ModifiedDate          *string       `json:"modifiedDate"`
	Filename              *string       `json:"filename"`
	MapSource             *string       `json:"mapSource"`
	Note                  *string       `json:"note"`
	Displayable           *bool         `json:"displayable"`
	NorthAngle            *int          `json:"northAngle"`
	MaxCircleSizeFraction *int          `json:"maxCircleSizeFraction"`
	Origin                *domain.Point `json:"origin"`
	Opposite              *domain.Point `json:"opposite"`

	edit bool
}

func (r *mapRequest) Validate() Validation {
	var v Validation
	if r.edit {
		v.require(r.ID != nil, "id")
		v.require(r.Displayable != nil, "displayable")
	}
	v.require(nonEmpty(r.Name), "name")
	v.require(r.ModifiedDate != nil, "modifiedDate")
	v.require(r.Filename != nil, "filename")
	v.require(r.MapSource != nil, "mapSource")
	v.check((r.Origin == nil) == (r.Opposite == nil), "opposite is required iff origin is present")
	return v
}

func (r *mapRequest) toMap() domain.Map {
	return domain.Map{
		ID:                    deref(r.ID),
		Name:                  *r.Name,
		Displayable:           deref(r.Displayable),
		Note:                  r.Note,
		Filename:              *r.Filename,
		ModifiedDate:          *r.ModifiedDate,
		Origin:                r.Origin,
		Opposite:              r.Opposite,
		MapSource:             *r.MapSource,
		NorthAngle:            r.NorthAngle,
		MaxCircleSizeFraction: r.MaxCircleSizeFraction,
	}
}

type groupRequest struct {
	ID          *int64        `json:"id"`
	Name        *string       `json:"name"`
	ChildGroups []int64       `json:"childGroups"`
	ChildMeters []int64       `json:"childMeters"`
	Displayable *bool         `json:"displayable"`
	GPS         *domain.Point `json:"gps"`
	Note        *string       `json:"note"`
	Area        *float64      `json:"area"`

	edit bool
}

func (r *groupRequest) Validate() Validation {
	var v Validation
	if r.edit {
		v.require(r.ID != nil, "id")
	}
	v.require(nonEmpty(r.Name), "name")
	v.require(r.ChildGroups != nil, "childGroups")
	v.require(r.ChildMeters != nil, "childMeters")
	if r.Area != nil {
		v.check(*r.Area >= 0, "area must be non-negative")
	}
	return v
}

func (r *groupRequest) toGroup() (domain.Group, domain.Children) {
	g := domain.Group{
		ID:          deref(r.ID),
		Name:        *r.Name,
		Displayable: r.Displayable == nil || *r.Displayable,
		GPS:         r.GPS,
		Note:        r.Note,
		Area:        r.Area,
	}
	return g, domain.Children{Meters: r.ChildMeters, Groups: r.ChildGroups}
}

var timeOfDay = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d:[0-5]\d$`)

type meterRequest struct {
	domain.Meter
	RawID          *int64  `json:"id"`
	RawName        *string `json:"name"`
	RawEnabled     *bool   `json:"enabled"`
	RawDisplayable *bool   `json:"displayable"`

	edit bool
}

func (r *meterRequest) Validate() Validation {
	var v Validation
	if r.edit {
		v.require(r.RawID != nil, "id")
	}
	v.require(nonEmpty(r.RawName), "name")
	v.require(r.RawEnabled != nil, "enabled")
	v.require(r.RawDisplayable != nil, "displayable")
	if r.MeterType != nil {
		v.check(r.MeterType.Valid(), "meterType %q is not one of mamac, metasys, obvius, other", *r.MeterType)
	}
	if r.Area != nil {
		v.check(*r.Area >= 0, "area must be non-negative")
	}
	for field, value := range map[string]*string{
		"cumulativeResetStart": r.CumulativeResetStart,
		"cumulativeResetEnd":   r.CumulativeResetEnd,
	} {
		if value != nil {
			v.check(timeOfDay.MatchString(*value), "%s must be HH:MM:SS", field)
		}
	}
	return v
}

func (r *meterRequest) toMeter() domain.Meter {
	m := r.Meter
	m.ID = deref(r.RawID)
	m.Name = deref(r.RawName)
	m.Enabled = deref(r.RawEnabled)
	m.Displayable = deref(r.RawDisplayable)
	return m
}

type loginRequest struct {
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

func (r *loginRequest) Validate() Validation {
	var v Validation
	v.require(nonEmpty(r.Email), "email")
	v.require(r.Password != nil, "password")
	return v
}
