package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ANIKETSHETTY47/open-energy-dashboard/internal/domain"
	"github.com/ANIKETSHETTY47/open-energy-dashboard/internal/service"
)

// seedFile is the YAML layout accepted by "meterctl seed". Group children are
// referenced by name and must appear earlier in the file.
type seedFile struct {
	Meters []seedMeter `yaml:"meters"`
	Groups []seedGroup `yaml:"groups"`
	Maps   []seedMap   `yaml:"maps"`
}

type seedPoint struct {
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
}

func (p *seedPoint) point() (*domain.Point, error) {
	if p == nil {
		return nil, nil
	}
	pt, err := domain.NewPoint(p.Latitude, p.Longitude)
	if err != nil {
		return nil, err
	}
	return &pt, nil
}

type seedMeter struct {
	Name        string     `yaml:"name"`
	IPAddress   string     `yaml:"ipAddress"`
	MeterType   string     `yaml:"meterType"`
	TimeZone    string     `yaml:"timeZone"`
	Enabled     *bool      `yaml:"enabled"`
	Displayable *bool      `yaml:"displayable"`
	GPS         *seedPoint `yaml:"gps"`
	Area        *float64   `yaml:"area"`
	Note        string     `yaml:"note"`
}

type seedGroup struct {
	Name        string     `yaml:"name"`
	Displayable *bool      `yaml:"displayable"`
	GPS         *seedPoint `yaml:"gps"`
	Area        *float64   `yaml:"area"`
	Note        string     `yaml:"note"`
	Meters      []string   `yaml:"meters"`
	Groups      []string   `yaml:"groups"`
}

type seedMap struct {
	Name         string     `yaml:"name"`
	Displayable  *bool      `yaml:"displayable"`
	Filename     string     `yaml:"filename"`
	ModifiedDate string     `yaml:"modifiedDate"`
	Source       string     `yaml:"source"`
	Origin       *seedPoint `yaml:"origin"`
	Opposite     *seedPoint `yaml:"opposite"`
	NorthAngle   *int       `yaml:"northAngle"`
	Note         string     `yaml:"note"`
}

func parseSeed(r io.Reader) (*seedFile, error) {
	var f seedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &f, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func orTrue(b *bool) bool {
	return b == nil || *b
}

// apply creates everything in f in order: meters, then groups, then maps.
func apply(ctx context.Context, svcs *service.Services, f *seedFile) error {
	meterIDs := make(map[string]int64, len(f.Meters))
	for _, sm := range f.Meters {
		gps, err := sm.GPS.point()
		if err != nil {
			return fmt.Errorf("meter %q: %w", sm.Name, err)
		}
		m := domain.Meter{
			Name:        sm.Name,
			IPAddress:   optional(sm.IPAddress),
			TimeZone:    optional(sm.TimeZone),
			Enabled:     orTrue(sm.Enabled),
			Displayable: orTrue(sm.Displayable),
			GPS:         gps,
			Area:        sm.Area,
			Note:        optional(sm.Note),
		}
		if sm.MeterType != "" {
			mt := domain.MeterType(sm.MeterType)
			if !mt.Valid() {
				return fmt.Errorf("meter %q: unknown meter type %q", sm.Name, sm.MeterType)
			}
			m.MeterType = &mt
		}
		if err := svcs.Meters.Create(ctx, &m); err != nil {
			return fmt.Errorf("meter %q: %w", sm.Name, err)
		}
		meterIDs[m.Name] = m.ID
	}

	groupIDs := make(map[string]int64, len(f.Groups))
	for _, sg := range f.Groups {
		gps, err := sg.GPS.point()
		if err != nil {
			return fmt.Errorf("group %q: %w", sg.Name, err)
		}
		var children domain.Children
		for _, name := range sg.Meters {
			id, ok := meterIDs[name]
			if !ok {
				return fmt.Errorf("group %q: unknown meter %q", sg.Name, name)
			}
			children.Meters = append(children.Meters, id)
		}
		for _, name := range sg.Groups {
			id, ok := groupIDs[name]
			if !ok {
				return fmt.Errorf("group %q: unknown group %q", sg.Name, name)
			}
			children.Groups = append(children.Groups, id)
		}
		g := domain.Group{
			Name:        sg.Name,
			Displayable: orTrue(sg.Displayable),
			GPS:         gps,
			Area:        sg.Area,
			Note:        optional(sg.Note),
		}
		if err := svcs.Groups.Create(ctx, &g, children); err != nil {
			return fmt.Errorf("group %q: %w", sg.Name, err)
		}
		groupIDs[g.Name] = g.ID
	}

	for _, sm := range f.Maps {
		origin, err := sm.Origin.point()
		if err != nil {
			return fmt.Errorf("map %q: %w", sm.Name, err)
		}
		opposite, err := sm.Opposite.point()
		if err != nil {
			return fmt.Errorf("map %q: %w", sm.Name, err)
		}
		m := domain.Map{
			Name:         sm.Name,
			Displayable:  orTrue(sm.Displayable),
			Note:         optional(sm.Note),
			Filename:     sm.Filename,
			ModifiedDate: sm.ModifiedDate,
			Origin:       origin,
			Opposite:     opposite,
			MapSource:    sm.Source,
			NorthAngle:   sm.NorthAngle,
		}
		if err := svcs.Maps.Create(ctx, &m); err != nil {
			return fmt.Errorf("map %q: %w", sm.Name, err)
		}
	}

	log.Info().Int("meters", len(f.Meters)).Int("groups", len(f.Groups)).Int("maps", len(f.Maps)).Msg("seed applied")
	return nil
}

var seedCmd = &cobra.Command{
	Use:   "seed <file.yaml>",
	Short: "Create meters, groups and maps from a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fh, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer fh.Close()
		f, err := parseSeed(fh)
		if err != nil {
			return err
		}

		db, err := openDB(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()
		return apply(cmd.Context(), service.New(db), f)
	},
}
