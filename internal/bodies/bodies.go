// Package bodies is the closed catalog of celestial bodies known to the
// engine, with their orbital and rotational configuration.
package bodies

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/litescript/ls-orrery/internal/astro"
)

// ErrUnknownBody is returned when a name does not match any catalog body.
var ErrUnknownBody = errors.New("unknown body")

// Body identifies a catalog body.
type Body int

const (
	Earth Body = iota
	Mars
	Moon
	Mercury
	Venus
	Jupiter
	Saturn
	Uranus
	Neptune
	Phobos
	Deimos
	Io
	Europa
	Ganymede
	Callisto
	Mimas
	Enceladus
	Tethys
	Dione
	Rhea
	Titan
	Triton

	numBodies
)

// Kind categorizes bodies.
type Kind int

const (
	KindPlanet Kind = iota
	KindMoon
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindPlanet:
		return "planet"
	case KindMoon:
		return "moon"
	default:
		return "unknown"
	}
}

// info holds the static configuration of one body.
type info struct {
	name    string
	naif    int
	kind    Kind
	primary Body // planet a moon orbits; the body itself for planets

	orbit    *astro.CircularOrbit   // nil when the body has no heliocentric orbit entry
	rotation *astro.RotationalModel // nil when the body has no generic rotational clock
}

// NAIF SPICE IDs, https://naif.jpl.nasa.gov/pub/naif/toolkit_docs/C/req/naif_ids.html
var catalog = [numBodies]info{
	// Orbital elements: J2000.0 mean semi-major axis (AU) and sidereal period (days).
	Earth:   {name: "Earth", naif: 399, kind: KindPlanet, primary: Earth, orbit: &astro.CircularOrbit{SemiMajorAxisAU: 1.000001018, PeriodDays: 365.256363004}},
	Mars:    {name: "Mars", naif: 499, kind: KindPlanet, primary: Mars, orbit: &astro.CircularOrbit{SemiMajorAxisAU: 1.523679, PeriodDays: 686.980}},
	Saturn:  {name: "Saturn", naif: 699, kind: KindPlanet, primary: Saturn, orbit: &astro.CircularOrbit{SemiMajorAxisAU: 9.5826, PeriodDays: 10759.22}},
	Uranus:  {name: "Uranus", naif: 799, kind: KindPlanet, primary: Uranus, orbit: &astro.CircularOrbit{SemiMajorAxisAU: 19.2184, PeriodDays: 30688.5}},
	Neptune: {name: "Neptune", naif: 899, kind: KindPlanet, primary: Neptune, orbit: &astro.CircularOrbit{SemiMajorAxisAU: 30.110387, PeriodDays: 60182.0}},

	// Mercury and Venus clocks follow the solar day, not the sidereal rotation.
	Mercury: {name: "Mercury", naif: 199, kind: KindPlanet, primary: Mercury,
		orbit:    &astro.CircularOrbit{SemiMajorAxisAU: 0.387098, PeriodDays: 87.9691},
		rotation: &astro.RotationalModel{PeriodHours: 4222.6104, EpochJDTT: astro.J2000TT}},
	Venus: {name: "Venus", naif: 299, kind: KindPlanet, primary: Venus,
		orbit:    &astro.CircularOrbit{SemiMajorAxisAU: 0.723332, PeriodDays: 224.701},
		rotation: &astro.RotationalModel{PeriodHours: -2801.976, EpochJDTT: astro.J2000TT}},
	// System III (magnetic field) rotation, 9h 55m 29.7s.
	Jupiter: {name: "Jupiter", naif: 599, kind: KindPlanet, primary: Jupiter,
		orbit:    &astro.CircularOrbit{SemiMajorAxisAU: 5.2044, PeriodDays: 4332.59},
		rotation: &astro.RotationalModel{PeriodHours: 9.9249197, EpochJDTT: astro.J2000TT}},

	// Synodic month, dial at 00:00 on the mean new moon of 2000-01-06.
	Moon: {name: "Moon", naif: 301, kind: KindMoon, primary: Earth,
		rotation: &astro.RotationalModel{PeriodHours: 708.734133, EpochJDTT: 2451550.09766}},

	// Tidally locked moons: rotation equals the sidereal orbital period.
	Phobos:    {name: "Phobos", naif: 401, kind: KindMoon, primary: Mars, rotation: &astro.RotationalModel{PeriodHours: 7.653846, EpochJDTT: astro.J2000TT}},
	Deimos:    {name: "Deimos", naif: 402, kind: KindMoon, primary: Mars, rotation: &astro.RotationalModel{PeriodHours: 30.312, EpochJDTT: astro.J2000TT}},
	Io:        {name: "Io", naif: 501, kind: KindMoon, primary: Jupiter, rotation: &astro.RotationalModel{PeriodHours: 42.459307, EpochJDTT: astro.J2000TT}},
	Europa:    {name: "Europa", naif: 502, kind: KindMoon, primary: Jupiter, rotation: &astro.RotationalModel{PeriodHours: 85.228344, EpochJDTT: astro.J2000TT}},
	Ganymede:  {name: "Ganymede", naif: 503, kind: KindMoon, primary: Jupiter, rotation: &astro.RotationalModel{PeriodHours: 171.709271, EpochJDTT: astro.J2000TT}},
	Callisto:  {name: "Callisto", naif: 504, kind: KindMoon, primary: Jupiter, rotation: &astro.RotationalModel{PeriodHours: 400.536442, EpochJDTT: astro.J2000TT}},
	Mimas:     {name: "Mimas", naif: 601, kind: KindMoon, primary: Saturn, rotation: &astro.RotationalModel{PeriodHours: 22.618127, EpochJDTT: astro.J2000TT}},
	Enceladus: {name: "Enceladus", naif: 602, kind: KindMoon, primary: Saturn, rotation: &astro.RotationalModel{PeriodHours: 32.885232, EpochJDTT: astro.J2000TT}},
	Tethys:    {name: "Tethys", naif: 603, kind: KindMoon, primary: Saturn, rotation: &astro.RotationalModel{PeriodHours: 45.307248, EpochJDTT: astro.J2000TT}},
	Dione:     {name: "Dione", naif: 604, kind: KindMoon, primary: Saturn, rotation: &astro.RotationalModel{PeriodHours: 65.685960, EpochJDTT: astro.J2000TT}},
	Rhea:      {name: "Rhea", naif: 605, kind: KindMoon, primary: Saturn, rotation: &astro.RotationalModel{PeriodHours: 108.437088, EpochJDTT: astro.J2000TT}},
	Titan:     {name: "Titan", naif: 606, kind: KindMoon, primary: Saturn, rotation: &astro.RotationalModel{PeriodHours: 382.690104, EpochJDTT: astro.J2000TT}},
	// Retrograde orbit.
	Triton: {name: "Triton", naif: 801, kind: KindMoon, primary: Neptune, rotation: &astro.RotationalModel{PeriodHours: -141.044496, EpochJDTT: astro.J2000TT}},
}

var (
	orbitalOrder    = []Body{Mercury, Venus, Earth, Mars, Jupiter, Saturn, Uranus, Neptune}
	rotationalOrder = []Body{Moon, Mercury, Venus, Jupiter,
		Phobos, Deimos, Io, Europa, Ganymede, Callisto,
		Mimas, Enceladus, Tethys, Dione, Rhea, Titan, Triton}

	byName = make(map[string]Body, numBodies)
)

func init() {
	if err := validate(); err != nil {
		panic("bodies: " + err.Error())
	}
	for b := Body(0); b < numBodies; b++ {
		byName[strings.ToLower(catalog[b].name)] = b
	}
}

// validate checks the static catalog for values that would make the
// rotational or orbital formulas divide by zero or produce NaN.
func validate() error {
	seen := make(map[string]bool, numBodies)
	for b := Body(0); b < numBodies; b++ {
		in := catalog[b]
		if in.name == "" {
			return fmt.Errorf("body %d has no name", int(b))
		}
		key := strings.ToLower(in.name)
		if seen[key] {
			return fmt.Errorf("duplicate body name %q", in.name)
		}
		seen[key] = true

		if o := in.orbit; o != nil {
			if !(o.SemiMajorAxisAU > 0) || !(o.PeriodDays > 0) || math.IsInf(o.SemiMajorAxisAU, 0) || math.IsInf(o.PeriodDays, 0) {
				return fmt.Errorf("%s: invalid orbit %+v", in.name, *o)
			}
		}
		if r := in.rotation; r != nil {
			if r.PeriodHours == 0 || math.IsNaN(r.PeriodHours) || math.IsInf(r.PeriodHours, 0) {
				return fmt.Errorf("%s: invalid rotation period %v", in.name, r.PeriodHours)
			}
			if math.IsNaN(r.EpochJDTT) || math.IsInf(r.EpochJDTT, 0) {
				return fmt.Errorf("%s: invalid epoch %v", in.name, r.EpochJDTT)
			}
		}
	}
	return nil
}

// Valid reports whether b is a catalog body.
func (b Body) Valid() bool {
	return b >= 0 && b < numBodies
}

// String returns the display name.
func (b Body) String() string {
	if !b.Valid() {
		return fmt.Sprintf("Body(%d)", int(b))
	}
	return catalog[b].name
}

// NAIFID returns the NAIF SPICE ID.
func (b Body) NAIFID() int {
	if !b.Valid() {
		return 0
	}
	return catalog[b].naif
}

// Kind returns whether b is a planet or a moon.
func (b Body) Kind() Kind {
	if !b.Valid() {
		return KindPlanet
	}
	return catalog[b].kind
}

// Primary returns the planet a moon orbits, or the body itself for planets.
func (b Body) Primary() Body {
	if !b.Valid() {
		return b
	}
	return catalog[b].primary
}

// Orbit returns the circular-orbit configuration, if the body has one.
func (b Body) Orbit() (astro.CircularOrbit, bool) {
	if !b.Valid() || catalog[b].orbit == nil {
		return astro.CircularOrbit{}, false
	}
	return *catalog[b].orbit, true
}

// Rotation returns the rotational-clock configuration, if the body has one.
func (b Body) Rotation() (astro.RotationalModel, bool) {
	if !b.Valid() || catalog[b].rotation == nil {
		return astro.RotationalModel{}, false
	}
	return *catalog[b].rotation, true
}

// Parse looks up a body by name, case-insensitively.
func Parse(name string) (Body, error) {
	b, ok := byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownBody, name)
	}
	return b, nil
}

// All returns every catalog body in declaration order.
func All() []Body {
	out := make([]Body, 0, numBodies)
	for b := Body(0); b < numBodies; b++ {
		out = append(out, b)
	}
	return out
}

// Orbital returns the eight planets of the orbital catalog, Mercury to Neptune.
func Orbital() []Body {
	return append([]Body(nil), orbitalOrder...)
}

// Rotational returns the bodies driven by the generic rotational clock.
func Rotational() []Body {
	return append([]Body(nil), rotationalOrder...)
}

// Moons returns the thirteen named moons of the outer planets and Mars.
// Earth's Moon is not included.
func Moons() []Body {
	var out []Body
	for _, b := range rotationalOrder {
		if b.Kind() == KindMoon && b != Moon {
			out = append(out, b)
		}
	}
	return out
}

// Names returns the display names of bs.
func Names(bs []Body) []string {
	out := make([]string, len(bs))
	for i, b := range bs {
		out[i] = b.String()
	}
	return out
}
