package style

// Unit identifies how a Length is interpreted.
type Unit uint8

const (
	UnitAuto Unit = iota
	UnitPx
	UnitPercent
	// UnitNone is the max-width/max-height "none" value.
	UnitNone
)

// Length is a computed length. Relative units (em, rem, vw) are resolved by
// the host before layout; only percentages and keywords remain.
type Length struct {
	Unit  Unit    `json:"unit"`
	Value float32 `json:"value"`
}

var (
	Auto = Length{Unit: UnitAuto}
	None = Length{Unit: UnitNone}
	Zero = Length{Unit: UnitPx}
)

func Px(v float32) Length      { return Length{Unit: UnitPx, Value: v} }
func Percent(v float32) Length { return Length{Unit: UnitPercent, Value: v} }

func (l Length) IsAuto() bool    { return l.Unit == UnitAuto }
func (l Length) IsNone() bool    { return l.Unit == UnitNone }
func (l Length) IsPercent() bool { return l.Unit == UnitPercent }

// Resolve converts the length against a percentage basis. The boolean is
// false for auto/none and for percentages against an indefinite basis.
func (l Length) Resolve(basis float32, definite bool) (float32, bool) {
	switch l.Unit {
	case UnitPx:
		return l.Value, true
	case UnitPercent:
		if !definite {
			return 0, false
		}
		return basis * l.Value / 100, true
	default:
		return 0, false
	}
}

// ResolveOr resolves the length, falling back to def when it cannot.
func (l Length) ResolveOr(basis float32, definite bool, def float32) float32 {
	if v, ok := l.Resolve(basis, definite); ok {
		return v
	}
	return def
}

// Sides holds four physical lengths.
type Sides struct {
	Top    Length `json:"top"`
	Right  Length `json:"right"`
	Bottom Length `json:"bottom"`
	Left   Length `json:"left"`
}

// Uniform returns Sides with the same value on every side.
func Uniform(l Length) Sides {
	return Sides{Top: l, Right: l, Bottom: l, Left: l}
}

// LineHeightKind selects the line-height form.
type LineHeightKind uint8

const (
	LineHeightNormal LineHeightKind = iota
	LineHeightNumber
	LineHeightLength
)

// LineHeight is the computed line-height. Numbers stay unitless so they
// inherit as factors.
type LineHeight struct {
	Kind  LineHeightKind `json:"kind"`
	Value float32        `json:"value"`
}

// NormalLineHeightFactor is the multiplier used for line-height: normal when
// the font has no line gap information.
const NormalLineHeightFactor float32 = 1.2

// Resolve returns the used line height in px for the font size.
func (lh LineHeight) Resolve(fontSize float32) float32 {
	switch lh.Kind {
	case LineHeightNumber:
		return lh.Value * fontSize
	case LineHeightLength:
		return lh.Value
	default:
		return NormalLineHeightFactor * fontSize
	}
}
