package villa

const (
	DefaultBudget      = "300k-500k"
	DefaultLocation    = "seaside"
	DefaultStyle       = "modern"
	DefaultCameraAngle = "orbit"
)

type Preferences struct {
	Budget      string
	Location    string
	Style       string
	CameraAngle string
}

// DefaultPreferences is what a user without a stored record sees.
func DefaultPreferences() Preferences {
	return Preferences{
		Budget:      DefaultBudget,
		Location:    DefaultLocation,
		Style:       DefaultStyle,
		CameraAngle: DefaultCameraAngle,
	}
}

func (p Preferences) Get(f Field) string {
	switch f {
	case FieldBudget:
		return p.Budget
	case FieldLocation:
		return p.Location
	case FieldStyle:
		return p.Style
	case FieldCameraAngle:
		return p.CameraAngle
	default:
		return ""
	}
}

// With returns a copy of p with a single field replaced. Unknown fields leave p unchanged.
func (p Preferences) With(f Field, value string) Preferences {
	switch f {
	case FieldBudget:
		p.Budget = value
	case FieldLocation:
		p.Location = value
	case FieldStyle:
		p.Style = value
	case FieldCameraAngle:
		p.CameraAngle = value
	}
	return p
}
