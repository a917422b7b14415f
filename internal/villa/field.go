package villa

// Field is one of the four user-configurable villa parameters.
type Field string

const (
	FieldBudget      Field = "budget"
	FieldLocation    Field = "location"
	FieldStyle       Field = "style"
	FieldCameraAngle Field = "camera_angle"
)

// Fields returns the preference fields in home screen order.
func Fields() []Field {
	return []Field{FieldBudget, FieldLocation, FieldStyle, FieldCameraAngle}
}

func ParseField(value string) (Field, bool) {
	f := Field(value)
	return f, f.Valid()
}

func (f Field) Valid() bool {
	switch f {
	case FieldBudget, FieldLocation, FieldStyle, FieldCameraAngle:
		return true
	default:
		return false
	}
}

func (f Field) String() string {
	return string(f)
}

// Step records which screen of the configurator a user is looking at.
// The zero value means no step has been stored yet.
type Step string

const (
	StepNone               Step = ""
	StepHome               Step = "home"
	StepEditingBudget      Step = "editing_budget"
	StepEditingLocation    Step = "editing_location"
	StepEditingStyle       Step = "editing_style"
	StepEditingCameraAngle Step = "editing_camera_angle"
)

// EditingStep returns the step shown while the field's choice menu is open.
func EditingStep(f Field) (Step, bool) {
	switch f {
	case FieldBudget:
		return StepEditingBudget, true
	case FieldLocation:
		return StepEditingLocation, true
	case FieldStyle:
		return StepEditingStyle, true
	case FieldCameraAngle:
		return StepEditingCameraAngle, true
	default:
		return StepNone, false
	}
}

// Valid reports whether s may be written to the store. StepNone is not writable.
func (s Step) Valid() bool {
	switch s {
	case StepHome, StepEditingBudget, StepEditingLocation, StepEditingStyle, StepEditingCameraAngle:
		return true
	default:
		return false
	}
}

func (s Step) String() string {
	return string(s)
}
