package villa

type NamedOption struct {
	Key  string
	Name string
}

type Menu struct {
	Question string
	Options  []NamedOption
}

var menus = map[Field]Menu{
	FieldBudget: {
		Question: "What's your budget range for the villa?",
		Options: []NamedOption{
			{Key: "100k-200k", Name: "$100K-$200K (Budget)"},
			{Key: "200k-300k", Name: "$200K-$300K (Standard)"},
			{Key: "300k-500k", Name: "$300K-$500K (Premium)"},
			{Key: "500k-750k", Name: "$500K-$750K (Luxury)"},
			{Key: "750k-1m", Name: "$750K-$1M (Ultra-Luxury)"},
			{Key: "1m-plus", Name: "$1M+ (Elite)"},
		},
	},
	FieldLocation: {
		Question: "Where would you like your villa to be located?",
		Options: []NamedOption{
			{Key: "seaside", Name: "Seaside"},
			{Key: "jungle", Name: "Jungle"},
			{Key: "mountain", Name: "Mountain"},
			{Key: "urban", Name: "Urban"},
		},
	},
	FieldStyle: {
		Question: "What architectural style would you prefer for your villa?",
		Options: []NamedOption{
			{Key: "modern", Name: "Modern"},
			{Key: "rustic", Name: "Rustic/Wood"},
			{Key: "mediterranean", Name: "Mediterranean"},
			{Key: "minimalist", Name: "Minimalist"},
		},
	},
	FieldCameraAngle: {
		Question: "Which camera angle would you like for your villa shot?",
		Options: []NamedOption{
			{Key: "orbit", Name: "Orbit (360° around property)"},
			{Key: "top-down", Name: "Top-Down (Aerial view)"},
			{Key: "approach", Name: "Front Approach"},
			{Key: "flyover", Name: "Flyover (Low pass)"},
			{Key: "parallax", Name: "Parallax Arc"},
		},
	},
}

// MenuFor returns the choice menu rendered while a field is being edited.
func MenuFor(f Field) (Menu, bool) {
	m, ok := menus[f]
	if !ok {
		return Menu{}, false
	}
	out := Menu{Question: m.Question, Options: make([]NamedOption, len(m.Options))}
	copy(out.Options, m.Options)
	return out, true
}

// Label is the home screen button caption for a field and its current value.
func Label(f Field, value string) string {
	switch f {
	case FieldBudget:
		return "💰 Budget: $" + value
	case FieldLocation:
		return "📍 Location: " + value
	case FieldStyle:
		return "🎨 Style: " + value
	case FieldCameraAngle:
		return "📷 Camera Angle: " + value
	default:
		return value
	}
}
