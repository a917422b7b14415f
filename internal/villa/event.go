package villa

import (
	"strconv"
	"strings"
)

type EventKind int

const (
	EventUnknown EventKind = iota
	EventEditField
	EventSelectValue
	EventHome
	EventGenerate
	EventLike
)

func (k EventKind) String() string {
	switch k {
	case EventEditField:
		return "edit"
	case EventSelectValue:
		return "select"
	case EventHome:
		return "home"
	case EventGenerate:
		return "generate"
	case EventLike:
		return "like"
	default:
		return "unknown"
	}
}

const (
	verbEdit   = "edit"
	verbAction = "action"
	verbLike   = "like"

	actionHome     = "home"
	actionGenerate = "generate"

	maxValueLen = 64
)

// Event is a parsed button press of the form "<verb>:<value>".
type Event struct {
	Kind    EventKind
	Field   Field
	Value   string
	ImageID int64
}

// ParseEvent never fails; anything it does not recognize is EventUnknown.
func ParseEvent(data string) Event {
	verb, value, ok := strings.Cut(strings.TrimSpace(data), ":")
	if !ok || value == "" || len(value) > maxValueLen {
		return Event{Kind: EventUnknown}
	}

	switch verb {
	case verbEdit:
		f, ok := ParseField(value)
		if !ok {
			return Event{Kind: EventUnknown}
		}
		return Event{Kind: EventEditField, Field: f}
	case verbAction:
		switch value {
		case actionHome:
			return Event{Kind: EventHome}
		case actionGenerate:
			return Event{Kind: EventGenerate}
		}
		return Event{Kind: EventUnknown}
	case verbLike:
		id, err := strconv.ParseInt(value, 10, 64)
		if err != nil || id <= 0 {
			return Event{Kind: EventUnknown}
		}
		return Event{Kind: EventLike, ImageID: id}
	}

	if f, ok := ParseField(verb); ok {
		return Event{Kind: EventSelectValue, Field: f, Value: value}
	}
	return Event{Kind: EventUnknown}
}

func EditData(f Field) string {
	return verbEdit + ":" + string(f)
}

func SelectData(f Field, value string) string {
	return string(f) + ":" + value
}

func HomeData() string {
	return verbAction + ":" + actionHome
}

func GenerateData() string {
	return verbAction + ":" + actionGenerate
}

func LikeData(imageID int64) string {
	return verbLike + ":" + strconv.FormatInt(imageID, 10)
}
