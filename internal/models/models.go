package models

// ProfileID identifies one of the built-in backend profiles
type ProfileID string

const (
	ProfileOpenAI ProfileID = "openai"
	ProfileGemini ProfileID = "gemini"
)

// KnownProfileIDs lists the closed set of profile identifiers in display order
var KnownProfileIDs = []ProfileID{ProfileGemini, ProfileOpenAI}

// Valid reports whether id belongs to the closed set of known profiles
func (id ProfileID) Valid() bool {
	switch id {
	case ProfileOpenAI, ProfileGemini:
		return true
	}
	return false
}

type Profile struct {
	ID             ProfileID
	BaseURL        string
	ChatEndpoint   string
	HealthEndpoint string
	Name           string
}

// Profiles is the immutable profile table built once at startup.
type Profiles struct {
	byID      map[ProfileID]Profile
	defaultID ProfileID
}

// NewProfiles copies the given profiles into a table. defaultID must be one of them.
func NewProfiles(defaultID ProfileID, profiles ...Profile) Profiles {
	byID := make(map[ProfileID]Profile, len(profiles))
	for _, p := range profiles {
		byID[p.ID] = p
	}
	return Profiles{byID: byID, defaultID: defaultID}
}

func (p Profiles) Lookup(id ProfileID) (Profile, bool) {
	prof, ok := p.byID[id]
	return prof, ok
}

func (p Profiles) Default() Profile {
	return p.byID[p.defaultID]
}

func (p Profiles) DefaultID() ProfileID {
	return p.defaultID
}

// All returns the profiles in KnownProfileIDs order
func (p Profiles) All() []Profile {
	out := make([]Profile, 0, len(p.byID))
	for _, id := range KnownProfileIDs {
		if prof, ok := p.byID[id]; ok {
			out = append(out, prof)
		}
	}
	return out
}

type ChatStatus string

const (
	StatusIdle       ChatStatus = "idle"
	StatusProcessing ChatStatus = "processing"
	StatusComplete   ChatStatus = "complete"
	StatusError      ChatStatus = "error"
)

// Terminal reports whether s is an outcome of an exchange rather than a step in one
func (s ChatStatus) Terminal() bool {
	return s == StatusComplete || s == StatusError
}

// ChatState is one session's view of the chat exchange. An empty Error means no error.
type ChatState struct {
	Status    ChatStatus
	Fragments []string
	Error     string
}

// Clone returns a copy that shares no memory with s
func (s ChatState) Clone() ChatState {
	out := s
	if s.Fragments != nil {
		out.Fragments = append([]string(nil), s.Fragments...)
	}
	return out
}

const (
	EventStatus   = "status"
	EventResponse = "response"
	EventError    = "error"
)

// StreamEvent is one decoded `data: ` frame of the chat stream.
type StreamEvent struct {
	Type string          `json:"type"`
	Data StreamEventData `json:"data"`
}

type StreamEventData struct {
	Status  *ChatStatus `json:"status,omitempty"`
	Message *string     `json:"message,omitempty"`
	Error   *string     `json:"error,omitempty"`
}

type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthUnhealthy HealthStatus = "unhealthy"
	HealthChecking  HealthStatus = "checking"
)

// ChatRequest is the JSON body posted to a profile's chat endpoint
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId,omitempty"`
}

// ChatReply is the non-streaming JSON body some backends answer with
type ChatReply struct {
	Response  string `json:"response"`
	SessionID string `json:"sessionId,omitempty"`
	Status    string `json:"status,omitempty"`
	Error     string `json:"error,omitempty"`
}
