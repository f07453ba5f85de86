package types

type Participant struct {
	Id       string `json:"id"`
	Username string `json:"username"`
	Audio    bool   `json:"audio"`
	Video    bool   `json:"video"`
	Screen   bool   `json:"screen"`
}

type ChatMessage struct {
	Id        string `json:"id"`
	UserId    string `json:"userId"`
	Username  string `json:"username"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

type Room struct {
	Id               string        `json:"id"`
	Name             string        `json:"name"`
	Subject          string        `json:"subject"`
	Participants     []Participant `json:"participants"`
	Messages         []ChatMessage `json:"messages,omitempty"`
	CreatedAt        string        `json:"createdAt"`
	ParticipantCount *int          `json:"participantCount,omitempty"`
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Line struct {
	Points    []Point `json:"points"`
	Color     string  `json:"color"`
	BrushSize float64 `json:"brushSize"`
	UserId    string  `json:"userId"`
}

type WhiteboardUser struct {
	Id       string `json:"id"`
	Color    string `json:"color"`
	Name     string `json:"name"`
	Position Point  `json:"position"`
}

type Whiteboard struct {
	Lines []Line                    `json:"lines"`
	Users map[string]WhiteboardUser `json:"users"`
}

type CallSession struct {
	DailyRoomUrl   string `json:"dailyRoomUrl,omitempty"`
	CallSessionUrl string `json:"callSessionUrl"`
	Token          string `json:"token,omitempty"`
}
