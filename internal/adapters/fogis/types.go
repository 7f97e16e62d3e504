package fogis

// Player is a roster entry as returned by the federation API.
type Player struct {
	Name   string `json:"name"`
	Number int    `json:"number,omitempty"`
}

// Match describes a fixture with both squads, used to build the
// extraction context for incoming utterances.
type Match struct {
	ID         string   `json:"id"`
	HomeTeam   string   `json:"home_team"`
	AwayTeam   string   `json:"away_team"`
	HomeRoster []Player `json:"home_roster"`
	AwayRoster []Player `json:"away_roster"`
}

// Ack is the federation's acknowledgement of a reported event.
type Ack struct {
	RemoteEventID string `json:"event_id"`
}

// eventPayload is the wire shape for reporting an event upstream.
type eventPayload struct {
	EventType  string `json:"event_type"`
	Minute     *int   `json:"minute,omitempty"`
	Team       string `json:"team,omitempty"`
	PlayerName string `json:"player_name,omitempty"`
	Comment    string `json:"comment,omitempty"`
}
