package model

// ChatMessage is one turn of a conversation with the seat concierge.
// Role is "user" or "assistant".
type ChatMessage struct {
    Role    string `json:"role"`
    Content string `json:"content"`
}

// ChatReply is the result of one chat turn.  HighlightSeats is always a
// subset of the ids in SeatDetails.
type ChatReply struct {
    Reply          string       `json:"reply"`
    HighlightSeats []string     `json:"highlight_seats"`
    SeatDetails    []SeatDetail `json:"seat_details"`
}
