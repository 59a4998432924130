package httpapi

import "github.com/baditaflorin/go_compatibility/internal/core/domain"

// PairRequest carries two answer sets to score.
type PairRequest struct {
	A *domain.AnswerSet `json:"a"`
	B *domain.AnswerSet `json:"b"`
}

type CreateRoomRequest struct {
	Name string `json:"name"`
	UID  string `json:"uid"`
}

type JoinRequest struct {
	UID string `json:"uid"`
}

type SubmitRequest struct {
	UID string `json:"uid"`
	domain.AnswerSet
}

type SessionResponse struct {
	UID string `json:"uid"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// ResultResponse is the wire form of a compatibility result. ComputedAt is in
// unix milliseconds; Display is the percentage rounded for presentation.
type ResultResponse struct {
	Percentage float64   `json:"percentage"`
	Display    int       `json:"display"`
	Message    string    `json:"message"`
	ComputedAt int64     `json:"computedAt"`
	Source     string    `json:"source"`
	Breakdown  []float64 `json:"breakdown,omitempty"`
}

func NewResultResponse(r domain.Result) ResultResponse {
	return ResultResponse{
		Percentage: r.Percentage,
		Display:    r.Rounded(),
		Message:    r.Message,
		ComputedAt: r.ComputedAt.UnixMilli(),
		Source:     r.Source,
		Breakdown:  r.Breakdown,
	}
}

// RoomResponse never exposes submitted answers, only who has answered.
type RoomResponse struct {
	Key          string          `json:"key"`
	Name         string          `json:"name"`
	CreatedAt    int64           `json:"createdAt"`
	Participants []string        `json:"participants"`
	Answered     []string        `json:"answered"`
	Waiting      bool            `json:"waiting"`
	Result       *ResultResponse `json:"result,omitempty"`
}

func NewRoomResponse(r domain.Room) RoomResponse {
	resp := RoomResponse{
		Key:          r.Key,
		Name:         r.Name,
		CreatedAt:    r.CreatedAt.UnixMilli(),
		Participants: make([]string, 0, len(r.Participants)),
		Answered:     make([]string, 0, len(r.Submissions)),
		Waiting:      r.Result == nil,
	}
	for _, p := range r.Participants {
		resp.Participants = append(resp.Participants, p.UID)
	}
	for _, s := range r.Submissions {
		resp.Answered = append(resp.Answered, s.UID)
	}
	if r.Result != nil {
		res := NewResultResponse(*r.Result)
		resp.Result = &res
	}
	return resp
}
