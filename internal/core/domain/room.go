package domain

import "time"

// Participant is a member of a room.
type Participant struct {
	UID      string
	JoinedAt time.Time
}

// Submission is a participant's stored answer set.
type Submission struct {
	UID         string
	Answers     AnswerSet
	SubmittedAt time.Time
}

// Room is a shared quiz session between two participants.
type Room struct {
	Key          string
	Name         string
	CreatedAt    time.Time
	Participants []Participant
	// Submissions are ordered by submission time.
	Submissions []Submission
	Result      *Result
}

// HasParticipant reports whether uid joined the room.
func (r *Room) HasParticipant(uid string) bool {
	for _, p := range r.Participants {
		if p.UID == uid {
			return true
		}
	}
	return false
}

// Submission returns the stored answers of uid, if any.
func (r *Room) Submission(uid string) (Submission, bool) {
	for _, s := range r.Submissions {
		if s.UID == uid {
			return s, true
		}
	}
	return Submission{}, false
}
