package store

// Feedback is one user rating of an assistant answer.
type Feedback struct {
	ID           string `json:"id"`
	SessionID    string `json:"session_id"`
	MessageIndex int    `json:"message_index"` // turn index within the session
	Rating       int    `json:"rating"`        // 1-10
	Comment      string `json:"comment"`
	Evaluator    string `json:"evaluator"` // who rated: user handle or "anonymous"
	Status       string `json:"status"`    // pending, applied, dismissed
	CreatedTs    int64  `json:"created_ts"`
}

// Feedback status values.
const (
	FeedbackStatusPending   = "pending"
	FeedbackStatusApplied   = "applied"
	FeedbackStatusDismissed = "dismissed"
)

// CreateFeedback specifies data for recording feedback.
type CreateFeedback struct {
	SessionID    string
	MessageIndex int
	Rating       int
	Comment      string
	Evaluator    string
}

// FindFeedback specifies conditions for listing feedback.
type FindFeedback struct {
	SessionID *string
	Status    *string
	MinRating *int
	Limit     int
}

// UpdateFeedback specifies a partial update. Nil fields are untouched.
type UpdateFeedback struct {
	ID      string
	Status  *string
	Comment *string
}

// FeedbackStats aggregates ratings into an NPS-style summary.
// Promoters rate 9-10, detractors 6 or below.
type FeedbackStats struct {
	Total      int64   `json:"total"`
	AvgRating  float64 `json:"avg_rating"`
	Promoters  int64   `json:"promoters"`
	Passives   int64   `json:"passives"`
	Detractors int64   `json:"detractors"`
	NPS        float64 `json:"nps"`
}

// ComputeNPS fills the NPS field from the counters.
func (s *FeedbackStats) ComputeNPS() {
	if s.Total == 0 {
		s.NPS = 0
		return
	}
	s.NPS = float64(s.Promoters-s.Detractors) / float64(s.Total) * 100
}

// ValidFeedbackStatus reports whether a status value is one we store.
func ValidFeedbackStatus(status string) bool {
	switch status {
	case FeedbackStatusPending, FeedbackStatusApplied, FeedbackStatusDismissed:
		return true
	}
	return false
}
