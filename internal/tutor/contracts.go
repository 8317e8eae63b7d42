package tutor

import (
	"context"
	"time"

	"github.com/abhisek/adaptiq/internal/knowledge"
)

// ContentInfo is what the tutor needs to know about one question.
type ContentInfo struct {
	ID            int64
	Topic         knowledge.Topic
	Difficulty    int // 1..10
	CorrectAnswer string
	Format        string // e.g. text, visual, interactive
	SkillID       string // optional
	Prompt        string
}

// ContentQuery filters ListContent. Empty filters match everything.
type ContentQuery struct {
	SkillIDs []string
	Topics   []knowledge.Topic
	Limit    int
}

// ContentLookup resolves content ids. Content wraps ErrNotFound for unknown
// ids.
type ContentLookup interface {
	Content(ctx context.Context, id int64) (ContentInfo, error)
	ListContent(ctx context.Context, q ContentQuery) ([]ContentInfo, error)
}

// Attempt is one immutable entry of the interaction log.
type Attempt struct {
	ID         string
	Sequence   int64 // assigned by the log
	StudentID  string
	ContentID  int64
	SkillID    string
	Topic      knowledge.Topic
	Difficulty int
	Correct    bool
	TimeSpent  float64
	PreState   knowledge.State
	Action     int // -1 when the content had no action slot
	Reward     float64
	PostState  knowledge.State
	CreatedAt  time.Time
}

// AttemptLog is the append-only interaction log.
type AttemptLog interface {
	// Append stores a and sets its Sequence.
	Append(ctx context.Context, a *Attempt) error
	// Recent returns the student's latest attempts, newest first.
	Recent(ctx context.Context, studentID string, limit int) ([]Attempt, error)
}
