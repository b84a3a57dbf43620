package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/sirupsen/logrus"

	"codequiz/internal/models"
)

var ErrImportNotArray = errors.New("import must be a JSON array")

// ImportOptions overrides subject and difficulty for every imported question
// when set.
type ImportOptions struct {
	Subject    string
	Difficulty models.Difficulty
}

// ImportQuestions parses a loosely typed JSON array of questions and adds
// them with shuffled options. Missing difficulty means easy, missing options
// mean four blanks, a missing correct answer means the first option. Unknown
// subjects are accepted with a warning. Any invalid question aborts the whole
// import.
func (s *Store) ImportQuestions(ctx context.Context, raw []byte, opts ImportOptions) ([]models.Question, error) {
	var items []map[string]interface{}
	if err := json.Unmarshal(raw, &items); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
		return nil, ErrImportNotArray
	}

	subjects, err := s.GetSubjects(ctx)
	if err != nil {
		return nil, err
	}
	known := make([]string, 0, len(subjects))
	for _, cfg := range subjects {
		known = append(known, cfg.ID)
	}

	stamp := s.now().UnixMilli()
	qs := make([]models.Question, 0, len(items))
	for i, item := range items {
		q := models.Question{
			ID:            fmt.Sprintf("imp-%d-%d", stamp, i),
			Subject:       opts.Subject,
			Difficulty:    opts.Difficulty,
			Question:      stringOf(item["question"]),
			Options:       []string{"", "", "", ""},
			CorrectAnswer: 0,
		}
		if q.Subject == "" {
			q.Subject = stringOf(item["subject"])
		}
		if q.Difficulty == "" {
			q.Difficulty = models.Difficulty(stringOf(item["difficulty"]))
		}
		if q.Difficulty == "" {
			q.Difficulty = models.Easy
		}
		if list, ok := item["options"].([]interface{}); ok {
			q.Options = make([]string, len(list))
			for j, o := range list {
				q.Options[j] = fmt.Sprint(o)
			}
		}
		if n, ok := item["correctAnswer"].(float64); ok {
			q.CorrectAnswer = int(n)
		}
		if !slices.Contains(known, q.Subject) {
			s.log.WithFields(logrus.Fields{"index": i, "subject": q.Subject}).Warn("imported question has unknown subject")
		}
		qs = append(qs, q)
	}

	return s.AddQuestions(ctx, qs)
}

func stringOf(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}
