// AI Java Interviewer - Resume-driven mock interview backend
// Copyright 2026 Muyu1uz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Muyu1uz/ai-java-interviewer

package api

import (
	"github.com/Muyu1uz/ai-java-interviewer/internal/topics"
)

// ResumeRequest is the body of resume create and update calls. ResumeID
// is only read on create; when empty a new ID is generated.
type ResumeRequest struct {
	ResumeID              string `json:"resume_id" validate:"omitempty,max=64,excludesall=/?#"`
	ProfessionalKnowledge string `json:"professional_knowledge" validate:"max=20000"`
	ProjectExperience     string `json:"project_experience" validate:"max=20000"`
	InternshipExperience  string `json:"internship_experience" validate:"max=20000"`
}

// BeginRequest opens an interview on a stored resume.
type BeginRequest struct {
	ResumeID string `json:"resume_id" validate:"required,max=64"`
}

// TurnMessage is one utterance in a turn request.
type TurnMessage struct {
	Role    string `json:"role" validate:"required,oneof=system user assistant"`
	Content string `json:"content" validate:"max=20000"`
}

// TurnRequest appends messages to the open interview.
type TurnRequest struct {
	Messages []TurnMessage `json:"messages" validate:"required,min=1,max=50,dive"`
}

func (t TurnRequest) turns() []topics.Turn {
	out := make([]topics.Turn, len(t.Messages))
	for i, m := range t.Messages {
		out[i] = topics.Turn{Role: topics.Role(m.Role), Content: m.Content}
	}
	return out
}

// TopicsRequest adds topics by hand. Separators are ',', '，' and '、'.
type TopicsRequest struct {
	Topics string `json:"topics" validate:"required,max=2000"`
}

// MistakeRequest saves a question to the mistake book.
type MistakeRequest struct {
	QuestionContent string `json:"question_content" validate:"required,max=5000"`
}

// AnswerRequest records the candidate's answer to a saved question.
type AnswerRequest struct {
	UserAnswer string `json:"user_answer" validate:"required,max=20000"`
}

// MistakeListQuery holds the mistake book paging parameters.
type MistakeListQuery struct {
	Page int `validate:"min=1,max=10000"`
	Size int `validate:"min=1,max=100"`
}

// SearchQuery holds the knowledge search parameters.
type SearchQuery struct {
	Query    string  `validate:"required,max=500"`
	K        int     `validate:"min=1,max=20"`
	MinScore float64 `validate:"min=0,max=1"`
}
