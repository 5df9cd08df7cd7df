package dto

import (
	"anoa.com/classhub/internal/entity"
	"github.com/google/uuid"
)

type CreatePollRequest struct {
	Question string   `json:"question" binding:"required,max=300"`
	Options  []string `json:"options" binding:"required"`
}

type VoteRequest struct {
	OptionID uint `json:"option_id" binding:"required"`
}

type OptionResponse struct {
	ID    uint   `json:"id"`
	Text  string `json:"text"`
	Votes int64  `json:"votes"`
}

type PollResponse struct {
	ID          uint             `json:"id"`
	ClassRoomID uuid.UUID        `json:"class_room_id"`
	CreatedBy   uuid.UUID        `json:"created_by"`
	Question    string           `json:"question"`
	Options     []OptionResponse `json:"options"`
	MyOptionID  *uint            `json:"my_option_id,omitempty"`
	Timestamp   string           `json:"timestamp"`
}

type VoteResponse struct {
	PollID uint           `json:"poll_id"`
	Counts map[uint]int64 `json:"counts"`
}

func ToPollResponse(p *entity.Poll, counts map[uint]int64, myOption *uint) PollResponse {
	options := make([]OptionResponse, 0, len(p.Options))
	for _, o := range p.Options {
		options = append(options, OptionResponse{ID: o.ID, Text: o.Text, Votes: counts[o.ID]})
	}
	return PollResponse{
		ID:          p.ID,
		ClassRoomID: p.ClassRoomID,
		CreatedBy:   p.CreatedBy,
		Question:    p.Question,
		Options:     options,
		MyOptionID:  myOption,
		Timestamp:   p.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
	}
}
