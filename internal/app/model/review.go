package model

import (
	"time"
)

type ReviewVote string

const (
	VoteHelpful    ReviewVote = "helpful"
	VoteNotHelpful ReviewVote = "not_helpful"
)

func (v ReviewVote) Valid() bool {
	return v == VoteHelpful || v == VoteNotHelpful
}

// Column is the counter a vote increments.
func (v ReviewVote) Column() string {
	if v == VoteNotHelpful {
		return "not_helpful"
	}
	return "helpful"
}

type Review struct {
	ID         string    `gorm:"primarykey;type:varchar(64)" json:"id" bson:"-"`
	ProductID  string    `gorm:"type:varchar(64);not null;index" json:"productId" bson:"productId"`
	Author     string    `gorm:"type:varchar(120)" json:"author" bson:"author"`
	Rating     int       `gorm:"not null" json:"rating" bson:"rating"` // 1-5
	Title      string    `gorm:"type:varchar(200)" json:"title" bson:"title"`
	Body       string    `gorm:"type:text" json:"body" bson:"body"`
	Helpful    int       `gorm:"default:0" json:"helpful" bson:"helpful"`
	NotHelpful int       `gorm:"default:0" json:"notHelpful" bson:"notHelpful"`
	CreatedAt  time.Time `json:"createdAt" bson:"createdAt"`
}

func (Review) TableName() string {
	return "reviews"
}
