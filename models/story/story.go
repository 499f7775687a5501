package story

import (
	"time"

	"story-share-backend/models/users"
)

type Story struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Title         string     `gorm:"not null" json:"title"`
	Preview       string     `gorm:"type:text" json:"preview"`
	Content       string     `gorm:"type:text;not null" json:"content"`
	AuthorID      uint       `gorm:"index;not null" json:"authorId"`
	Author        users.User `gorm:"foreignKey:AuthorID" json:"author"`
	LikesCount    int        `gorm:"not null;default:0" json:"likesCount"`
	CommentsCount int        `gorm:"not null;default:0" json:"commentsCount"`
	Comments      []Comment  `gorm:"foreignKey:StoryID" json:"comments,omitempty"`
	Likes         []Like     `gorm:"foreignKey:StoryID" json:"-"`
	Categories    []Category `gorm:"many2many:story_categories" json:"categories"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

type Comment struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	StoryID   uint       `gorm:"index;not null" json:"storyId"`
	UserID    uint       `gorm:"index;not null" json:"userId"`
	User      users.User `gorm:"foreignKey:UserID" json:"user"`
	Content   string     `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"createdAt"`
}

// Like's composite primary key is what guarantees at most one like per
// (user, story) pair, regardless of what any read-time check concluded.
type Like struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"userId"`
	StoryID   uint      `gorm:"primaryKey;autoIncrement:false" json:"storyId"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

type Category struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;not null" json:"name"`
}

type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"userId"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	IsRead    bool      `gorm:"default:false" json:"isRead"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}
