package models

import "time"

// Comment is a note in an application's thread.
type Comment struct {
	ID          string    `bson:"_id" json:"_id"`
	Application string    `bson:"application" json:"application"` // Application internal id
	Text        string    `bson:"text" json:"text"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Media is an attached document. Either an object in the media store
// (ObjectKey set) or an external link (URL only).
type Media struct {
	ID          string    `bson:"_id" json:"_id"`
	Application string    `bson:"application,omitempty" json:"application,omitempty"`
	Medical     string    `bson:"medical,omitempty" json:"medical,omitempty"`
	Filename    string    `bson:"filename" json:"filename"`
	URL         string    `bson:"url,omitempty" json:"url,omitempty"`
	ObjectKey   string    `bson:"objectKey,omitempty" json:"-"`
	Backend     string    `bson:"backend,omitempty" json:"backend,omitempty"` // minio or cloudinary
	MimeType    string    `bson:"mimetype" json:"mimetype"`
	Size        int64     `bson:"size" json:"size"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
}

// IsStored reports whether the bytes live in the media store.
func (m *Media) IsStored() bool {
	return m.ObjectKey != ""
}

// Counter is the allocator state of one id domain.
type Counter struct {
	Domain       string    `bson:"_id" json:"domain"`
	MonthKey     string    `bson:"monthKey" json:"monthKey"` // MM/YYYY
	MonthlyCount int       `bson:"monthlyCount" json:"monthlyCount"`
	OverallCount int       `bson:"overallCount" json:"overallCount"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updatedAt"`
}
