package models

import (
	"strings"

	"github.com/google/uuid"
)

// NewNews creates a news item with a generated id from the given input.
func NewNews(in NewsInput) *News {
	n := &News{ID: uuid.New().String()}
	n.Apply(in)
	return n
}

// Apply replaces every field of n with the input, keeping the id.
func (n *News) Apply(in NewsInput) {
	n.Title = strings.TrimSpace(in.Title)
	n.Date = strings.TrimSpace(in.Date)
	n.ShortDescription = in.ShortDescription
	n.FullDescription = in.FullDescription
	n.Image = strings.TrimSpace(in.Image)
}
