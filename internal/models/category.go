package models

import (
	"strings"

	"github.com/google/uuid"
)

// NewCategory creates a category with a generated id
func NewCategory(name string) *Category {
	return &Category{
		ID:   uuid.New().String(),
		Name: strings.TrimSpace(name),
	}
}

// NewEstablishment creates an establishment with a generated id from the given input.
func NewEstablishment(in EstablishmentInput) *Establishment {
	e := &Establishment{ID: uuid.New().String()}
	e.Apply(in)
	return e
}

// Apply replaces every field of e with the input, keeping the id.
func (e *Establishment) Apply(in EstablishmentInput) {
	e.Name = strings.TrimSpace(in.Name)
	e.Category = strings.TrimSpace(in.Category)
	e.Address = in.Address
	e.Phone = in.Phone
	e.WorkingHours = in.WorkingHours
	e.Description = in.Description
	e.Image = strings.TrimSpace(in.Image)
	e.Website = strings.TrimSpace(in.Website)
	e.Discount = in.Discount
	e.Facebook = strings.TrimSpace(in.Facebook)
	e.Instagram = strings.TrimSpace(in.Instagram)
	e.Coordinates = in.Coordinates
}

// Valid reports whether the coordinates lie within the WGS84 range.
func (c *Coordinates) Valid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 &&
		c.Longitude >= -180 && c.Longitude <= 180
}
