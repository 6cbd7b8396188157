package models

// ContactsID is the fixed id of the singleton contacts record.
const ContactsID = "contacts"

type News struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Date             string `json:"date"`
	ShortDescription string `json:"shortDescription"`
	FullDescription  string `json:"fullDescription"`
	Image            string `json:"image,omitempty"`
}

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Establishment references its category by name, not by id.
type Establishment struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Category     string       `json:"category"`
	Address      string       `json:"address"`
	Phone        string       `json:"phone"`
	WorkingHours string       `json:"workingHours"`
	Description  string       `json:"description"`
	Image        string       `json:"image,omitempty"`
	Website      string       `json:"website,omitempty"`
	Discount     string       `json:"discount,omitempty"`
	Facebook     string       `json:"facebook,omitempty"`
	Instagram    string       `json:"instagram,omitempty"`
	Coordinates  *Coordinates `json:"coordinates,omitempty"`
}

type Contacts struct {
	Address   string `json:"address,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Email     string `json:"email,omitempty"`
	Facebook  string `json:"facebook,omitempty"`
	Telegram  string `json:"telegram,omitempty"`
	Instagram string `json:"instagram,omitempty"`
}

// Snapshot is the full payload served by GET /api/data.
type Snapshot struct {
	News           []News          `json:"news"`
	Categories     []Category      `json:"categories"`
	Establishments []Establishment `json:"establishments"`
	Contacts       Contacts        `json:"contacts"`
}

type NewsInput struct {
	Title            string `json:"title"`
	Date             string `json:"date"`
	ShortDescription string `json:"shortDescription"`
	FullDescription  string `json:"fullDescription"`
	Image            string `json:"image"`
}

type CategoryInput struct {
	Name string `json:"name"`
}

type EstablishmentInput struct {
	Name         string       `json:"name"`
	Category     string       `json:"category"`
	Address      string       `json:"address"`
	Phone        string       `json:"phone"`
	WorkingHours string       `json:"workingHours"`
	Description  string       `json:"description"`
	Image        string       `json:"image"`
	Website      string       `json:"website"`
	Discount     string       `json:"discount"`
	Facebook     string       `json:"facebook"`
	Instagram    string       `json:"instagram"`
	Coordinates  *Coordinates `json:"coordinates"`
}
