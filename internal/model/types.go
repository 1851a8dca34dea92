package model

import "time"

// MediaKind distinguishes movies from TV series throughout the system.
type MediaKind string

const (
	KindMovie MediaKind = "movie"
	KindTV    MediaKind = "tv"
)

// Valid reports whether k is one of the known media kinds.
func (k MediaKind) Valid() bool { return k == KindMovie || k == KindTV }

// Item is a movie or TV series record returned by the metadata service.
// Fields that only apply to one kind are zero for the other.
type Item struct {
	ID           int64     `json:"id"`
	Kind         MediaKind `json:"kind"`
	Title        string    `json:"title"`
	Overview     string    `json:"overview"`
	ReleaseDate  string    `json:"releaseDate"`
	Rating       float64   `json:"rating"`
	VoteCount    int64     `json:"voteCount"`
	RuntimeMin   int       `json:"runtimeMin,omitempty"`
	SeasonCount  int       `json:"seasonCount,omitempty"`
	EpisodeCount int       `json:"episodeCount,omitempty"`
	Genres       []string  `json:"genres,omitempty"`
	PosterURL    string    `json:"posterUrl,omitempty"`
	Director     string    `json:"director,omitempty"`
	Cast         []string  `json:"cast,omitempty"`
	TrailerURL   string    `json:"trailerUrl,omitempty"`
}

// Season is one season of a TV series with its episode list.
type Season struct {
	SeriesID int64     `json:"seriesId"`
	Number   int       `json:"number"`
	AirDate  string    `json:"airDate"`
	Episodes []Episode `json:"episodes"`
}

// Episode is a single episode record.
type Episode struct {
	SeriesID int64   `json:"seriesId"`
	Season   int     `json:"season"`
	Number   int     `json:"number"`
	Name     string  `json:"name"`
	AirDate  string  `json:"airDate"`
	Rating   float64 `json:"rating"`
	Overview string  `json:"overview"`
}

// SearchResult is one row of a multi-search or listing response.
type SearchResult struct {
	ID        int64     `json:"id"`
	Kind      MediaKind `json:"kind"`
	Title     string    `json:"title"`
	Year      string    `json:"year"`
	Rating    float64   `json:"rating"`
	Overview  string    `json:"overview"`
	PosterURL string    `json:"posterUrl,omitempty"`
}

// Settings is the persisted per-user preference record.
type Settings struct {
	UserID        int64  `json:"userId"`
	Language      string `json:"language"`
	AdultContent  bool   `json:"adultContent"`
	Notifications bool   `json:"notifications"`
}

// DefaultSettings returns the preference record created on first contact.
func DefaultSettings(userID int64) *Settings {
	return &Settings{UserID: userID, Language: "en", Notifications: true}
}

// WatchEntry is one saved watchlist or like entry for a user.
type WatchEntry struct {
	UserID  int64     `json:"userId"`
	Kind    MediaKind `json:"kind"`
	ItemID  int64     `json:"itemId"`
	SavedAt time.Time `json:"savedAt"`
}

// Feedback is a stored user report. UserHash is a SHA-256 digest of the
// platform user id so the record carries no direct identifier.
type Feedback struct {
	FeedbackID   string    `json:"feedbackId"`
	UserHash     string    `json:"userHash"`
	Body         string    `json:"body"`
	Category     string    `json:"category"`
	CreationTime time.Time `json:"creationTime"`
}
