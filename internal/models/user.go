package models

import (
	"maps"
	"slices"
	"time"
)

// User is the signed-in identity together with its watchlist and ratings.
type User struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Avatar    string      `json:"avatar,omitempty"`
	Watchlist []int       `json:"watchlist"`
	Ratings   map[int]int `json:"ratings"`
	CreatedAt time.Time   `json:"created_at"`
}

// Clone returns a deep copy so callers can't alias the store's state.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.Watchlist = slices.Clone(u.Watchlist)
	if c.Watchlist == nil {
		c.Watchlist = []int{}
	}
	c.Ratings = maps.Clone(u.Ratings)
	if c.Ratings == nil {
		c.Ratings = map[int]int{}
	}
	return &c
}

// InWatchlist reports whether the movie is on the watchlist.
func (u *User) InWatchlist(movieID int) bool {
	return slices.Contains(u.Watchlist, movieID)
}

// UserPatch is a shallow update. Nil fields are left untouched.
type UserPatch struct {
	Name      *string     `json:"name,omitempty"`
	Email     *string     `json:"email,omitempty"`
	Avatar    *string     `json:"avatar,omitempty"`
	Watchlist []int       `json:"watchlist,omitempty"`
	Ratings   map[int]int `json:"ratings,omitempty"`
}

// Apply merges the patch into a copy of u.
func (p UserPatch) Apply(u *User) *User {
	out := u.Clone()
	if p.Name != nil {
		out.Name = *p.Name
	}
	if p.Email != nil {
		out.Email = *p.Email
	}
	if p.Avatar != nil {
		out.Avatar = *p.Avatar
	}
	if p.Watchlist != nil {
		out.Watchlist = slices.Clone(p.Watchlist)
	}
	if p.Ratings != nil {
		out.Ratings = maps.Clone(p.Ratings)
	}
	return out
}

// ProfileStats summarises a user's activity for the profile page.
type ProfileStats struct {
	WatchlistCount int     `json:"watchlist_count"`
	RatedCount     int     `json:"rated_count"`
	AverageRating  float64 `json:"average_rating"`
	AverageLabel   string  `json:"average_label"`
	MemberSince    string  `json:"member_since"`
}

// Stats computes profile statistics.
func (u *User) Stats() ProfileStats {
	s := ProfileStats{
		WatchlistCount: len(u.Watchlist),
		RatedCount:     len(u.Ratings),
	}
	if len(u.Ratings) > 0 {
		total := 0
		for _, r := range u.Ratings {
			total += r
		}
		s.AverageRating = float64(total) / float64(len(u.Ratings))
	}
	s.AverageLabel = FormatRating(s.AverageRating)
	if !u.CreatedAt.IsZero() {
		s.MemberSince = u.CreatedAt.Format("January 2, 2006")
	}
	return s
}
