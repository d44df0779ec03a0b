package users

import "time"

// User holds a registered caller and their running analysis count.
type User struct {
	ID            int64     `json:"id"`
	UserID        string    `json:"userId"`
	Email         string    `json:"email"`
	TotalAnalyses int       `json:"totalAnalyses"`
	CreatedAt     time.Time `json:"createdAt"`
}
