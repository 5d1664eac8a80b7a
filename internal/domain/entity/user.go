package entity

import "time"

type User struct {
	ID        string    `json:"_id" firestore:"id"`
	Email     string    `json:"email" firestore:"email"`
	Name      string    `json:"name" firestore:"name"`
	Phone     string    `json:"phone,omitempty" firestore:"phone,omitempty"`
	Address   string    `json:"address,omitempty" firestore:"address,omitempty"`
	Avatar    string    `json:"avatar,omitempty" firestore:"avatar,omitempty"`
	IsSeller  bool      `json:"isSeller" firestore:"isSeller"`
	CreatedAt time.Time `json:"createdAt" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" firestore:"updatedAt"`
}

// AsParticipant converts a user to the snapshot embedded in conversations.
func (u *User) AsParticipant() Participant {
	return Participant{
		ID:     u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Avatar: u.Avatar,
	}
}
