package domain

import "time"

// DefaultSignupBalance is credited to every new account.
var DefaultSignupBalance = MustMoney("300.00")

type User struct {
	ID        int       `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Balance   Money     `json:"balance"`
	CreatedAt time.Time `json:"created_at"`

	Vehicles []Vehicle `json:"vehicles"` // filled explicitly by UserService
}

type RegisterUserDTO struct {
	Username string `json:"username" binding:"required,min=3,max=80"`
	Email    string `json:"email" binding:"required,email,max=120"`
	Balance  *Money `json:"balance,omitempty"`
}
