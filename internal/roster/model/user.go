package model

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is what a successful sign-in or sign-up yields.
type Session struct {
	Token string `json:"access_token"`
	User  User   `json:"user"`
}
