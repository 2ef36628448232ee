package user

type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"` // never expose hash in JSON
}

type NewUser struct {
	Name     string `json:"name" binding:"required,max=200"`
	Email    string `json:"email" binding:"required,email,max=320"`
	Password string `json:"password" binding:"required,max=1024"`
}

type AuthData struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}
