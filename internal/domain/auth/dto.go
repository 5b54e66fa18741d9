package auth

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	AccessToken  string   `json:"access_token"`
	User         *User    `json:"user"`
	Capabilities []string `json:"capabilities"`
}

type CreateUserRequest struct {
	Email    string   `validate:"required,email"`
	Password string   `validate:"required,min=8"`
	Name     string   `validate:"max=255"`
	Role     UserRole `validate:"required"`
}
