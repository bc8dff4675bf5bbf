package model

type LoginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type RegisterResponse struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// ProfileInput holds the writable profile fields. Role is honored only for
// an admin acting on another user.
type ProfileInput struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Role     *string `json:"role"`
}

// ListFilter narrows a listing. Empty fields do not filter.
type ListFilter struct {
	AuthorID  string
	PostID    string
	Published *bool
	Limit     int
	Offset    int
}

type PostList struct {
	Posts []Post `json:"posts"`
}

type CommentList struct {
	Comments []Comment `json:"comments"`
}
