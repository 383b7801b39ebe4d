package controllers

// LoginRequest is the body of POST /api/auth/token/login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse carries an issued access token
type TokenResponse struct {
	AuthToken string `json:"auth_token"`
}

type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email,max=254"`
	Username  string `json:"username" binding:"required,max=150,username"`
	FirstName string `json:"first_name" binding:"required,max=150"`
	LastName  string `json:"last_name" binding:"required,max=150"`
	Password  string `json:"password" binding:"required,min=8,max=150"`
}

type SetPasswordRequest struct {
	NewPassword     string `json:"new_password" binding:"required"`
	CurrentPassword string `json:"current_password" binding:"required"`
}

type TagRequest struct {
	Name  string `json:"name" binding:"required,max=200"`
	Color string `json:"color" binding:"required,len=7,hexcolor"`
	Slug  string `json:"slug" binding:"required,max=200,slug"`
}

type IngredientRequest struct {
	Name            string `json:"name" binding:"required,max=200"`
	MeasurementUnit string `json:"measurement_unit" binding:"required,max=200"`
}

type RecipeIngredientWrite struct {
	ID     uint `json:"id" binding:"required"`
	Amount int  `json:"amount" binding:"required,min=1"`
}

// RecipeWriteRequest is the body of recipe create and update.
// Image is a base64 data URL; it may be omitted on update.
type RecipeWriteRequest struct {
	Ingredients []RecipeIngredientWrite `json:"ingredients" binding:"required,min=1,dive"`
	Tags        []uint                  `json:"tags" binding:"required,min=1"`
	Image       string                  `json:"image"`
	Name        string                  `json:"name" binding:"required,max=200"`
	Text        string                  `json:"text" binding:"required"`
	CookingTime int                     `json:"cooking_time" binding:"required,min=1"`
}
