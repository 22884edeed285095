package models

// LoginRequest is the body of POST /api/v1/auth/authenticate.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SendOtpRequest is the body of POST /api/v1/auth/send-otp.
type SendOtpRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// VerifyOtpRequest is the body of POST /api/v1/auth/verify-otp.
type VerifyOtpRequest struct {
	Email string `json:"email" validate:"required,email"`
	Otp   string `json:"otp" validate:"required,len=6,numeric"`
}

// RegisterRequest is the body of POST /api/v1/auth/register. Self-service
// registration is limited to members and trainers.
type RegisterRequest struct {
	Firstname string `json:"firstname" validate:"required,max=64"`
	Lastname  string `json:"lastname" validate:"required,max=64"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6,max=128"`
	Role      Role   `json:"role" validate:"required,oneof=MEMBER TRAINER"`
}

// UpdateProfileRequest is the body of PUT /api/v1/users/me. Nil fields are
// left untouched by the backend.
type UpdateProfileRequest struct {
	Firstname *string `json:"firstname,omitempty" validate:"omitempty,min=1,max=64"`
	Lastname  *string `json:"lastname,omitempty" validate:"omitempty,min=1,max=64"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email"`
	Avatar    *string `json:"avatar,omitempty" validate:"omitempty,url"`
}

// Empty reports whether the request changes nothing.
func (r UpdateProfileRequest) Empty() bool {
	return r.Firstname == nil && r.Lastname == nil && r.Email == nil && r.Avatar == nil
}

// AuthResponse is returned by every credential-issuing endpoint.
type AuthResponse struct {
	Token string `json:"token"`
	Role  Role   `json:"role,omitempty"`
}

// UpdateProfileResponse is the updated profile plus a rotated credential
// when the change invalidated the old one (e.g. a new email).
type UpdateProfileResponse struct {
	UserProfile
	Token string `json:"token,omitempty"`
}
