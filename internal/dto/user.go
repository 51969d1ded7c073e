package dto

// ProvisionUserRequest describes an account created by the seeder.
type ProvisionUserRequest struct {
	Name     string  `json:"name" validate:"required,max=100"`
	Username string  `json:"username" validate:"required,min=3,max=50"`
	Password string  `json:"password" validate:"required,min=6"`
	Role     string  `json:"role" validate:"required,oneof=ADMIN TEACHER STUDENT"`
	RombelID *string `json:"rombel_id"`
}
