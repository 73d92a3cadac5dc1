package clients

type CreateClientRequest struct {
	Name    string  `json:"name" validate:"required,max=200"`
	Email   *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone   *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	NIF     *string `json:"nif,omitempty" validate:"omitempty,max=20"`
	Address *string `json:"address,omitempty" validate:"omitempty,max=500"`
	Notes   *string `json:"notes,omitempty"`
}

type UpdateClientRequest struct {
	Name    *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Email   *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone   *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	NIF     *string `json:"nif,omitempty" validate:"omitempty,max=20"`
	Address *string `json:"address,omitempty" validate:"omitempty,max=500"`
	Notes   *string `json:"notes,omitempty"`
}

type ListClientsRequest struct {
	Search *string `json:"search,omitempty"`
	Limit  int     `json:"limit" validate:"gte=0,lte=1000"`
	Offset int     `json:"offset" validate:"gte=0"`
}
