package templates

type PageInput struct {
	ID              string      `json:"id" validate:"omitempty,max=64"`
	Title           string      `json:"title" validate:"max=100"`
	Orientation     Orientation `json:"orientation" validate:"omitempty,oneof=vertical horizontal"`
	BackgroundImage *string     `json:"background_image,omitempty" validate:"omitempty,max=5000000"`
}

type CreateTemplateRequest struct {
	Name  string      `json:"name" validate:"required,max=200"`
	Type  Type        `json:"type" validate:"omitempty,oneof=proposal invoice quote report"`
	Pages []PageInput `json:"pages" validate:"required,min=1,dive"`
}

type UpdateTemplateRequest struct {
	Name  *string      `json:"name,omitempty" validate:"omitempty,max=200"`
	Type  *Type        `json:"type,omitempty" validate:"omitempty,oneof=proposal invoice quote report"`
	Pages *[]PageInput `json:"pages,omitempty" validate:"omitempty,min=1,dive"`
}
