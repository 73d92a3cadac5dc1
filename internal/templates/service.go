package templates

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/bizdesk/bizdesk/internal/platform/httpx"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, typ *Type) ([]Template, error) {
	if typ != nil && !typ.Valid() {
		return nil, &httpx.ValidationError{Fields: map[string]string{"type": "is unknown"}}
	}
	return s.repo.List(ctx, typ)
}

func (s *Service) Get(ctx context.Context, id int64) (*Template, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, req CreateTemplateRequest) (*Template, error) {
	t := Template{Name: strings.TrimSpace(req.Name), Type: req.Type}
	if t.Type == "" {
		t.Type = TypeProposal
	}
	pages, fields := normalizePages(req.Pages)
	t.Pages = pages
	if t.Name == "" {
		fields["name"] = "is required"
	}
	if !t.Type.Valid() {
		fields["type"] = "is unknown"
	}
	if len(fields) > 0 {
		return nil, &httpx.ValidationError{Fields: fields}
	}

	id, err := s.repo.Create(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("create template: %w", err)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateTemplateRequest) (*Template, error) {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}
	fields := map[string]string{}
	if req.Name != nil {
		t.Name = strings.TrimSpace(*req.Name)
		if t.Name == "" {
			fields["name"] = "is required"
		}
	}
	if req.Type != nil {
		t.Type = *req.Type
		if !t.Type.Valid() {
			fields["type"] = "is unknown"
		}
	}
	if req.Pages != nil {
		pages, pageFields := normalizePages(*req.Pages)
		t.Pages = pages
		for k, v := range pageFields {
			fields[k] = v
		}
	}
	if len(fields) > 0 {
		return nil, &httpx.ValidationError{Fields: fields}
	}

	if err := s.repo.Update(ctx, *t); err != nil {
		return nil, fmt.Errorf("update template: %w", err)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	return nil
}

// normalizePages fills page defaults and checks background sources. The
// first untitled page is the body, later ones are numbered.
func normalizePages(inputs []PageInput) ([]Page, map[string]string) {
	fields := map[string]string{}
	if len(inputs) == 0 {
		fields["pages"] = "must contain at least one page"
		return nil, fields
	}
	pages := make([]Page, 0, len(inputs))
	seen := make(map[string]bool, len(inputs))
	for i, in := range inputs {
		key := fmt.Sprintf("pages[%d]", i)
		p := Page{
			ID:          strings.TrimSpace(in.ID),
			Title:       strings.TrimSpace(in.Title),
			Orientation: in.Orientation,
		}
		if p.ID == "" || seen[p.ID] {
			p.ID = uuid.NewString()
		}
		seen[p.ID] = true
		if p.Title == "" {
			if i == 0 {
				p.Title = BodyTitle
			} else {
				p.Title = fmt.Sprintf("Página %d", i)
			}
		}
		switch p.Orientation {
		case "":
			p.Orientation = OrientationVertical
		case OrientationVertical, OrientationHorizontal:
		default:
			fields[key+".orientation"] = "must be vertical or horizontal"
		}
		if in.BackgroundImage != nil {
			src := strings.TrimSpace(*in.BackgroundImage)
			switch {
			case src == "":
			case ValidBackground(src):
				p.BackgroundImage = &src
			default:
				fields[key+".background_image"] = "must be an image data URI or an http(s) URL"
			}
		}
		pages = append(pages, p)
	}
	return pages, fields
}

// ValidBackground reports whether src can be printed as a page background.
func ValidBackground(src string) bool {
	lower := strings.ToLower(src)
	return strings.HasPrefix(lower, "data:image/") ||
		strings.HasPrefix(lower, "https://") ||
		strings.HasPrefix(lower, "http://")
}
