package clients

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, req CreateClientRequest) (*Client, error) {
	client := Client{
		Name:    strings.TrimSpace(req.Name),
		Email:   optional(req.Email),
		Phone:   optional(req.Phone),
		NIF:     optional(req.NIF),
		Address: optional(req.Address),
		Notes:   optional(req.Notes),
	}
	if client.NIF != nil {
		existing, err := s.repo.GetByNIF(ctx, *client.NIF)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("check existing client: %w", err)
		}
		if existing != nil {
			return nil, fmt.Errorf("%w: client with nif %s", ErrAlreadyExists, *client.NIF)
		}
	}

	id, err := s.repo.Create(ctx, client)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateClientRequest) (*Client, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get client: %w", err)
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		updates["email"] = optional(req.Email)
	}
	if req.Phone != nil {
		updates["phone"] = optional(req.Phone)
	}
	if req.NIF != nil {
		nif := optional(req.NIF)
		if nif != nil && (existing.NIF == nil || *existing.NIF != *nif) {
			other, err := s.repo.GetByNIF(ctx, *nif)
			if err != nil && !errors.Is(err, ErrNotFound) {
				return nil, fmt.Errorf("check existing client: %w", err)
			}
			if other != nil && other.ID != id {
				return nil, fmt.Errorf("%w: client with nif %s", ErrAlreadyExists, *nif)
			}
		}
		updates["nif"] = nif
	}
	if req.Address != nil {
		updates["address"] = optional(req.Address)
	}
	if req.Notes != nil {
		updates["notes"] = optional(req.Notes)
	}

	if len(updates) == 0 {
		return existing, nil
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, fmt.Errorf("update client: %w", err)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id int64) (*Client, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListClientsRequest) ([]Client, int, error) {
	return s.repo.List(ctx, req)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete client: %w", err)
	}
	return nil
}

// optional trims v and maps blank input to nil.
func optional(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
