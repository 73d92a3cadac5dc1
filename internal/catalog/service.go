package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/bizdesk/bizdesk/internal/platform/httpx"
	"github.com/bizdesk/bizdesk/internal/pricing"
)

// RateProvider resolves the commission rate table.
type RateProvider interface {
	Rates(ctx context.Context) (pricing.RateTable, error)
	Invalidate(ctx context.Context) error
}

// RepriceScheduler queues a background reprice of the whole catalog.
type RepriceScheduler interface {
	EnqueueCatalogReprice(ctx context.Context, reason string) error
}

type Service struct {
	repo      Repository
	rates     RateProvider
	scheduler RepriceScheduler
	logger    *slog.Logger
}

// NewService wires the catalog service. scheduler may be nil, in which case
// group writes only invalidate the rate cache.
func NewService(repo Repository, rates RateProvider, scheduler RepriceScheduler, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, rates: rates, scheduler: scheduler, logger: logger}
}

// Rates exposes the current rate table to other packages.
func (s *Service) Rates(ctx context.Context) (pricing.RateTable, error) {
	return s.rates.Rates(ctx)
}

// ============================================================================
// GROUPS
// ============================================================================

func (s *Service) ListGroups(ctx context.Context) ([]Group, error) {
	return s.repo.ListGroups(ctx)
}

func (s *Service) CreateGroup(ctx context.Context, req CreateGroupRequest) (*Group, error) {
	name := strings.TrimSpace(req.Name)
	if err := checkPercent("commission_percent", req.CommissionPercent); err != nil {
		return nil, err
	}
	existing, err := s.repo.GetGroupByName(ctx, name)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("check existing group: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: group %q", ErrAlreadyExists, name)
	}

	group := Group{
		Name:              name,
		CommissionPercent: req.CommissionPercent,
		Color:             req.Color,
		Description:       req.Description,
	}
	id, err := s.repo.CreateGroup(ctx, group)
	if err != nil {
		return nil, fmt.Errorf("create group: %w", err)
	}
	s.ratesChanged(ctx, "group created")
	return s.repo.GetGroup(ctx, id)
}

func (s *Service) UpdateGroup(ctx context.Context, id int64, req UpdateGroupRequest) (*Group, error) {
	group, err := s.repo.GetGroup(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get group: %w", err)
	}
	renamed := false
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		renamed = name != group.Name
		group.Name = name
	}
	if req.CommissionPercent != nil {
		if err := checkPercent("commission_percent", *req.CommissionPercent); err != nil {
			return nil, err
		}
		group.CommissionPercent = *req.CommissionPercent
	}
	if req.Color != nil {
		group.Color = req.Color
	}
	if req.Description != nil {
		group.Description = req.Description
	}
	if group.Name == "" {
		return nil, &httpx.ValidationError{Fields: map[string]string{"name": "is required"}}
	}

	if err := s.repo.UpdateGroup(ctx, *group); err != nil {
		return nil, fmt.Errorf("update group: %w", err)
	}
	reason := "group updated"
	if renamed {
		reason = "group renamed"
	}
	s.ratesChanged(ctx, reason)
	return s.repo.GetGroup(ctx, id)
}

func (s *Service) DeleteGroup(ctx context.Context, id int64) error {
	if err := s.repo.DeleteGroup(ctx, id); err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	s.ratesChanged(ctx, "group deleted")
	return nil
}

// ratesChanged drops the cached rate table and queues a catalog reprice.
// Failures are logged; the group write itself already succeeded.
func (s *Service) ratesChanged(ctx context.Context, reason string) {
	if err := s.rates.Invalidate(ctx); err != nil {
		s.logger.Warn("invalidate rate cache", slog.Any("error", err))
	}
	if s.scheduler == nil {
		return
	}
	if err := s.scheduler.EnqueueCatalogReprice(ctx, reason); err != nil {
		s.logger.Warn("enqueue catalog reprice", slog.String("reason", reason), slog.Any("error", err))
	}
}

// ============================================================================
// ARTICLES
// ============================================================================

func (s *Service) ListArticles(ctx context.Context, req ListArticlesRequest) ([]Article, int, error) {
	return s.repo.ListArticles(ctx, req)
}

func (s *Service) GetArticle(ctx context.Context, id int64) (*Article, error) {
	return s.repo.GetArticle(ctx, id)
}

func (s *Service) CreateArticle(ctx context.Context, req CreateArticleRequest) (*Article, error) {
	reference := strings.TrimSpace(req.Reference)
	existing, err := s.repo.GetArticleByReference(ctx, reference)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("check existing article: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: article reference %q", ErrAlreadyExists, reference)
	}

	article := Article{
		Reference:   reference,
		Description: req.Description,
		Unit:        unitOrDefault(req.Unit),
		GroupName:   normalizeGroup(req.GroupName),
	}
	edit := priceEdit{
		salePrice:     &req.SalePrice,
		purchasePrice: req.PurchasePrice,
		marginValue:   req.MarginValue,
		marginPercent: req.MarginPercent,
	}
	if edit.purchasePrice == nil && edit.marginValue == nil && edit.marginPercent == nil {
		zero := decimal.Zero
		edit.purchasePrice = &zero
	}
	if err := s.price(ctx, &article, edit); err != nil {
		return nil, err
	}

	id, err := s.repo.CreateArticle(ctx, article)
	if err != nil {
		return nil, fmt.Errorf("create article: %w", err)
	}
	return s.repo.GetArticle(ctx, id)
}

func (s *Service) UpdateArticle(ctx context.Context, id int64, req UpdateArticleRequest) (*Article, error) {
	article, err := s.repo.GetArticle(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get article: %w", err)
	}
	if req.Reference != nil {
		article.Reference = strings.TrimSpace(*req.Reference)
	}
	if req.Description != nil {
		article.Description = *req.Description
	}
	if req.Unit != nil {
		article.Unit = unitOrDefault(*req.Unit)
	}
	if req.GroupName != nil {
		article.GroupName = normalizeGroup(req.GroupName)
	}
	edit := priceEdit{
		salePrice:     req.SalePrice,
		purchasePrice: req.PurchasePrice,
		marginValue:   req.MarginValue,
		marginPercent: req.MarginPercent,
	}
	if err := s.price(ctx, article, edit); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateArticle(ctx, *article); err != nil {
		return nil, fmt.Errorf("update article: %w", err)
	}
	return s.repo.GetArticle(ctx, id)
}

func (s *Service) DeleteArticle(ctx context.Context, id int64) error {
	if err := s.repo.DeleteArticle(ctx, id); err != nil {
		return fmt.Errorf("delete article: %w", err)
	}
	return nil
}

// RecomputeArticle applies one field edit from the article editor without
// touching storage.
func (s *Service) RecomputeArticle(ctx context.Context, req RecomputeRequest) (*RecomputeResponse, error) {
	if !req.Field.Valid() || req.Field == pricing.FieldMode {
		return nil, &httpx.ValidationError{Fields: map[string]string{"field": "is not editable"}}
	}
	rates, err := s.rates.Rates(ctx)
	if err != nil {
		return nil, fmt.Errorf("load rates: %w", err)
	}
	entity := pricing.RecomputeArticle(req.Entity, req.Field, string(req.Value))
	return &RecomputeResponse{
		Entity:         entity,
		Display:        entity.Rounded(),
		UnitCommission: pricing.Round2(pricing.UnitCommission(entity.MarginValue, req.Group, rates)),
	}, nil
}

// priceEdit lists the pricing inputs of a write. Nil members are untouched.
type priceEdit struct {
	salePrice     *decimal.Decimal
	purchasePrice *decimal.Decimal
	marginValue   *decimal.Decimal
	marginPercent *decimal.Decimal
}

// price replays the edit through the article calculator: sale price first,
// then the single cost side input with the highest precedence.
func (s *Service) price(ctx context.Context, article *Article, edit priceEdit) error {
	fields := map[string]string{}
	for name, v := range map[string]*decimal.Decimal{
		"sale_price":     edit.salePrice,
		"purchase_price": edit.purchasePrice,
		"margin_value":   edit.marginValue,
	} {
		if v != nil && v.IsNegative() {
			fields[name] = "must not be negative"
		}
	}
	if edit.marginPercent != nil {
		if err := checkPercent("margin_percent", *edit.marginPercent); err != nil {
			return err
		}
	}
	if len(fields) > 0 {
		return &httpx.ValidationError{Fields: fields}
	}

	rates, err := s.rates.Rates(ctx)
	if err != nil {
		return fmt.Errorf("load rates: %w", err)
	}

	e := article.Entity()
	if edit.salePrice != nil {
		e = pricing.ApplyArticle(e, pricing.FieldSalePrice, *edit.salePrice)
	}
	switch {
	case edit.purchasePrice != nil:
		e = pricing.ApplyArticle(e, pricing.FieldCostPrice, *edit.purchasePrice)
	case edit.marginValue != nil:
		e = pricing.ApplyArticle(e, pricing.FieldMarginValue, *edit.marginValue)
	case edit.marginPercent != nil:
		e = pricing.ApplyArticle(e, pricing.FieldMarginPercent, *edit.marginPercent)
	case edit.salePrice == nil:
		e = pricing.ApplyArticle(e, pricing.FieldCostPrice, e.CostPrice)
	}
	if e.CostPrice.IsNegative() {
		return &httpx.ValidationError{Fields: map[string]string{"margin_value": "exceeds sale price"}}
	}
	article.applyEntity(e, rates)
	return nil
}

func checkPercent(field string, v decimal.Decimal) error {
	if v.IsNegative() || v.GreaterThan(decimal.NewFromInt(100)) {
		return &httpx.ValidationError{Fields: map[string]string{field: "must be between 0 and 100"}}
	}
	return nil
}

func normalizeGroup(name *string) *string {
	if name == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*name)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func unitOrDefault(unit string) string {
	unit = strings.TrimSpace(unit)
	if unit == "" {
		return "un"
	}
	return unit
}
