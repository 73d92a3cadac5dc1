package proposals

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bizdesk/bizdesk/internal/catalog"
	"github.com/bizdesk/bizdesk/internal/clients"
	"github.com/bizdesk/bizdesk/internal/platform/httpx"
	"github.com/bizdesk/bizdesk/internal/pricing"
	"github.com/bizdesk/bizdesk/internal/shared"
	"github.com/bizdesk/bizdesk/internal/templates"
)

const (
	isoDate          = "2006-01-02"
	numberingRetries = 3
)

// ArticleSource resolves catalog articles and the commission rate table.
type ArticleSource interface {
	GetArticle(ctx context.Context, id int64) (*catalog.Article, error)
	Rates(ctx context.Context) (pricing.RateTable, error)
}

// ClientSource resolves client records.
type ClientSource interface {
	Get(ctx context.Context, id int64) (*clients.Client, error)
}

// TemplateSource resolves stored document templates.
type TemplateSource interface {
	Get(ctx context.Context, id int64) (*templates.Template, error)
}

// PDFRenderer converts HTML into a PDF document.
type PDFRenderer interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

type Service struct {
	repo      Repository
	articles  ArticleSource
	clients   ClientSource
	renderer  PDFRenderer
	templates TemplateSource
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(repo Repository, articles ArticleSource, clients ClientSource, renderer PDFRenderer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		articles: articles,
		clients:  clients,
		renderer: renderer,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithTemplates enables template selection for proposals and their PDFs.
func (s *Service) WithTemplates(src TemplateSource) *Service {
	s.templates = src
	return s
}

// ============================================================================
// PROPOSALS
// ============================================================================

func (s *Service) Get(ctx context.Context, id int64) (*Proposal, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListProposalsRequest) ([]Proposal, int, error) {
	return s.repo.List(ctx, req)
}

func (s *Service) Create(ctx context.Context, req CreateProposalRequest) (*Proposal, error) {
	if err := s.checkClient(ctx, req.ClientID); err != nil {
		return nil, err
	}
	if err := s.checkTemplate(ctx, req.TemplateID); err != nil {
		return nil, err
	}
	proposalDate, expiryDate, err := s.parseDates(req.ProposalDate, req.ExpiryDate)
	if err != nil {
		return nil, err
	}

	p := Proposal{
		ClientID:             req.ClientID,
		Status:               StatusDraft,
		GroupName:            trimmed(req.GroupName),
		TemplateID:           req.TemplateID,
		ProposalDate:         proposalDate,
		ExpiryDate:           expiryDate,
		DiscountPercentage:   req.DiscountPercentage,
		CommissionPercentage: req.CommissionPercentage,
		Notes:                trimmed(req.Notes),
	}
	lines, err := s.price(ctx, &p, req.Lines)
	if err != nil {
		return nil, err
	}

	var id int64
	for attempt := 1; ; attempt++ {
		id, err = s.insert(ctx, p, lines)
		if err == nil || !errors.Is(err, ErrAlreadyExists) || attempt == numberingRetries {
			break
		}
		s.logger.Warn("proposal number taken, retrying", slog.Int("attempt", attempt))
	}
	if err != nil {
		return nil, fmt.Errorf("create proposal: %w", err)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) insert(ctx context.Context, p Proposal, lines []Line) (int64, error) {
	var id int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		seq, err := repo.NextSequence(ctx, p.ProposalDate.Year())
		if err != nil {
			return fmt.Errorf("next number: %w", err)
		}
		p.Number = FormatNumber(p.ProposalDate.Year(), seq)
		id, err = repo.Create(ctx, p)
		if err != nil {
			return err
		}
		return repo.ReplaceLines(ctx, id, lines)
	})
	return id, err
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateProposalRequest) (*Proposal, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get proposal: %w", err)
	}
	if !p.Status.Editable() {
		return nil, fmt.Errorf("%w: only %s proposals can be edited", ErrInvalidStatus, StatusDraft)
	}

	if req.ClientID != nil && *req.ClientID != p.ClientID {
		if err := s.checkClient(ctx, *req.ClientID); err != nil {
			return nil, err
		}
		p.ClientID = *req.ClientID
	}
	if req.GroupName != nil {
		p.GroupName = trimmed(req.GroupName)
	}
	if req.TemplateID != nil {
		if err := s.checkTemplate(ctx, req.TemplateID); err != nil {
			return nil, err
		}
		p.TemplateID = req.TemplateID
	}
	dateRaw := p.ProposalDate.Format(isoDate)
	if req.ProposalDate != nil {
		dateRaw = *req.ProposalDate
	}
	expiryRaw := ""
	if p.ExpiryDate != nil {
		expiryRaw = p.ExpiryDate.Format(isoDate)
	}
	if req.ExpiryDate != nil {
		expiryRaw = *req.ExpiryDate
	}
	if p.ProposalDate, p.ExpiryDate, err = s.parseDates(dateRaw, expiryRaw); err != nil {
		return nil, err
	}
	if req.DiscountPercentage != nil {
		p.DiscountPercentage = *req.DiscountPercentage
	}
	if req.CommissionPercentage != nil {
		p.CommissionPercentage = *req.CommissionPercentage
	}
	if req.Notes != nil {
		p.Notes = trimmed(req.Notes)
	}

	inputs := make([]LineInput, 0, len(p.Lines))
	if req.Lines != nil {
		inputs = *req.Lines
	} else {
		for _, l := range p.Lines {
			inputs = append(inputs, inputFromLine(l))
		}
	}
	lines, err := s.price(ctx, p, inputs)
	if err != nil {
		return nil, err
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.UpdateHeader(ctx, *p); err != nil {
			return err
		}
		return repo.ReplaceLines(ctx, id, lines)
	})
	if err != nil {
		return nil, fmt.Errorf("update proposal: %w", err)
	}
	return s.repo.Get(ctx, id)
}

// ChangeStatus moves the proposal along the workflow.
func (s *Service) ChangeStatus(ctx context.Context, id int64, next Status) (*Proposal, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get proposal: %w", err)
	}
	if !p.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidStatus, p.Status, next)
	}
	if next == StatusSent && len(p.Lines) == 0 {
		return nil, fmt.Errorf("%w: proposal has no lines", ErrInvalidStatus)
	}
	if err := s.repo.UpdateStatus(ctx, id, next); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	s.logger.Info("proposal status changed", slog.String("number", p.Number),
		slog.String("from", string(p.Status)), slog.String("to", string(next)))
	return s.repo.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get proposal: %w", err)
	}
	if p.Status == StatusApproved {
		return fmt.Errorf("%w: approved proposals cannot be deleted", ErrInvalidStatus)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete proposal: %w", err)
	}
	return nil
}

// ExpireOverdue marks open proposals whose expiry date has passed as expirada.
func (s *Service) ExpireOverdue(ctx context.Context) (int64, error) {
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	n, err := s.repo.ExpireOverdue(ctx, today)
	if err != nil {
		return 0, fmt.Errorf("expire proposals: %w", err)
	}
	return n, nil
}

// RenderPDF renders the proposal through the PDF converter. templateID, when
// set, overrides the template stored on the proposal.
func (s *Service) RenderPDF(ctx context.Context, id int64, templateID *int64) (*Proposal, []byte, error) {
	if s.renderer == nil {
		return nil, nil, fmt.Errorf("proposals: pdf renderer not configured: %w", shared.ErrUnavailable)
	}
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("get proposal: %w", err)
	}
	client, err := s.clients.Get(ctx, p.ClientID)
	if err != nil && !errors.Is(err, clients.ErrNotFound) {
		return nil, nil, fmt.Errorf("get client: %w", err)
	}
	if templateID == nil {
		templateID = p.TemplateID
	}
	tpl, err := s.template(ctx, templateID, "template")
	if err != nil {
		return nil, nil, err
	}
	html, err := NewDocument(*p, client).WithTemplate(tpl).HTML()
	if err != nil {
		return nil, nil, fmt.Errorf("render html: %w", err)
	}
	pdf, err := s.renderer.RenderHTML(ctx, html)
	if err != nil {
		return nil, nil, fmt.Errorf("render pdf: %w", err)
	}
	return p, pdf, nil
}

// ============================================================================
// EDITOR OPERATIONS
// ============================================================================

// RecomputeLine applies one field edit from the line editor. A
// calculation_mode edit switches the mode and resets the derived fields.
func (s *Service) RecomputeLine(ctx context.Context, req LineRecomputeRequest) (*LineRecomputeResponse, error) {
	if !req.Field.Valid() {
		return nil, &httpx.ValidationError{Fields: map[string]string{"field": "is not editable"}}
	}
	if req.Field == pricing.FieldMode {
		if _, ok := pricing.ParseMode(string(req.Value)); !ok {
			return nil, &httpx.ValidationError{Fields: map[string]string{"value": "must be pvp or cost"}}
		}
	}
	rates, err := s.articles.Rates(ctx)
	if err != nil {
		return nil, fmt.Errorf("load rates: %w", err)
	}
	line := pricing.Recompute(req.Line, req.Field, string(req.Value))
	return &LineRecomputeResponse{
		Line:       line,
		Display:    line.Rounded(),
		Commission: pricing.Round2(pricing.Commission(line.MarginValue, req.Group, rates, line.Quantity)),
	}, nil
}

// LineFromArticle copies a catalog article into a new line with its margin on
// the basis of the requested mode.
func (s *Service) LineFromArticle(ctx context.Context, req FromArticleRequest) (*FromArticleResponse, error) {
	article, err := s.articles.GetArticle(ctx, req.ArticleID)
	if err != nil {
		return nil, fmt.Errorf("get article: %w", err)
	}
	rates, err := s.articles.Rates(ctx)
	if err != nil {
		return nil, fmt.Errorf("load rates: %w", err)
	}

	e := pricing.FromCatalog(article.SalePrice, article.PurchasePrice, req.Mode)
	if req.Quantity != nil {
		e = pricing.Apply(e, pricing.FieldQuantity, *req.Quantity)
	}
	e = e.Rounded()

	articleID := article.ID
	quantity := e.Quantity
	return &FromArticleResponse{
		Line: LineInput{
			ArticleID:          &articleID,
			Description:        article.Description,
			Unit:               article.Unit,
			Quantity:           &quantity,
			UnitPrice:          e.SalePrice,
			CostPrice:          e.CostPrice,
			DiscountPercentage: e.DiscountPercent,
			CalculationMode:    e.Mode,
			MarginPercentage:   e.MarginPercent,
			MarginEuro:         e.MarginValue,
		},
		Group:      article.Group(),
		Commission: pricing.Round2(pricing.Commission(e.MarginValue, article.Group(), rates, e.Quantity)),
	}, nil
}

// PreviewTotals aggregates unsaved lines.
func (s *Service) PreviewTotals(req TotalsRequest) TotalsResponse {
	totals := pricing.Aggregate(req.Lines, req.DiscountPercentage, req.CommissionPercentage)
	return TotalsResponse{Totals: totals, Display: totals.Rounded()}
}

// ============================================================================
// PRICING
// ============================================================================

// price normalizes the submitted lines and fills the proposal totals. Line
// totals and margins are always derived from the submitted prices.
func (s *Service) price(ctx context.Context, p *Proposal, inputs []LineInput) ([]Line, error) {
	fields := map[string]string{}
	checkPct := func(key string, v decimal.Decimal) {
		if v.IsNegative() || v.GreaterThan(decimal.NewFromInt(100)) {
			fields[key] = "must be between 0 and 100"
		}
	}
	checkPct("discount_percentage", p.DiscountPercentage)
	checkPct("commission_percentage", p.CommissionPercentage)

	rates, err := s.articles.Rates(ctx)
	if err != nil {
		return nil, fmt.Errorf("load rates: %w", err)
	}

	groups := map[int64]string{}
	lines := make([]Line, 0, len(inputs))
	grouped := make([]pricing.GroupedEntity, 0, len(inputs))
	entities := make([]pricing.Entity, 0, len(inputs))
	for i, in := range inputs {
		key := fmt.Sprintf("lines[%d]", i)
		line := Line{
			ArticleID:          in.ArticleID,
			Description:        strings.TrimSpace(in.Description),
			Unit:               strings.TrimSpace(in.Unit),
			Quantity:           decimal.NewFromInt(1),
			UnitPrice:          in.UnitPrice,
			CostPrice:          in.CostPrice,
			DiscountPercentage: in.DiscountPercentage,
			CalculationMode:    in.CalculationMode,
			MarginPercentage:   in.MarginPercentage,
			MarginEuro:         in.MarginEuro,
			SortOrder:          in.SortOrder,
		}
		if in.Quantity != nil {
			line.Quantity = *in.Quantity
		}
		if line.Unit == "" {
			line.Unit = "un"
		}
		if !line.CalculationMode.Valid() {
			line.CalculationMode = pricing.ModeFromSalePrice
		}
		if line.SortOrder == 0 {
			line.SortOrder = i + 1
		}
		if line.Description == "" {
			fields[key+".description"] = "is required"
		}
		if line.Quantity.IsNegative() {
			fields[key+".quantity"] = "must not be negative"
		}
		if line.UnitPrice.IsNegative() {
			fields[key+".unit_price"] = "must not be negative"
		}
		if line.CostPrice.IsNegative() {
			fields[key+".cost_price"] = "must not be negative"
		}
		checkPct(key+".discount_percentage", line.DiscountPercentage)
		if line.CostPrice.GreaterThan(line.UnitPrice) {
			fields[key+".cost_price"] = "must not exceed unit_price"
		}

		group := p.Group()
		if line.ArticleID != nil {
			g, err := s.articleGroup(ctx, groups, *line.ArticleID)
			if errors.Is(err, catalog.ErrNotFound) {
				fields[key+".article_id"] = "does not exist"
			} else if err != nil {
				return nil, err
			} else if g != "" {
				group = g
			}
		}

		e := pricing.Settle(line.Entity())
		line.setEntity(e)
		line.Commission = pricing.Round2(pricing.Commission(line.MarginEuro, group, rates, line.Quantity))
		line.LineTotal = pricing.Round2(line.LineTotal)

		lines = append(lines, line)
		entities = append(entities, e)
		grouped = append(grouped, pricing.GroupedEntity{Entity: e, Group: group})
	}
	if len(fields) > 0 {
		return nil, &httpx.ValidationError{Fields: fields}
	}

	totals := pricing.Aggregate(entities, p.DiscountPercentage, p.CommissionPercentage).Rounded()
	p.Subtotal = totals.Subtotal
	p.DiscountAmount = totals.DiscountAmount
	p.Total = totals.Total
	p.CommissionAmount = totals.CommissionAmount
	p.LineCommission = pricing.Round2(pricing.LineCommissions(grouped, rates))
	return lines, nil
}

func (s *Service) articleGroup(ctx context.Context, cache map[int64]string, id int64) (string, error) {
	if g, ok := cache[id]; ok {
		return g, nil
	}
	article, err := s.articles.GetArticle(ctx, id)
	if err != nil {
		return "", err
	}
	cache[id] = article.Group()
	return cache[id], nil
}

func (s *Service) checkClient(ctx context.Context, id int64) error {
	_, err := s.clients.Get(ctx, id)
	if errors.Is(err, clients.ErrNotFound) {
		return &httpx.ValidationError{Fields: map[string]string{"client_id": "does not exist"}}
	}
	if err != nil {
		return fmt.Errorf("get client: %w", err)
	}
	return nil
}

func (s *Service) checkTemplate(ctx context.Context, id *int64) error {
	_, err := s.template(ctx, id, "template_id")
	return err
}

// template resolves id, reporting a missing template against field.
func (s *Service) template(ctx context.Context, id *int64, field string) (*templates.Template, error) {
	if id == nil {
		return nil, nil
	}
	if s.templates == nil {
		return nil, fmt.Errorf("proposals: templates not configured: %w", shared.ErrUnavailable)
	}
	tpl, err := s.templates.Get(ctx, *id)
	if errors.Is(err, templates.ErrNotFound) {
		return nil, &httpx.ValidationError{Fields: map[string]string{field: "does not exist"}}
	}
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}
	return tpl, nil
}

func (s *Service) parseDates(dateRaw, expiryRaw string) (time.Time, *time.Time, error) {
	date := s.now().Truncate(24 * time.Hour)
	if dateRaw != "" {
		parsed, err := time.Parse(isoDate, dateRaw)
		if err != nil {
			return time.Time{}, nil, &httpx.ValidationError{Fields: map[string]string{"proposal_date": "must be YYYY-MM-DD"}}
		}
		date = parsed
	}
	if expiryRaw == "" {
		return date, nil, nil
	}
	expiry, err := time.Parse(isoDate, expiryRaw)
	if err != nil {
		return time.Time{}, nil, &httpx.ValidationError{Fields: map[string]string{"expiry_date": "must be YYYY-MM-DD"}}
	}
	if expiry.Before(date) {
		return time.Time{}, nil, &httpx.ValidationError{Fields: map[string]string{"expiry_date": "must not be before proposal_date"}}
	}
	return date, &expiry, nil
}

func inputFromLine(l Line) LineInput {
	quantity := l.Quantity
	return LineInput{
		ArticleID:          l.ArticleID,
		Description:        l.Description,
		Unit:               l.Unit,
		Quantity:           &quantity,
		UnitPrice:          l.UnitPrice,
		CostPrice:          l.CostPrice,
		DiscountPercentage: l.DiscountPercentage,
		CalculationMode:    l.CalculationMode,
		MarginPercentage:   l.MarginPercentage,
		MarginEuro:         l.MarginEuro,
		SortOrder:          l.SortOrder,
	}
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}
