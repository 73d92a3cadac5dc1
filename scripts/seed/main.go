package main

import (
	"context"
	_ "embed"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/bizdesk/bizdesk/internal/app"
	"github.com/bizdesk/bizdesk/internal/catalog"
	"github.com/bizdesk/bizdesk/internal/clients"
	"github.com/bizdesk/bizdesk/internal/platform/db"
	"github.com/bizdesk/bizdesk/internal/pricing"
	"github.com/bizdesk/bizdesk/internal/templates"
)

//go:embed schema.sql
var schema string

func main() {
	ctx := context.Background()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	logger.Info("applying schema")
	if err := applySchema(ctx, pool); err != nil {
		logger.Error("apply schema", slog.Any("error", err))
		os.Exit(1)
	}

	// The seed runs without Redis; the rate cache falls back to the database.
	catalogRepo := catalog.NewRepository(pool)
	rates := catalog.NewRateCache(nil, 0, cfg.CommissionDefaults(), catalogRepo)
	catalogService := catalog.NewService(catalogRepo, rates, nil, logger)
	clientService := clients.NewService(clients.NewRepository(pool))
	templateService := templates.NewService(templates.NewRepository(pool))

	logger.Info("seeding article groups")
	if err := seedGroups(ctx, catalogService, cfg.CommissionDefaults()); err != nil {
		logger.Error("seed groups", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("seeding articles")
	if err := seedArticles(ctx, catalogService); err != nil {
		logger.Error("seed articles", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("seeding clients")
	if err := seedClients(ctx, clientService); err != nil {
		logger.Error("seed clients", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("seeding templates")
	if err := seedTemplates(ctx, templateService); err != nil {
		logger.Error("seed templates", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("seed complete", slog.String("at", time.Now().Format(time.RFC3339)))
}

func applySchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schema)
	return err
}

// =============================================================================
// CATALOG
// =============================================================================

var groupColors = map[string]string{
	"Serviços":      "#2563eb",
	"Pack de horas": "#7c3aed",
	"Marketing":     "#db2777",
	"Sites":         "#059669",
}

func seedGroups(ctx context.Context, svc *catalog.Service, rates pricing.RateTable) error {
	for name, rate := range rates {
		req := catalog.CreateGroupRequest{
			Name:              name,
			CommissionPercent: rate.Mul(decimal.NewFromInt(100)),
		}
		if color, ok := groupColors[name]; ok {
			req.Color = &color
		}
		if _, err := svc.CreateGroup(ctx, req); err != nil && !errors.Is(err, catalog.ErrAlreadyExists) {
			return err
		}
	}
	return nil
}

func seedArticles(ctx context.Context, svc *catalog.Service) error {
	articles := []struct {
		reference   string
		description string
		unit        string
		group       string
		sale        string
		purchase    string
	}{
		{"SRV-CONS", "Consultoria de processos", "h", "Serviços", "65", "35"},
		{"SRV-FORM", "Formação de equipas", "h", "Serviços", "55", "30"},
		{"PACK-10", "Pack 10 horas de suporte", "un", "Pack de horas", "450", "250"},
		{"PACK-25", "Pack 25 horas de suporte", "un", "Pack de horas", "1050", "600"},
		{"MKT-SEO", "Campanha SEO mensal", "mês", "Marketing", "600", "320"},
		{"MKT-ADS", "Gestão de anúncios", "mês", "Marketing", "400", "180"},
		{"SITE-INST", "Site institucional", "un", "Sites", "1500", "1000"},
		{"SITE-SHOP", "Loja online", "un", "Sites", "3200", "2100"},
	}

	for _, a := range articles {
		group := a.group
		purchase := decimal.RequireFromString(a.purchase)
		_, err := svc.CreateArticle(ctx, catalog.CreateArticleRequest{
			Reference:     a.reference,
			Description:   a.description,
			Unit:          a.unit,
			GroupName:     &group,
			SalePrice:     decimal.RequireFromString(a.sale),
			PurchasePrice: &purchase,
		})
		if err != nil && !errors.Is(err, catalog.ErrAlreadyExists) {
			return err
		}
	}
	return nil
}

// =============================================================================
// CLIENTS
// =============================================================================

func seedClients(ctx context.Context, svc *clients.Service) error {
	records := []struct {
		name    string
		email   string
		nif     string
		address string
	}{
		{"Padaria Lusa, Lda.", "geral@padarialusa.pt", "509000111", "Rua do Forno 12, Porto"},
		{"Oficina Norte", "oficina@norte.pt", "509000222", "Av. da Boavista 800, Porto"},
		{"Clínica Sorriso", "contacto@sorriso.pt", "509000333", "Rua Augusta 45, Lisboa"},
	}

	for _, c := range records {
		email, nif, address := c.email, c.nif, c.address
		_, err := svc.Create(ctx, clients.CreateClientRequest{
			Name:    c.name,
			Email:   &email,
			NIF:     &nif,
			Address: &address,
		})
		if err != nil && !errors.Is(err, clients.ErrAlreadyExists) {
			return err
		}
	}
	return nil
}

// =============================================================================
// TEMPLATES
// =============================================================================

// seedTemplates adds a cover and body proposal template once.
func seedTemplates(ctx context.Context, svc *templates.Service) error {
	typ := templates.TypeProposal
	existing, err := svc.List(ctx, &typ)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	_, err = svc.Create(ctx, templates.CreateTemplateRequest{
		Name: "Proposta comercial",
		Type: templates.TypeProposal,
		Pages: []templates.PageInput{
			{Title: "Capa"},
			{Title: templates.BodyTitle},
		},
	})
	return err
}
