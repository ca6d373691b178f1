// Package main seeds a storage backend with the schema, an admin user and
// optional demo data (some of it already in the trash).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"recyclebin/internal/config"
	"recyclebin/internal/core/entity"
	"recyclebin/internal/domain/auth"
	"recyclebin/internal/domain/catalogs/brand"
	"recyclebin/internal/domain/catalogs/category"
	"recyclebin/internal/domain/catalogs/product"
	"recyclebin/internal/domain/catalogs/user"
	"recyclebin/internal/infrastructure/storage/badgerstore"
	"recyclebin/internal/infrastructure/storage/postgres"
	"recyclebin/internal/infrastructure/storage/postgres/trash_repo"
	"recyclebin/internal/metadata"
	"recyclebin/pkg/logger"
)

// target abstracts the backend being seeded.
type target struct {
	insert func(ctx context.Context, rec entity.Record) error
	// products loads the product batch; COPY on postgres
	products func(ctx context.Context, recs []*product.Product) error
	trash  func(ctx context.Context, entityName string, rec entity.Record, actor *entity.Actor) error
	close  func()
}

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	demo := flag.Bool("demo", false, "insert demo catalog data")
	printToken := flag.Bool("token", false, "print an admin bearer token")
	flag.Parse()

	log, err := logger.New(logger.Config{Level: "info", Development: true})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalw("failed to load config", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	tgt, err := openTarget(ctx, cfg, log)
	if err != nil {
		log.Fatalw("failed to open storage", "driver", cfg.Storage.Driver, "error", err)
	}
	defer tgt.close()

	admin, err := seedAdminUser(ctx, tgt, log)
	if err != nil {
		log.Fatalw("failed to seed admin user", "error", err)
	}

	if *demo {
		actor := &entity.Actor{ID: admin.ID.String(), Email: admin.Email}
		if err := seedDemoData(ctx, tgt, actor, log); err != nil {
			log.Fatalw("failed to seed demo data", "error", err)
		}
	}

	if *printToken {
		if cfg.JWT.Secret == "" {
			log.Fatal("jwt.secret is required to issue a token")
		}
		jwtCfg := auth.DefaultJWTConfig(cfg.JWT.Secret)
		if cfg.JWT.Issuer != "" {
			jwtCfg.Issuer = cfg.JWT.Issuer
		}
		token, expiresAt, err := auth.NewJWTService(jwtCfg).GenerateAccessToken(admin.ID.String(), admin.Email, []string{admin.Role})
		if err != nil {
			log.Fatalw("failed to issue token", "error", err)
		}
		fmt.Printf("admin token (expires %s):\n%s\n", expiresAt.Format(time.RFC3339), token)
	}

	log.Info("seeding completed successfully")
}

func openTarget(ctx context.Context, cfg *config.Config, log *logger.Logger) (*target, error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		return openPostgres(ctx, cfg, log)
	case config.DriverBadger:
		return openBadger(cfg, log)
	default:
		return nil, fmt.Errorf("driver %q cannot be seeded", cfg.Storage.Driver)
	}
}

func openPostgres(ctx context.Context, cfg *config.Config, log *logger.Logger) (*target, error) {
	poolCfg := postgres.DefaultPoolConfig(cfg.Database.URL)
	poolCfg.ApplicationName = cfg.App.Name + "-seed"
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		return nil, err
	}
	log.Info("connected to database")

	txManager := postgres.NewTxManager(pool, cfg.Database.StatementTimeout)
	if err := postgres.EnsureSchema(ctx, txManager); err != nil {
		pool.Close()
		return nil, err
	}
	log.Info("schema is up to date")

	catalog := metadata.Default()
	def := func(name string) metadata.EntityDef {
		d, _ := catalog.Get(name)
		return d
	}
	products := trash_repo.NewProductRepo(txManager, def(metadata.Products))
	users := trash_repo.NewUserRepo(txManager, def(metadata.Users))
	categories := trash_repo.NewCategoryRepo(txManager, def(metadata.Categories))
	brands := trash_repo.NewBrandRepo(txManager, def(metadata.Brands))

	return &target{
		insert: func(ctx context.Context, rec entity.Record) error {
			switch r := rec.(type) {
			case *product.Product:
				return products.Insert(ctx, r)
			case *user.User:
				return users.Insert(ctx, r)
			case *category.Category:
				return categories.Insert(ctx, r)
			case *brand.Brand:
				return brands.Insert(ctx, r)
			}
			return fmt.Errorf("unsupported record %T", rec)
		},
		products: func(ctx context.Context, recs []*product.Product) error {
			n, err := products.InsertMany(ctx, recs)
			if err != nil {
				return err
			}
			log.Infow("products copied", "rows", n)
			return nil
		},
		trash: func(ctx context.Context, entityName string, rec entity.Record, actor *entity.Actor) error {
			var err error
			switch entityName {
			case metadata.Products:
				_, err = products.SoftDelete(ctx, rec.GetID(), actor)
			case metadata.Users:
				_, err = users.SoftDelete(ctx, rec.GetID(), actor)
			case metadata.Categories:
				_, err = categories.SoftDelete(ctx, rec.GetID(), actor)
			case metadata.Brands:
				_, err = brands.SoftDelete(ctx, rec.GetID(), actor)
			}
			return err
		},
		close: pool.Close,
	}, nil
}

func openBadger(cfg *config.Config, log *logger.Logger) (*target, error) {
	db, err := badgerstore.Open(badgerstore.Options{
		Path:     cfg.Storage.BadgerPath,
		InMemory: cfg.Storage.InMemory,
		Logger:   log,
	})
	if err != nil {
		return nil, err
	}

	products := badgerstore.NewStore[product.Product](db, metadata.Products)
	users := badgerstore.NewStore[user.User](db, metadata.Users)
	categories := badgerstore.NewStore[category.Category](db, metadata.Categories)
	brands := badgerstore.NewStore[brand.Brand](db, metadata.Brands)

	return &target{
		insert: func(ctx context.Context, rec entity.Record) error {
			switch r := rec.(type) {
			case *product.Product:
				return products.Put(ctx, r)
			case *user.User:
				return users.Put(ctx, r)
			case *category.Category:
				return categories.Put(ctx, r)
			case *brand.Brand:
				return brands.Put(ctx, r)
			}
			return fmt.Errorf("unsupported record %T", rec)
		},
		products: func(ctx context.Context, recs []*product.Product) error {
			for _, p := range recs {
				if err := products.Put(ctx, p); err != nil {
					return err
				}
			}
			return nil
		},
		trash: func(ctx context.Context, entityName string, rec entity.Record, actor *entity.Actor) error {
			var err error
			switch entityName {
			case metadata.Products:
				_, err = products.SoftDelete(ctx, rec.GetID(), actor)
			case metadata.Users:
				_, err = users.SoftDelete(ctx, rec.GetID(), actor)
			case metadata.Categories:
				_, err = categories.SoftDelete(ctx, rec.GetID(), actor)
			case metadata.Brands:
				_, err = brands.SoftDelete(ctx, rec.GetID(), actor)
			}
			return err
		},
		close: func() {
			if err := db.Close(); err != nil {
				log.Warnw("close badger", "error", err)
			}
		},
	}, nil
}

func seedAdminUser(ctx context.Context, tgt *target, log *logger.Logger) (*user.User, error) {
	email := getEnv("ADMIN_EMAIL", "admin@recyclebin.local")
	password := getEnv("ADMIN_PASSWORD", "Admin123!")

	admin, err := user.New(email, "System Admin", user.RoleAdmin, password)
	if err != nil {
		return nil, err
	}
	if err := admin.Validate(ctx); err != nil {
		return nil, err
	}
	if err := tgt.insert(ctx, admin); err != nil {
		return nil, fmt.Errorf("insert admin user: %w", err)
	}

	log.Infow("admin user created", "email", email, "user_id", admin.ID.String())
	return admin, nil
}

func seedDemoData(ctx context.Context, tgt *target, actor *entity.Actor, log *logger.Logger) error {
	acme := brand.New("Acme", "https://acme.example")
	globex := brand.New("Globex", "")

	lighting := category.New("Lighting")
	lamps := category.New("Desk Lamps")
	lamps.SetParent(lighting.ID)
	outdoor := category.New("Outdoor")

	products := []*product.Product{
		product.New("Desk Lamp", "LMP-001", decimal.RequireFromString("39.90")),
		product.New("Floor Lamp", "LMP-002", decimal.RequireFromString("89.00")),
		product.New("Garden Light", "GRD-001", decimal.RequireFromString("24.50")),
		product.New("Discontinued Bulb", "BLB-404", decimal.RequireFromString("2.99")),
	}
	products[0].BrandID, products[0].CategoryID = &acme.ID, &lamps.ID
	products[1].BrandID, products[1].CategoryID = &acme.ID, &lighting.ID
	products[2].BrandID, products[2].CategoryID = &globex.ID, &outdoor.ID

	editor, err := user.New("editor@recyclebin.local", "Catalog Editor", user.RoleEditor, "Editor123!")
	if err != nil {
		return err
	}

	// Parents before children so foreign keys hold.
	records := []entity.Record{acme, globex, lighting, lamps, outdoor, editor}
	for _, rec := range records {
		if err := tgt.insert(ctx, rec); err != nil {
			return fmt.Errorf("insert %T: %w", rec, err)
		}
	}
	if err := tgt.products(ctx, products); err != nil {
		return fmt.Errorf("insert products: %w", err)
	}

	trashed := []struct {
		entity string
		rec    entity.Record
	}{
		{metadata.Products, products[3]},
		{metadata.Products, products[2]},
		{metadata.Categories, outdoor},
		{metadata.Brands, globex},
		{metadata.Users, editor},
	}
	for _, t := range trashed {
		if err := tgt.trash(ctx, t.entity, t.rec, actor); err != nil {
			return fmt.Errorf("trash %s %s: %w", t.entity, t.rec.GetID(), err)
		}
	}

	log.Infow("demo data created", "records", len(records)+len(products), "trashed", len(trashed))
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
