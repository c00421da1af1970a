// internal/database/connection.go
package database

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/carverse/partsearch-backend/internal/config"
	"github.com/carverse/partsearch-backend/internal/models"
)

var DB *gorm.DB

func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var err error
	var gormConfig *gorm.Config

	// Configure GORM logger
	if cfg.LogLevel == "silent" {
		gormConfig = &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		}
	} else {
		gormConfig = &gorm.Config{
			Logger: logger.Default.LogMode(logger.Info),
		}
	}

	// Connect to database
	DB, err = gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB
	sqlDB, err := DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Printf("Database connection established: %s", cfg.RedactedDSN())
	return DB, nil
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Printf("Error getting underlying sql.DB: %v", err)
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Printf("Error closing database connection: %v", err)
	} else {
		log.Println("Database connection closed successfully")
	}
}

func HealthCheck(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Ping()
}

func RunMigrations(db *gorm.DB) error {
	log.Println("Running database migrations...")

	// Enable UUID extension
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error; err != nil {
		return fmt.Errorf("failed to create UUID extension: %w", err)
	}

	// Run auto-migrations
	err := db.AutoMigrate(
		&models.Part{},
		&models.PriceQuote{},
		&models.CompatibilityRule{},
		&models.SearchCacheEntry{},
		&models.APIRateLimit{},
	)

	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Create indexes
	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	log.Println("Database migrations completed successfully")
	return nil
}

func createIndexes(db *gorm.DB) error {
	indexes := []string{
		// Parts catalog indexes
		"CREATE INDEX IF NOT EXISTS idx_parts_catalog_category_brand ON parts_catalog(category, brand)",
		"CREATE INDEX IF NOT EXISTS idx_parts_catalog_origin ON parts_catalog(origin_label, ships_to_region)",
		"CREATE INDEX IF NOT EXISTS idx_parts_catalog_created_at ON parts_catalog(created_at DESC)",

		// Price indexes
		"CREATE INDEX IF NOT EXISTS idx_part_prices_part_price ON part_prices(part_id, price)",
		"CREATE INDEX IF NOT EXISTS idx_part_prices_region ON part_prices(part_id, ships_to_region)",

		// Compatibility indexes
		"CREATE INDEX IF NOT EXISTS idx_part_compatibility_vehicle ON part_compatibility(make, model, year_start, year_end)",
		"CREATE INDEX IF NOT EXISTS idx_part_compatibility_part ON part_compatibility(part_id, is_universal)",

		// Cache and quota indexes
		"CREATE INDEX IF NOT EXISTS idx_search_cache_expires ON search_cache(expires_at)",
		"CREATE INDEX IF NOT EXISTS idx_api_rate_limits_reset ON api_rate_limits(reset_at)",

		// Full-text search indexes
		"CREATE INDEX IF NOT EXISTS idx_parts_catalog_search ON parts_catalog USING GIN(to_tsvector('english', name || ' ' || COALESCE(description, '')))",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			log.Printf("Warning: Failed to create index: %s, Error: %v", index, err)
			// Continue with other indexes instead of failing completely
		}
	}

	return nil
}

// Seed initial data
func SeedInitialData(db *gorm.DB) error {
	log.Println("Seeding initial data...")

	var partCount int64
	db.Model(&models.Part{}).Count(&partCount)

	if partCount > 0 {
		log.Println("Parts catalog already populated, skipping seed")
		return nil
	}

	for _, part := range seedCatalog() {
		if err := db.Create(&part).Error; err != nil {
			return fmt.Errorf("failed to seed part %s: %w", part.PartNumber, err)
		}
	}

	log.Println("Initial data seeding completed")
	return nil
}

// seedCatalog returns a small local inventory covering the common part
// categories and the vehicle makes most seen in the target market, so the
// search pipeline has data before any external source is configured.
func seedCatalog() []models.Part {
	now := time.Now()
	inStock := func(price float64, seller string, rating float64, daysMin, daysMax int) []models.PriceQuote {
		return []models.PriceQuote{
			{
				Currency:        "SGD",
				Price:           price,
				SellerName:      seller,
				SellerRating:    rating,
				Availability:    models.AvailabilityInStock,
				Condition:       models.PartConditionNew,
				StockQuantity:   10,
				ShipsToRegion:   true,
				DeliveryDaysMin: daysMin,
				DeliveryDaysMax: daysMax,
				LastUpdatedAt:   &now,
			},
		}
	}

	return []models.Part{
		{
			PartNumber:    "P28022",
			Source:        "local",
			SourceID:      "seed-0001",
			Name:          "Brembo Front Brake Pad Set P28022",
			Description:   "Low-dust ceramic front brake pads for Honda sedans",
			Category:      "Brake System",
			Subcategory:   "Brake Pads",
			Brand:         "Brembo",
			Grade:         models.PartGradeAftermarket,
			Condition:     models.PartConditionNew,
			Attributes:    models.JSONB{"position": "front", "material": "ceramic"},
			ShipsToRegion: true,
			OriginLabel:   models.OriginLocalCatalog,
			Prices:        inStock(89.90, "Harmony Motor Supplies", 4.8, 1, 3),
			Compatibility: []models.CompatibilityRule{
				{Make: "Honda", Model: "Civic", YearStart: 2012, YearEnd: 2016, Confidence: 0.98, Source: "catalog"},
				{Make: "Honda", Model: "Jazz", YearStart: 2014, YearEnd: 2019, Confidence: 0.90, Source: "catalog"},
			},
		},
		{
			PartNumber:    "ILZKR7B11",
			Source:        "local",
			SourceID:      "seed-0002",
			Name:          "NGK Laser Iridium Spark Plug ILZKR7B11",
			Description:   "Iridium spark plug, factory fitment for Honda engines",
			Category:      "Engine",
			Subcategory:   "Spark Plugs",
			Brand:         "NGK",
			Grade:         models.PartGradeOEM,
			Condition:     models.PartConditionNew,
			Attributes:    models.JSONB{"gap_mm": 1.1, "thread": "M12"},
			ShipsToRegion: true,
			OriginLabel:   models.OriginLocalCatalog,
			Prices:        inStock(24.50, "Kim Seng Auto Trading", 4.6, 1, 2),
			Compatibility: []models.CompatibilityRule{
				{Make: "Honda", Model: "Civic", YearStart: 2012, YearEnd: 2015, Engine: "1.8L R18Z1", Confidence: 1.0, Source: "catalog"},
				{Make: "Honda", Model: "Accord", YearStart: 2013, YearEnd: 2017, Engine: "2.4L K24W", Confidence: 1.0, Source: "catalog"},
			},
		},
		{
			PartNumber:    "422176-0510",
			Source:        "local",
			SourceID:      "seed-0003",
			Name:          "Denso Radiator Assembly 422176-0510",
			Description:   "OEM replacement radiator with transmission cooler",
			Category:      "Engine",
			Subcategory:   "Cooling",
			Brand:         "Denso",
			Grade:         models.PartGradeOEM,
			Condition:     models.PartConditionNew,
			Attributes:    models.JSONB{"core_rows": 1, "transmission_cooler": true},
			ShipsToRegion: true,
			OriginLabel:   models.OriginLocalCatalog,
			Prices:        inStock(285.00, "Harmony Motor Supplies", 4.8, 2, 5),
			Compatibility: []models.CompatibilityRule{
				{Make: "Toyota", Model: "Corolla Altis", YearStart: 2014, YearEnd: 2018, Confidence: 0.95, Source: "catalog"},
			},
		},
		{
			PartNumber:    "339114",
			Source:        "local",
			SourceID:      "seed-0004",
			Name:          "KYB Excel-G Gas Shock Absorber 339114",
			Description:   "Front left gas-charged shock absorber",
			Category:      "Suspension",
			Subcategory:   "Shock Absorbers",
			Brand:         "KYB",
			Grade:         models.PartGradeAftermarket,
			Condition:     models.PartConditionNew,
			Attributes:    models.JSONB{"position": "front_left", "type": "twin-tube"},
			ShipsToRegion: true,
			OriginLabel:   models.OriginLocalCatalog,
			Prices:        inStock(118.00, "SG Suspension Works", 4.5, 1, 4),
			Compatibility: []models.CompatibilityRule{
				{Make: "Toyota", Model: "Corolla", YearStart: 2008, YearEnd: 2013, Position: "Front Left", Confidence: 0.95, Source: "catalog"},
			},
		},
		{
			PartNumber:    "ACT787",
			Source:        "local",
			SourceID:      "seed-0005",
			Name:          "Akebono ProACT Ceramic Brake Pads ACT787",
			Description:   "Ultra-quiet ceramic pads for Toyota mid-size sedans",
			Category:      "Brake System",
			Subcategory:   "Brake Pads",
			Brand:         "Akebono",
			Grade:         models.PartGradeAftermarket,
			Condition:     models.PartConditionNew,
			Attributes:    models.JSONB{"position": "front", "material": "ceramic"},
			ShipsToRegion: true,
			OriginLabel:   models.OriginLocalCatalog,
			Prices:        inStock(95.00, "AutoBacs Singapore", 4.7, 1, 3),
			Compatibility: []models.CompatibilityRule{
				{Make: "Toyota", Model: "Camry", YearStart: 2012, YearEnd: 2017, Confidence: 0.97, Source: "catalog"},
			},
		},
		{
			PartNumber:    "09.A427.11",
			Source:        "local",
			SourceID:      "seed-0006",
			Name:          "Brembo Front Brake Disc 09.A427.11",
			Description:   "Vented front brake rotor, sold individually",
			Category:      "Brake System",
			Subcategory:   "Brake Discs",
			Brand:         "Brembo",
			Grade:         models.PartGradeAftermarket,
			Condition:     models.PartConditionNew,
			Attributes:    models.JSONB{"diameter_mm": 282, "vented": true},
			ShipsToRegion: true,
			OriginLabel:   models.OriginLocalCatalog,
			Prices:        inStock(142.00, "Harmony Motor Supplies", 4.8, 2, 4),
			Compatibility: []models.CompatibilityRule{
				{Make: "Honda", Model: "Accord", YearStart: 2012, YearEnd: 2016, Confidence: 0.96, Source: "catalog"},
			},
		},
		{
			PartNumber:    "72910",
			Source:        "local",
			SourceID:      "seed-0007",
			Name:          "Monroe OESpectrum Strut Assembly 72910",
			Description:   "Complete front strut for Mazda compact cars",
			Category:      "Suspension",
			Subcategory:   "Struts",
			Brand:         "Monroe",
			Grade:         models.PartGradeAftermarket,
			Condition:     models.PartConditionNew,
			Attributes:    models.JSONB{"position": "front", "assembled": true},
			ShipsToRegion: true,
			OriginLabel:   models.OriginLocalCatalog,
			Prices:        inStock(168.00, "SG Suspension Works", 4.5, 2, 5),
			Compatibility: []models.CompatibilityRule{
				{Make: "Mazda", Model: "3", YearStart: 2014, YearEnd: 2018, Confidence: 0.94, Source: "catalog"},
			},
		},
		{
			PartNumber:    "C 25 114",
			Source:        "local",
			SourceID:      "seed-0008",
			Name:          "Mann-Filter Air Filter C 25 114",
			Description:   "Panel air filter element for BMW 3 Series",
			Category:      "Engine",
			Subcategory:   "Filters",
			Brand:         "Mann",
			Grade:         models.PartGradeOEM,
			Condition:     models.PartConditionNew,
			Attributes:    models.JSONB{"shape": "panel"},
			ShipsToRegion: true,
			OriginLabel:   models.OriginLocalCatalog,
			Prices:        inStock(38.00, "Euro Parts Depot", 4.4, 1, 3),
			Compatibility: []models.CompatibilityRule{
				{Make: "BMW", Model: "320i", YearStart: 2012, YearEnd: 2018, Engine: "2.0L B48", Confidence: 0.92, Source: "catalog"},
			},
		},
		{
			PartNumber:    "GTX-10W40-4L",
			Source:        "local",
			SourceID:      "seed-0009",
			Name:          "Castrol GTX Ultraclean 10W-40 Engine Oil 4L",
			Description:   "Semi-synthetic engine oil suitable for all petrol engines",
			Category:      "Engine",
			Subcategory:   "Oils & Fluids",
			Brand:         "Castrol",
			Grade:         models.PartGradeAftermarket,
			Condition:     models.PartConditionNew,
			Attributes:    models.JSONB{"viscosity": "10W-40", "volume_l": 4},
			ShipsToRegion: true,
			OriginLabel:   models.OriginLocalCatalog,
			Prices:        inStock(42.90, "AutoBacs Singapore", 4.7, 1, 2),
			Compatibility: []models.CompatibilityRule{
				{Make: "All", Model: "All", IsUniversal: true, Confidence: 1.0, Source: "catalog"},
			},
		},
		{
			PartNumber:    "S4-026",
			Source:        "local",
			SourceID:      "seed-0010",
			Name:          "Bosch S4 Silver Battery 12V 60Ah",
			Description:   "Maintenance-free calcium battery, fits most Japanese and Korean sedans",
			Category:      "Electrical",
			Subcategory:   "Batteries",
			Brand:         "Bosch",
			Grade:         models.PartGradeAftermarket,
			Condition:     models.PartConditionNew,
			Attributes:    models.JSONB{"voltage": 12, "capacity_ah": 60, "terminal": "JIS"},
			ShipsToRegion: true,
			OriginLabel:   models.OriginLocalCatalog,
			Prices:        inStock(135.00, "Kim Seng Auto Trading", 4.6, 0, 1),
			Compatibility: []models.CompatibilityRule{
				{Make: "All", Model: "All", IsUniversal: true, Confidence: 1.0, Source: "catalog"},
			},
		},
	}
}

// Transaction helper
func WithTransaction(db *gorm.DB, fn func(*gorm.DB) error) error {
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}
