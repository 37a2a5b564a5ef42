package main

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/lumipure-api/internal/models"
	"github.com/lumipure-api/internal/service"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

//go:embed sample_catalog.yml
var sampleCatalog []byte

// catalogFile 种子目录文件结构
type catalogFile struct {
	Categories []categorySeed `yaml:"categories"`
	Products   []productSeed  `yaml:"products"`
}

type categorySeed struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Parent      string `yaml:"parent"`
	Image       string `yaml:"image"`
}

type productSeed struct {
	Name             string           `yaml:"name"`
	Description      string           `yaml:"description"`
	ShortDescription string           `yaml:"shortDescription"`
	Price            string           `yaml:"price"`
	ComparePrice     string           `yaml:"comparePrice"`
	Category         string           `yaml:"category"`
	Stock            int              `yaml:"stock"`
	Brand            string           `yaml:"brand"`
	Images           []string         `yaml:"images"`
	Tags             []string         `yaml:"tags"`
	Variants         []models.Variant `yaml:"variants"`
	Ingredients      string           `yaml:"ingredients"`
	HowToUse         string           `yaml:"howToUse"`
	Featured         bool             `yaml:"featured"`
}

type seedStats struct {
	CategoriesCreated int
	CategoriesUpdated int
	ProductsCreated   int
	ProductsUpdated   int
}

func newCatalogCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Upsert categories and products from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := sampleCatalog
			if file != "" {
				data, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("read catalog file: %w", err)
				}
				raw = data
			}
			catalog, err := parseCatalog(raw)
			if err != nil {
				return err
			}
			if _, err := openDatabase(); err != nil {
				return err
			}
			stats, err := seedCatalog(models.DB, catalog)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "categories: %d created, %d updated; products: %d created, %d updated\n",
				stats.CategoriesCreated, stats.CategoriesUpdated, stats.ProductsCreated, stats.ProductsUpdated)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "catalog YAML file (built-in sample when empty)")
	return cmd
}

func parseCatalog(raw []byte) (*catalogFile, error) {
	var catalog catalogFile
	if err := yaml.Unmarshal(raw, &catalog); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	for i, c := range catalog.Categories {
		if service.GenerateSlug(c.Name) == "" {
			return nil, fmt.Errorf("category #%d: name is required", i+1)
		}
	}
	for i, p := range catalog.Products {
		if service.GenerateSlug(p.Name) == "" {
			return nil, fmt.Errorf("product #%d: name is required", i+1)
		}
		if _, err := decimal.NewFromString(p.Price); err != nil {
			return nil, fmt.Errorf("product %q: invalid price %q", p.Name, p.Price)
		}
		if p.Stock < 0 {
			return nil, fmt.Errorf("product %q: stock cannot be negative", p.Name)
		}
	}
	return &catalog, nil
}

// seedCatalog 按 slug 幂等写入分类与商品
func seedCatalog(db *gorm.DB, catalog *catalogFile) (seedStats, error) {
	var stats seedStats
	err := db.Transaction(func(tx *gorm.DB) error {
		ids := make(map[string]uint, len(catalog.Categories))
		for _, seed := range catalog.Categories {
			slug := service.GenerateSlug(seed.Name)
			var category models.Category
			err := tx.Where("slug = ?", slug).First(&category).Error
			created := errors.Is(err, gorm.ErrRecordNotFound)
			if err != nil && !created {
				return err
			}
			category.Name = strings.TrimSpace(seed.Name)
			category.Slug = slug
			category.Description = strings.TrimSpace(seed.Description)
			category.Image = models.Image{URL: strings.TrimSpace(seed.Image)}
			category.IsActive = true
			if err := tx.Save(&category).Error; err != nil {
				return fmt.Errorf("save category %q: %w", seed.Name, err)
			}
			ids[slug] = category.ID
			if created {
				stats.CategoriesCreated++
			} else {
				stats.CategoriesUpdated++
			}
		}

		// 父分类在全部分类写入后再关联
		for _, seed := range catalog.Categories {
			if strings.TrimSpace(seed.Parent) == "" {
				continue
			}
			parentID, ok := ids[service.GenerateSlug(seed.Parent)]
			if !ok {
				return fmt.Errorf("category %q: unknown parent %q", seed.Name, seed.Parent)
			}
			if err := tx.Model(&models.Category{}).Where("id = ?", ids[service.GenerateSlug(seed.Name)]).
				Update("parent_id", parentID).Error; err != nil {
				return err
			}
		}

		for _, seed := range catalog.Products {
			categoryID, err := resolveCategoryID(tx, ids, seed.Category)
			if err != nil {
				return fmt.Errorf("product %q: %w", seed.Name, err)
			}
			slug := service.GenerateSlug(seed.Name)
			var product models.Product
			err = tx.Where("slug = ?", slug).First(&product).Error
			created := errors.Is(err, gorm.ErrRecordNotFound)
			if err != nil && !created {
				return err
			}
			applyProductSeed(&product, seed, slug, categoryID)
			if err := tx.Save(&product).Error; err != nil {
				return fmt.Errorf("save product %q: %w", seed.Name, err)
			}
			if created {
				stats.ProductsCreated++
			} else {
				stats.ProductsUpdated++
			}
		}
		return nil
	})
	return stats, err
}

func resolveCategoryID(tx *gorm.DB, ids map[string]uint, name string) (uint, error) {
	slug := service.GenerateSlug(name)
	if slug == "" {
		return 0, errors.New("category is required")
	}
	if id, ok := ids[slug]; ok {
		return id, nil
	}
	var category models.Category
	if err := tx.Where("slug = ?", slug).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, fmt.Errorf("unknown category %q", name)
		}
		return 0, err
	}
	ids[slug] = category.ID
	return category.ID, nil
}

func applyProductSeed(product *models.Product, seed productSeed, slug string, categoryID uint) {
	price, _ := decimal.NewFromString(seed.Price)
	compare, err := decimal.NewFromString(seed.ComparePrice)
	if err != nil {
		compare = decimal.Zero
	}
	images := make(models.Images, 0, len(seed.Images))
	for _, url := range seed.Images {
		if url = strings.TrimSpace(url); url != "" {
			images = append(images, models.Image{URL: url})
		}
	}

	product.Name = strings.TrimSpace(seed.Name)
	product.Slug = slug
	product.Description = strings.TrimSpace(seed.Description)
	product.ShortDescription = strings.TrimSpace(seed.ShortDescription)
	product.Price = models.NewMoneyFromDecimal(price)
	product.ComparePrice = models.NewMoneyFromDecimal(compare)
	product.CategoryID = categoryID
	product.Stock = seed.Stock
	product.Brand = strings.TrimSpace(seed.Brand)
	product.Images = images
	product.Tags = models.StringArray(seed.Tags)
	product.Variants = models.Variants(seed.Variants)
	product.Ingredients = strings.TrimSpace(seed.Ingredients)
	product.HowToUse = strings.TrimSpace(seed.HowToUse)
	product.IsFeatured = seed.Featured
	product.IsActive = true
}
