package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the application configuration. Everything has a working default so
// the server can start without a config file; a YAML file overrides selectively.
type Config struct {
	AdminEmail            string        `yaml:"admin_email"`
	PlateSizes            []string      `yaml:"plate_sizes"`
	DefaultDailyRate      float64       `yaml:"default_daily_rate"`
	ServiceChargeRate     float64       `yaml:"service_charge_rate"`      // percent of total borrowed quantity
	ServiceChargePerPlate float64       `yaml:"service_charge_per_plate"` // amount applied per service-charged plate
	Receipt               ReceiptConfig `yaml:"receipt"`
}

// ReceiptConfig controls challan receipt image generation.
type ReceiptConfig struct {
	IssueTemplatePath  string        `yaml:"issue_template_path"`
	ReturnTemplatePath string        `yaml:"return_template_path"`
	FontPath           string        `yaml:"font_path"`
	Issue              ReceiptLayout `yaml:"issue_layout"`
	Return             ReceiptLayout `yaml:"return_layout"`
}

// Point is a pixel position on the receipt template.
type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// ReceiptLayout is the coordinate table for stamping text onto a receipt
// template. Templates are A4 at 300 DPI (2480x3508). Every configured plate
// size owns a fixed table row whether or not it carries a quantity.
type ReceiptLayout struct {
	ChallanNumber Point   `yaml:"challan_number"`
	Date          Point   `yaml:"date"`
	ClientName    Point   `yaml:"client_name"`
	ClientID      Point   `yaml:"client_id"`
	ClientSite    Point   `yaml:"client_site"`
	ClientMobile  Point   `yaml:"client_mobile"`
	TableStart    Point   `yaml:"table_start"`
	RowHeight     float64 `yaml:"row_height"`
	QuantityX     float64 `yaml:"quantity_x"`
	NotesX        float64 `yaml:"notes_x"`
	Total         Point   `yaml:"total"`
	SecondTotal   Point   `yaml:"second_total"`
}

// DefaultPlateSizes is the fixed size catalogue of the depot, in receipt table
// row order. Two entries are Gujarati ("પતરા" = sheets, "2 ફુટ" = 2 feet).
var DefaultPlateSizes = []string{
	"2 X 3",
	"21 X 3",
	"18 X 3",
	"15 X 3",
	"12 X 3",
	"9 X 3",
	"પતરા",
	"2 X 2",
	"2 ફુટ",
}

func defaultLayout() ReceiptLayout {
	return ReceiptLayout{
		ChallanNumber: Point{X: 520, Y: 800},
		Date:          Point{X: 1800, Y: 800},
		ClientName:    Point{X: 450, Y: 980},
		ClientID:      Point{X: 1900, Y: 980},
		ClientSite:    Point{X: 450, Y: 1080},
		ClientMobile:  Point{X: 450, Y: 1270},
		TableStart:    Point{X: 900, Y: 1570},
		RowHeight:     130,
		QuantityX:     740,
		NotesX:        1190,
		Total:         Point{X: 700, Y: 2750},
		SecondTotal:   Point{X: 1420, Y: 3180},
	}
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		AdminEmail:            "nilkanthplatdepo@gmail.com",
		PlateSizes:            append([]string(nil), DefaultPlateSizes...),
		DefaultDailyRate:      10,
		ServiceChargeRate:     5,
		ServiceChargePerPlate: 50,
		Receipt: ReceiptConfig{
			IssueTemplatePath:  "assets/udhar_receipt_template.jpg",
			ReturnTemplatePath: "assets/jama_receipt_template.jpg",
			Issue:              defaultLayout(),
			Return:             defaultLayout(),
		},
	}
}

// Load reads a YAML config file over the defaults. A missing file is not an
// error: the defaults are returned as-is.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	if len(cfg.PlateSizes) == 0 {
		cfg.PlateSizes = append([]string(nil), DefaultPlateSizes...)
	}
	return cfg, nil
}

// RoleFor derives a user's role from their identity. The single configured
// administrator email gets full access; everyone else is read-only.
func (c *Config) RoleFor(email string) string {
	if email != "" && strings.EqualFold(email, c.AdminEmail) {
		return RoleAdmin
	}
	return RoleViewer
}

// KnownPlateSize reports whether size is part of the configured catalogue.
func (c *Config) KnownPlateSize(size string) bool {
	for _, s := range c.PlateSizes {
		if s == size {
			return true
		}
	}
	return false
}

const (
	RoleAdmin  = "Admin"
	RoleViewer = "Viewer"
)
