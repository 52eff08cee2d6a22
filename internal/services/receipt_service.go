package services

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"strconv"

	"plate_depot_backend/internal/config"
	"plate_depot_backend/internal/models"
	"plate_depot_backend/internal/repositories"

	"github.com/fogleman/gg"
)

// Receipt templates are scanned A4 forms at 300 DPI.
const (
	receiptWidth  = 2480
	receiptHeight = 3508

	receiptNameMax  = 25
	receiptSiteMax  = 30
	receiptNotesMax = 20

	receiptJPEGQuality = 90
)

// ReceiptData is everything stamped onto a receipt template.
type ReceiptData struct {
	DocumentNumber string
	Date           string // dd/mm/yyyy
	ClientName     string
	ClientID       string
	ClientSite     string
	ClientMobile   string
	Quantities     map[string]int    // plate size -> quantity
	Notes          map[string]string // plate size -> row note
	Total          int
}

// truncateRunes shortens s to at most max runes. Plate size labels and notes
// can be Gujarati, so byte slicing would split characters.
func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

func loadReceiptTemplate(path string) image.Image {
	if path != "" {
		if img, err := gg.LoadImage(path); err == nil {
			return img
		}
	}
	// No template on disk: stamp onto a blank white form instead of failing.
	blank := image.NewRGBA(image.Rect(0, 0, receiptWidth, receiptHeight))
	dc := gg.NewContextForRGBA(blank)
	dc.SetColor(color.White)
	dc.Clear()
	return blank
}

// GenerateReceipt stamps the receipt data onto the template at the configured
// coordinates and encodes the result as a JPEG. Plate sizes occupy fixed table
// rows in catalogue order; only rows with a positive quantity are stamped.
func GenerateReceipt(
	data ReceiptData,
	templatePath, fontPath string,
	layout config.ReceiptLayout,
	plateSizes []string,
) ([]byte, error) {
	dc := gg.NewContextForImage(loadReceiptTemplate(templatePath))
	dc.SetRGB(0, 0, 0)

	if fontPath != "" {
		if _, err := os.Stat(fontPath); err == nil {
			// Best effort: the default face still renders if the font is bad.
			_ = dc.LoadFontFace(fontPath, 48)
		}
	}

	draw := func(s string, p config.Point) {
		if s == "" {
			return
		}
		dc.DrawStringAnchored(s, p.X, p.Y, 0, 0.5)
	}

	draw(data.DocumentNumber, layout.ChallanNumber)
	draw(data.Date, layout.Date)
	draw(truncateRunes(data.ClientName, receiptNameMax), layout.ClientName)
	draw(data.ClientID, layout.ClientID)
	draw(truncateRunes(data.ClientSite, receiptSiteMax), layout.ClientSite)
	draw(data.ClientMobile, layout.ClientMobile)

	for i, size := range plateSizes {
		quantity, ok := data.Quantities[size]
		if !ok || quantity <= 0 {
			continue
		}
		y := layout.TableStart.Y + float64(i)*layout.RowHeight
		draw(strconv.Itoa(quantity), config.Point{X: layout.QuantityX, Y: y})
		if note := data.Notes[size]; note != "" {
			draw(truncateRunes(note, receiptNotesMax), config.Point{X: layout.NotesX, Y: y})
		}
	}

	total := strconv.Itoa(data.Total)
	draw(total, layout.Total)
	draw(total, layout.SecondTotal)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dc.Image(), &jpeg.Options{Quality: receiptJPEGQuality}); err != nil {
		return nil, fmt.Errorf("encoding receipt JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

// --- ReceiptService Interface ---
type ReceiptService interface {
	ChallanReceipt(challanID int64) ([]byte, string, error)
	ReturnReceipt(returnID int64) ([]byte, string, error)
}

type receiptService struct {
	challanRepo repositories.ChallanRepository
	returnRepo  repositories.ReturnRepository
	clientRepo  repositories.ClientRepository
	cfg         *config.Config
}

// NewReceiptService creates a new instance of ReceiptService.
func NewReceiptService(
	cr repositories.ChallanRepository,
	rr repositories.ReturnRepository,
	clr repositories.ClientRepository,
	cfg *config.Config,
) ReceiptService {
	return &receiptService{
		challanRepo: cr,
		returnRepo:  rr,
		clientRepo:  clr,
		cfg:         cfg,
	}
}

func (s *receiptService) clientData(clientID string) (*models.Client, error) {
	client, err := s.clientRepo.GetClientByID(clientID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to get client for receipt: %w", err)
	}
	return client, nil
}

// ChallanReceipt renders the printable issue receipt for a challan.
func (s *receiptService) ChallanReceipt(challanID int64) ([]byte, string, error) {
	challan, err := s.challanRepo.GetChallanByID(challanID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, "", ErrChallanNotFound
		}
		return nil, "", fmt.Errorf("failed to get challan for receipt: %w", err)
	}
	client, err := s.clientData(challan.ClientID)
	if err != nil {
		return nil, "", err
	}

	data := ReceiptData{
		DocumentNumber: challan.ChallanNumber,
		Date:           challan.ChallanDate.Format("02/01/2006"),
		ClientName:     client.Name,
		ClientID:       client.ID,
		ClientSite:     client.Site,
		ClientMobile:   client.MobileNumber,
		Quantities:     map[string]int{},
		Notes:          map[string]string{},
	}
	for _, item := range challan.Items {
		data.Quantities[item.PlateSize] += item.BorrowedQuantity
		data.Total += item.BorrowedQuantity
		if item.Notes != nil && *item.Notes != "" {
			data.Notes[item.PlateSize] = *item.Notes
		}
	}

	img, err := GenerateReceipt(data, s.cfg.Receipt.IssueTemplatePath, s.cfg.Receipt.FontPath, s.cfg.Receipt.Issue, s.cfg.PlateSizes)
	if err != nil {
		return nil, "", err
	}
	return img, fmt.Sprintf("challan-%s.jpg", challan.ChallanNumber), nil
}

// ReturnReceipt renders the printable return receipt for a return challan.
func (s *receiptService) ReturnReceipt(returnID int64) ([]byte, string, error) {
	ret, err := s.returnRepo.GetReturnByID(returnID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, "", ErrReturnNotFound
		}
		return nil, "", fmt.Errorf("failed to get return challan for receipt: %w", err)
	}
	client, err := s.clientData(ret.ClientID)
	if err != nil {
		return nil, "", err
	}

	data := ReceiptData{
		DocumentNumber: ret.ReturnChallanNumber,
		Date:           ret.ReturnDate.Format("02/01/2006"),
		ClientName:     client.Name,
		ClientID:       client.ID,
		ClientSite:     client.Site,
		ClientMobile:   client.MobileNumber,
		Quantities:     map[string]int{},
		Notes:          map[string]string{},
	}
	for _, item := range ret.Items {
		data.Quantities[item.PlateSize] += item.ReturnedQuantity
		data.Total += item.ReturnedQuantity
		if item.DamageNotes != nil && *item.DamageNotes != "" {
			data.Notes[item.PlateSize] = *item.DamageNotes
		}
	}

	img, err := GenerateReceipt(data, s.cfg.Receipt.ReturnTemplatePath, s.cfg.Receipt.FontPath, s.cfg.Receipt.Return, s.cfg.PlateSizes)
	if err != nil {
		return nil, "", err
	}
	return img, fmt.Sprintf("return-%s.jpg", ret.ReturnChallanNumber), nil
}
