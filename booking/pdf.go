package booking

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"
)

var weekdayLabels = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// RenderMonthPDF draws a one-page month grid for propertyID with booked
// days shaded, and a QR code pointing at the property's public page.
func RenderMonthPDF(snap *Snapshot, propertyID int, siteURL string) ([]byte, error) {
	if snap == nil {
		return nil, fmt.Errorf("no availability loaded")
	}

	first := time.Date(snap.Year, time.Month(snap.Month), 1, 0, 0, 0, 0, time.UTC)
	daysInMonth := first.AddDate(0, 1, -1).Day()
	booked := snap.Lookup(Key{PropertyID: propertyID, Year: snap.Year, Month: snap.Month})

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.Cell(0, 10, fmt.Sprintf("Property #%d", propertyID))
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 13)
	pdf.Cell(0, 8, fmt.Sprintf("Availability for %s %d", first.Month(), snap.Year))
	pdf.Ln(12)

	const cellW, cellH, left = 26.0, 18.0, 14.0

	pdf.SetFont("Arial", "B", 10)
	for i, label := range weekdayLabels {
		pdf.SetXY(left+float64(i)*cellW, 45)
		pdf.CellFormat(cellW, 8, label, "1", 0, "C", false, 0, "")
	}

	pdf.SetFont("Arial", "", 11)
	col := int(first.Weekday())
	row := 0
	for day := 1; day <= daysInMonth; day++ {
		fill := booked.Has(day)
		if fill {
			pdf.SetFillColor(230, 120, 120)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}
		pdf.SetXY(left+float64(col)*cellW, 53+float64(row)*cellH)
		pdf.CellFormat(cellW, cellH, strconv.Itoa(day), "1", 0, "C", fill, 0, "")

		col++
		if col == 7 {
			col = 0
			row++
		}
	}

	pdf.SetXY(left, 53+7*cellH)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 8, fmt.Sprintf("Booked nights: %d of %d", len(booked), daysInMonth))
	if snap.Message != "" {
		pdf.Ln(6)
		pdf.Cell(0, 8, snap.Message)
	}

	if siteURL != "" {
		link := strings.TrimRight(siteURL, "/") + "/properties/" + strconv.Itoa(propertyID)
		qrPNG, err := qrcode.Encode(link, qrcode.Medium, 256)
		if err != nil {
			return nil, fmt.Errorf("qr code: %w", err)
		}
		imageOpts := gofpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader("qr", imageOpts, bytes.NewReader(qrPNG))
		pdf.ImageOptions("qr", 160, 12, 36, 36, false, imageOpts, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
