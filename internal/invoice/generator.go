package invoice

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/autoimport-storefront/internal/cart"
	"github.com/angelmondragon/autoimport-storefront/internal/storefront"
	pkgerrors "github.com/angelmondragon/autoimport-storefront/pkg/errors"
)

const ContentType = "application/pdf"

// A4 portrait layout, millimetres.
const (
	pageCenterX   = 105.0
	marginLeft    = 10.0
	marginRight   = 200.0
	tableWidth    = 190.0
	headerHeight  = 7.0
	rowHeight     = 6.0
	pageTop       = 15.0
	pageBreakAt   = 280.0
	colCode       = 12.0
	colDesc       = 40.0
	colQty        = 140.0
	colUnitPrice  = 160.0
	colSubtotalRt = 185.0
	totalLabelX   = 150.0
)

// Document is a rendered invoice ready for download.
type Document struct {
	Filename    string
	ContentType string
	Content     []byte
	Pages       int
	Total       decimal.Decimal
	GeneratedAt time.Time
}

type Options struct {
	// StoreName is used in the filename and the closing message.
	StoreName string
	// LegalName is printed in the header; defaults to StoreName.
	LegalName string
	Money     storefront.Money
	Now       func() time.Time
	Compress  bool
}

// Generator renders invoices from cart snapshots. It never mutates the cart.
type Generator struct {
	storeName string
	legalName string
	money     storefront.Money
	now       func() time.Time
	compress  bool
}

func NewGenerator(opts Options) *Generator {
	g := &Generator{
		storeName: strings.TrimSpace(opts.StoreName),
		legalName: strings.TrimSpace(opts.LegalName),
		money:     opts.Money,
		now:       opts.Now,
		compress:  opts.Compress,
	}
	if g.legalName == "" {
		g.legalName = g.storeName
	}
	if g.now == nil {
		g.now = time.Now
	}
	return g
}

// Generate renders the invoice for clientName from snap.
func (g *Generator) Generate(clientName string, snap cart.Snapshot) (*Document, error) {
	clientName = strings.TrimSpace(clientName)
	if clientName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client name is required").
			WithDetails(map[string]any{"field": "client_name"})
	}
	if snap.IsEmpty() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cannot invoice an empty cart")
	}

	now := g.now()
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(g.compress)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreationDate(now)
	pdf.SetTitle("Factura de venta", true)
	pdf.SetCreator(g.storeName, true)
	w := &writer{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}

	pdf.AddPage()
	y := pageTop

	pdf.SetFont("Helvetica", "B", 22)
	w.centered(pageCenterX, y, "FACTURA DE VENTA")
	y += 10

	pdf.SetFont("Helvetica", "", 10)
	w.text(marginLeft, y, g.legalName)
	w.text(colUnitPrice, y, "Fecha: "+now.Format("02/01/2006"))
	y += 5
	w.text(marginLeft, y, "Cliente: "+clientName)
	y += 10

	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetFillColor(200, 200, 200)
	pdf.Rect(marginLeft, y, tableWidth, headerHeight, "F")
	w.text(colCode, y+5, "CÓDIGO")
	w.text(colDesc, y+5, "DESCRIPCIÓN")
	w.text(colQty, y+5, "CANT.")
	w.text(colUnitPrice, y+5, "PRECIO U.")
	w.right(colSubtotalRt, y+5, "SUBTOTAL")
	y += 12

	pdf.SetFont("Helvetica", "", 10)
	for _, line := range snap.Lines {
		if y > pageBreakAt {
			pdf.AddPage()
			y = pageTop
			pdf.SetFont("Helvetica", "", 10)
		}
		w.text(colCode, y, strconv.FormatInt(line.Code, 10))
		w.text(colDesc, y, line.Title())
		w.text(colQty, y, strconv.Itoa(line.Quantity))
		w.text(colUnitPrice, y, g.money.Format(line.UnitPrice))
		w.right(colSubtotalRt, y, g.money.Format(line.Subtotal()))
		y += rowHeight
	}

	// Divider, total and closing message need 20mm together.
	if y+20 > pageBreakAt+rowHeight {
		pdf.AddPage()
		y = pageTop
	}
	y += 5
	pdf.Line(marginLeft, y, marginRight, y)
	y += 5

	pdf.SetFont("Helvetica", "B", 14)
	w.text(totalLabelX, y, "TOTAL FINAL:")
	w.right(marginRight, y, g.money.Format(snap.TotalPrice))
	y += 10

	pdf.SetFont("Helvetica", "", 10)
	w.centered(pageCenterX, y, fmt.Sprintf("¡Gracias por su compra en %s!", g.storeName))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render invoice")
	}

	return &Document{
		Filename:    Filename(g.storeName, now),
		ContentType: ContentType,
		Content:     buf.Bytes(),
		Pages:       pdf.PageCount(),
		Total:       snap.TotalPrice,
		GeneratedAt: now,
	}, nil
}

// Filename is "Factura_<store>_<unix millis>.pdf".
func Filename(storeName string, at time.Time) string {
	return fmt.Sprintf("Factura_%s_%d.pdf", storeName, at.UnixMilli())
}

// writer places cp1252-translated text at absolute positions.
type writer struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

func (w *writer) text(x, y float64, s string) {
	w.pdf.Text(x, y, w.tr(s))
}

func (w *writer) centered(x, y float64, s string) {
	s = w.tr(s)
	w.pdf.Text(x-w.pdf.GetStringWidth(s)/2, y, s)
}

func (w *writer) right(x, y float64, s string) {
	s = w.tr(s)
	w.pdf.Text(x-w.pdf.GetStringWidth(s), y, s)
}
