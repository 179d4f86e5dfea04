package results

import (
	"fmt"
	"io"
	"math"

	"github.com/go-pdf/fpdf"
)

const (
	pdfMargin     = 15.0
	pdfPageWidth  = 297.0
	plotLeft      = 40.0
	plotTop       = 30.0
	plotHeight    = 100.0
	plotWidth     = pdfPageWidth - plotLeft - pdfMargin
	plotTicks     = 5
	outlierRadius = 0.8
)

// ValueFormatter renders an axis or table value.
type ValueFormatter func(float64) string

// RenderPDF draws chart as a landscape A4 page of side-by-side box plots
// followed by a table of the summary statistics. format renders values; nil
// prints them with two decimals.
func RenderPDF(w io.Writer, chart Chart, format ValueFormatter) error {
	if format == nil {
		format = func(v float64) string { return fmt.Sprintf("%.2f", v) }
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	pdf.SetTitle(chart.Title, true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(0, 10, tr(chart.Title), "", 1, "C", false, 0, "")

	if len(chart.Groups) == 0 {
		pdf.SetFont("Arial", "I", 11)
		pdf.SetTextColor(80, 80, 80)
		pdf.CellFormat(0, 10, "No results", "", 1, "C", false, 0, "")
		return pdf.Output(w)
	}

	lo, hi := paddedRange(chart.Axis.Min, chart.Axis.Max)
	toY := func(v float64) float64 {
		return plotTop + plotHeight - (v-lo)/(hi-lo)*plotHeight
	}

	drawAxis(pdf, tr, chart, lo, hi, toY, format)
	drawBoxes(pdf, tr, chart.Groups, toY)

	pdf.SetY(plotTop + plotHeight + 18)
	drawSummaryTable(pdf, tr, chart, format)

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return pdf.Output(w)
}

func paddedRange(lo, hi float64) (float64, float64) {
	if hi <= lo {
		pad := math.Max(math.Abs(lo)*0.05, 1)
		return lo - pad, hi + pad
	}
	pad := (hi - lo) * 0.05
	return lo - pad, hi + pad
}

func drawAxis(pdf *fpdf.Fpdf, tr func(string) string, chart Chart, lo, hi float64, toY func(float64) float64, format ValueFormatter) {
	pdf.SetDrawColor(120, 120, 120)
	pdf.SetLineWidth(0.2)
	pdf.Line(plotLeft, plotTop, plotLeft, plotTop+plotHeight)
	pdf.Line(plotLeft, plotTop+plotHeight, plotLeft+plotWidth, plotTop+plotHeight)

	pdf.SetFont("Arial", "", 7)
	pdf.SetTextColor(80, 80, 80)
	for i := 0; i <= plotTicks; i++ {
		v := lo + (hi-lo)*float64(i)/plotTicks
		y := toY(v)
		pdf.SetDrawColor(225, 225, 225)
		pdf.Line(plotLeft, y, plotLeft+plotWidth, y)
		label := tr(format(v))
		pdf.Text(plotLeft-2-pdf.GetStringWidth(label), y+1, label)
	}

	pdf.SetFont("Arial", "B", 9)
	pdf.Text(pdfMargin, plotTop-4, tr(chart.Axis.Title+" ("+chart.Label+")"))
}

func drawBoxes(pdf *fpdf.Fpdf, tr func(string) string, groups []Group, toY func(float64) float64) {
	slot := plotWidth / float64(len(groups))
	boxWidth := math.Min(slot*0.5, 30)

	for i, g := range groups {
		center := plotLeft + slot*(float64(i)+0.5)
		left := center - boxWidth/2

		pdf.SetFont("Arial", "", 8)
		pdf.SetTextColor(50, 50, 50)
		name := tr(truncateToWidth(pdf, g.Name, slot-2))
		pdf.Text(center-pdf.GetStringWidth(name)/2, plotTop+plotHeight+6, name)

		s := g.Summary
		if s.Count == 0 {
			continue
		}

		r, gr, b := groupColor(i)
		pdf.SetDrawColor(r, gr, b)
		pdf.SetFillColor(r+(255-r)/2, gr+(255-gr)/2, b+(255-b)/2)
		pdf.SetLineWidth(0.3)

		pdf.Line(center, toY(s.UpperWhisker), center, toY(s.Q3))
		pdf.Line(center, toY(s.Q1), center, toY(s.LowerWhisker))
		pdf.Line(center-boxWidth/4, toY(s.UpperWhisker), center+boxWidth/4, toY(s.UpperWhisker))
		pdf.Line(center-boxWidth/4, toY(s.LowerWhisker), center+boxWidth/4, toY(s.LowerWhisker))

		top := toY(s.Q3)
		height := math.Max(toY(s.Q1)-top, 0.2)
		pdf.Rect(left, top, boxWidth, height, "FD")

		pdf.SetLineWidth(0.6)
		pdf.Line(left, toY(s.Median), left+boxWidth, toY(s.Median))

		pdf.SetLineWidth(0.2)
		for _, o := range s.Outliers {
			pdf.Circle(center, toY(o), outlierRadius, "D")
		}
	}
}

func drawSummaryTable(pdf *fpdf.Fpdf, tr func(string) string, chart Chart, format ValueFormatter) {
	headers := []string{"Condition", "Trials", "Min", "Q1", "Median", "Q3", "Max", "Mean"}
	widths := []float64{59, 20, 29, 29, 29, 29, 29, 43}

	pdf.SetFillColor(0, 51, 102)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetFont("Arial", "B", 9)
	for i, h := range headers {
		align := "L"
		if i > 0 {
			align = "R"
		}
		pdf.CellFormat(widths[i], 6, h, "1", 0, align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	pdf.SetTextColor(50, 50, 50)
	pdf.SetFillColor(250, 250, 250)
	for _, g := range chart.Groups {
		s := g.Summary
		cells := []string{truncateToWidth(pdf, g.Name, widths[0]-2), fmt.Sprintf("%d", s.Count), "", "", "", "", "", ""}
		if s.Count > 0 {
			for i, v := range []float64{s.Min, s.Q1, s.Median, s.Q3, s.Max, s.Mean} {
				cells[i+2] = format(v)
			}
		}
		for i, cell := range cells {
			align := "L"
			if i > 0 {
				align = "R"
			}
			pdf.CellFormat(widths[i], 5, tr(cell), "1", 0, align, true, 0, "")
		}
		pdf.Ln(-1)
	}
}

func truncateToWidth(pdf *fpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && pdf.GetStringWidth(string(runes)+"...") > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}

var palette = [][3]int{
	{31, 119, 180},
	{255, 127, 14},
	{44, 160, 44},
	{214, 39, 40},
	{148, 103, 189},
	{140, 86, 75},
	{227, 119, 194},
	{127, 127, 127},
}

func groupColor(i int) (int, int, int) {
	c := palette[i%len(palette)]
	return c[0], c[1], c[2]
}
