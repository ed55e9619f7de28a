// Package report renders a stored contract analysis as markdown, HTML and PDF.
package report

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"contractscan/logic/currency"
	"contractscan/types"
)

const disclaimer = "This report is for informational purposes only and does not constitute legal advice."

// Markdown builds the analysis report with every amount shown in rupees.
func Markdown(rec *types.ContractRecord, conv currency.Converter) string {
	var b strings.Builder
	title := rec.Name
	if title == "" {
		title = rec.FileName
	}
	fmt.Fprintf(&b, "# Contract Analysis Report\n\n**%s**", title)
	if rec.Venue != "" {
		fmt.Fprintf(&b, " - %s", rec.Venue)
	}
	b.WriteString("\n\n")
	if !rec.UploadedAt.IsZero() {
		fmt.Fprintf(&b, "Analyzed on %s\n\n", rec.UploadedAt.Format("January 2, 2006"))
	}

	a := rec.Analysis
	if a == nil {
		fmt.Fprintf(&b, "Analysis status: %s\n", rec.Status)
		return b.String()
	}

	fmt.Fprintf(&b, "**Risk Score: %d/10 (%s)**\n\n", a.RiskScore, riskLevel(a.RiskScore))
	b.WriteString("> All prices are displayed in Indian Rupees (₹).\n\n")

	b.WriteString("## Summary\n\n")
	b.WriteString(a.Summary + "\n\n")

	b.WriteString("| Base Price | Estimated Total | Hidden Fees Found | Risk Factors |\n")
	b.WriteString("|---|---|---|---|\n")
	fmt.Fprintf(&b, "| %s | %s | %d | %d |\n\n", conv.ToINR(a.BasePrice), conv.ToINR(a.TotalValue), len(a.HiddenFees), len(a.Risks))

	if a.EventDate != "" || a.GuestCapacity != "" || a.VenueName != "" {
		b.WriteString("## Event Details\n\n")
		if a.VenueName != "" {
			fmt.Fprintf(&b, "- Venue: %s\n", a.VenueName)
		}
		if a.EventDate != "" {
			fmt.Fprintf(&b, "- Event date: %s\n", a.EventDate)
		}
		if a.GuestCapacity != "" {
			fmt.Fprintf(&b, "- Guests: %s\n", a.GuestCapacity)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Hidden Fees Breakdown\n\n")
	if len(a.HiddenFees) == 0 {
		b.WriteString("No hidden fees detected.\n\n")
	} else {
		b.WriteString("| Fee | Amount | Severity | Details |\n|---|---|---|---|\n")
		for _, f := range a.HiddenFees {
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", cell(f.Name), cell(conv.ToINR(f.Amount)), f.Severity, cell(f.Description))
		}
		b.WriteString("\n")
	}

	b.WriteString("## Risk Analysis\n\n")
	if len(a.Risks) == 0 {
		b.WriteString("No significant risks identified.\n\n")
	} else {
		for _, r := range a.Risks {
			fmt.Fprintf(&b, "- **%s** (%s): %s\n", r.Title, r.Severity, r.Description)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Positive Aspects\n\n")
	for _, p := range a.Positives {
		fmt.Fprintf(&b, "- ✓ %s\n", p)
	}
	b.WriteString("\n")

	if len(a.NegotiationSuggestions) > 0 {
		b.WriteString("## Negotiation Suggestions\n\n")
		for _, s := range a.NegotiationSuggestions {
			fmt.Fprintf(&b, "- **%s** [%s]: %s\n", s.Clause, s.Priority, s.Suggestion)
		}
		b.WriteString("\n")
	}

	b.WriteString("---\n\nGenerated by ContractScan. " + disclaimer + "\n")
	return b.String()
}

func riskLevel(score int) string {
	switch {
	case score >= 7:
		return "high"
	case score >= 4:
		return "medium"
	}
	return "low"
}

func cell(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "|", `\|`), "\n", " ")
}

const style = `body{font-family:Arial,sans-serif;max-width:800px;margin:0 auto;padding:40px;color:#333;}
h1{color:#10b981;border-bottom:2px solid #10b981;padding-bottom:10px;}
h2{color:#374151;margin-top:30px;}
table{width:100%;border-collapse:collapse;margin:12px 0;font-size:14px;}
th,td{border:1px solid #e5e7eb;padding:8px;text-align:left;vertical-align:top;}
thead th{background:#f9fafb;}
blockquote{background:#f0fdf4;margin:0;padding:10px 15px;border-radius:6px;font-size:12px;color:#166534;}
html,body,*{-webkit-print-color-adjust:exact !important;print-color-adjust:exact !important;}`

// HTML converts the markdown report to a standalone page (GFM tables enabled).
func HTML(title, markdown string) (string, error) {
	var content bytes.Buffer
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	if err := md.Convert([]byte(markdown), &content); err != nil {
		return "", fmt.Errorf("markdown convert: %w", err)
	}
	return "<!doctype html><html><head><meta charset='utf-8'><title>Contract Analysis Report - " +
		html.EscapeString(title) + "</title><style>" + style + "</style></head><body>" +
		content.String() + "</body></html>", nil
}

// ChromeRenderer prints HTML to PDF with headless Chrome.
type ChromeRenderer struct {
	ChromePath string
	Timeout    time.Duration
}

func (r *ChromeRenderer) PDF(ctx context.Context, htmlDoc string) ([]byte, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
	}
	if r.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(r.ChromePath))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(timeoutCtx, append(chromedp.DefaultExecAllocatorOptions[:], opts...)...)
	defer allocCancel()

	taskCtx, taskCancel := chromedp.NewContext(allocCtx)
	defer taskCancel()

	var pdf []byte
	dataURL := "data:text/html;base64," + base64.StdEncoding.EncodeToString([]byte(htmlDoc))
	err := chromedp.Run(taskCtx,
		chromedp.Navigate(dataURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			out, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(8.27).
				WithPaperHeight(11.69).
				WithMarginTop(0.5).
				WithMarginBottom(0.6).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = out
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return pdf, nil
}
