package ingestion_engine

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"runtime"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/otiai10/gosseract/v2"
	"golang.org/x/sync/errgroup"

	"github.com/oluseyi-dev/paperscope/internal/models"
)

// minDirectTextLen is the threshold below which a page is treated as
// scanned and handed to OCR.
const minDirectTextLen = 30

// OCREngine recognizes text in a rendered page image. An empty lang uses
// the engine's configured language.
type OCREngine interface {
	Recognize(ctx context.Context, img image.Image, lang string) (string, error)
}

// TesseractOCR runs tesseract via gosseract. A fresh client is created per
// call because gosseract clients are not safe for concurrent use.
type TesseractOCR struct {
	lang string
}

func NewTesseractOCR(lang string) *TesseractOCR {
	return &TesseractOCR{lang: lang}
}

func (t *TesseractOCR) Recognize(ctx context.Context, img image.Image, lang string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode page image: %w", err)
	}

	if lang == "" {
		lang = t.lang
	}
	client := gosseract.NewClient()
	defer client.Close()
	if lang != "" {
		if err := client.SetLanguage(lang); err != nil {
			return "", fmt.Errorf("set ocr language: %w", err)
		}
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", fmt.Errorf("load page image: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("ocr: %w", err)
	}
	return text, nil
}

// PageExtractor pulls per-page text out of a PDF, falling back to rendering
// and OCR for pages that look scanned. A failing page degrades to empty
// text; only opening the document aborts extraction.
type PageExtractor struct {
	ocr OCREngine
	log *slog.Logger
}

func NewPageExtractor(ocr OCREngine, log *slog.Logger) *PageExtractor {
	return &PageExtractor{ocr: ocr, log: log}
}

// ExtractPages returns the ordered page texts and the document's raw
// embedded metadata. Direct extraction and page rendering run sequentially
// (MuPDF is not safe for concurrent use on one document); OCR of the
// collected scanned pages then runs concurrently.
func (e *PageExtractor) ExtractPages(ctx context.Context, path string, dpi int, ocrLang string) ([]models.Page, map[string]string, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()

	meta := doc.Metadata()
	n := doc.NumPage()
	pages := make([]models.Page, n)

	type ocrJob struct {
		idx int
		img image.Image
	}
	var jobs []ocrJob

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		text, err := doc.Text(i)
		if err != nil {
			e.log.Warn("page text extraction failed", "page", i+1, "err", err)
			text = ""
		}
		text = strings.TrimSpace(text)
		pages[i] = models.Page{Index: i + 1, Text: text}

		if len(text) >= minDirectTextLen || e.ocr == nil {
			continue
		}
		img, err := doc.ImageDPI(i, float64(dpi))
		if err != nil {
			e.log.Warn("page render failed, keeping direct text", "page", i+1, "err", err)
			continue
		}
		jobs = append(jobs, ocrJob{idx: i, img: img})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for _, job := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			text, err := e.ocr.Recognize(gctx, job.img, ocrLang)
			if err != nil {
				// Degraded page, not a failed document.
				e.log.Warn("ocr failed, keeping direct text", "page", job.idx+1, "err", err)
				return nil
			}
			pages[job.idx].Text = strings.TrimSpace(text)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	e.log.Debug("pages extracted", "pages", n, "ocr_pages", len(jobs))
	return pages, meta, nil
}
