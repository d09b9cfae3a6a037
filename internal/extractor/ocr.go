package extractor

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/insightdelivered/statement-ledger/internal/models"
)

// OCR turns an image into text.
type OCR interface {
	Recognize(ctx context.Context, img image.Image) (string, error)
}

// Tesseract runs the tesseract binary. Requires tesseract-ocr.
type Tesseract struct {
	Bin      string
	Language string
	// PSM 4 assumes a single column of text of variable sizes, which suits
	// statement letterheads.
	PSM int
}

// NewTesseract returns a Tesseract with defaults filled in.
func NewTesseract(bin, language string) *Tesseract {
	if bin == "" {
		bin = "tesseract"
	}
	if language == "" {
		language = "eng"
	}
	return &Tesseract{Bin: bin, Language: language, PSM: 4}
}

func (t *Tesseract) Recognize(ctx context.Context, img image.Image) (string, error) {
	if _, err := exec.LookPath(t.Bin); err != nil {
		return "", fmt.Errorf("tesseract not available (install tesseract-ocr): %w", err)
	}

	tmpDir, err := os.MkdirTemp("", "ocr-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	imgPath := filepath.Join(tmpDir, "page.png")
	if err := writePNG(imgPath, img); err != nil {
		return "", err
	}

	// "stdout" as the output base makes tesseract print instead of writing a file.
	cmd := exec.CommandContext(ctx, t.Bin, imgPath, "stdout", "-l", t.Language, "--psm", strconv.Itoa(t.PSM))
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("tesseract failed: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// Poppler renders pages and extracts layout text with the poppler-utils
// binaries. The password goes to the child process only.
type Poppler struct {
	PdftoppmBin  string
	PdftotextBin string
}

// NewPoppler returns a Poppler with default binary names.
func NewPoppler(pdftoppm string) *Poppler {
	if pdftoppm == "" {
		pdftoppm = "pdftoppm"
	}
	return &Poppler{
		PdftoppmBin:  pdftoppm,
		PdftotextBin: filepath.Join(filepath.Dir(pdftoppm), "pdftotext"),
	}
}

// Render rasterises one 0-indexed page to an image.
func (p *Poppler) Render(ctx context.Context, data []byte, password models.Secret, page, dpi int) (image.Image, error) {
	if _, err := exec.LookPath(p.PdftoppmBin); err != nil {
		return nil, fmt.Errorf("pdftoppm not available (install poppler-utils): %w", err)
	}

	tmpDir, input, err := stageInput(data)
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmpDir)

	n := strconv.Itoa(page + 1)
	prefix := filepath.Join(tmpDir, "page")
	args := []string{"-f", n, "-l", n, "-r", strconv.Itoa(dpi), "-png", "-singlefile"}
	args = append(args, passwordArgs(password)...)
	args = append(args, input, prefix)

	if out, err := exec.CommandContext(ctx, p.PdftoppmBin, args...).CombinedOutput(); err != nil {
		return nil, fmt.Errorf("pdftoppm failed: %w (output: %s)", err, strings.TrimSpace(string(out)))
	}

	f, err := os.Open(prefix + ".png")
	if err != nil {
		return nil, fmt.Errorf("pdftoppm produced no page image: %w", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode page image: %w", err)
	}
	return img, nil
}

// Text extracts one 0-indexed page with pdftotext -layout.
func (p *Poppler) Text(ctx context.Context, data []byte, password models.Secret, page int) (string, error) {
	if _, err := exec.LookPath(p.PdftotextBin); err != nil {
		return "", fmt.Errorf("pdftotext not available: %w", err)
	}

	tmpDir, input, err := stageInput(data)
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(tmpDir)

	n := strconv.Itoa(page + 1)
	args := []string{"-layout", "-f", n, "-l", n}
	args = append(args, passwordArgs(password)...)
	args = append(args, input, "-")

	out, err := exec.CommandContext(ctx, p.PdftotextBin, args...).Output()
	if err != nil {
		return "", fmt.Errorf("pdftotext failed: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// Available reports whether the tesseract binary can be found.
func (t *Tesseract) Available() bool {
	_, err := exec.LookPath(t.Bin)
	return err == nil
}

// Available reports whether pages can be rendered, i.e. pdftoppm is found.
func (p *Poppler) Available() bool {
	_, err := exec.LookPath(p.PdftoppmBin)
	return err == nil
}

// OCRAvailable reports whether the OCR fallback can run: pages must render
// and the engine binary must be present.
func OCRAvailable(poppler *Poppler, ocr *Tesseract) bool {
	return poppler != nil && ocr != nil && poppler.Available() && ocr.Available()
}

// ReadLetterhead renders the first page, keeps the top fraction, converts it
// to grayscale and runs OCR. OCR is best effort: any failure is empty text.
func ReadLetterhead(ctx context.Context, doc Document, ocr OCR, dpi int, fraction float64) string {
	if ocr == nil || doc.NumPages() == 0 {
		return ""
	}
	img, err := doc.RenderPage(ctx, 0, dpi)
	if err != nil {
		return ""
	}
	text, err := ocr.Recognize(ctx, Grayscale(CropTop(img, fraction)))
	if err != nil {
		return ""
	}
	return text
}

// CropTop returns the top fraction of img.
func CropTop(img image.Image, fraction float64) image.Image {
	if fraction <= 0 || fraction >= 1 {
		return img
	}
	b := img.Bounds()
	rect := image.Rect(b.Min.X, b.Min.Y, b.Max.X, b.Min.Y+int(float64(b.Dy())*fraction))
	if sub, ok := img.(interface {
		SubImage(r image.Rectangle) image.Image
	}); ok {
		return sub.SubImage(rect)
	}
	dst := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(dst, dst.Bounds(), img, rect.Min, draw.Src)
	return dst
}

// Grayscale converts img to 8-bit gray.
func Grayscale(img image.Image) *image.Gray {
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	return gray
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create image file: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode image: %w", err)
	}
	return f.Close()
}

// stageInput writes the still-encrypted bytes to a private temp dir.
func stageInput(data []byte) (dir, path string, err error) {
	dir, err = os.MkdirTemp("", "statement-*")
	if err != nil {
		return "", "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	path = filepath.Join(dir, "statement.pdf")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		os.RemoveAll(dir)
		return "", "", fmt.Errorf("failed to stage PDF: %w", err)
	}
	return dir, path, nil
}

func passwordArgs(password models.Secret) []string {
	if password == "" {
		return nil
	}
	return []string{"-upw", password.Reveal()}
}
