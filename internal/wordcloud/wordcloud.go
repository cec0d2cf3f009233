package wordcloud

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"sort"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Ошибки рендеринга.
var (
	// ErrNoWords — нечего рисовать.
	ErrNoWords = errors.New("no words to render")

	// ErrFont — не удалось загрузить шрифт.
	ErrFont = errors.New("load font")
)

// Word — слово и его частота.
type Word struct {
	Text  string
	Count int
}

// Options — параметры изображения.
type Options struct {
	Width    int
	Height   int
	MaxWords int

	// Background — цвет фона. nil — DefaultBackground.
	Background color.Color

	// Palette — цвета слов. Пусто — DefaultPalette.
	Palette []color.Color
}

// DefaultBackground — фон облака (#1e293b).
var DefaultBackground = color.RGBA{R: 0x1e, G: 0x29, B: 0x3b, A: 0xff}

// DefaultPalette — оттенки синего, от светлого к тёмному.
var DefaultPalette = []color.Color{
	color.RGBA{R: 0xde, G: 0xeb, B: 0xf7, A: 0xff},
	color.RGBA{R: 0xc6, G: 0xdb, B: 0xef, A: 0xff},
	color.RGBA{R: 0x9e, G: 0xca, B: 0xe1, A: 0xff},
	color.RGBA{R: 0x6b, G: 0xae, B: 0xd6, A: 0xff},
	color.RGBA{R: 0x42, G: 0x92, B: 0xc6, A: 0xff},
	color.RGBA{R: 0x21, G: 0x71, B: 0xb5, A: 0xff},
}

const (
	defaultWidth    = 800
	defaultHeight   = 400
	defaultMaxWords = 100

	// Высота самого крупного слова относительно высоты изображения.
	maxWordRatio = 0.22
	minWordPx    = 10

	// Шаг спирали при поиске свободного места.
	spiralStep = 0.35
	spiralGap  = 2.0
)

// Renderer рисует облако слов в PNG.
//
// Слово рисуется базовым шрифтом в маску, маска масштабируется до нужного
// размера и кладётся на холст по спирали от центра без пересечений.
type Renderer struct {
	face font.Face
}

// New создаёт Renderer. Пустой fontPath — встроенный растровый шрифт.
func New(fontPath string) (*Renderer, error) {
	if fontPath == "" {
		return &Renderer{face: basicfont.Face7x13}, nil
	}

	data, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFont, err)
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFont, err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    48,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFont, err)
	}
	return &Renderer{face: face}, nil
}

// Render рисует облако и возвращает PNG.
func (r *Renderer) Render(words []Word, opts Options) ([]byte, error) {
	opts = withDefaults(opts)

	words = topWords(words, opts.MaxWords)
	if len(words) == 0 {
		return nil, ErrNoWords
	}

	canvas := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(opts.Background), image.Point{}, draw.Src)

	maxCount := float64(words[0].Count)
	maxPx := math.Max(float64(opts.Height)*maxWordRatio, minWordPx)

	var placed []image.Rectangle
	for i, w := range words {
		// Размер слова пропорционален квадратному корню частоты
		ratio := math.Sqrt(float64(w.Count) / maxCount)
		height := int(math.Max(minWordPx, maxPx*ratio))

		mask := r.glyphs(w.Text, height)
		if mask == nil {
			continue
		}

		pos, ok := findSpot(canvas.Bounds(), mask.Bounds().Size(), placed)
		if !ok {
			continue
		}
		rect := image.Rectangle{Min: pos, Max: pos.Add(mask.Bounds().Size())}
		placed = append(placed, rect)

		col := opts.Palette[i%len(opts.Palette)]
		draw.DrawMask(canvas, rect, image.NewUniform(col), image.Point{}, mask, image.Point{}, draw.Over)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func withDefaults(opts Options) Options {
	if opts.Width <= 0 {
		opts.Width = defaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = defaultHeight
	}
	if opts.MaxWords <= 0 {
		opts.MaxWords = defaultMaxWords
	}
	if opts.Background == nil {
		opts.Background = DefaultBackground
	}
	if len(opts.Palette) == 0 {
		opts.Palette = DefaultPalette
	}
	return opts
}

// topWords возвращает не более max самых частых слов (по убыванию частоты).
func topWords(words []Word, max int) []Word {
	out := make([]Word, 0, len(words))
	for _, w := range words {
		if w.Text != "" && w.Count > 0 {
			out = append(out, w)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Text < out[j].Text
	})
	if len(out) > max {
		out = out[:max]
	}
	return out
}

// glyphs рисует слово в альфа-маску высотой height пикселей.
func (r *Renderer) glyphs(text string, height int) *image.Alpha {
	m := r.face.Metrics()
	baseH := (m.Ascent + m.Descent).Ceil()
	baseW := font.MeasureString(r.face, text).Ceil()
	if baseW <= 0 || baseH <= 0 {
		return nil
	}

	base := image.NewAlpha(image.Rect(0, 0, baseW, baseH))
	d := &font.Drawer{
		Dst:  base,
		Src:  image.Opaque,
		Face: r.face,
		Dot:  fixed.P(0, m.Ascent.Ceil()),
	}
	d.DrawString(text)

	scale := float64(height) / float64(baseH)
	w := int(math.Max(1, math.Round(float64(baseW)*scale)))
	scaled := image.NewAlpha(image.Rect(0, 0, w, height))
	draw.BiLinear.Scale(scaled, scaled.Bounds(), base, base.Bounds(), draw.Src, nil)
	return scaled
}

// findSpot ищет позицию по архимедовой спирали от центра холста,
// на которой прямоугольник size не пересекает уже размещённые.
func findSpot(bounds image.Rectangle, size image.Point, placed []image.Rectangle) (image.Point, bool) {
	if size.X > bounds.Dx() || size.Y > bounds.Dy() {
		return image.Point{}, false
	}

	cx := float64(bounds.Dx()-size.X) / 2
	cy := float64(bounds.Dy()-size.Y) / 2
	aspect := float64(bounds.Dx()) / float64(bounds.Dy())
	maxRadius := math.Hypot(float64(bounds.Dx()), float64(bounds.Dy()))

	for theta := 0.0; ; theta += spiralStep {
		radius := spiralGap * theta
		if radius > maxRadius {
			return image.Point{}, false
		}
		x := int(cx + radius*math.Cos(theta)*aspect)
		y := int(cy + radius*math.Sin(theta))
		rect := image.Rect(x, y, x+size.X, y+size.Y)
		if !rect.In(bounds) {
			continue
		}
		if !overlaps(rect, placed) {
			return rect.Min, true
		}
	}
}

func overlaps(rect image.Rectangle, placed []image.Rectangle) bool {
	padded := rect.Inset(-1)
	for _, p := range placed {
		if padded.Overlaps(p) {
			return true
		}
	}
	return false
}
