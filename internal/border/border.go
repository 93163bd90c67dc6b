// Package border renders the hand-drawn style photo frame used on the lab
// website. The frame is drawn as randomized perpendicular perturbations of
// the canvas edges, seeded per member so repeated runs produce identical
// output for the same photo.
package border

import (
	"bytes"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"math/rand"
	"os"
	"path/filepath"

	_ "image/gif"
	_ "image/jpeg"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// DartmouthGreen is the default border color.
var DartmouthGreen = color.RGBA{R: 0, G: 105, B: 62, A: 255}

const (
	// DefaultBorderWidth is the stroke width in pixels.
	DefaultBorderWidth = 8
	// DefaultWobble is the maximum perpendicular perturbation in pixels.
	DefaultWobble = 1.5
	// outputSize is the square size photos are normalized to before framing.
	outputSize = 400
	// minDimension is the smallest acceptable input edge.
	minDimension = 200
)

// Renderer draws hand-drawn borders onto member photos.
type Renderer struct {
	color       color.RGBA
	borderWidth int
	wobble      float64
}

// NewRenderer creates a renderer with the given stroke color and width.
func NewRenderer(c color.RGBA, borderWidth int) *Renderer {
	if borderWidth <= 0 {
		borderWidth = DefaultBorderWidth
	}
	return &Renderer{color: c, borderWidth: borderWidth, wobble: DefaultWobble}
}

// Validate checks that image data is decodable, a supported format and large
// enough to look reasonable on the website.
func (r *Renderer) Validate(data []byte) error {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("unreadable image: %w", err)
	}
	switch format {
	case "jpeg", "png", "gif", "webp":
	default:
		return fmt.Errorf("unsupported image format: %s", format)
	}
	if cfg.Width < minDimension || cfg.Height < minDimension {
		return fmt.Errorf("image too small (%dx%d), minimum is %dx%d", cfg.Width, cfg.Height, minDimension, minDimension)
	}
	return nil
}

// Render draws the border around src and returns the framed image. Output is
// deterministic for a given (src, seed) pair, and the canvas is strictly
// larger than the normalized photo in both axes.
func (r *Renderer) Render(src image.Image, seed int64) *image.RGBA {
	rng := rand.New(rand.NewSource(seed))

	img := squareCrop(src)

	scaled := image.NewRGBA(image.Rect(0, 0, outputSize, outputSize))
	xdraw.CatmullRom.Scale(scaled, scaled.Bounds(), img, img.Bounds(), xdraw.Over, nil)

	padding := r.borderWidth + int(r.wobble) + 2
	canvas := image.NewRGBA(image.Rect(0, 0, outputSize+2*padding, outputSize+2*padding))
	draw.Draw(canvas, image.Rect(padding, padding, padding+outputSize, padding+outputSize), scaled, image.Point{}, draw.Over)

	r.drawWobblyBorder(canvas, rng, padding, outputSize, outputSize)
	return canvas
}

// Process validates and renders raw photo bytes, keeping both the original
// upload and the framed PNG under outputDir. The render seed is derived from
// memberID so re-uploading the same photo yields an identical frame.
func (r *Renderer) Process(data []byte, outputDir, memberID string) (originalPath, processedPath string, err error) {
	if err := r.Validate(data); err != nil {
		return "", "", err
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", "", fmt.Errorf("failed to decode image: %w", err)
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", "", fmt.Errorf("failed to create output directory: %w", err)
	}

	ext := format
	if ext == "jpeg" {
		ext = "jpg"
	}
	originalPath = filepath.Join(outputDir, fmt.Sprintf("%s_original.%s", memberID, ext))
	if err := os.WriteFile(originalPath, data, 0o644); err != nil {
		return "", "", fmt.Errorf("failed to save original photo: %w", err)
	}

	framed := r.Render(src, SeedFor(memberID))

	processedPath = filepath.Join(outputDir, fmt.Sprintf("%s_bordered.png", memberID))
	f, err := os.Create(processedPath)
	if err != nil {
		return "", "", fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, framed); err != nil {
		return "", "", fmt.Errorf("failed to encode output image: %w", err)
	}
	return originalPath, processedPath, nil
}

// SeedFor derives the render seed from a member identifier.
func SeedFor(memberID string) int64 {
	h := fnv.New64a()
	h.Write([]byte(memberID))
	return int64(h.Sum64())
}

func squareCrop(src image.Image) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == h {
		return src
	}

	size := w
	if h < w {
		size = h
	}
	left := b.Min.X + (w-size)/2
	top := b.Min.Y + (h-size)/2

	cropped := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(cropped, cropped.Bounds(), src, image.Pt(left, top), draw.Src)
	return cropped
}

// drawWobblyBorder runs three passes with decreasing stroke width so the
// overlapping strokes read as a single hand-drawn line.
func (r *Renderer) drawWobblyBorder(canvas *image.RGBA, rng *rand.Rand, offset, width, height int) {
	for pass := 0; pass < 3; pass++ {
		strokeWidth := r.borderWidth - pass
		if strokeWidth <= 0 {
			continue
		}

		topLeft := point{float64(offset), float64(offset)}
		topRight := point{float64(offset + width), float64(offset)}
		bottomRight := point{float64(offset + width), float64(offset + height)}
		bottomLeft := point{float64(offset), float64(offset + height)}

		edges := [][]point{
			wobblyLine(rng, topLeft, topRight, r.wobble, 4),
			wobblyLine(rng, topRight, bottomRight, r.wobble, 4),
			wobblyLine(rng, bottomRight, bottomLeft, r.wobble, 4),
			wobblyLine(rng, bottomLeft, topLeft, r.wobble, 4),
		}

		for _, pts := range edges {
			for i := 0; i+1 < len(pts); i++ {
				strokeSegment(canvas, pts[i], pts[i+1], float64(strokeWidth)/2, r.color)
			}
		}
	}
}

type point struct {
	x, y float64
}

// wobblyLine generates points along start→end, each offset perpendicular to
// the line by a random amount. A sine envelope keeps the endpoints anchored
// so adjacent edges still meet at the corners.
func wobblyLine(rng *rand.Rand, start, end point, wobble float64, step int) []point {
	dx := end.x - start.x
	dy := end.y - start.y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return []point{start, end}
	}

	numPoints := int(length) / step
	if numPoints < 2 {
		numPoints = 2
	}

	perpX := -dy / length
	perpY := dx / length

	points := make([]point, 0, numPoints+1)
	for i := 0; i <= numPoints; i++ {
		t := float64(i) / float64(numPoints)
		x := start.x + t*dx
		y := start.y + t*dy

		if i > 0 && i < numPoints {
			offset := (rng.Float64()*2 - 1) * wobble
			offset *= math.Sin(t*math.Pi)*0.5 + 0.5
			x += perpX * offset
			y += perpY * offset
		}

		points = append(points, point{x, y})
	}
	return points
}

// strokeSegment stamps discs along the segment to approximate a stroked line.
func strokeSegment(canvas *image.RGBA, a, b point, radius float64, c color.RGBA) {
	dx := b.x - a.x
	dy := b.y - a.y
	length := math.Hypot(dx, dy)
	steps := int(length) + 1
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		stampDisc(canvas, a.x+t*dx, a.y+t*dy, radius, c)
	}
}

func stampDisc(canvas *image.RGBA, cx, cy, radius float64, c color.RGBA) {
	if radius < 0.5 {
		radius = 0.5
	}
	minX := int(math.Floor(cx - radius))
	maxX := int(math.Ceil(cx + radius))
	minY := int(math.Floor(cy - radius))
	maxY := int(math.Ceil(cy + radius))

	bounds := canvas.Bounds()
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			if x < bounds.Min.X || x >= bounds.Max.X || y < bounds.Min.Y || y >= bounds.Max.Y {
				continue
			}
			ddx := float64(x) + 0.5 - cx
			ddy := float64(y) + 0.5 - cy
			if ddx*ddx+ddy*ddy <= radius*radius {
				canvas.SetRGBA(x, y, c)
			}
		}
	}
}
