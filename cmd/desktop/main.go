package main

import (
	"fmt"
	"image"
	"image/color"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	xdraw "golang.org/x/image/draw"

	"matrixscript/pkg/compiler"
	"matrixscript/pkg/grid"
	"matrixscript/pkg/jit"
)

const windowSize = 512

// Game displays a single pre-rendered heatmap; there is nothing to update.
type Game struct {
	img *ebiten.Image
}

func (g *Game) Update() error { return nil }

func (g *Game) Draw(screen *ebiten.Image) {
	screen.DrawImage(g.img, nil)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return windowSize, windowSize
}

// heatColor maps a normalised value in [0,1] onto a cold-to-hot ramp.
func heatColor(t float64) color.RGBA {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	return color.RGBA{
		R: uint8(255 * t),
		G: uint8(64 * t),
		B: uint8(255 * (1 - t)),
		A: 255,
	}
}

// renderHeatmap paints one pixel per matrix cell, then scales the tiny image
// up to the window with nearest-neighbour sampling so cells stay crisp.
func renderHeatmap(m *jit.Matrix) *image.RGBA {
	lo, hi := m.Data[0], m.Data[0]
	for _, v := range m.Data {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	cells := image.NewRGBA(image.Rect(0, 0, m.Cols, m.Rows))
	for idx, v := range m.Data {
		t := 0.5
		if hi > lo {
			t = (v - lo) / (hi - lo)
		}
		row, col := grid.Coords(idx, m.Cols)
		cells.SetRGBA(col, row, heatColor(t))
	}

	scaled := image.NewRGBA(image.Rect(0, 0, windowSize, windowSize))
	xdraw.NearestNeighbor.Scale(scaled, scaled.Bounds(), cells, cells.Bounds(), xdraw.Src, nil)
	return scaled
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: desktop <file.ms>")
		os.Exit(2)
	}

	sourceBytes, err := os.ReadFile(os.Args[1])
	if err != nil {
		log.Fatalf("Failed to read source file: %v", err)
	}

	mod, err := compiler.Compile(string(sourceBytes))
	if err != nil {
		log.Fatalf("Compilation failed: %v", err)
	}
	engine, err := jit.NewEngine(mod)
	if err != nil {
		log.Fatalf("Engine setup failed: %v", err)
	}
	result, err := engine.Run("main")
	if err != nil {
		log.Fatalf("Execution failed: %v", err)
	}

	if result.Kind != jit.MatrixResult {
		fmt.Printf("Result: %g\n", result.Scalar)
		return
	}

	ebiten.SetWindowSize(windowSize, windowSize)
	ebiten.SetWindowTitle(fmt.Sprintf("MatrixScript %dx%d", result.Matrix.Rows, result.Matrix.Cols))

	game := &Game{img: ebiten.NewImageFromImage(renderHeatmap(result.Matrix))}
	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
