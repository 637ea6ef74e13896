package detection

import (
	"image"
	"reflect"
	"testing"
)

// bitmap builds a foreground slice from rows of '#' and '.'
func bitmap(rows ...string) ([]bool, int, int) {
	h := len(rows)
	w := len(rows[0])
	fg := make([]bool, w*h)
	for y, row := range rows {
		for x, ch := range row {
			fg[y*w+x] = ch == '#'
		}
	}
	return fg, w, h
}

func TestFindContours_Trace(t *testing.T) {
	tests := []struct {
		name     string
		rows     []string
		wantPts  []image.Point
		wantArea float64
	}{
		{
			name:     "single pixel",
			rows:     []string{"...", ".#.", "..."},
			wantPts:  []image.Point{{X: 1, Y: 1}},
			wantArea: 0,
		},
		{
			name:     "2x2 block",
			rows:     []string{"....", ".##.", ".##.", "...."},
			wantPts:  []image.Point{{X: 1, Y: 1}, {X: 2, Y: 1}, {X: 2, Y: 2}, {X: 1, Y: 2}},
			wantArea: 1,
		},
		{
			name:     "horizontal line",
			rows:     []string{".....", ".###.", "....."},
			wantPts:  []image.Point{{X: 1, Y: 1}, {X: 2, Y: 1}, {X: 3, Y: 1}, {X: 2, Y: 1}},
			wantArea: 0,
		},
		{
			name:     "diagonal pair",
			rows:     []string{"#.", ".#"},
			wantPts:  []image.Point{{X: 0, Y: 0}, {X: 1, Y: 1}},
			wantArea: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fg, w, h := bitmap(tt.rows...)
			contours, _ := findContours(fg, w, h)
			if len(contours) != 1 {
				t.Fatalf("got %d contours, want 1", len(contours))
			}
			if !reflect.DeepEqual(contours[0].Points, tt.wantPts) {
				t.Errorf("points = %v, want %v", contours[0].Points, tt.wantPts)
			}
			if contours[0].Area != tt.wantArea {
				t.Errorf("area = %v, want %v", contours[0].Area, tt.wantArea)
			}
		})
	}
}

func TestFindContours_ConcaveShape(t *testing.T) {
	fg, w, h := bitmap(
		"#####",
		"#...#",
		"#.###",
		"#.#..",
		"###..",
	)
	contours, comp := findContours(fg, w, h)
	if len(contours) != 1 {
		t.Fatalf("got %d contours, want 1", len(contours))
	}
	if contours[0].Area <= 0 {
		t.Errorf("area = %v, want positive", contours[0].Area)
	}

	mask := fillRegion(comp, contours[0].label)
	// The interior is enclosed and gets filled; the notch at the lower right
	// is open to the border and stays empty.
	if mask.GrayAt(1, 1).Y != 255 || mask.GrayAt(1, 3).Y != 255 {
		t.Error("expected enclosed pixels to be filled")
	}
	if mask.GrayAt(4, 4).Y != 0 || mask.GrayAt(3, 3).Y != 0 {
		t.Error("expected the open notch to stay empty")
	}
}

func TestFindContours_Separate(t *testing.T) {
	fg, w, h := bitmap(
		"##....",
		"##....",
		"......",
		"...###",
		"...###",
		"...###",
	)
	contours, _ := findContours(fg, w, h)
	if len(contours) != 2 {
		t.Fatalf("got %d contours, want 2", len(contours))
	}
	if contours[0].Area != 1 || contours[1].Area != 4 {
		t.Errorf("areas = %v, %v; want 1, 4", contours[0].Area, contours[1].Area)
	}
	if best := largestContour(contours); best != 1 {
		t.Errorf("largest = %d, want 1", best)
	}
}

func TestLargestContour(t *testing.T) {
	tests := []struct {
		name  string
		areas []float64
		want  int
	}{
		{"empty", nil, -1},
		{"all zero", []float64{0, 0}, -1},
		{"single", []float64{3}, 0},
		{"tie keeps first", []float64{2, 5, 5}, 1},
		{"last biggest", []float64{1, 2, 9}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			contours := make([]Contour, len(tt.areas))
			for i, a := range tt.areas {
				contours[i].Area = a
			}
			if got := largestContour(contours); got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPolygonArea(t *testing.T) {
	square := []image.Point{{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 4, Y: 4}, {X: 0, Y: 4}}
	if got := polygonArea(square); got != 16 {
		t.Errorf("square area = %v, want 16", got)
	}

	reversed := []image.Point{{X: 0, Y: 4}, {X: 4, Y: 4}, {X: 4, Y: 0}, {X: 0, Y: 0}}
	if got := polygonArea(reversed); got != 16 {
		t.Errorf("reversed square area = %v, want 16", got)
	}

	triangle := []image.Point{{X: 0, Y: 0}, {X: 3, Y: 0}, {X: 0, Y: 3}}
	if got := polygonArea(triangle); got != 4.5 {
		t.Errorf("triangle area = %v, want 4.5", got)
	}
}
