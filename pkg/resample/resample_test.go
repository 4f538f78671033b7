/*****************************************************************************************************************/

package resample

/*****************************************************************************************************************/

import "testing"

/*****************************************************************************************************************/

func TestParseRotationDeltaAcceptsAllSevenValues(t *testing.T) {
	cases := map[int]Rotation{
		0: Rotation0, 90: Rotation90, -270: Rotation90,
		180: Rotation180, -180: Rotation180,
		-90: Rotation270, 270: Rotation270,
	}

	for delta, want := range cases {
		got, err := ParseRotationDelta(delta)
		if err != nil {
			t.Fatalf("delta %d: unexpected error: %v", delta, err)
		}
		if got != want {
			t.Fatalf("delta %d: expected %v, got %v", delta, want, got)
		}
	}
}

/*****************************************************************************************************************/

func TestParseRotationDeltaRejectsIllegalValue(t *testing.T) {
	if _, err := ParseRotationDelta(45); err == nil {
		t.Fatalf("expected an error for an unsupported rotation_delta")
	}
}

/*****************************************************************************************************************/

func TestRemapIdentity(t *testing.T) {
	p := Remap(Rotation0, 100, 50, Point{X: 12, Y: 34})
	if p.X != 12 || p.Y != 34 {
		t.Fatalf("expected identity remap, got %+v", p)
	}
}

/*****************************************************************************************************************/

func TestRemap180(t *testing.T) {
	// width=101, height=51 => w=100, h=50
	p := Remap(Rotation180, 101, 51, Point{X: 10, Y: 5})
	if p.X != 90 || p.Y != 45 {
		t.Fatalf("expected (90, 45), got %+v", p)
	}
}

/*****************************************************************************************************************/

func TestRemap90And270(t *testing.T) {
	// width=101, height=51 => w=100, h=50
	p270 := Remap(Rotation270, 101, 51, Point{X: 10, Y: 5})
	if p270.X != 95 || p270.Y != 10 {
		t.Fatalf("expected (95, 10) for -90/+270, got %+v", p270)
	}

	p90 := Remap(Rotation90, 101, 51, Point{X: 10, Y: 5})
	if p90.X != 5 || p90.Y != 40 {
		t.Fatalf("expected (5, 40) for +90/-270, got %+v", p90)
	}
}

/*****************************************************************************************************************/

func TestRotationSwapped(t *testing.T) {
	if Rotation0.Swapped() || Rotation180.Swapped() {
		t.Fatalf("0 and 180 must not report swapped dimensions")
	}
	if !Rotation90.Swapped() || !Rotation270.Swapped() {
		t.Fatalf("90 and 270 must report swapped dimensions")
	}
}

/*****************************************************************************************************************/

func TestBilinearAtIntegerGridPointsReturnsExactValue(t *testing.T) {
	source := [][]int16{
		{0, 10},
		{20, 30},
	}

	out, err := Bilinear(source, []Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []int16{0, 10, 20, 30}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("sample %d: expected %d, got %d", i, want[i], out[i])
		}
	}
}

/*****************************************************************************************************************/

func TestBilinearAtCenterAveragesFourCorners(t *testing.T) {
	source := [][]int16{
		{0, 0},
		{100, 100},
	}

	out, err := Bilinear(source, []Point{{X: 0.5, Y: 0.5}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out[0] != 50 {
		t.Fatalf("expected average of 50, got %d", out[0])
	}
}

/*****************************************************************************************************************/

func TestBilinearRejectsOutOfRectanglePoint(t *testing.T) {
	source := [][]int16{{0, 10}, {20, 30}}

	if _, err := Bilinear(source, []Point{{X: 5, Y: 0}}); err == nil {
		t.Fatalf("expected an error for an out-of-rectangle sample point")
	}
}

/*****************************************************************************************************************/

func TestRemapAllMutatesInPlace(t *testing.T) {
	points := []Point{{X: 0, Y: 0}, {X: 1, Y: 1}}
	out := RemapAll(Rotation180, 3, 3, points)

	if out[0].X != 2 || out[0].Y != 2 {
		t.Fatalf("expected (2, 2), got %+v", out[0])
	}
}
