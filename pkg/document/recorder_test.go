package document

import (
	"slices"
	"strings"
	"testing"

	"github.com/matzehuels/fabricpdf/pkg/geom"
)

func TestRecorder(t *testing.T) {
	r := NewRecorder()
	if r.PageSize() != LetterSize {
		t.Errorf("PageSize() = %v, want %v", r.PageSize(), LetterSize)
	}

	white := geom.Color{R: 255, G: 255, B: 255, A: 1}
	pts := []geom.Point{{X: 0, Y: 10}, {X: 5, Y: 0}, {X: 10, Y: 10}}

	_ = r.FillPage(white)
	_ = r.FillCircle(geom.Point{X: 20, Y: 20}, 20, geom.Black)
	_ = r.FillRect(geom.Rect{X: 1, Y: 2, W: 3, H: 4}, geom.Black)
	_ = r.FillPath(pts, geom.Black)
	_ = r.Text(geom.Point{X: 5, Y: 6}, "hi", TextStyle{Size: 12, Color: geom.Black, Align: AlignLeft})
	_ = r.Image(geom.Rect{W: 10, H: 10}, []byte{1, 2, 3})
	if err := r.Finalize(); err != nil {
		t.Fatal(err)
	}

	want := []Op{OpFillPage, OpFillCircle, OpFillRect, OpFillPath, OpText, OpImage, OpFinalize}
	if got := r.Ops(); !slices.Equal(got, want) {
		t.Errorf("Ops() = %v, want %v", got, want)
	}

	cmds := r.Commands()
	if cmds[1].Radius != 20 || cmds[1].Point != (geom.Point{X: 20, Y: 20}) {
		t.Errorf("circle command = %+v", cmds[1])
	}
	if cmds[5].Bytes != 3 {
		t.Errorf("image bytes = %d, want 3", cmds[5].Bytes)
	}

	// The recorder keeps its own copy of path points.
	pts[0].X = 99
	if r.Commands()[3].Points[0].X != 0 {
		t.Error("FillPath points alias the caller's slice")
	}

	if !r.Finalized() {
		t.Error("Finalized() = false after Finalize")
	}
	if err := r.FillRect(geom.Rect{}, geom.Black); err != ErrFinalized {
		t.Errorf("FillRect() after Finalize = %v, want ErrFinalized", err)
	}
	if err := r.Finalize(); err != ErrFinalized {
		t.Errorf("second Finalize() = %v, want ErrFinalized", err)
	}
}

func TestCommand_Args(t *testing.T) {
	tests := []struct {
		cmd  Command
		want string
	}{
		{Command{Op: OpFillPage, Color: geom.Black}, "#000000"},
		{Command{Op: OpFillCircle, Point: geom.Point{X: 20, Y: 30}, Radius: 20, Color: geom.Black}, "center=(20,30) r=20"},
		{Command{Op: OpFillRect, Rect: geom.Rect{X: 1, Y: 2, W: 3, H: 4}}, "x=1 y=2 w=3 h=4"},
		{Command{Op: OpFillPath, Points: []geom.Point{{X: 0, Y: 1}, {X: 2, Y: 3}}}, "(0,1) (2,3)"},
		{Command{Op: OpText, Text: "hi", Style: TextStyle{Size: 12, Align: AlignRight}}, `size=12 align=right`},
		{Command{Op: OpImage, Bytes: 42}, "42 bytes"},
		{Command{Op: OpFinalize}, ""},
	}
	for _, tt := range tests {
		t.Run(string(tt.cmd.Op), func(t *testing.T) {
			got := tt.cmd.Args()
			if !strings.Contains(got, tt.want) {
				t.Errorf("Args() = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}
