package feed

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"sync/atomic"
	"testing"

	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/pkg/types"
)

func TestDecodeDataURL(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, solid(4, 3, color.White)); err != nil {
		t.Fatal(err)
	}
	b64 := base64.StdEncoding.EncodeToString(buf.Bytes())

	for _, in := range []string{"data:image/png;base64," + b64, b64} {
		img, err := DecodeDataURL(in)
		if err != nil {
			t.Fatalf("DecodeDataURL: %v", err)
		}
		if img.Bounds().Dx() != 4 || img.Bounds().Dy() != 3 {
			t.Fatalf("bounds = %v", img.Bounds())
		}
	}

	for _, bad := range []string{"", "data:image/png,abc", "data:image/png;base64", "data:image/png;base64,!!!"} {
		if _, err := DecodeDataURL(bad); err == nil {
			t.Fatalf("DecodeDataURL(%q) succeeded", bad)
		}
	}
}

func TestRGBASurfaceSnapshotIsCopy(t *testing.T) {
	s := NewRGBASurface(types.DisplayGeometry{Width: 2, Height: 2})
	var presented atomic.Int32
	s.OnPresent(func() { presented.Add(1) })

	s.Paint(func(dst *image.RGBA) { dst.SetRGBA(0, 0, color.RGBA{R: 9, A: 255}) })
	snap, v := s.Snapshot()
	snap.SetRGBA(0, 0, color.RGBA{})

	again, v2 := s.Snapshot()
	if again.RGBAAt(0, 0).R != 9 {
		t.Fatalf("snapshot aliases surface pixels")
	}
	if v != v2 || presented.Load() != 1 {
		t.Fatalf("version %d/%d presented %d", v, v2, presented.Load())
	}
}

func TestCompositeLayersOverlayOverVideo(t *testing.T) {
	video := solid(2, 1, color.RGBA{B: 255, A: 255})
	ov := image.NewRGBA(video.Bounds())
	ov.SetRGBA(1, 0, color.RGBA{R: 255, A: 255})

	out := Composite(video, ov)
	if px := out.RGBAAt(0, 0); px.B != 255 || px.R != 0 {
		t.Fatalf("transparent overlay changed video: %+v", px)
	}
	if px := out.RGBAAt(1, 0); px.R != 255 || px.B != 0 {
		t.Fatalf("overlay not on top: %+v", px)
	}
}
