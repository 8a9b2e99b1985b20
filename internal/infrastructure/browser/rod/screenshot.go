package rod

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"

	"browser-harness/internal/domain/entity"

	"github.com/disintegration/imaging"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"
)

const maxScreenshotWidth = 1024

func (b *BrowserAdapter) Screenshot(ctx context.Context) (*entity.Screenshot, error) {
	p := b.page.Context(ctx)
	raw, err := p.Screenshot(false, &proto.PageCaptureScreenshot{
		Format:  proto.PageCaptureScreenshotFormatJpeg,
		Quality: gson.Int(80),
	})
	if err != nil {
		return nil, sessionErr(fmt.Errorf("screenshot failed: %w", err))
	}

	shot, err := shrinkScreenshot(raw)
	if err != nil {
		return nil, err
	}

	res, err := p.Eval(`() => window.innerWidth`)
	if err != nil {
		return nil, sessionErr(fmt.Errorf("viewport width: %w", err))
	}
	if w := res.Value.Num(); w > 0 && shot.Width > 0 {
		shot.Scale = w / float64(shot.Width)
	}
	return shot, nil
}

// shrinkScreenshot re-encodes an image as JPEG no wider than maxScreenshotWidth.
func shrinkScreenshot(raw []byte) (*entity.Screenshot, error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("image decode failed: %w", err)
	}

	if img.Bounds().Dx() > maxScreenshotWidth {
		img = imaging.Resize(img, maxScreenshotWidth, 0, imaging.Lanczos)
	}

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: 75}); err != nil {
		return nil, fmt.Errorf("jpeg encode failed: %w", err)
	}

	return &entity.Screenshot{
		Data:   buf.Bytes(),
		Format: "jpeg",
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
		Scale:  1,
	}, nil
}
