package frame

import (
	"image"

	"golang.org/x/image/draw"

	"clipfeed/internal/tensor"
)

var (
	imagenetMean = [3]float32{0.485, 0.456, 0.406}
	imagenetStd  = [3]float32{0.229, 0.224, 0.225}
)

// convert turns a packed RGB24 frame into a normalized [3, size, size]
// tensor: bilinear resize, scale to [0, 1], then per-channel ImageNet
// standardization.
func convert(raw []byte, width, height, size int) tensor.Tensor {
	src := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		srcRow := raw[y*width*3 : (y+1)*width*3]
		dstRow := src.Pix[y*src.Stride : y*src.Stride+width*4]
		for x := 0; x < width; x++ {
			dstRow[x*4+0] = srcRow[x*3+0]
			dstRow[x*4+1] = srcRow[x*3+1]
			dstRow[x*4+2] = srcRow[x*3+2]
			dstRow[x*4+3] = 0xff
		}
	}

	scaled := src
	if width != size || height != size {
		scaled = image.NewRGBA(image.Rect(0, 0, size, size))
		draw.BiLinear.Scale(scaled, scaled.Bounds(), src, src.Bounds(), draw.Src, nil)
	}

	out := tensor.New(3, size, size)
	data := out.Data()
	plane := size * size
	for y := 0; y < size; y++ {
		row := scaled.Pix[y*scaled.Stride : y*scaled.Stride+size*4]
		for x := 0; x < size; x++ {
			offset := y*size + x
			for c := 0; c < 3; c++ {
				value := float32(row[x*4+c]) / 255
				data[c*plane+offset] = (value - imagenetMean[c]) / imagenetStd[c]
			}
		}
	}
	return out
}
