package builtin

import (
	"cmp"
	"fmt"
	"image"
	"math"
	"slices"

	"github.com/c360/nodeflow/flowdata"
	"github.com/c360/nodeflow/node"
	"github.com/c360/nodeflow/property"
)

// corners detects Shi-Tomasi corners: pixels whose gradient structure tensor
// has a large minimum eigenvalue.
type corners struct {
	node.Base
	maxCorners  int
	quality     float64
	minDistance float64
}

func newCorners() *corners {
	n := &corners{maxCorners: 100, quality: 0.01, minDistance: 10}
	n.AddInput("Source", flowdata.KindImageMono)
	n.AddOutput("Keypoints", flowdata.KindKeypoints)
	n.AddProperty(property.BindInt("Max corners", &n.maxCorners)).WithMin(0)
	n.AddProperty(property.BindFloat("Quality level", &n.quality)).WithRange(0.0001, 1)
	n.AddProperty(property.BindFloat("Min distance", &n.minDistance)).WithMin(0)
	n.SetDescription("Detects strong corners. Max corners 0 keeps every corner.")
	return n
}

func (n *corners) Execute(r node.SocketReader, w node.SocketWriter) node.Status {
	src := r.Read(0)
	if src.IsEmpty() {
		return node.StatusOk()
	}
	img := src.AsImageMono()

	points := detectCorners(img, n.quality, n.minDistance, n.maxCorners)
	w.Acquire(0).SetKeypoints(flowdata.KeypointSet{Points: points, Image: img})
	return node.StatusOk(fmt.Sprintf("%d keypoints", len(points)))
}

func detectCorners(img *image.Gray, quality, minDistance float64, maxCorners int) []flowdata.Keypoint {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < 5 || h < 5 {
		return nil
	}
	at := func(x, y int) float64 {
		return float64(img.Pix[img.PixOffset(b.Min.X+x, b.Min.Y+y)])
	}

	// Sobel gradients products
	ixx := make([]float64, w*h)
	iyy := make([]float64, w*h)
	ixy := make([]float64, w*h)
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			gx := (at(x+1, y-1) + 2*at(x+1, y) + at(x+1, y+1)) - (at(x-1, y-1) + 2*at(x-1, y) + at(x-1, y+1))
			gy := (at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1)) - (at(x-1, y-1) + 2*at(x, y-1) + at(x+1, y-1))
			i := y*w + x
			ixx[i], iyy[i], ixy[i] = gx*gx, gy*gy, gx*gy
		}
	}

	// Minimum eigenvalue over a 3x3 window
	response := make([]float64, w*h)
	best := 0.0
	for y := 2; y < h-2; y++ {
		for x := 2; x < w-2; x++ {
			var a, bb, c float64
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					i := (y+dy)*w + x + dx
					a += ixx[i]
					c += iyy[i]
					bb += ixy[i]
				}
			}
			half := (a - c) / 2
			lambda := (a+c)/2 - math.Sqrt(half*half+bb*bb)
			response[y*w+x] = lambda
			best = max(best, lambda)
		}
	}
	if best <= 0 {
		return nil
	}

	cutoff := best * quality
	var candidates []flowdata.Keypoint
	for y := 2; y < h-2; y++ {
		for x := 2; x < w-2; x++ {
			v := response[y*w+x]
			if v < cutoff || !localMax(response, w, x, y) {
				continue
			}
			candidates = append(candidates, flowdata.Keypoint{
				X: float64(x), Y: float64(y), Size: 3, Angle: -1, Response: v,
			})
		}
	}
	slices.SortStableFunc(candidates, func(p, q flowdata.Keypoint) int {
		return cmp.Compare(q.Response, p.Response)
	})

	var out []flowdata.Keypoint
	minSq := minDistance * minDistance
	for _, c := range candidates {
		if maxCorners > 0 && len(out) >= maxCorners {
			break
		}
		if slices.ContainsFunc(out, func(k flowdata.Keypoint) bool {
			dx, dy := k.X-c.X, k.Y-c.Y
			return dx*dx+dy*dy < minSq
		}) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func localMax(resp []float64, w, x, y int) bool {
	v := resp[y*w+x]
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if (dx != 0 || dy != 0) && resp[(y+dy)*w+x+dx] > v {
				return false
			}
		}
	}
	return true
}

// retainBest keeps the strongest keypoints.
type retainBest struct {
	node.Base
	count int
}

func newRetainBest() *retainBest {
	n := &retainBest{count: 50}
	n.AddInput("Keypoints", flowdata.KindKeypoints)
	n.AddOutput("Output", flowdata.KindKeypoints)
	n.AddProperty(property.BindInt("Count", &n.count)).WithMin(1)
	n.SetDescription("Retains the keypoints with the highest response.")
	return n
}

func (n *retainBest) Execute(r node.SocketReader, w node.SocketWriter) node.Status {
	src := r.Read(0)
	if src.IsEmpty() {
		return node.StatusOk()
	}
	set := src.AsKeypoints()

	points := slices.Clone(set.Points)
	slices.SortStableFunc(points, func(p, q flowdata.Keypoint) int {
		return cmp.Compare(q.Response, p.Response)
	})
	if len(points) > n.count {
		points = points[:n.count]
	}
	w.Acquire(0).SetKeypoints(flowdata.KeypointSet{Points: points, Image: set.Image})
	return node.StatusOk(fmt.Sprintf("%d of %d keypoints", len(points), len(set.Points)))
}
