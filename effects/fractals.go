package effects

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/richinsley/goartstudio/graphics"
)

func init() {
	registerKernel("Mandelbrot", mandelbrot)
	registerKernel("Julia", julia)
	registerKernel("Burning Ship", burningShip)
}

// iqPalette is a + b*cos(2π(c*t + d + shift)) with a = b = 0.5 and c = 1.
func iqPalette(t float32, d mgl32.Vec3, shift float32) mgl32.Vec3 {
	const tau = 6.28318
	return mgl32.Vec3{
		0.5 + 0.5*math32.Cos(tau*(t+d[0]+shift)),
		0.5 + 0.5*math32.Cos(tau*(t+d[1]+shift)),
		0.5 + 0.5*math32.Cos(tau*(t+d[2]+shift)),
	}
}

// escape iterates z = z² + c and returns the iteration count and final z.
func escape(z, c mgl32.Vec2, maxIter int, burning bool) (float32, mgl32.Vec2) {
	iter := float32(0)
	for i := 0; i < maxIter; i++ {
		if burning {
			z = abs2(z)
		}
		z = mgl32.Vec2{z[0]*z[0] - z[1]*z[1], 2 * z[0] * z[1]}.Add(c)
		if z.Len() > 4 {
			break
		}
		iter++
	}
	return iter, z
}

// smoothIter is the continuous escape count.
func smoothIter(iter float32, z mgl32.Vec2) float32 {
	ln2 := math32.Log(2)
	fraction := math32.Log(math32.Log(z.Len())/ln2) / ln2
	return iter + 1 - fraction
}

func mandelbrot(f *graphics.Fragment) mgl32.Vec4 {
	const maxIter = 128
	uv := viewCoord(f)

	autoZoom := f.Zoom * (1.5 + math32.Sin(f.Time*0.2)*0.5)
	c := rotate(uv, f.Time*0.1).Mul(autoZoom).Add(f.Offset)
	c = c.Add(mgl32.Vec2{-0.745, 0.186})

	iter, z := escape(mgl32.Vec2{}, c, maxIter, false)
	if iter == maxIter {
		return mgl32.Vec4{0, 0, 0, 1}
	}
	return opaque(iqPalette(smoothIter(iter, z)/32, mgl32.Vec3{0.263, 0.416, 0.557}, f.Time*0.1))
}

func julia(f *graphics.Fragment) mgl32.Vec4 {
	const maxIter = 150
	uv := viewCoord(f)

	autoZoom := f.Zoom * (1 + 0.2*math32.Sin(f.Time*0.3))
	z := uv.Mul(autoZoom).Add(f.Offset)
	c := mgl32.Vec2{0.355 + 0.1*math32.Sin(f.Time*0.1), 0.355 + 0.1*math32.Cos(f.Time*0.15)}

	iter, z := escape(z, c, maxIter, false)
	if iter == maxIter {
		return mgl32.Vec4{0, 0, 0, 1}
	}
	return opaque(iqPalette(smoothIter(iter, z)/64, mgl32.Vec3{0.3, 0.2, 0.2}, f.Time*0.05))
}

func burningShip(f *graphics.Fragment) mgl32.Vec4 {
	const maxIter = 100
	c := viewPoint(f).Add(mgl32.Vec2{-1.75, -0.03})

	iter, _ := escape(mgl32.Vec2{}, c, maxIter, true)
	v := iter / maxIter
	return mgl32.Vec4{v * v, v, math32.Sqrt(v), 1}
}
