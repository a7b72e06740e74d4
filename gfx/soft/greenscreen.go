package soft

import "image/color"

// GreenscreenEffectName is the file name of the compositing effect.
const GreenscreenEffectName = "virtual-greenscreen.effect"

// GreenscreenProgram implements the compositing effect. InputA is the color
// buffer and InputB the mask, read from its red channel. DrawAlphaThreshold
// keeps pixels whose mask is at or above Threshold, fades out over
// ThresholdRange below it and drops the rest.
func GreenscreenProgram() Program {
	return Program{
		Params: map[string]ParamKind{
			"InputA":         ParamTexture,
			"InputB":         ParamTexture,
			"Threshold":      ParamFloat,
			"ThresholdRange": ParamFloat,
		},
		Techniques: map[string]Shader{
			"Draw":               drawColor,
			"DrawAlphaThreshold": drawAlphaThreshold,
		},
	}
}

func drawColor(p *Params, u, v float32) color.RGBA {
	c := p.Sample("InputA", u, v)
	return color.RGBA{unorm(c[0]), unorm(c[1]), unorm(c[2]), unorm(c[3])}
}

func drawAlphaThreshold(p *Params, u, v float32) color.RGBA {
	c := p.Sample("InputA", u, v)
	mask := p.Sample("InputB", u, v)[0]
	a := smoothstep(p.Float("Threshold")-p.Float("ThresholdRange"), p.Float("Threshold"), mask)
	return color.RGBA{unorm(c[0] * a), unorm(c[1] * a), unorm(c[2] * a), unorm(c[3] * a)}
}

func smoothstep(edge0, edge1, x float32) float32 {
	if edge1 <= edge0 {
		if x >= edge1 {
			return 1
		}
		return 0
	}
	t := (x - edge0) / (edge1 - edge0)
	switch {
	case t <= 0:
		return 0
	case t >= 1:
		return 1
	}
	return t * t * (3 - 2*t)
}
