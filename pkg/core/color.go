package core

// WavelengthPacket identifies the spectral sample a path carries.
// RGB transport uses the zero packet for every path.
type WavelengthPacket struct {
	Index int
}

// ColorModel picks the wavelengths a path is traced with and the color weight
// that maps its scalar or spectral result back to display color.
type ColorModel interface {
	Sample(s Sampler) (Vec3, WavelengthPacket)
}

// RGBColorModel transports full RGB triples, so every path has unit weight
type RGBColorModel struct{}

// Sample returns white and the zero packet without consuming draws
func (RGBColorModel) Sample(Sampler) (Vec3, WavelengthPacket) {
	return NewVec3(1, 1, 1), WavelengthPacket{}
}
